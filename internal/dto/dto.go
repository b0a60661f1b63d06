package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tiendafresca/backend/internal/model"
)

type OrderItemRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

type CreateOrderRequest struct {
	AddressID      *uint              `json:"address_id"`
	Items          []OrderItemRequest `json:"items"`
	PaymentMethod  string             `json:"payment_method"`
	ShippingMethod string             `json:"shipping_method"`
	PromoCode      string             `json:"promo_code"`
	Notes          string             `json:"notes"`
}

type OrderLineResponse struct {
	ProductID uint            `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type OrderResponse struct {
	ID             uint                `json:"id"`
	Number         string              `json:"number"`
	Status         model.OrderStatus   `json:"status"`
	Subtotal       decimal.Decimal     `json:"subtotal"`
	ShippingAmount decimal.Decimal     `json:"shipping_amount"`
	DiscountAmount decimal.Decimal     `json:"discount_amount"`
	Total          decimal.Decimal     `json:"total"`
	PromoCode      string              `json:"promo_code,omitempty"`
	PaymentMethod  string              `json:"payment_method"`
	ShippingMethod string              `json:"shipping_method"`
	Lines          []OrderLineResponse `json:"lines"`
	CreatedAt      time.Time           `json:"created_at"`
}

func ToOrderResponse(o *model.Order) *OrderResponse {
	resp := &OrderResponse{
		ID:             o.ID,
		Number:         o.Number,
		Status:         o.Status,
		Subtotal:       o.Subtotal,
		ShippingAmount: o.ShippingAmount,
		DiscountAmount: o.DiscountAmount,
		Total:          o.Total,
		PromoCode:      o.PromoCode,
		PaymentMethod:  o.PaymentMethod,
		ShippingMethod: o.ShippingMethod,
		CreatedAt:      o.CreatedAt,
	}
	for _, l := range o.Lines {
		resp.Lines = append(resp.Lines, OrderLineResponse{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Subtotal:  l.Subtotal,
		})
	}
	return resp
}

type CardData struct {
	Number          string `json:"number"`
	SecurityCode    string `json:"security_code"`
	ExpirationMonth int    `json:"expiration_month"`
	ExpirationYear  int    `json:"expiration_year"`
	HolderName      string `json:"holder_name"`
}

type CreatePaymentRequest struct {
	OrderID uint `json:"order_id"`
	// pre-generated gateway token; preferred over raw card data
	Token           string    `json:"token"`
	Card            *CardData `json:"card"`
	Installments    int       `json:"installments"`
	PaymentMethodID string    `json:"payment_method_id"`
}

type PaymentResponse struct {
	ID           uint               `json:"id"`
	OrderID      uint               `json:"order_id"`
	Amount       decimal.Decimal    `json:"amount"`
	State        model.PaymentState `json:"state"`
	GatewayID    string             `json:"gateway_id"`
	MethodID     string             `json:"method_id,omitempty"`
	LastFour     string             `json:"last_four,omitempty"`
	Installments int                `json:"installments"`
	PaidAt       *time.Time         `json:"paid_at,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
}

func ToPaymentResponse(p *model.Payment) *PaymentResponse {
	return &PaymentResponse{
		ID:           p.ID,
		OrderID:      p.OrderID,
		Amount:       p.Amount,
		State:        p.State,
		GatewayID:    p.GatewayID,
		MethodID:     p.MethodID,
		LastFour:     p.LastFour,
		Installments: p.Installments,
		PaidAt:       p.PaidAt,
		CreatedAt:    p.CreatedAt,
	}
}

type CaptureRequest struct {
	Amount *decimal.Decimal `json:"amount"`
}

type RefundRequest struct {
	Amount *decimal.Decimal `json:"amount"`
	Reason string           `json:"reason"`
}

// WebhookNotification is the gateway's event envelope; it carries only the
// payment id, the full resource is fetched back from the gateway.
type WebhookNotification struct {
	ID          json.Number `json:"id"`
	Type        string      `json:"type"`
	Action      string      `json:"action"`
	DateCreated string      `json:"date_created"`
	Data        struct {
		ID string `json:"id"`
	} `json:"data"`
}

// WebhookAck is always returned with HTTP 200 so the gateway never retries
// a poison event forever.
type WebhookAck struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}
