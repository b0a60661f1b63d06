package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/tiendafresca/backend/internal/apperr"
	"github.com/tiendafresca/backend/internal/dto"
	"github.com/tiendafresca/backend/internal/model"
	"github.com/tiendafresca/backend/internal/repository"
)

const (
	ShippingDelivery = "delivery"
	ShippingPickup   = "pickup"
)

// shippingFees is the delivery-fee policy table keyed by shipping method.
var shippingFees = map[string]decimal.Decimal{
	ShippingDelivery: decimal.RequireFromString("10.00"),
	ShippingPickup:   decimal.Zero,
}

// OrderService prices and commits orders against live inventory. All
// validation, numbering, inserts and stock decrements run inside one
// transaction; any failure rolls everything back.
type OrderService struct {
	db        *gorm.DB
	orders    repository.OrderRepository
	products  repository.ProductRepository
	promos    repository.PromotionRepository
	users     repository.UserRepository
	promotion *PromotionService
	log       *zap.SugaredLogger
	now       func() time.Time
}

func NewOrderService(
	db *gorm.DB,
	orders repository.OrderRepository,
	products repository.ProductRepository,
	promos repository.PromotionRepository,
	users repository.UserRepository,
	promotion *PromotionService,
	log *zap.SugaredLogger,
) *OrderService {
	return &OrderService{
		db:        db,
		orders:    orders,
		products:  products,
		promos:    promos,
		users:     users,
		promotion: promotion,
		log:       log,
		now:       time.Now,
	}
}

func (s *OrderService) Create(ctx context.Context, userID uint, req *dto.CreateOrderRequest) (*model.Order, error) {
	if len(req.Items) == 0 {
		return nil, apperr.New(apperr.Validation, "order must contain at least one item")
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, apperr.New(apperr.Validation, "item quantity must be positive")
		}
	}

	shippingFee, ok := shippingFees[req.ShippingMethod]
	if !ok {
		return nil, apperr.Newf(apperr.Validation, "unknown shipping method %q", req.ShippingMethod)
	}

	if req.ShippingMethod == ShippingDelivery {
		if req.AddressID == nil {
			return nil, apperr.New(apperr.Validation, "delivery orders require a shipping address")
		}
		owns, err := s.users.AddressBelongsTo(ctx, *req.AddressID, userID)
		if err != nil {
			return nil, fmt.Errorf("check address: %w", err)
		}
		if !owns {
			return nil, apperr.Newf(apperr.NotFound, "address %d not found", *req.AddressID)
		}
	}

	productIDs := make([]uint, len(req.Items))
	for i, item := range req.Items {
		productIDs[i] = item.ProductID
	}

	var order *model.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products, err := s.products.FindMany(ctx, tx, productIDs)
		if err != nil {
			return fmt.Errorf("fetch products: %w", err)
		}
		byID := make(map[uint]*model.Product, len(products))
		for _, p := range products {
			byID[p.ID] = p
		}

		subtotal := decimal.Zero
		lines := make([]*model.OrderLine, 0, len(req.Items))
		for _, item := range req.Items {
			product, found := byID[item.ProductID]
			if !found {
				return apperr.Newf(apperr.NotFound, "product %d not found", item.ProductID)
			}

			if err := s.products.DecrementStock(ctx, tx, product.ID, item.Quantity); err != nil {
				if errors.Is(err, model.ErrInsufficientStock) {
					return apperr.Newf(apperr.Validation, "insufficient stock for %s", product.Name)
				}
				return fmt.Errorf("decrement stock: %w", err)
			}

			lineSubtotal := product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
			subtotal = subtotal.Add(lineSubtotal)
			lines = append(lines, &model.OrderLine{
				ProductID: product.ID,
				Quantity:  item.Quantity,
				UnitPrice: product.Price,
				Subtotal:  lineSubtotal,
			})
		}

		discount := decimal.Zero
		shipping := shippingFee
		if req.PromoCode != "" {
			promo, err := s.promotion.Validate(ctx, tx, req.PromoCode, subtotal)
			if err != nil {
				return err
			}
			discount = s.promotion.ComputeDiscount(promo, subtotal)
			if promo.Type == model.PromoFreeShipping {
				shipping = decimal.Zero
			}
			if err := s.promos.IncrementUsage(ctx, tx, promo.ID); err != nil {
				if errors.Is(err, model.ErrUsageCapReached) {
					return apperr.Newf(apperr.Validation, "promotion %q reached its usage limit", req.PromoCode)
				}
				return fmt.Errorf("increment promotion usage: %w", err)
			}
		}

		year := s.now().Year()
		seq, err := s.orders.NextNumber(ctx, tx, year)
		if err != nil {
			return fmt.Errorf("next order number: %w", err)
		}

		order = &model.Order{
			Number:         fmt.Sprintf("PED-%d-%06d", year, seq),
			UserID:         userID,
			AddressID:      req.AddressID,
			Subtotal:       subtotal,
			ShippingAmount: shipping,
			DiscountAmount: discount,
			Total:          subtotal.Add(shipping).Sub(discount),
			PromoCode:      req.PromoCode,
			PaymentMethod:  req.PaymentMethod,
			ShippingMethod: req.ShippingMethod,
			Status:         model.OrderPending,
			Notes:          req.Notes,
		}
		if err := s.orders.Create(ctx, tx, order); err != nil {
			return fmt.Errorf("store order: %w", err)
		}

		for _, line := range lines {
			line.OrderID = order.ID
		}
		if err := s.orders.CreateLines(ctx, tx, lines); err != nil {
			return fmt.Errorf("store order lines: %w", err)
		}
		for _, line := range lines {
			order.Lines = append(order.Lines, *line)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("order created",
		"order_id", order.ID,
		"number", order.Number,
		"user_id", userID,
		"total", order.Total.StringFixed(2),
	)
	return order, nil
}

func (s *OrderService) Get(ctx context.Context, userID uint, isAdmin bool, orderID uint) (*model.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Newf(apperr.NotFound, "order %d not found", orderID)
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	if order.UserID != userID && !isAdmin {
		return nil, apperr.New(apperr.Authorization, "order belongs to another user")
	}
	return order, nil
}

func (s *OrderService) ListByUser(ctx context.Context, userID uint) ([]model.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}
