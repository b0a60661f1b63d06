package mercadopago

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentsAPI covers the gateway's payment lifecycle operations.
type PaymentsAPI interface {
	Create(ctx context.Context, req *PaymentRequest) (*Payment, error)
	Get(ctx context.Context, id int64) (*Payment, error)
	Search(ctx context.Context, filters url.Values) (*SearchResult, error)
	Cancel(ctx context.Context, id int64) (*Payment, error)
	Capture(ctx context.Context, id int64, amount *decimal.Decimal) (*Payment, error)
}

type paymentsClient struct {
	core *core
}

func newPaymentsClient(core *core) PaymentsAPI {
	return &paymentsClient{core: core}
}

func (c *paymentsClient) Create(ctx context.Context, req *PaymentRequest) (*Payment, error) {
	var out Payment
	// the gateway dedupes retried creates on this key
	key := uuid.NewString()
	if err := c.core.do(ctx, http.MethodPost, "/v1/payments", nil, req, &out, key); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}
	return &out, nil
}

func (c *paymentsClient) Get(ctx context.Context, id int64) (*Payment, error) {
	var out Payment
	if err := c.core.do(ctx, http.MethodGet, fmt.Sprintf("/v1/payments/%d", id), nil, nil, &out, ""); err != nil {
		return nil, fmt.Errorf("get payment %d: %w", id, err)
	}
	return &out, nil
}

func (c *paymentsClient) Search(ctx context.Context, filters url.Values) (*SearchResult, error) {
	var out SearchResult
	if err := c.core.do(ctx, http.MethodGet, "/v1/payments/search", filters, nil, &out, ""); err != nil {
		return nil, fmt.Errorf("search payments: %w", err)
	}
	return &out, nil
}

// Cancel is only accepted by the gateway while the payment is pending,
// in_process or authorized.
func (c *paymentsClient) Cancel(ctx context.Context, id int64) (*Payment, error) {
	body := map[string]string{"status": "cancelled"}
	var out Payment
	if err := c.core.do(ctx, http.MethodPut, fmt.Sprintf("/v1/payments/%d", id), nil, body, &out, ""); err != nil {
		return nil, fmt.Errorf("cancel payment %d: %w", id, err)
	}
	return &out, nil
}

// Capture settles an authorized payment, optionally for a partial amount.
func (c *paymentsClient) Capture(ctx context.Context, id int64, amount *decimal.Decimal) (*Payment, error) {
	body := map[string]interface{}{"capture": true}
	if amount != nil {
		body["transaction_amount"] = *amount
	}
	var out Payment
	if err := c.core.do(ctx, http.MethodPut, fmt.Sprintf("/v1/payments/%d", id), nil, body, &out, ""); err != nil {
		return nil, fmt.Errorf("capture payment %d: %w", id, err)
	}
	return &out, nil
}
