package mercadopago

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RefundsAPI covers total and partial refunds. The gateway only accepts
// refunds for approved payments inside its eligibility window.
type RefundsAPI interface {
	Create(ctx context.Context, paymentID int64, amount *decimal.Decimal, reason string) (*Refund, error)
	CreateTotal(ctx context.Context, paymentID int64, reason string) (*Refund, error)
	List(ctx context.Context, paymentID int64) ([]Refund, error)
}

type refundsClient struct {
	core *core
}

func newRefundsClient(core *core) RefundsAPI {
	return &refundsClient{core: core}
}

func (c *refundsClient) Create(ctx context.Context, paymentID int64, amount *decimal.Decimal, reason string) (*Refund, error) {
	body := map[string]interface{}{}
	if amount != nil {
		body["amount"] = *amount
	}
	if reason != "" {
		body["metadata"] = map[string]string{"reason": reason}
	}
	var out Refund
	path := fmt.Sprintf("/v1/payments/%d/refunds", paymentID)
	if err := c.core.do(ctx, http.MethodPost, path, nil, body, &out, uuid.NewString()); err != nil {
		return nil, fmt.Errorf("create refund for payment %d: %w", paymentID, err)
	}
	return &out, nil
}

func (c *refundsClient) CreateTotal(ctx context.Context, paymentID int64, reason string) (*Refund, error) {
	return c.Create(ctx, paymentID, nil, reason)
}

func (c *refundsClient) List(ctx context.Context, paymentID int64) ([]Refund, error) {
	var out []Refund
	path := fmt.Sprintf("/v1/payments/%d/refunds", paymentID)
	if err := c.core.do(ctx, http.MethodGet, path, nil, nil, &out, ""); err != nil {
		return nil, fmt.Errorf("list refunds for payment %d: %w", paymentID, err)
	}
	return out, nil
}
