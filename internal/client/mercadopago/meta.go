package mercadopago

import (
	"context"
	"fmt"
	"net/http"
)

// MetaAPI exposes the gateway's static catalogs.
type MetaAPI interface {
	PaymentMethods(ctx context.Context) ([]PaymentMethod, error)
	IdentificationTypes(ctx context.Context) ([]IdentificationType, error)
}

type metaClient struct {
	core *core
}

func newMetaClient(core *core) MetaAPI {
	return &metaClient{core: core}
}

func (c *metaClient) PaymentMethods(ctx context.Context) ([]PaymentMethod, error) {
	var out []PaymentMethod
	if err := c.core.do(ctx, http.MethodGet, "/v1/payment_methods", nil, nil, &out, ""); err != nil {
		return nil, fmt.Errorf("list payment methods: %w", err)
	}
	return out, nil
}

func (c *metaClient) IdentificationTypes(ctx context.Context) ([]IdentificationType, error) {
	var out []IdentificationType
	if err := c.core.do(ctx, http.MethodGet, "/v1/identification_types", nil, nil, &out, ""); err != nil {
		return nil, fmt.Errorf("list identification types: %w", err)
	}
	return out, nil
}
