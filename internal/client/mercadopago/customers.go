package mercadopago

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// CustomersAPI covers the gateway's stored customer metadata.
type CustomersAPI interface {
	Create(ctx context.Context, req *CustomerRequest) (*Customer, error)
	Get(ctx context.Context, id string) (*Customer, error)
	Search(ctx context.Context, email string) (*CustomerSearchResult, error)
	Update(ctx context.Context, id string, req *CustomerRequest) (*Customer, error)
}

type customersClient struct {
	core *core
}

func newCustomersClient(core *core) CustomersAPI {
	return &customersClient{core: core}
}

func (c *customersClient) Create(ctx context.Context, req *CustomerRequest) (*Customer, error) {
	var out Customer
	if err := c.core.do(ctx, http.MethodPost, "/v1/customers", nil, req, &out, ""); err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	return &out, nil
}

func (c *customersClient) Get(ctx context.Context, id string) (*Customer, error) {
	var out Customer
	if err := c.core.do(ctx, http.MethodGet, "/v1/customers/"+id, nil, nil, &out, ""); err != nil {
		return nil, fmt.Errorf("get customer %s: %w", id, err)
	}
	return &out, nil
}

func (c *customersClient) Search(ctx context.Context, email string) (*CustomerSearchResult, error) {
	query := url.Values{}
	query.Set("email", email)

	var out CustomerSearchResult
	if err := c.core.do(ctx, http.MethodGet, "/v1/customers/search", query, nil, &out, ""); err != nil {
		return nil, fmt.Errorf("search customers: %w", err)
	}
	return &out, nil
}

func (c *customersClient) Update(ctx context.Context, id string, req *CustomerRequest) (*Customer, error) {
	var out Customer
	if err := c.core.do(ctx, http.MethodPut, "/v1/customers/"+id, nil, req, &out, ""); err != nil {
		return nil, fmt.Errorf("update customer %s: %w", id, err)
	}
	return &out, nil
}
