// Package mercadopago wraps the external payment gateway behind narrow
// capability clients composed into a single facade.
package mercadopago

import (
	"go.uber.org/zap"

	"github.com/tiendafresca/backend/internal/config"
)

// Client is the coordinating facade over the capability clients. Consumers
// should depend on the narrow interfaces, not on Client itself.
type Client struct {
	Payments   PaymentsAPI
	Refunds    RefundsAPI
	CardTokens CardTokensAPI
	Customers  CustomersAPI
	Meta       MetaAPI
}

func NewClient(cfg *config.MercadoPago, log *zap.SugaredLogger) *Client {
	core := newCore(cfg.BaseApiURL, cfg.AccessToken, log)
	return &Client{
		Payments:   newPaymentsClient(core),
		Refunds:    newRefundsClient(core),
		CardTokens: newCardTokensClient(core, cfg.PublicKey),
		Customers:  newCustomersClient(core),
		Meta:       newMetaClient(core),
	}
}
