package mercadopago

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/tiendafresca/backend/internal/apperr"
)

// CardTokensAPI exchanges raw card data for a one-time token. This path
// exists for sandbox use only; production callers must supply a
// pre-generated token collected client-side.
type CardTokensAPI interface {
	Create(ctx context.Context, card *CardTokenRequest) (*CardToken, error)
}

// testCardBINs are the gateway's sandbox test cards. Anything else is
// rejected before a request is made.
var testCardBINs = map[string]string{
	"450995": "visa",
	"503175": "master",
	"528733": "master",
	"371180": "amex",
}

type cardTokensClient struct {
	core      *core
	publicKey string
}

func newCardTokensClient(core *core, publicKey string) CardTokensAPI {
	return &cardTokensClient{core: core, publicKey: publicKey}
}

func (c *cardTokensClient) Create(ctx context.Context, card *CardTokenRequest) (*CardToken, error) {
	if len(card.CardNumber) < 6 {
		return nil, apperr.New(apperr.Validation, "card number is too short")
	}
	bin := card.CardNumber[:6]
	if _, ok := testCardBINs[bin]; !ok {
		return nil, apperr.Newf(apperr.Validation,
			"card BIN %s is not a recognized sandbox test card; production integrations must send a pre-generated token", bin)
	}

	query := url.Values{}
	query.Set("public_key", c.publicKey)

	var out CardToken
	if err := c.core.do(ctx, http.MethodPost, "/v1/card_tokens", query, card, &out, ""); err != nil {
		return nil, fmt.Errorf("create card token: %w", err)
	}
	return &out, nil
}
