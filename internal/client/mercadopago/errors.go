package mercadopago

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/tiendafresca/backend/internal/apperr"
)

// rejectionMessages maps the gateway's rejection status details to fixed
// user-facing messages. The raw detail is logged server-side only.
var rejectionMessages = map[string]string{
	"cc_rejected_insufficient_amount":      "the card does not have sufficient funds",
	"cc_rejected_bad_filled_security_code": "the card security code is invalid",
	"cc_rejected_bad_filled_date":          "the card expiration date is invalid",
	"cc_rejected_bad_filled_card_number":   "the card number is invalid",
	"cc_rejected_card_disabled":            "the card is disabled, contact the issuer",
	"cc_rejected_high_risk":                "the payment was declined",
	"cc_rejected_duplicated_payment":       "a payment for the same amount was already submitted",
}

// RejectionError translates a rejected payment's status detail into a
// GatewayRejection error with a non-leaking message.
func RejectionError(statusDetail string, log *zap.SugaredLogger) *apperr.Error {
	if msg, ok := rejectionMessages[statusDetail]; ok {
		return apperr.New(apperr.GatewayRejection, msg)
	}
	if log != nil {
		log.Warnw("unmapped gateway rejection", "status_detail", statusDetail)
	}
	return apperr.New(apperr.GatewayRejection, "payment processing error")
}

// classify converts a non-2xx gateway response into the internal taxonomy.
func (c *core) classify(statusCode int, raw []byte, method, path string) error {
	var e apiError
	_ = json.Unmarshal(raw, &e)

	if c.log != nil {
		c.log.Warnw("gateway request failed",
			"method", method,
			"path", path,
			"status", statusCode,
			"message", e.Message,
		)
	}

	switch {
	case statusCode == http.StatusNotFound:
		return apperr.New(apperr.NotFound, "gateway resource not found")
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return apperr.New(apperr.GatewayUnavailable, "payment gateway rejected credentials")
	case statusCode >= 500:
		return apperr.New(apperr.GatewayUnavailable, "payment gateway unavailable")
	}

	msg := strings.ToLower(e.Message)
	switch {
	case strings.Contains(msg, "refund") && strings.Contains(msg, "not"):
		return apperr.New(apperr.Conflict, "refund not allowed for the payment's current state")
	case strings.Contains(msg, "state") || strings.Contains(msg, "status"):
		return apperr.New(apperr.Conflict, "operation not allowed for the payment's current state")
	}
	return apperr.New(apperr.GatewayRejection, "payment processing error")
}
