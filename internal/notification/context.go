package notification

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tiendafresca/backend/internal/model"
)

// Usuario identifies the notification recipient. Field names follow the
// established notification contract.
type Usuario struct {
	ID        uint   `json:"id"`
	Nombres   string `json:"nombres"`
	Apellidos string `json:"apellidos"`
	Email     string `json:"email"`
	Celular   string `json:"celular"`
}

// Context is assembled per dispatch from payment, order and user data; it
// is never persisted.
type Context struct {
	PagoID               uint            `json:"pagoId"`
	MercadoPagoID        string          `json:"mercadopagoId"`
	Monto                decimal.Decimal `json:"monto"`
	Moneda               string          `json:"moneda"`
	MetodoPago           string          `json:"metodoPago"`
	UltimosCuatroDigitos string          `json:"ultimosCuatroDigitos"`
	FechaPago            *time.Time      `json:"fechaPago"`
	PedidoID             uint            `json:"pedidoId"`
	NumeroPedido         string          `json:"numeroPedido"`
	Usuario              Usuario         `json:"usuario"`
}

// vars flattens the context into template variables.
func (c *Context) vars() map[string]interface{} {
	fechaPago := ""
	if c.FechaPago != nil {
		fechaPago = c.FechaPago.Format("02/01/2006 15:04")
	}
	return map[string]interface{}{
		"pagoId":               itoa(c.PagoID),
		"mercadopagoId":        c.MercadoPagoID,
		"monto":                c.Monto.StringFixed(2),
		"moneda":               c.Moneda,
		"metodoPago":           c.MetodoPago,
		"ultimosCuatroDigitos": c.UltimosCuatroDigitos,
		"fechaPago":            fechaPago,
		"pedidoId":             itoa(c.PedidoID),
		"numeroPedido":         c.NumeroPedido,
		"nombres":              c.Usuario.Nombres,
		"apellidos":            c.Usuario.Apellidos,
		"email":                c.Usuario.Email,
	}
}

// TypeForState maps internal payment states to notification types. Pure
// data so the mapping can be audited and tested in isolation.
var TypeForState = map[model.PaymentState]string{
	model.PaymentProcessing: TypePaymentPending,
	model.PaymentAuthorized: TypePaymentAuthorized,
	model.PaymentCompleted:  TypePaymentApproved,
	model.PaymentFailed:     TypePaymentRejected,
	model.PaymentCancelled:  TypePaymentCancelled,
	model.PaymentRefunded:   TypePaymentRefunded,
}
