package notification

const (
	TypePaymentPending    = "pago_pendiente"
	TypePaymentAuthorized = "pago_autorizado"
	TypePaymentApproved   = "pago_aprobado"
	TypePaymentRejected   = "pago_rechazado"
	TypePaymentCancelled  = "pago_cancelado"
	TypePaymentRefunded   = "pago_reembolsado"
)

type Template struct {
	Subject  string
	Body     string
	Channels []string
}

var templates = map[string]Template{
	TypePaymentPending: {
		Subject:  "Estamos procesando tu pago - Pedido {{numeroPedido}}",
		Body:     "Hola {{nombres}}, tu pago de {{monto}} {{moneda}} está siendo procesado. Te avisaremos cuando se confirme.",
		Channels: []string{ChannelEmail, ChannelInApp},
	},
	TypePaymentAuthorized: {
		Subject:  "Pago autorizado - Pedido {{numeroPedido}}",
		Body:     "Hola {{nombres}}, autorizamos tu pago de {{monto}} {{moneda}} con la tarjeta terminada en {{ultimosCuatroDigitos}}. El cobro se realizará al confirmar el pedido.",
		Channels: []string{ChannelEmail, ChannelInApp},
	},
	TypePaymentApproved: {
		Subject:  "¡Pago confirmado! - Pedido {{numeroPedido}}",
		Body:     "Hola {{nombres}}, recibimos tu pago de {{monto}} {{moneda}} el {{fechaPago}} con la tarjeta terminada en {{ultimosCuatroDigitos}}. Tu pedido {{numeroPedido}} está confirmado y en preparación.",
		Channels: []string{ChannelEmail, ChannelSMS, ChannelPush, ChannelInApp},
	},
	TypePaymentRejected: {
		Subject:  "No pudimos procesar tu pago - Pedido {{numeroPedido}}",
		Body:     "Hola {{nombres}}, tu pago de {{monto}} {{moneda}} fue rechazado. Por favor intentá nuevamente con otro medio de pago.",
		Channels: []string{ChannelEmail, ChannelPush, ChannelInApp},
	},
	TypePaymentCancelled: {
		Subject:  "Pago cancelado - Pedido {{numeroPedido}}",
		Body:     "Hola {{nombres}}, el pago de {{monto}} {{moneda}} del pedido {{numeroPedido}} fue cancelado.",
		Channels: []string{ChannelEmail, ChannelInApp},
	},
	TypePaymentRefunded: {
		Subject:  "Reembolso procesado - Pedido {{numeroPedido}}",
		Body:     "Hola {{nombres}}, procesamos el reembolso de {{monto}} {{moneda}} del pedido {{numeroPedido}}. Verás el crédito en tu resumen en los próximos días.",
		Channels: []string{ChannelEmail, ChannelSMS, ChannelInApp},
	},
}
