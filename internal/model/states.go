package model

type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderConfirmed OrderStatus = "CONFIRMED"
	OrderCancelled OrderStatus = "CANCELLED"
)

type PaymentState string

const (
	PaymentPending    PaymentState = "PENDING"
	PaymentProcessing PaymentState = "PROCESSING"
	PaymentAuthorized PaymentState = "AUTHORIZED"
	PaymentCompleted  PaymentState = "COMPLETED"
	PaymentCancelled  PaymentState = "CANCELLED"
	PaymentFailed     PaymentState = "FAILED"
	PaymentRefunded   PaymentState = "REFUNDED"
)

type PromotionType string

const (
	PromoPercentage   PromotionType = "percentage"
	PromoFixedAmount  PromotionType = "fixed_amount"
	PromoFreeShipping PromotionType = "free_shipping"
	PromoFreeProduct  PromotionType = "free_product"
)

// GatewayStatusMap translates the gateway's payment status vocabulary into
// internal payment states. Kept as a flat table so the mapping stays
// auditable in one place.
var GatewayStatusMap = map[string]PaymentState{
	"pending":      PaymentProcessing,
	"in_process":   PaymentProcessing,
	"in_mediation": PaymentProcessing,
	"authorized":   PaymentAuthorized,
	"approved":     PaymentCompleted,
	"rejected":     PaymentFailed,
	"cancelled":    PaymentCancelled,
	"refunded":     PaymentRefunded,
	"charged_back": PaymentRefunded,
}

// StatusDetailContingency is the gateway sub-status for a payment held in
// manual review; it must leave the order untouched.
const StatusDetailContingency = "pending_contingency"

// StateRank orders payment states by progress. Webhook updates whose mapped
// state ranks below the stored one are stale re-deliveries and are skipped.
var StateRank = map[PaymentState]int{
	PaymentPending:    0,
	PaymentProcessing: 1,
	PaymentAuthorized: 2,
	PaymentCompleted:  3,
	PaymentFailed:     3,
	PaymentCancelled:  3,
	PaymentRefunded:   4,
}
