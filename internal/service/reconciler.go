package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/tiendafresca/backend/internal/client/mercadopago"
	"github.com/tiendafresca/backend/internal/dto"
	"github.com/tiendafresca/backend/internal/model"
	"github.com/tiendafresca/backend/internal/notification"
	"github.com/tiendafresca/backend/internal/repository"
)

// ReconcilerService converges local payment/order state with the state the
// gateway reports through webhooks. Delivery is at-least-once and
// unordered; every path here must tolerate replays and stale events.
type ReconcilerService struct {
	db       *gorm.DB
	gateway  mercadopago.PaymentsAPI
	payments repository.PaymentRepository
	orders   repository.OrderRepository
	products repository.ProductRepository
	events   repository.WebhookEventRepository
	users    repository.UserRepository
	notifier notification.Dispatcher
	log      *zap.SugaredLogger
	now      func() time.Time
}

func NewReconcilerService(
	db *gorm.DB,
	gateway mercadopago.PaymentsAPI,
	payments repository.PaymentRepository,
	orders repository.OrderRepository,
	products repository.ProductRepository,
	events repository.WebhookEventRepository,
	users repository.UserRepository,
	notifier notification.Dispatcher,
	log *zap.SugaredLogger,
) *ReconcilerService {
	return &ReconcilerService{
		db:       db,
		gateway:  gateway,
		payments: payments,
		orders:   orders,
		products: products,
		events:   events,
		users:    users,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// ProcessEvent handles one gateway webhook event. It never returns an
// error: failures are logged and acknowledged so the gateway does not
// retry a poison event forever; redelivery of unprocessed events is the
// retry mechanism.
func (s *ReconcilerService) ProcessEvent(ctx context.Context, evt *dto.WebhookNotification) *dto.WebhookAck {
	if evt.Type != "payment" {
		return &dto.WebhookAck{Status: "ignored", Detail: "unsupported event type " + evt.Type}
	}

	eventID := evt.ID.String()
	processed, err := s.events.Exists(ctx, eventID)
	if err != nil {
		s.log.Errorw("webhook dedupe check failed", "event_id", eventID, "error", err)
		return &dto.WebhookAck{Status: "error"}
	}
	if processed {
		s.log.Infow("webhook event already processed", "event_id", eventID)
		return &dto.WebhookAck{Status: "duplicate"}
	}

	gatewayID, err := strconv.ParseInt(evt.Data.ID, 10, 64)
	if err != nil {
		s.log.Warnw("webhook event with malformed payment id", "event_id", eventID, "data_id", evt.Data.ID)
		return &dto.WebhookAck{Status: "error", Detail: "malformed payment id"}
	}

	// the event only carries an id; fetch the full resource
	gp, err := s.gateway.Get(ctx, gatewayID)
	if err != nil {
		s.log.Errorw("fetch gateway payment failed", "event_id", eventID, "gateway_id", gatewayID, "error", err)
		return &dto.WebhookAck{Status: "error"}
	}

	newState, ok := model.GatewayStatusMap[gp.Status]
	if !ok {
		s.log.Warnw("unmapped gateway status", "event_id", eventID, "status", gp.Status)
		return &dto.WebhookAck{Status: "ignored", Detail: "unmapped status " + gp.Status}
	}

	var payment *model.Payment
	var updated bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payment, err = s.locatePayment(ctx, tx, gp)
		if err != nil {
			return err
		}
		if payment == nil {
			// unrecognized id: acknowledge without touching anything so the
			// gateway stops retrying
			return nil
		}

		updated, err = s.applyState(ctx, tx, payment, newState, gp)
		if err != nil {
			return err
		}
		if updated {
			if err := s.applyOrderTransition(ctx, tx, payment, gp.StatusDetail); err != nil {
				return err
			}
		}

		eventType := evt.Type
		if evt.Action != "" {
			eventType = evt.Action
		}
		return s.events.MarkProcessed(ctx, tx, eventID, eventType)
	})
	if err != nil {
		s.log.Errorw("webhook processing failed", "event_id", eventID, "gateway_id", gatewayID, "error", err)
		return &dto.WebhookAck{Status: "error"}
	}

	if payment == nil {
		s.log.Warnw("webhook for unrecognized gateway payment",
			"event_id", eventID,
			"gateway_id", gatewayID,
			"external_reference", gp.ExternalReference,
		)
		return &dto.WebhookAck{Status: "unrecognized"}
	}
	if !updated {
		return &dto.WebhookAck{Status: "stale"}
	}

	// notification outcome never affects the committed state
	s.notify(ctx, payment, gp)

	s.log.Infow("webhook event reconciled",
		"event_id", eventID,
		"payment_id", payment.ID,
		"state", payment.State,
	)
	return &dto.WebhookAck{Status: "processed"}
}

// locatePayment finds the local payment for the gateway resource. A payment
// unknown locally is adopted when its external reference resolves to one of
// our orders (the gateway saw a create we never recorded); otherwise nil is
// returned and the event is acknowledged untouched.
func (s *ReconcilerService) locatePayment(ctx context.Context, tx *gorm.DB, gp *mercadopago.Payment) (*model.Payment, error) {
	gatewayID := strconv.FormatInt(gp.ID, 10)
	payment, err := s.payments.FindByGatewayID(ctx, tx, gatewayID)
	if err == nil {
		return payment, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find payment by gateway id: %w", err)
	}

	if gp.ExternalReference == "" {
		return nil, nil
	}
	order, err := s.orders.FindByNumber(ctx, tx, gp.ExternalReference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolve external reference: %w", err)
	}

	payment = &model.Payment{
		OrderID:      order.ID,
		Amount:       gp.TransactionAmount,
		State:        model.PaymentPending,
		GatewayID:    gatewayID,
		MethodID:     gp.PaymentMethodID,
		LastFour:     gp.Card.LastFourDigits,
		Installments: gp.Installments,
	}
	if err := s.payments.Create(ctx, tx, payment); err != nil {
		return nil, fmt.Errorf("adopt gateway payment: %w", err)
	}
	s.log.Infow("adopted gateway payment from webhook",
		"payment_id", payment.ID,
		"gateway_id", gatewayID,
		"order_id", order.ID,
	)
	return payment, nil
}

// applyState moves the payment to newState unless the event is stale: a
// mapped state ranking below the stored one is a late re-delivery and is
// skipped before any write or notification.
func (s *ReconcilerService) applyState(ctx context.Context, tx *gorm.DB, payment *model.Payment, newState model.PaymentState, gp *mercadopago.Payment) (bool, error) {
	if model.StateRank[newState] < model.StateRank[payment.State] {
		s.log.Warnw("stale webhook state skipped",
			"payment_id", payment.ID,
			"current", payment.State,
			"incoming", newState,
		)
		return false, nil
	}
	if newState == payment.State {
		return false, nil
	}

	var paidAt *time.Time
	if newState == model.PaymentCompleted {
		t := s.now()
		if gp.DateApproved != nil {
			t = *gp.DateApproved
		}
		paidAt = &t
	}

	moved, err := s.payments.UpdateState(ctx, tx, payment.ID, payment.State, newState, paidAt)
	if err != nil {
		return false, fmt.Errorf("update payment state: %w", err)
	}
	if !moved {
		// concurrent delivery won the optimistic check; nothing to do
		s.log.Infow("payment state changed concurrently", "payment_id", payment.ID)
		return false, nil
	}

	payment.State = newState
	if paidAt != nil {
		payment.PaidAt = paidAt
	}
	return true, nil
}

// applyOrderTransition drives the order off the payment's new state. Only
// PENDING orders move; anything further along is left alone and logged,
// which keeps duplicate deliveries from regressing a confirmed order.
func (s *ReconcilerService) applyOrderTransition(ctx context.Context, tx *gorm.DB, payment *model.Payment, statusDetail string) error {
	if statusDetail == model.StatusDetailContingency {
		// payment held in manual review: explicit no-op, order stays PENDING
		s.log.Infow("payment in contingency review, order left pending",
			"payment_id", payment.ID,
			"order_id", payment.OrderID,
		)
		return nil
	}

	var target model.OrderStatus
	switch payment.State {
	case model.PaymentCompleted:
		target = model.OrderConfirmed
	case model.PaymentFailed, model.PaymentCancelled:
		target = model.OrderCancelled
	default:
		return nil
	}

	moved, err := s.orders.UpdateStatus(ctx, tx, payment.OrderID, model.OrderPending, target)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if !moved {
		s.log.Warnw("order is past PENDING, transition skipped",
			"order_id", payment.OrderID,
			"payment_state", payment.State,
			"target", target,
		)
		return nil
	}

	if target == model.OrderCancelled {
		if err := s.restoreStock(ctx, tx, payment.OrderID); err != nil {
			return err
		}
	}

	s.log.Infow("order transitioned",
		"order_id", payment.OrderID,
		"status", target,
	)
	return nil
}

func (s *ReconcilerService) restoreStock(ctx context.Context, tx *gorm.DB, orderID uint) error {
	lines, err := s.orders.GetLines(ctx, tx, orderID)
	if err != nil {
		return fmt.Errorf("get order lines: %w", err)
	}
	for _, line := range lines {
		if err := s.products.RestoreStock(ctx, tx, line.ProductID, line.Quantity); err != nil {
			return fmt.Errorf("restore stock for product %d: %w", line.ProductID, err)
		}
	}
	return nil
}

func (s *ReconcilerService) notify(ctx context.Context, payment *model.Payment, gp *mercadopago.Payment) {
	typ, ok := notification.TypeForState[payment.State]
	if !ok {
		return
	}

	order, err := s.orders.FindByID(ctx, payment.OrderID)
	if err != nil {
		s.log.Errorw("notification context: find order failed", "order_id", payment.OrderID, "error", err)
		return
	}
	user, err := s.users.FindByID(ctx, order.UserID)
	if err != nil {
		s.log.Errorw("notification context: find user failed", "user_id", order.UserID, "error", err)
		return
	}

	currency := gp.CurrencyID
	if currency == "" {
		currency = "ARS"
	}

	s.notifier.Dispatch(ctx, typ, &notification.Context{
		PagoID:               payment.ID,
		MercadoPagoID:        payment.GatewayID,
		Monto:                payment.Amount,
		Moneda:               currency,
		MetodoPago:           payment.MethodID,
		UltimosCuatroDigitos: payment.LastFour,
		FechaPago:            payment.PaidAt,
		PedidoID:             order.ID,
		NumeroPedido:         order.Number,
		Usuario: notification.Usuario{
			ID:        user.ID,
			Nombres:   user.FirstNames,
			Apellidos: user.LastNames,
			Email:     user.Email,
			Celular:   user.Phone,
		},
	})
}
