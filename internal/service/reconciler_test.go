package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tiendafresca/backend/internal/apperr"
	"github.com/tiendafresca/backend/internal/client/mercadopago"
	"github.com/tiendafresca/backend/internal/dto"
	"github.com/tiendafresca/backend/internal/model"
	"github.com/tiendafresca/backend/internal/notification"
	"github.com/tiendafresca/backend/internal/repository"
)

type recordingDispatcher struct {
	mu    sync.Mutex
	types []string
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, notificationType string, nctx *notification.Context) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.types = append(d.types, notificationType)
	return true
}

func (d *recordingDispatcher) sent() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.types...)
}

type reconcilerFixture struct {
	db         *gorm.DB
	svc        *ReconcilerService
	gateway    *fakePaymentsAPI
	dispatcher *recordingDispatcher
}

func newReconcilerFixture(t *testing.T) *reconcilerFixture {
	t.Helper()
	db := newTestDB(t)
	gateway := &fakePaymentsAPI{}
	dispatcher := &recordingDispatcher{}
	svc := NewReconcilerService(
		db,
		gateway,
		repository.NewPaymentRepository(db),
		repository.NewOrderRepository(db),
		repository.NewProductRepository(db),
		repository.NewWebhookEventRepository(db),
		repository.NewUserRepository(db),
		dispatcher,
		testLogger(),
	)
	return &reconcilerFixture{db: db, svc: svc, gateway: gateway, dispatcher: dispatcher}
}

func webhookEvent(eventID, dataID string) *dto.WebhookNotification {
	evt := &dto.WebhookNotification{
		ID:     json.Number(eventID),
		Type:   "payment",
		Action: "payment.updated",
	}
	evt.Data.ID = dataID
	return evt
}

func (f *reconcilerFixture) gatewayReturns(gp *mercadopago.Payment) {
	f.gateway.getFn = func(ctx context.Context, id int64) (*mercadopago.Payment, error) {
		return gp, nil
	}
}

func (f *reconcilerFixture) paymentState(t *testing.T, id uint) model.PaymentState {
	t.Helper()
	var payment model.Payment
	require.NoError(t, f.db.First(&payment, id).Error)
	return payment.State
}

func (f *reconcilerFixture) orderStatus(t *testing.T, id uint) model.OrderStatus {
	t.Helper()
	var order model.Order
	require.NoError(t, f.db.First(&order, id).Error)
	return order.Status
}

func (f *reconcilerFixture) eventProcessed(t *testing.T, eventID string) bool {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Model(&model.WebhookEvent{}).Where("event_id = ?", eventID).Count(&count).Error)
	return count > 0
}

func TestReconcilerApprovedEvent(t *testing.T) {
	f := newReconcilerFixture(t)
	user := seedUser(t, f.db)
	order := seedOrder(t, f.db, &model.Order{
		UserID: user.ID,
		Subtotal: dec("30.70"), ShippingAmount: dec("0"), DiscountAmount: dec("0"), Total: dec("30.70"),
	})
	payment := seedPayment(t, f.db, &model.Payment{
		OrderID: order.ID, Amount: dec("30.70"),
		State: model.PaymentProcessing, GatewayID: "12345", Installments: 1,
	})

	approvedAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	f.gatewayReturns(&mercadopago.Payment{
		ID: 12345, Status: "approved", StatusDetail: "accredited",
		TransactionAmount: dec("30.70"), DateApproved: &approvedAt, CurrencyID: "ARS",
	})

	ack := f.svc.ProcessEvent(context.Background(), webhookEvent("9001", "12345"))
	assert.Equal(t, "processed", ack.Status)

	assert.Equal(t, model.PaymentCompleted, f.paymentState(t, payment.ID))
	assert.Equal(t, model.OrderConfirmed, f.orderStatus(t, order.ID))
	assert.True(t, f.eventProcessed(t, "9001"))
	assert.Equal(t, []string{notification.TypePaymentApproved}, f.dispatcher.sent())
}

func TestReconcilerDuplicateEvent(t *testing.T) {
	f := newReconcilerFixture(t)
	user := seedUser(t, f.db)
	order := seedOrder(t, f.db, &model.Order{
		UserID: user.ID,
		Subtotal: dec("10.00"), ShippingAmount: dec("0"), DiscountAmount: dec("0"), Total: dec("10.00"),
	})
	seedPayment(t, f.db, &model.Payment{
		OrderID: order.ID, Amount: dec("10.00"),
		State: model.PaymentProcessing, GatewayID: "222", Installments: 1,
	})
	f.gatewayReturns(&mercadopago.Payment{ID: 222, Status: "approved", TransactionAmount: dec("10.00")})

	first := f.svc.ProcessEvent(context.Background(), webhookEvent("9100", "222"))
	assert.Equal(t, "processed", first.Status)

	second := f.svc.ProcessEvent(context.Background(), webhookEvent("9100", "222"))
	assert.Equal(t, "duplicate", second.Status)
	assert.Len(t, f.dispatcher.sent(), 1)
}

func TestReconcilerReplayConverges(t *testing.T) {
	f := newReconcilerFixture(t)
	user := seedUser(t, f.db)
	order := seedOrder(t, f.db, &model.Order{
		UserID: user.ID,
		Subtotal: dec("10.00"), ShippingAmount: dec("0"), DiscountAmount: dec("0"), Total: dec("10.00"),
	})
	payment := seedPayment(t, f.db, &model.Payment{
		OrderID: order.ID, Amount: dec("10.00"),
		State: model.PaymentProcessing, GatewayID: "333", Installments: 1,
	})
	f.gatewayReturns(&mercadopago.Payment{ID: 333, Status: "approved", TransactionAmount: dec("10.00")})

	// a second event for the same status finds nothing left to do
	first := f.svc.ProcessEvent(context.Background(), webhookEvent("9200", "333"))
	assert.Equal(t, "processed", first.Status)
	replay := f.svc.ProcessEvent(context.Background(), webhookEvent("9201", "333"))
	assert.Equal(t, "stale", replay.Status)

	assert.Equal(t, model.PaymentCompleted, f.paymentState(t, payment.ID))
	assert.Equal(t, model.OrderConfirmed, f.orderStatus(t, order.ID))
}

func TestReconcilerStaleStateSkipped(t *testing.T) {
	f := newReconcilerFixture(t)
	user := seedUser(t, f.db)
	order := seedOrder(t, f.db, &model.Order{
		UserID: user.ID, Status: model.OrderConfirmed,
		Subtotal: dec("10.00"), ShippingAmount: dec("0"), DiscountAmount: dec("0"), Total: dec("10.00"),
	})
	payment := seedPayment(t, f.db, &model.Payment{
		OrderID: order.ID, Amount: dec("10.00"),
		State: model.PaymentCompleted, GatewayID: "444", Installments: 1,
	})
	// late re-delivery of an earlier lifecycle status
	f.gatewayReturns(&mercadopago.Payment{ID: 444, Status: "in_process", TransactionAmount: dec("10.00")})

	ack := f.svc.ProcessEvent(context.Background(), webhookEvent("9300", "444"))
	assert.Equal(t, "stale", ack.Status)
	assert.Equal(t, model.PaymentCompleted, f.paymentState(t, payment.ID))
	assert.Equal(t, model.OrderConfirmed, f.orderStatus(t, order.ID))
	assert.Empty(t, f.dispatcher.sent())
	// the event id is still consumed so re-deliveries short-circuit
	assert.True(t, f.eventProcessed(t, "9300"))
}

func TestReconcilerRejectedCancelsOrderAndRestoresStock(t *testing.T) {
	f := newReconcilerFixture(t)
	user := seedUser(t, f.db)
	product := seedProduct(t, f.db, "Yerba 1kg", "11.50", 8)
	order := seedOrder(t, f.db, &model.Order{
		UserID: user.ID,
		Subtotal: dec("23.00"), ShippingAmount: dec("0"), DiscountAmount: dec("0"), Total: dec("23.00"),
		Lines: []model.OrderLine{
			{ProductID: product.ID, Quantity: 2, UnitPrice: dec("11.50"), Subtotal: dec("23.00")},
		},
	})
	payment := seedPayment(t, f.db, &model.Payment{
		OrderID: order.ID, Amount: dec("23.00"),
		State: model.PaymentProcessing, GatewayID: "555", Installments: 1,
	})
	f.gatewayReturns(&mercadopago.Payment{
		ID: 555, Status: "rejected", StatusDetail: "cc_rejected_high_risk",
		TransactionAmount: dec("23.00"),
	})

	ack := f.svc.ProcessEvent(context.Background(), webhookEvent("9400", "555"))
	assert.Equal(t, "processed", ack.Status)

	assert.Equal(t, model.PaymentFailed, f.paymentState(t, payment.ID))
	assert.Equal(t, model.OrderCancelled, f.orderStatus(t, order.ID))

	var stored model.Product
	require.NoError(t, f.db.First(&stored, product.ID).Error)
	assert.Equal(t, 10, stored.Stock)

	assert.Equal(t, []string{notification.TypePaymentRejected}, f.dispatcher.sent())
}

func TestReconcilerContingencyLeavesOrderPending(t *testing.T) {
	f := newReconcilerFixture(t)
	user := seedUser(t, f.db)
	order := seedOrder(t, f.db, &model.Order{
		UserID: user.ID,
		Subtotal: dec("10.00"), ShippingAmount: dec("0"), DiscountAmount: dec("0"), Total: dec("10.00"),
	})
	payment := seedPayment(t, f.db, &model.Payment{
		OrderID: order.ID, Amount: dec("10.00"),
		State: model.PaymentPending, GatewayID: "666", Installments: 1,
	})
	f.gatewayReturns(&mercadopago.Payment{
		ID: 666, Status: "pending", StatusDetail: model.StatusDetailContingency,
		TransactionAmount: dec("10.00"),
	})

	ack := f.svc.ProcessEvent(context.Background(), webhookEvent("9500", "666"))
	assert.Equal(t, "processed", ack.Status)
	assert.Equal(t, model.PaymentProcessing, f.paymentState(t, payment.ID))
	assert.Equal(t, model.OrderPending, f.orderStatus(t, order.ID))
}

func TestReconcilerOrderPastPendingIsLeftAlone(t *testing.T) {
	f := newReconcilerFixture(t)
	user := seedUser(t, f.db)
	order := seedOrder(t, f.db, &model.Order{
		UserID: user.ID, Status: model.OrderConfirmed,
		Subtotal: dec("10.00"), ShippingAmount: dec("0"), DiscountAmount: dec("0"), Total: dec("10.00"),
	})
	payment := seedPayment(t, f.db, &model.Payment{
		OrderID: order.ID, Amount: dec("10.00"),
		State: model.PaymentCompleted, GatewayID: "777", Installments: 1,
	})
	// chargeback long after confirmation: payment moves, order does not regress
	f.gatewayReturns(&mercadopago.Payment{ID: 777, Status: "charged_back", TransactionAmount: dec("10.00")})

	ack := f.svc.ProcessEvent(context.Background(), webhookEvent("9600", "777"))
	assert.Equal(t, "processed", ack.Status)
	assert.Equal(t, model.PaymentRefunded, f.paymentState(t, payment.ID))
	assert.Equal(t, model.OrderConfirmed, f.orderStatus(t, order.ID))
}

func TestReconcilerUnrecognizedPayment(t *testing.T) {
	f := newReconcilerFixture(t)
	f.gatewayReturns(&mercadopago.Payment{ID: 888, Status: "approved", TransactionAmount: dec("10.00")})

	ack := f.svc.ProcessEvent(context.Background(), webhookEvent("9700", "888"))
	assert.Equal(t, "unrecognized", ack.Status)

	var payments int64
	require.NoError(t, f.db.Model(&model.Payment{}).Count(&payments).Error)
	assert.Zero(t, payments)
	// the event is acknowledged but deliberately not consumed
	assert.False(t, f.eventProcessed(t, "9700"))
}

func TestReconcilerAdoptsPaymentByExternalReference(t *testing.T) {
	f := newReconcilerFixture(t)
	user := seedUser(t, f.db)
	order := seedOrder(t, f.db, &model.Order{
		Number: "PED-2026-000042", UserID: user.ID,
		Subtotal: dec("30.70"), ShippingAmount: dec("0"), DiscountAmount: dec("0"), Total: dec("30.70"),
	})
	f.gatewayReturns(&mercadopago.Payment{
		ID: 999, Status: "approved", ExternalReference: "PED-2026-000042",
		TransactionAmount: dec("30.70"), PaymentMethodID: "visa",
		Card: mercadopago.Card{LastFourDigits: "3704"},
	})

	ack := f.svc.ProcessEvent(context.Background(), webhookEvent("9800", "999"))
	assert.Equal(t, "processed", ack.Status)

	var adopted model.Payment
	require.NoError(t, f.db.Where("gateway_id = ?", "999").First(&adopted).Error)
	assert.Equal(t, order.ID, adopted.OrderID)
	assert.Equal(t, model.PaymentCompleted, adopted.State)
	assert.Equal(t, model.OrderConfirmed, f.orderStatus(t, order.ID))
}

func TestReconcilerEventFiltering(t *testing.T) {
	f := newReconcilerFixture(t)

	t.Run("non-payment type is ignored", func(t *testing.T) {
		evt := webhookEvent("9900", "1")
		evt.Type = "merchant_order"
		ack := f.svc.ProcessEvent(context.Background(), evt)
		assert.Equal(t, "ignored", ack.Status)
	})

	t.Run("malformed payment id", func(t *testing.T) {
		ack := f.svc.ProcessEvent(context.Background(), webhookEvent("9901", "not-a-number"))
		assert.Equal(t, "error", ack.Status)
	})

	t.Run("gateway fetch failure leaves the event unconsumed", func(t *testing.T) {
		f.gateway.getFn = func(ctx context.Context, id int64) (*mercadopago.Payment, error) {
			return nil, apperr.New(apperr.GatewayUnavailable, "payment gateway unavailable")
		}
		ack := f.svc.ProcessEvent(context.Background(), webhookEvent("9902", "123"))
		assert.Equal(t, "error", ack.Status)
		assert.False(t, f.eventProcessed(t, "9902"))
	})

	t.Run("unmapped gateway status", func(t *testing.T) {
		f.gatewayReturns(&mercadopago.Payment{ID: 123, Status: "weird_status"})
		ack := f.svc.ProcessEvent(context.Background(), webhookEvent("9903", "123"))
		assert.Equal(t, "ignored", ack.Status)
	})
}
