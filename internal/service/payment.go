package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/tiendafresca/backend/internal/apperr"
	"github.com/tiendafresca/backend/internal/client/mercadopago"
	"github.com/tiendafresca/backend/internal/dto"
	"github.com/tiendafresca/backend/internal/model"
	"github.com/tiendafresca/backend/internal/repository"
)

// allowed source states per admin-triggered operation
var (
	captureAllowed = map[model.PaymentState]bool{
		model.PaymentAuthorized: true,
	}
	cancelAllowed = map[model.PaymentState]bool{
		model.PaymentPending:    true,
		model.PaymentProcessing: true,
		model.PaymentAuthorized: true,
	}
	refundAllowed = map[model.PaymentState]bool{
		model.PaymentCompleted: true,
	}
)

// refundWindow is the gateway's refund eligibility period.
const refundWindow = 90 * 24 * time.Hour

// PaymentService drives payments through the gateway. Order state is never
// touched here: order transitions belong to the reconciler, fed by the
// gateway's webhooks (which fire for capture and cancel as well).
type PaymentService struct {
	db       *gorm.DB
	gateway  *mercadopago.Client
	payments repository.PaymentRepository
	orders   repository.OrderRepository
	users    repository.UserRepository
	log      *zap.SugaredLogger
	now      func() time.Time
}

func NewPaymentService(
	db *gorm.DB,
	gateway *mercadopago.Client,
	payments repository.PaymentRepository,
	orders repository.OrderRepository,
	users repository.UserRepository,
	log *zap.SugaredLogger,
) *PaymentService {
	return &PaymentService{
		db:       db,
		gateway:  gateway,
		payments: payments,
		orders:   orders,
		users:    users,
		log:      log,
		now:      time.Now,
	}
}

func (s *PaymentService) Create(ctx context.Context, userID uint, req *dto.CreatePaymentRequest) (*model.Payment, error) {
	order, err := s.orders.FindByID(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Newf(apperr.NotFound, "order %d not found", req.OrderID)
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	if order.UserID != userID {
		return nil, apperr.New(apperr.Authorization, "order belongs to another user")
	}
	if order.Status != model.OrderPending {
		return nil, apperr.New(apperr.Conflict, "order is not awaiting payment")
	}

	if _, err := s.payments.FindActiveByOrder(ctx, order.ID); err == nil {
		return nil, apperr.New(apperr.Conflict, "a payment for this order is already in progress")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check active payment: %w", err)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	token := req.Token
	if token == "" {
		if req.Card == nil {
			return nil, apperr.New(apperr.Validation, "either a card token or card data is required")
		}
		cardToken, err := s.gateway.CardTokens.Create(ctx, &mercadopago.CardTokenRequest{
			CardNumber:      req.Card.Number,
			SecurityCode:    req.Card.SecurityCode,
			ExpirationMonth: req.Card.ExpirationMonth,
			ExpirationYear:  req.Card.ExpirationYear,
			CardholderName:  req.Card.HolderName,
		})
		if err != nil {
			return nil, err
		}
		token = cardToken.ID
	}

	installments := req.Installments
	if installments <= 0 {
		installments = 1
	}

	gp, err := s.gateway.Payments.Create(ctx, &mercadopago.PaymentRequest{
		TransactionAmount: order.Total,
		Token:             token,
		Description:       "Pedido " + order.Number,
		Installments:      installments,
		PaymentMethodID:   req.PaymentMethodID,
		ExternalReference: order.Number,
		Payer: mercadopago.Payer{
			Email:     user.Email,
			FirstName: user.FirstNames,
			LastName:  user.LastNames,
		},
	})
	if err != nil {
		// the order stays PENDING; a webhook or retry settles it later
		return nil, err
	}

	state, ok := model.GatewayStatusMap[gp.Status]
	if !ok {
		s.log.Warnw("unmapped gateway status on create", "status", gp.Status, "gateway_id", gp.ID)
		state = model.PaymentProcessing
	}

	payment := &model.Payment{
		OrderID:      order.ID,
		Amount:       gp.TransactionAmount,
		State:        state,
		GatewayID:    strconv.FormatInt(gp.ID, 10),
		MethodID:     gp.PaymentMethodID,
		LastFour:     gp.Card.LastFourDigits,
		Installments: gp.Installments,
	}
	if state == model.PaymentCompleted {
		paidAt := s.now()
		if gp.DateApproved != nil {
			paidAt = *gp.DateApproved
		}
		payment.PaidAt = &paidAt
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.payments.Create(ctx, tx, payment)
	})
	if err != nil {
		return nil, fmt.Errorf("store payment: %w", err)
	}

	if gp.Status == "rejected" {
		s.log.Infow("payment rejected by gateway",
			"payment_id", payment.ID,
			"gateway_id", payment.GatewayID,
			"status_detail", gp.StatusDetail,
		)
		return nil, mercadopago.RejectionError(gp.StatusDetail, s.log)
	}

	s.log.Infow("payment created",
		"payment_id", payment.ID,
		"gateway_id", payment.GatewayID,
		"state", payment.State,
	)
	return payment, nil
}

func (s *PaymentService) Get(ctx context.Context, userID uint, isAdmin bool, paymentID uint) (*model.Payment, error) {
	payment, err := s.findPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	order, err := s.orders.FindByID(ctx, payment.OrderID)
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	if order.UserID != userID && !isAdmin {
		return nil, apperr.New(apperr.Authorization, "payment belongs to another user")
	}
	return payment, nil
}

// Capture settles an authorized payment, optionally for a partial amount.
func (s *PaymentService) Capture(ctx context.Context, paymentID uint, amount *decimal.Decimal) (*model.Payment, error) {
	payment, err := s.findPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !captureAllowed[payment.State] {
		return nil, apperr.Newf(apperr.Conflict, "capture is not allowed from state %s", payment.State)
	}

	gatewayID, _ := strconv.ParseInt(payment.GatewayID, 10, 64)
	gp, err := s.gateway.Payments.Capture(ctx, gatewayID, amount)
	if err != nil {
		return nil, err
	}

	paidAt := s.now()
	if gp.DateApproved != nil {
		paidAt = *gp.DateApproved
	}
	return s.transition(ctx, payment, model.PaymentCompleted, &paidAt)
}

// Cancel voids a payment that has not been captured yet.
func (s *PaymentService) Cancel(ctx context.Context, paymentID uint) (*model.Payment, error) {
	payment, err := s.findPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !cancelAllowed[payment.State] {
		return nil, apperr.Newf(apperr.Conflict, "cancel is not allowed from state %s", payment.State)
	}

	gatewayID, _ := strconv.ParseInt(payment.GatewayID, 10, 64)
	if _, err := s.gateway.Payments.Cancel(ctx, gatewayID); err != nil {
		return nil, err
	}

	return s.transition(ctx, payment, model.PaymentCancelled, nil)
}

// Refund refunds a completed payment, totally when amount is nil. The
// gateway only honors refunds inside its eligibility window.
func (s *PaymentService) Refund(ctx context.Context, paymentID uint, amount *decimal.Decimal, reason string) (*model.Payment, error) {
	payment, err := s.findPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !refundAllowed[payment.State] {
		return nil, apperr.Newf(apperr.Conflict, "refund is not allowed from state %s", payment.State)
	}
	if payment.PaidAt != nil && s.now().Sub(*payment.PaidAt) > refundWindow {
		return nil, apperr.New(apperr.Validation, "payment is outside the refund eligibility window")
	}
	if amount != nil {
		if amount.LessThanOrEqual(decimal.Zero) {
			return nil, apperr.New(apperr.Validation, "refund amount must be positive")
		}
		if amount.GreaterThan(payment.Amount) {
			return nil, apperr.New(apperr.Validation, "refund amount exceeds the payment amount")
		}
	}

	gatewayID, _ := strconv.ParseInt(payment.GatewayID, 10, 64)
	if _, err := s.gateway.Refunds.Create(ctx, gatewayID, amount, reason); err != nil {
		return nil, err
	}

	// partial refunds leave the payment COMPLETED
	if amount != nil && amount.LessThan(payment.Amount) {
		return payment, nil
	}
	return s.transition(ctx, payment, model.PaymentRefunded, nil)
}

func (s *PaymentService) ListRefunds(ctx context.Context, paymentID uint) ([]mercadopago.Refund, error) {
	payment, err := s.findPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	gatewayID, _ := strconv.ParseInt(payment.GatewayID, 10, 64)
	return s.gateway.Refunds.List(ctx, gatewayID)
}

func (s *PaymentService) findPayment(ctx context.Context, paymentID uint) (*model.Payment, error) {
	payment, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Newf(apperr.NotFound, "payment %d not found", paymentID)
		}
		return nil, fmt.Errorf("find payment: %w", err)
	}
	return payment, nil
}

func (s *PaymentService) transition(ctx context.Context, payment *model.Payment, to model.PaymentState, paidAt *time.Time) (*model.Payment, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		moved, err := s.payments.UpdateState(ctx, tx, payment.ID, payment.State, to, paidAt)
		if err != nil {
			return fmt.Errorf("update payment state: %w", err)
		}
		if !moved {
			return apperr.Newf(apperr.Conflict, "payment %d changed state concurrently", payment.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	payment.State = to
	if paidAt != nil {
		payment.PaidAt = paidAt
	}
	s.log.Infow("payment state updated",
		"payment_id", payment.ID,
		"gateway_id", payment.GatewayID,
		"state", to,
	)
	return payment, nil
}
