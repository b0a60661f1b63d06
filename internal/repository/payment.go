package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tiendafresca/backend/internal/model"
)

type PaymentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, payment *model.Payment) error
	FindByID(ctx context.Context, id uint) (*model.Payment, error)
	FindByGatewayID(ctx context.Context, tx *gorm.DB, gatewayID string) (*model.Payment, error)
	// FindActiveByOrder returns the order's payment that is not in a
	// terminal failed state, if any. At most one such payment may exist.
	FindActiveByOrder(ctx context.Context, orderID uint) (*model.Payment, error)
	// UpdateState moves the payment between states with an optimistic
	// check on the source state; it reports false when a concurrent
	// writer got there first.
	UpdateState(ctx context.Context, tx *gorm.DB, id uint, from, to model.PaymentState, paidAt *time.Time) (bool, error)
}

type paymentRepoImpl struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepoImpl{db: db}
}

func (r *paymentRepoImpl) Create(ctx context.Context, tx *gorm.DB, payment *model.Payment) error {
	return tx.WithContext(ctx).Create(payment).Error
}

func (r *paymentRepoImpl) FindByID(ctx context.Context, id uint) (*model.Payment, error) {
	var payment model.Payment
	if err := r.db.WithContext(ctx).First(&payment, id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepoImpl) FindByGatewayID(ctx context.Context, tx *gorm.DB, gatewayID string) (*model.Payment, error) {
	var payment model.Payment
	err := tx.WithContext(ctx).
		Where("gateway_id = ?", gatewayID).
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepoImpl) FindActiveByOrder(ctx context.Context, orderID uint) (*model.Payment, error) {
	var payment model.Payment
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND state NOT IN ?", orderID,
			[]model.PaymentState{model.PaymentFailed, model.PaymentCancelled}).
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepoImpl) UpdateState(ctx context.Context, tx *gorm.DB, id uint, from, to model.PaymentState, paidAt *time.Time) (bool, error) {
	updates := map[string]interface{}{
		"state":      to,
		"updated_at": time.Now(),
	}
	if paidAt != nil {
		updates["paid_at"] = paidAt
	}
	res := tx.WithContext(ctx).Model(&model.Payment{}).
		Where("id = ? AND state = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
