package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tiendafresca/backend/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(model.All()...))
	return db
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestOrderNextNumber(t *testing.T) {
	db := newTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		seq, err := repo.NextNumber(ctx, db, 2026)
		require.NoError(t, err)
		assert.Equal(t, want, seq)
	}

	// each year keeps its own sequence
	seq, err := repo.NextNumber(ctx, db, 2027)
	require.NoError(t, err)
	assert.EqualValues(t, 1, seq)

	seq, err = repo.NextNumber(ctx, db, 2026)
	require.NoError(t, err)
	assert.EqualValues(t, 4, seq)
}

func TestOrderUpdateStatus(t *testing.T) {
	db := newTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	order := &model.Order{
		Number: "PED-2026-000001", UserID: 1, Status: model.OrderPending,
		Subtotal: dec("10.00"), ShippingAmount: dec("0"), DiscountAmount: dec("0"), Total: dec("10.00"),
		PaymentMethod: "card", ShippingMethod: "pickup",
	}
	require.NoError(t, db.Create(order).Error)

	moved, err := repo.UpdateStatus(ctx, db, order.ID, model.OrderPending, model.OrderConfirmed)
	require.NoError(t, err)
	assert.True(t, moved)

	// the source status no longer matches
	moved, err = repo.UpdateStatus(ctx, db, order.ID, model.OrderPending, model.OrderCancelled)
	require.NoError(t, err)
	assert.False(t, moved)

	var stored model.Order
	require.NoError(t, db.First(&stored, order.ID).Error)
	assert.Equal(t, model.OrderConfirmed, stored.Status)
}

func TestProductStock(t *testing.T) {
	db := newTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	product := &model.Product{Name: "Yerba", Price: dec("11.50"), Stock: 5}
	require.NoError(t, db.Create(product).Error)

	require.NoError(t, repo.DecrementStock(ctx, db, product.ID, 3))

	err := repo.DecrementStock(ctx, db, product.ID, 3)
	assert.ErrorIs(t, err, model.ErrInsufficientStock)

	var stored model.Product
	require.NoError(t, db.First(&stored, product.ID).Error)
	assert.Equal(t, 2, stored.Stock)

	require.NoError(t, repo.RestoreStock(ctx, db, product.ID, 3))
	require.NoError(t, db.First(&stored, product.ID).Error)
	assert.Equal(t, 5, stored.Stock)
}

func TestPromotionIncrementUsage(t *testing.T) {
	db := newTestDB(t)
	repo := NewPromotionRepository(db)
	ctx := context.Background()

	capped := &model.Promotion{
		Code: "TOPE2", Type: model.PromoFixedAmount, Value: dec("5.00"), MinAmount: dec("0"),
		StartsAt: time.Now().Add(-time.Hour), EndsAt: time.Now().Add(time.Hour),
		UsageCap: 2, Active: true,
	}
	require.NoError(t, db.Create(capped).Error)

	require.NoError(t, repo.IncrementUsage(ctx, db, capped.ID))
	require.NoError(t, repo.IncrementUsage(ctx, db, capped.ID))
	assert.ErrorIs(t, repo.IncrementUsage(ctx, db, capped.ID), model.ErrUsageCapReached)

	uncapped := &model.Promotion{
		Code: "SINTOPE", Type: model.PromoFixedAmount, Value: dec("5.00"), MinAmount: dec("0"),
		StartsAt: time.Now().Add(-time.Hour), EndsAt: time.Now().Add(time.Hour),
		UsageCap: 0, UsageCount: 100, Active: true,
	}
	require.NoError(t, db.Create(uncapped).Error)
	require.NoError(t, repo.IncrementUsage(ctx, db, uncapped.ID))
}

func TestPaymentUpdateState(t *testing.T) {
	db := newTestDB(t)
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	payment := &model.Payment{
		OrderID: 1, Amount: dec("10.00"),
		State: model.PaymentProcessing, GatewayID: "100", Installments: 1,
	}
	require.NoError(t, db.Create(payment).Error)

	paidAt := time.Now()
	moved, err := repo.UpdateState(ctx, db, payment.ID, model.PaymentProcessing, model.PaymentCompleted, &paidAt)
	require.NoError(t, err)
	assert.True(t, moved)

	// optimistic check: the stored state moved on, the old source fails
	moved, err = repo.UpdateState(ctx, db, payment.ID, model.PaymentProcessing, model.PaymentFailed, nil)
	require.NoError(t, err)
	assert.False(t, moved)

	var stored model.Payment
	require.NoError(t, db.First(&stored, payment.ID).Error)
	assert.Equal(t, model.PaymentCompleted, stored.State)
	require.NotNil(t, stored.PaidAt)
}

func TestPaymentFindActiveByOrder(t *testing.T) {
	db := newTestDB(t)
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	// failed and cancelled payments do not block a retry
	require.NoError(t, db.Create(&model.Payment{
		OrderID: 1, Amount: dec("10.00"), State: model.PaymentFailed, GatewayID: "201", Installments: 1,
	}).Error)
	require.NoError(t, db.Create(&model.Payment{
		OrderID: 1, Amount: dec("10.00"), State: model.PaymentCancelled, GatewayID: "202", Installments: 1,
	}).Error)

	_, err := repo.FindActiveByOrder(ctx, 1)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, db.Create(&model.Payment{
		OrderID: 1, Amount: dec("10.00"), State: model.PaymentProcessing, GatewayID: "203", Installments: 1,
	}).Error)

	active, err := repo.FindActiveByOrder(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "203", active.GatewayID)
}

func TestWebhookEventDedupe(t *testing.T) {
	db := newTestDB(t)
	repo := NewWebhookEventRepository(db)
	ctx := context.Background()

	exists, err := repo.Exists(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repo.MarkProcessed(ctx, db, "evt-1", "payment.updated"))

	exists, err = repo.Exists(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, exists)

	// the primary key rejects a second insert of the same event
	assert.Error(t, repo.MarkProcessed(ctx, db, "evt-1", "payment.updated"))
}

func TestUserAddressBelongsTo(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := &model.User{FirstNames: "Maria", LastNames: "Gonzalez", Email: "maria@example.com"}
	require.NoError(t, db.Create(user).Error)
	addr := &model.Address{UserID: user.ID, Street: "Calle 1", City: "BA"}
	require.NoError(t, db.Create(addr).Error)

	owns, err := repo.AddressBelongsTo(ctx, addr.ID, user.ID)
	require.NoError(t, err)
	assert.True(t, owns)

	owns, err = repo.AddressBelongsTo(ctx, addr.ID, user.ID+1)
	require.NoError(t, err)
	assert.False(t, owns)
}
