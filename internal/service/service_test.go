package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
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
	// a single connection keeps the in-memory database alive and shared
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(model.All()...))
	return db
}

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedUser(t *testing.T, db *gorm.DB) *model.User {
	t.Helper()
	user := &model.User{
		FirstNames: "Maria",
		LastNames:  "Gonzalez",
		Email:      "maria@example.com",
		Phone:      "+5491155554444",
		Role:       "customer",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedAddress(t *testing.T, db *gorm.DB, userID uint) *model.Address {
	t.Helper()
	addr := &model.Address{
		UserID:     userID,
		Street:     "Av. Corrientes 1234",
		City:       "Buenos Aires",
		Province:   "CABA",
		PostalCode: "C1043",
	}
	require.NoError(t, db.Create(addr).Error)
	return addr
}

func seedProduct(t *testing.T, db *gorm.DB, name, price string, stock int) *model.Product {
	t.Helper()
	product := &model.Product{
		Name:  name,
		Price: dec(price),
		Stock: stock,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func seedPromotion(t *testing.T, db *gorm.DB, promo *model.Promotion) *model.Promotion {
	t.Helper()
	if promo.StartsAt.IsZero() {
		promo.StartsAt = time.Now().Add(-24 * time.Hour)
	}
	if promo.EndsAt.IsZero() {
		promo.EndsAt = time.Now().Add(24 * time.Hour)
	}
	require.NoError(t, db.Create(promo).Error)
	return promo
}

func seedOrder(t *testing.T, db *gorm.DB, order *model.Order) *model.Order {
	t.Helper()
	if order.Number == "" {
		order.Number = "PED-2026-000777"
	}
	if order.Status == "" {
		order.Status = model.OrderPending
	}
	if order.PaymentMethod == "" {
		order.PaymentMethod = "card"
	}
	if order.ShippingMethod == "" {
		order.ShippingMethod = ShippingPickup
	}
	require.NoError(t, db.Omit("Lines").Create(order).Error)
	for i := range order.Lines {
		order.Lines[i].OrderID = order.ID
		require.NoError(t, db.Create(&order.Lines[i]).Error)
	}
	return order
}

func seedPayment(t *testing.T, db *gorm.DB, payment *model.Payment) *model.Payment {
	t.Helper()
	require.NoError(t, db.Create(payment).Error)
	return payment
}
