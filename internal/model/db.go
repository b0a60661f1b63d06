package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID         uint   `gorm:"primaryKey"`
	FirstNames string `gorm:"size:100;not null"`
	LastNames  string `gorm:"size:100;not null"`
	Email      string `gorm:"size:255;uniqueIndex;not null"`
	Phone      string `gorm:"size:32"`
	Role       string `gorm:"size:16;not null;default:'customer'"` // customer, admin
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Address struct {
	ID         uint   `gorm:"primaryKey"`
	UserID     uint   `gorm:"index;not null"`
	Street     string `gorm:"size:255;not null"`
	City       string `gorm:"size:100;not null"`
	Province   string `gorm:"size:100"`
	PostalCode string `gorm:"size:16"`
	CreatedAt  time.Time
}

type Product struct {
	ID        uint            `gorm:"primaryKey"`
	Name      string          `gorm:"size:255;not null"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Stock     int             `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Order struct {
	ID     uint   `gorm:"primaryKey"`
	Number string `gorm:"size:32;uniqueIndex;not null"` // PED-2024-000123
	UserID uint   `gorm:"index;not null"`
	// nil when the order is picked up in store
	AddressID      *uint           `gorm:"index"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ShippingAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Total          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PromoCode      string          `gorm:"size:32"`
	PaymentMethod  string          `gorm:"size:32;not null"`
	ShippingMethod string          `gorm:"size:16;not null"`
	Status         OrderStatus     `gorm:"size:16;index;not null"`
	Notes          string          `gorm:"type:text"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Lines []OrderLine `gorm:"foreignKey:OrderID"`
}

type OrderLine struct {
	ID        uint `gorm:"primaryKey"`
	OrderID   uint `gorm:"index;not null"`
	ProductID uint `gorm:"index;not null"`
	Quantity  int  `gorm:"not null"`
	// unit price snapshot at order time; never recomputed from the product
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt time.Time
}

// Payment rows are append-only: state changes are guarded updates, rows are
// never deleted.
type Payment struct {
	ID           uint            `gorm:"primaryKey"`
	OrderID      uint            `gorm:"index;not null"`
	Amount       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	State        PaymentState    `gorm:"size:16;index;not null"`
	GatewayID    string          `gorm:"size:64;uniqueIndex;not null"`
	MethodID     string          `gorm:"size:32"`
	LastFour     string          `gorm:"size:4"`
	Installments int             `gorm:"not null;default:1"`
	PaidAt       *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Promotion struct {
	ID        uint            `gorm:"primaryKey"`
	Code      string          `gorm:"size:32;uniqueIndex;not null"`
	Type      PromotionType   `gorm:"size:16;not null"`
	Value     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	MinAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	StartsAt  time.Time       `gorm:"not null"`
	EndsAt    time.Time       `gorm:"not null"`
	// 0 means uncapped
	UsageCap   int  `gorm:"not null"`
	UsageCount int  `gorm:"not null"`
	Active     bool `gorm:"not null;default:true"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// WebhookEvent records processed gateway event ids so re-delivery
// short-circuits before any state mutation.
type WebhookEvent struct {
	EventID     string `gorm:"primaryKey;size:128"`
	EventType   string `gorm:"size:64;index"`
	ProcessedAt time.Time
	CreatedAt   time.Time
}

// OrderCounter holds the per-year order numbering sequence.
type OrderCounter struct {
	Year int   `gorm:"primaryKey"`
	Seq  int64 `gorm:"not null"`
}

// All lists every persisted model for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Address{},
		&Product{},
		&Promotion{},
		&Order{},
		&OrderLine{},
		&Payment{},
		&WebhookEvent{},
		&OrderCounter{},
	}
}
