package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tiendafresca/backend/internal/model"
)

type OrderRepository interface {
	// NextNumber increments and returns the per-year order sequence. The
	// upsert's row lock serializes concurrent creators within the caller's
	// transaction.
	NextNumber(ctx context.Context, tx *gorm.DB, year int) (int64, error)
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	CreateLines(ctx context.Context, tx *gorm.DB, lines []*model.OrderLine) error
	FindByID(ctx context.Context, id uint) (*model.Order, error)
	FindByNumber(ctx context.Context, tx *gorm.DB, number string) (*model.Order, error)
	ListByUser(ctx context.Context, userID uint) ([]model.Order, error)
	// UpdateStatus moves the order from one status to another; it reports
	// false when the order was not in the expected source status.
	UpdateStatus(ctx context.Context, tx *gorm.DB, orderID uint, from, to model.OrderStatus) (bool, error)
	GetLines(ctx context.Context, tx *gorm.DB, orderID uint) ([]*model.OrderLine, error)
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{db: db}
}

func (r *orderRepoImpl) NextNumber(ctx context.Context, tx *gorm.DB, year int) (int64, error) {
	counter := model.OrderCounter{Year: year, Seq: 1}
	err := tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "year"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"seq": gorm.Expr("order_counters.seq + 1"),
		}),
	}).Create(&counter).Error
	if err != nil {
		return 0, err
	}

	if err := tx.WithContext(ctx).Where("year = ?", year).First(&counter).Error; err != nil {
		return 0, err
	}
	return counter.Seq, nil
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	return tx.WithContext(ctx).Omit("Lines").Create(order).Error
}

func (r *orderRepoImpl) CreateLines(ctx context.Context, tx *gorm.DB, lines []*model.OrderLine) error {
	return tx.WithContext(ctx).Create(&lines).Error
}

func (r *orderRepoImpl) FindByID(ctx context.Context, id uint) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Lines").
		First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepoImpl) FindByNumber(ctx context.Context, tx *gorm.DB, number string) (*model.Order, error) {
	var order model.Order
	err := tx.WithContext(ctx).
		Where("number = ?", number).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepoImpl) ListByUser(ctx context.Context, userID uint) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

func (r *orderRepoImpl) UpdateStatus(ctx context.Context, tx *gorm.DB, orderID uint, from, to model.OrderStatus) (bool, error) {
	res := tx.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *orderRepoImpl) GetLines(ctx context.Context, tx *gorm.DB, orderID uint) ([]*model.OrderLine, error) {
	var lines []*model.OrderLine
	err := tx.WithContext(ctx).Where("order_id = ?", orderID).Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}
