package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/tiendafresca/backend/internal/model"
)

type ProductRepository interface {
	FindMany(ctx context.Context, tx *gorm.DB, ids []uint) ([]*model.Product, error)
	// DecrementStock takes stock conditionally; model.ErrInsufficientStock
	// is returned when the row holds less than qty.
	DecrementStock(ctx context.Context, tx *gorm.DB, productID uint, qty int) error
	RestoreStock(ctx context.Context, tx *gorm.DB, productID uint, qty int) error
}

type productRepoImpl struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepoImpl{db: db}
}

func (r *productRepoImpl) FindMany(ctx context.Context, tx *gorm.DB, ids []uint) ([]*model.Product, error) {
	var products []*model.Product
	err := tx.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepoImpl) DecrementStock(ctx context.Context, tx *gorm.DB, productID uint, qty int) error {
	res := tx.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.ErrInsufficientStock
	}
	return nil
}

func (r *productRepoImpl) RestoreStock(ctx context.Context, tx *gorm.DB, productID uint, qty int) error {
	return tx.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", productID).
		Update("stock", gorm.Expr("stock + ?", qty)).Error
}
