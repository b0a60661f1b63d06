package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/tiendafresca/backend/internal/model"
)

type PromotionRepository interface {
	FindByCode(ctx context.Context, tx *gorm.DB, code string) (*model.Promotion, error)
	// IncrementUsage bumps the usage counter unless the cap is already
	// reached; model.ErrUsageCapReached is returned in that case.
	IncrementUsage(ctx context.Context, tx *gorm.DB, promotionID uint) error
}

type promotionRepoImpl struct {
	db *gorm.DB
}

func NewPromotionRepository(db *gorm.DB) PromotionRepository {
	return &promotionRepoImpl{db: db}
}

func (r *promotionRepoImpl) FindByCode(ctx context.Context, tx *gorm.DB, code string) (*model.Promotion, error) {
	var promo model.Promotion
	err := tx.WithContext(ctx).Where("code = ?", code).First(&promo).Error
	if err != nil {
		return nil, err
	}
	return &promo, nil
}

func (r *promotionRepoImpl) IncrementUsage(ctx context.Context, tx *gorm.DB, promotionID uint) error {
	res := tx.WithContext(ctx).Model(&model.Promotion{}).
		Where("id = ? AND (usage_cap = 0 OR usage_count < usage_cap)", promotionID).
		Update("usage_count", gorm.Expr("usage_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.ErrUsageCapReached
	}
	return nil
}
