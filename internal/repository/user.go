package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/tiendafresca/backend/internal/model"
)

type UserRepository interface {
	FindByID(ctx context.Context, id uint) (*model.User, error)
	AddressBelongsTo(ctx context.Context, addressID, userID uint) (bool, error)
}

type userRepoImpl struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepoImpl{db: db}
}

func (r *userRepoImpl) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepoImpl) AddressBelongsTo(ctx context.Context, addressID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Address{}).
		Where("id = ? AND user_id = ?", addressID, userID).
		Count(&count).Error
	return count > 0, err
}
