package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tiendafresca/backend/internal/apperr"
	"github.com/tiendafresca/backend/internal/model"
	"github.com/tiendafresca/backend/internal/repository"
)

var oneHundred = decimal.NewFromInt(100)

// PromotionService validates discount codes and computes line-item
// discounts. Free-shipping and free-product promotions yield a zero
// monetary discount here; their effect is applied by the order builder.
type PromotionService struct {
	promos repository.PromotionRepository
	now    func() time.Time
}

func NewPromotionService(promos repository.PromotionRepository) *PromotionService {
	return &PromotionService{
		promos: promos,
		now:    time.Now,
	}
}

func (s *PromotionService) Validate(ctx context.Context, tx *gorm.DB, code string, purchaseAmount decimal.Decimal) (*model.Promotion, error) {
	promo, err := s.promos.FindByCode(ctx, tx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Newf(apperr.NotFound, "promotion %q not found", code)
		}
		return nil, fmt.Errorf("find promotion: %w", err)
	}

	if !promo.Active {
		return nil, apperr.Newf(apperr.Validation, "promotion %q is not active", code)
	}

	now := s.now()
	if now.Before(promo.StartsAt) {
		return nil, apperr.Newf(apperr.Validation, "promotion %q is not yet valid", code)
	}
	if now.After(promo.EndsAt) {
		return nil, apperr.Newf(apperr.Validation, "promotion %q has expired", code)
	}

	if promo.UsageCap > 0 && promo.UsageCount >= promo.UsageCap {
		return nil, apperr.Newf(apperr.Validation, "promotion %q reached its usage limit", code)
	}

	if purchaseAmount.LessThan(promo.MinAmount) {
		return nil, apperr.Newf(apperr.Validation,
			"promotion %q requires a minimum purchase of %s", code, promo.MinAmount.StringFixed(2))
	}

	return promo, nil
}

// ComputeDiscount returns the monetary discount for the subtotal, clamped
// so it never exceeds it.
func (s *PromotionService) ComputeDiscount(promo *model.Promotion, subtotal decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal
	switch promo.Type {
	case model.PromoPercentage:
		discount = subtotal.Mul(promo.Value).Div(oneHundred).Round(2)
	case model.PromoFixedAmount:
		discount = promo.Value
	default:
		// free_shipping / free_product grant no line-item discount
		return decimal.Zero
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	return discount
}
