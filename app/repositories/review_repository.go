package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/cherrydine/cherrydine/app/models"
)

type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) WithTx(tx *gorm.DB) *ReviewRepository { return &ReviewRepository{db: tx} }

func (r *ReviewRepository) ExistsForOrder(ctx context.Context, orderID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Review{}).Where("order_id = ?", orderID).Count(&n).Error
	return n > 0, err
}

func (r *ReviewRepository) CountForOrder(ctx context.Context, orderID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Review{}).Where("order_id = ?", orderID).Count(&n).Error
	return n, err
}

func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}
