package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/cherrydine/cherrydine/app/models"
	"github.com/cherrydine/cherrydine/app/repositories"
	"github.com/cherrydine/cherrydine/pkg/logger"
	"github.com/cherrydine/cherrydine/pkg/metrics"
)

type ReviewInput struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

type ReviewService struct {
	db      *gorm.DB
	orders  *repositories.OrderRepository
	reviews *repositories.ReviewRepository
}

func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{
		db:      db,
		orders:  repositories.NewOrderRepository(db),
		reviews: repositories.NewReviewRepository(db),
	}
}

// Submit stores the single review an owner may leave on a delivered order.
func (s *ReviewService) Submit(ctx context.Context, actor models.Actor, orderID uint, in ReviewInput) (models.Review, error) {
	var review models.Review
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.orders.WithTx(tx).FindOwned(ctx, orderID, actor.UserID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		if err != nil {
			return err
		}
		if order.Status != models.StatusDelivered {
			return fmt.Errorf("%w: order %s has not been delivered", ErrInvalidState, order.Code)
		}

		reviews := s.reviews.WithTx(tx)
		exists, err := reviews.ExistsForOrder(ctx, order.ID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: order %s already has a review", ErrConflict, order.Code)
		}
		if in.Rating < 1 || in.Rating > 5 {
			return fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidArgument)
		}

		review = models.Review{
			OrderID: order.ID,
			UserID:  actor.UserID,
			Rating:  in.Rating,
			Comment: strings.TrimSpace(in.Comment),
		}
		err = reviews.Create(ctx, &review)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: order %s already has a review", ErrConflict, order.Code)
		}
		return err
	})
	if err != nil {
		return models.Review{}, err
	}

	metrics.ReviewsSubmitted.Inc()
	logger.WithCtx(ctx).Info("review: stored", "order_id", orderID, "rating", review.Rating)
	return review, nil
}

func (s *ReviewService) CountForOrder(ctx context.Context, orderID uint) (int64, error) {
	return s.reviews.CountForOrder(ctx, orderID)
}
