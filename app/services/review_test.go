package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cherrydine/cherrydine/app/models"
	"github.com/cherrydine/cherrydine/app/services"
	"github.com/cherrydine/cherrydine/database/factories"
)

func TestReviewOnce(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()
	guest := factories.User(t, db, models.RoleGuest)
	order := factories.Order(t, db, guest, models.StatusDelivered)
	reviews := services.NewReviewService(db)

	review, err := reviews.Submit(ctx, factories.Actor(guest), order.ID, services.ReviewInput{Rating: 5, Comment: "  lovely  "})
	require.NoError(t, err)
	assert.Equal(t, "lovely", review.Comment)

	_, err = reviews.Submit(ctx, factories.Actor(guest), order.ID, services.ReviewInput{Rating: 1})
	assert.ErrorIs(t, err, services.ErrConflict)

	n, err := reviews.CountForOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestReviewRules(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()
	owner := factories.User(t, db, models.RoleGuest)
	other := factories.User(t, db, models.RoleGuest)
	delivered := factories.Order(t, db, owner, models.StatusDelivered)
	pending := factories.Order(t, db, owner, models.StatusReady)
	reviews := services.NewReviewService(db)

	tests := []struct {
		name    string
		actor   models.Actor
		orderID uint
		rating  int
		want    error
	}{
		{"not delivered", factories.Actor(owner), pending.ID, 4, services.ErrInvalidState},
		{"not the owner", factories.Actor(other), delivered.ID, 4, services.ErrNotFound},
		{"missing order", factories.Actor(owner), 4242, 4, services.ErrNotFound},
		{"rating too high", factories.Actor(owner), delivered.ID, 6, services.ErrInvalidArgument},
		{"rating zero", factories.Actor(owner), delivered.ID, 0, services.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reviews.Submit(ctx, tt.actor, tt.orderID, services.ReviewInput{Rating: tt.rating})
			assert.ErrorIs(t, err, tt.want)
		})
	}

	n, err := reviews.CountForOrder(ctx, delivered.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}
