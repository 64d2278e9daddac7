package controllers

import (
	"github.com/cherrydine/cherrydine/app/services"
	"github.com/cherrydine/cherrydine/pkg/ctx"
)

type ReviewController struct {
	reviews *services.ReviewService
}

func NewReviewController(reviews *services.ReviewService) *ReviewController {
	return &ReviewController{reviews: reviews}
}

func (rc *ReviewController) Store(c *ctx.Context) {
	id, ok := idParam(c, "orderId")
	if !ok {
		return
	}
	var in services.ReviewInput
	if !c.BindJSON(&in) {
		return
	}
	review, err := rc.reviews.Submit(c.Context(), actor(c), id, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Created("Thank you for your review", review)
}
