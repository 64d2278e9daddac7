// Package controllers adapts HTTP requests to the services and maps their
// errors onto status codes.
package controllers

import (
	"errors"
	"net/http"

	"github.com/cherrydine/cherrydine/app/models"
	"github.com/cherrydine/cherrydine/app/services"
	"github.com/cherrydine/cherrydine/pkg/ctx"
)

// fail writes the response for a service error. Anything unexpected is
// logged and hidden behind a 500.
func fail(c *ctx.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.NotFound(err.Error())
	case errors.Is(err, services.ErrForbidden):
		c.Error(http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrInvalidState), errors.Is(err, services.ErrConflict):
		c.Error(http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrInvalidArgument):
		c.Error(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, services.ErrEmptyCart):
		c.Error(http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrUnauthorized):
		c.Error(http.StatusUnauthorized, err.Error())
	default:
		c.Logger().Error("request failed", "path", c.R.URL.Path, "error", err)
		c.Error(http.StatusInternalServerError, "Internal server error")
	}
}

func actor(c *ctx.Context) models.Actor {
	return services.ActorFrom(c.Principal())
}

// idParam reads a positive integer path parameter, answering 404 otherwise.
func idParam(c *ctx.Context, key string) (uint, bool) {
	id, ok := c.ParamUint(key)
	if !ok {
		c.NotFound()
	}
	return id, ok
}
