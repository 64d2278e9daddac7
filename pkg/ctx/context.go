// Package ctx gives handlers a single request/response value with helpers
// for params, binding, the session, the caller and the JSON envelope.
//
//	router.Get("/dish/{itemId}", "menu.show", ctx.Wrap(func(c *ctx.Context) {
//	    id, ok := c.ParamUint("itemId")
//	    ...
//	}))
package ctx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cherrydine/cherrydine/pkg/bind"
	"github.com/cherrydine/cherrydine/pkg/logger"
	"github.com/cherrydine/cherrydine/pkg/middleware"
	"github.com/cherrydine/cherrydine/pkg/orm"
	"github.com/cherrydine/cherrydine/pkg/response"
	"github.com/cherrydine/cherrydine/pkg/session"
)

type HandlerFunc func(c *Context)

// Wrap adapts h to http.HandlerFunc.
func Wrap(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h(&Context{W: w, R: r})
	}
}

type Context struct {
	W      http.ResponseWriter
	R      *http.Request
	status int
}

// ─── Request ──────────────────────────────────────────────────────────────────

func (c *Context) Param(key string) string { return chi.URLParam(c.R, key) }

// ParamUint parses a positive integer path parameter.
func (c *Context) ParamUint(key string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(key), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

func (c *Context) Query(key string) string { return c.R.URL.Query().Get(key) }

// QueryInt returns def when key is missing or not an integer.
func (c *Context) QueryInt(key string, def int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return n
}

func (c *Context) Context() context.Context { return c.R.Context() }

func (c *Context) Logger() *slog.Logger { return logger.WithCtx(c.R.Context()) }

func (c *Context) Session() *session.Session { return session.FromCtx(c.R) }

// Principal returns the authenticated caller, if any.
func (c *Context) Principal() (middleware.Principal, bool) {
	return middleware.PrincipalFromCtx(c.R.Context())
}

// ─── Binding ──────────────────────────────────────────────────────────────────

// BindJSON decodes and validates the body into dest. On failure it writes a
// 400 (malformed) or 422 (invalid) response and returns false.
func (c *Context) BindJSON(dest any) bool {
	return c.bind(dest, false)
}

// BindOptionalJSON is BindJSON but treats an empty body as "all defaults".
func (c *Context) BindOptionalJSON(dest any) bool {
	return c.bind(dest, true)
}

func (c *Context) bind(dest any, optional bool) bool {
	errs, err := bind.JSON(c.R, dest)
	if optional && errors.Is(err, bind.ErrEmptyBody) {
		errs, err = bind.Struct(dest), nil
	}
	if err != nil {
		c.Error(http.StatusBadRequest, err.Error())
		return false
	}
	if len(errs) > 0 {
		c.ValidationError(errs)
		return false
	}
	return true
}

// ─── Response ─────────────────────────────────────────────────────────────────

func (c *Context) JSON(code int, v any) {
	c.status = code
	response.JSON(c.W, code, v)
}

func (c *Context) Success(message string, data any) {
	c.JSON(http.StatusOK, response.Envelope{Success: true, Message: message, Data: data})
}

func (c *Context) Created(message string, data any) {
	c.JSON(http.StatusCreated, response.Envelope{Success: true, Message: message, Data: data})
}

func (c *Context) Paginated(items any, p orm.Pagination) {
	c.Success("", map[string]any{"items": items, "pagination": p})
}

func (c *Context) Error(code int, message string) {
	c.JSON(code, response.Envelope{Success: false, Message: message})
}

func (c *Context) ValidationError(errs map[string]string) {
	c.JSON(http.StatusUnprocessableEntity, response.Envelope{
		Success: false,
		Message: "Validation failed",
		Errors:  errs,
	})
}

func (c *Context) Unauthorized() { c.Error(http.StatusUnauthorized, "Unauthorized") }

func (c *Context) Forbidden() { c.Error(http.StatusForbidden, "Forbidden") }

func (c *Context) NotFound(message ...string) {
	msg := "Not found"
	if len(message) > 0 {
		msg = message[0]
	}
	c.Error(http.StatusNotFound, msg)
}

// Bytes writes a raw body such as a PNG.
func (c *Context) Bytes(code int, contentType string, body []byte) {
	c.W.Header().Set("Content-Type", contentType)
	c.W.WriteHeader(code)
	c.status = code
	_, _ = c.W.Write(body)
}

// WrittenStatus is the status written so far, 0 if none.
func (c *Context) WrittenStatus() int { return c.status }
