package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cherrydine/cherrydine/pkg/middleware"
)

func run(h http.Handler, p *middleware.Principal) int {
	req := httptest.NewRequest(http.MethodPost, "/orders/1/status", nil)
	if p != nil {
		req = req.WithContext(middleware.WithPrincipal(req.Context(), *p))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func ok() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
}

func TestHasRole(t *testing.T) {
	h := HasRole("admin")(ok())

	assert.Equal(t, http.StatusUnauthorized, run(h, nil))
	assert.Equal(t, http.StatusForbidden, run(h, &middleware.Principal{UserID: 2, Role: "guest"}))
	assert.Equal(t, http.StatusNoContent, run(h, &middleware.Principal{UserID: 1, Role: "admin"}))
}

func TestGuest(t *testing.T) {
	h := Guest(ok())

	assert.Equal(t, http.StatusNoContent, run(h, nil))
	assert.Equal(t, http.StatusConflict, run(h, &middleware.Principal{UserID: 2, Role: "guest"}))
}
