package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tag(value string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("X-Chain", value)
			next.ServeHTTP(w, r)
		})
	}
}

func TestGroupPrefixesAndMiddlewareOrder(t *testing.T) {
	r := New()
	admin := r.Group("/admin", tag("outer")).Group("orders", tag("inner"))
	admin.Get("/", "admin.orders", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}, tag("route"))

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/orders", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"outer", "inner", "route"}, rec.Header().Values("X-Chain"))
}

func TestURLFillsParams(t *testing.T) {
	r := New()
	r.Post("/orders/{orderId}/status", "orders.status", func(http.ResponseWriter, *http.Request) {})

	url, err := r.URL("orders.status", map[string]string{"orderId": "12"})
	require.NoError(t, err)
	assert.Equal(t, "/orders/12/status", url)

	_, err = r.URL("orders.status", nil)
	assert.Error(t, err)

	_, err = r.URL("missing", nil)
	assert.Error(t, err)
}

func TestRoutesAreSorted(t *testing.T) {
	r := New()
	noop := func(http.ResponseWriter, *http.Request) {}
	r.Post("/cart/add/{itemId}", "cart.add", noop)
	r.Get("/cart", "cart.show", noop)
	r.Post("/cart", "", noop)

	assert.Equal(t, []RouteInfo{
		{Method: http.MethodGet, Path: "/cart", Name: "cart.show"},
		{Method: http.MethodPost, Path: "/cart", Name: ""},
		{Method: http.MethodPost, Path: "/cart/add/{itemId}", Name: "cart.add"},
	}, r.Routes())
}
