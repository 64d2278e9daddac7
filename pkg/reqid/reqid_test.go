package reqid_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cherrydine/cherrydine/pkg/reqid"
)

func serve(t *testing.T, inbound string) (string, string) {
	t.Helper()

	var seen string
	h := reqid.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = reqid.FromCtx(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/menu", nil)
	if inbound != "" {
		req.Header.Set(reqid.Header, inbound)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return seen, rec.Header().Get(reqid.Header)
}

func TestMiddlewareGeneratesID(t *testing.T) {
	seen, echoed := serve(t, "")

	assert.Len(t, seen, 32)
	assert.Equal(t, seen, echoed)
}

func TestMiddlewareReusesInboundID(t *testing.T) {
	seen, echoed := serve(t, "gateway-42")

	assert.Equal(t, "gateway-42", seen)
	assert.Equal(t, "gateway-42", echoed)
}

func TestMiddlewareRejectsOversizedInboundID(t *testing.T) {
	seen, _ := serve(t, strings.Repeat("x", 500))

	assert.Len(t, seen, 32)
}
