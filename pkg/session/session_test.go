package session_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cherrydine/cherrydine/pkg/cache"
	"github.com/cherrydine/cherrydine/pkg/session"
)

func opts() session.Options {
	return session.Options{CookieName: "sid", TTL: time.Hour, HTTPOnly: true, Path: "/"}
}

func do(t *testing.T, h http.Handler, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "sid" {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestValuesSurviveAcrossRequests(t *testing.T) {
	store := cache.NewMemory()
	mw := session.Middleware(store, opts())

	write := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, session.FromCtx(r).Set("cart", map[string]int{"4": 2}))
	}))
	rec := do(t, write, nil)
	cookie := sessionCookie(t, rec)

	var got map[string]int
	read := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, err := session.FromCtx(r).Get("cart", &got)
		require.NoError(t, err)
		assert.True(t, ok)
	}))
	do(t, read, cookie)

	assert.Equal(t, map[string]int{"4": 2}, got)
}

func TestUnknownCookieStartsFreshSession(t *testing.T) {
	mw := session.Middleware(cache.NewMemory(), opts())

	var id string
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id = session.FromCtx(r).ID()
		assert.False(t, session.FromCtx(r).Has("user_id"))
	}))
	rec := do(t, h, &http.Cookie{Name: "sid", Value: "forged"})

	assert.NotEqual(t, "forged", id)
	assert.Equal(t, id, sessionCookie(t, rec).Value)
}

func TestRegenerateRotatesIDAndKeepsData(t *testing.T) {
	store := cache.NewMemory()
	mw := session.Middleware(store, opts())

	rec := do(t, mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, session.FromCtx(r).Set("cart", map[string]int{"1": 1}))
	})), nil)
	first := sessionCookie(t, rec)

	rec = do(t, mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := session.FromCtx(r)
		require.NoError(t, sess.Regenerate())
		require.NoError(t, sess.Set("user_id", uint(9)))
	})), first)
	second := sessionCookie(t, rec)
	assert.NotEqual(t, first.Value, second.Value)

	do(t, mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := session.FromCtx(r)
		uid, ok := sess.GetUint("user_id")
		assert.True(t, ok)
		assert.Equal(t, uint(9), uid)
		assert.True(t, sess.Has("cart"))
	})), second)

	do(t, mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, session.FromCtx(r).Has("cart"), "stale id must not resolve")
	})), first)
}

func TestInvalidateClearsData(t *testing.T) {
	mw := session.Middleware(cache.NewMemory(), opts())

	rec := do(t, mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, session.FromCtx(r).Set("user_id", uint(1)))
	})), nil)

	rec = do(t, mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, session.FromCtx(r).Invalidate())
	})), sessionCookie(t, rec))

	do(t, mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := session.FromCtx(r).GetUint("user_id")
		assert.False(t, ok)
	})), sessionCookie(t, rec))
}

func TestFromCtxWithoutMiddlewareIsDetached(t *testing.T) {
	sess := session.FromCtx(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, sess.Set("k", "v"))
	v, ok := sess.GetString("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}
