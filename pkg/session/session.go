// Package session provides cookie-identified sessions persisted in a
// cache.Store. The middleware loads the session before the handler runs and
// writes it back afterwards if anything changed.
//
//	r.Use(session.Middleware(store, session.DefaultOptions()))
//
//	sess := session.FromCtx(r)
//	_ = sess.Set("user_id", 42)
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cherrydine/cherrydine/config"
	"github.com/cherrydine/cherrydine/pkg/cache"
	"github.com/cherrydine/cherrydine/pkg/logger"
)

type Options struct {
	CookieName string
	TTL        time.Duration
	HTTPOnly   bool
	Secure     bool
	SameSite   http.SameSite
	Path       string
}

// DefaultOptions reads cookie name and lifetime from config.
func DefaultOptions() Options {
	return Options{
		CookieName: config.SessionCookie(),
		TTL:        config.SessionTTL(),
		HTTPOnly:   true,
		Secure:     config.IsProduction(),
		SameSite:   http.SameSiteLaxMode,
		Path:       "/",
	}
}

type ctxKey struct{}

// Session is the per-request handle. It is not safe for concurrent use;
// each request owns its own copy.
type Session struct {
	id      string
	staleID string
	data    map[string]json.RawMessage
	opts    Options
	store   cache.Store
	w       http.ResponseWriter
	changed bool
}

func newID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func storeKey(id string) string { return "cherrydine:session:" + id }

func (s *Session) ID() string { return s.id }

func (s *Session) Has(key string) bool {
	_, ok := s.data[key]
	return ok
}

// Get decodes the value under key into dest.
func (s *Session) Get(key string, dest any) (bool, error) {
	raw, ok := s.data[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("session: decode %q: %w", key, err)
	}
	return true, nil
}

func (s *Session) GetString(key string) (string, bool) {
	var v string
	ok, err := s.Get(key, &v)
	return v, ok && err == nil
}

func (s *Session) GetUint(key string) (uint, bool) {
	var v uint
	ok, err := s.Get(key, &v)
	return v, ok && err == nil
}

func (s *Session) Set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("session: encode %q: %w", key, err)
	}
	s.data[key] = raw
	s.changed = true
	return nil
}

func (s *Session) Delete(key string) {
	if _, ok := s.data[key]; ok {
		delete(s.data, key)
		s.changed = true
	}
}

// Regenerate moves the data to a fresh ID. Call it on login so a session ID
// planted before authentication cannot be reused afterwards.
func (s *Session) Regenerate() error {
	id, err := newID()
	if err != nil {
		return fmt.Errorf("session: new id: %w", err)
	}
	if s.staleID == "" {
		s.staleID = s.id
	}
	s.id = id
	s.changed = true
	s.writeCookie()
	return nil
}

// Invalidate clears all data and rotates the ID (logout).
func (s *Session) Invalidate() error {
	s.data = map[string]json.RawMessage{}
	return s.Regenerate()
}

// Save persists the session if it changed.
func (s *Session) Save(ctx context.Context) error {
	if !s.changed || s.store == nil {
		return nil
	}
	if s.staleID != "" {
		if err := s.store.Del(ctx, storeKey(s.staleID)); err != nil {
			return fmt.Errorf("session: drop stale: %w", err)
		}
		s.staleID = ""
	}
	if err := s.store.Set(ctx, storeKey(s.id), s.data, s.opts.TTL); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}
	s.changed = false
	return nil
}

func (s *Session) writeCookie() {
	if s.w == nil {
		return
	}
	http.SetCookie(s.w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    s.id,
		Path:     s.opts.Path,
		MaxAge:   int(s.opts.TTL.Seconds()),
		HttpOnly: s.opts.HTTPOnly,
		Secure:   s.opts.Secure,
		SameSite: s.opts.SameSite,
	})
}

// Middleware loads the session named by the cookie, or starts a new one, and
// saves it after the handler returns. An unknown or unreadable session ID
// starts a fresh session.
func Middleware(store cache.Store, opts Options) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := &Session{opts: opts, store: store, w: w, data: map[string]json.RawMessage{}}

			loaded := false
			if cookie, err := r.Cookie(opts.CookieName); err == nil && cookie.Value != "" {
				found, err := store.Get(r.Context(), storeKey(cookie.Value), &sess.data)
				if err != nil {
					logger.WithCtx(r.Context()).Warn("session: load failed", "error", err)
				}
				if found && err == nil {
					sess.id = cookie.Value
					loaded = true
				} else {
					sess.data = map[string]json.RawMessage{}
				}
			}
			if !loaded {
				id, err := newID()
				if err != nil {
					http.Error(w, "session unavailable", http.StatusInternalServerError)
					return
				}
				sess.id = id
				sess.writeCookie()
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, sess)))

			if err := sess.Save(context.WithoutCancel(r.Context())); err != nil {
				logger.WithCtx(r.Context()).Error("session: save failed", "error", err)
			}
		})
	}
}

// FromCtx returns the request's session. Outside the middleware it returns a
// detached session that is never persisted.
func FromCtx(r *http.Request) *Session {
	return FromContext(r.Context())
}

func FromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(ctxKey{}).(*Session); ok {
		return s
	}
	return &Session{data: map[string]json.RawMessage{}, opts: Options{TTL: time.Hour}}
}
