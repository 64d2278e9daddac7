package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/cherrydine/cherrydine/pkg/auth"
	"github.com/cherrydine/cherrydine/pkg/logger"
	"github.com/cherrydine/cherrydine/pkg/response"
	"github.com/cherrydine/cherrydine/pkg/session"
)

// SessionUserKey is the session key holding the logged-in user's ID.
const SessionUserKey = "user_id"

// ErrUnknownPrincipal is returned by a PrincipalLoader for a user that no
// longer exists.
var ErrUnknownPrincipal = errors.New("middleware: unknown principal")

// Principal is the authenticated caller.
type Principal struct {
	UserID uint
	Role   string
}

// PrincipalLoader resolves a user ID to its current role.
type PrincipalLoader func(ctx context.Context, userID uint) (Principal, error)

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromCtx(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

func UserIDFromCtx(r *http.Request) (uint, bool) {
	p, ok := PrincipalFromCtx(r.Context())
	return p.UserID, ok
}

func RoleFromCtx(r *http.Request) (string, bool) {
	p, ok := PrincipalFromCtx(r.Context())
	return p.Role, ok
}

// Authenticate identifies the caller from a bearer token or, failing that,
// from the session. Anonymous requests pass through; a bad bearer token is
// rejected with 401. The role always comes from load, never from the token.
func Authenticate(load PrincipalLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var userID uint

			if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
				claims, err := auth.ValidateToken(strings.TrimPrefix(header, "Bearer "))
				if err != nil {
					response.Error(w, http.StatusUnauthorized, "Invalid token")
					return
				}
				userID = claims.UserID
			} else if id, ok := session.FromCtx(r).GetUint(SessionUserKey); ok {
				userID = id
			}

			if userID == 0 {
				next.ServeHTTP(w, r)
				return
			}

			p, err := load(r.Context(), userID)
			if err != nil {
				if !errors.Is(err, ErrUnknownPrincipal) {
					logger.WithCtx(r.Context()).Error("auth: load principal", "user_id", userID, "error", err)
				}
				session.FromCtx(r).Delete(SessionUserKey)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := PrincipalFromCtx(r.Context()); !ok {
			response.Unauthorized(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}
