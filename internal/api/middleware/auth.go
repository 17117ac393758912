// Package middleware provides HTTP middleware for the facturier API.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/facturier/facturier/internal/auth"
	"github.com/facturier/facturier/internal/config"
)

// Context keys for request-scoped values.
type contextKey string

const userKey contextKey = "user"

// DevUserID is the fixed identity injected when auth is disabled, so
// development data stays attached to one user across restarts.
var DevUserID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// User is the authenticated caller resolved by RequireUser.
type User struct {
	ID    uuid.UUID
	Email string
	Token string // raw bearer token, needed to sign the caller out upstream
}

// Verifier resolves an access token to the user it belongs to.
type Verifier interface {
	GetUser(ctx context.Context, accessToken string) (*auth.User, error)
}

// RequireUser returns middleware that authenticates requests via bearer
// token. When auth is disabled it injects a fixed development user; the
// X-User-ID header can override the ID for multi-user testing.
func RequireUser(cfg config.AuthConfig, verifier Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled {
				user := User{ID: DevUserID, Email: "dev@localhost"}
				if v := r.Header.Get("X-User-ID"); v != "" {
					if id, err := uuid.Parse(v); err == nil {
						user.ID = id
					}
				}
				next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeAuthError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				writeAuthError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}
			token := parts[1]

			if verifier == nil {
				writeAuthError(w, http.StatusServiceUnavailable, "identity service not configured")
				return
			}

			identity, err := verifier.GetUser(r.Context(), token)
			if err != nil {
				if errors.Is(err, auth.ErrUnauthorized) {
					writeAuthError(w, http.StatusUnauthorized, "invalid or expired token")
				} else {
					writeAuthError(w, http.StatusServiceUnavailable, "identity service unavailable")
				}
				return
			}

			userID, err := uuid.Parse(identity.ID)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "invalid user identity")
				return
			}

			user := User{ID: userID, Email: identity.Email, Token: token}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, user User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext extracts the authenticated user from context.
func UserFromContext(ctx context.Context) (User, bool) {
	user, ok := ctx.Value(userKey).(User)
	return user, ok
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// CORS returns CORS middleware for browser clients.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			allowed := false
			for _, o := range allowedOrigins {
				if o == "*" || o == origin {
					allowed = true
					break
				}
			}

			if allowed {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-User-ID")
				w.Header().Set("Access-Control-Max-Age", "86400")
			}

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
