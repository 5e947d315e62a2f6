package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rosterapi/roster/internal/model"
	"github.com/rosterapi/roster/internal/service"
)

type contextKeyAuth string

// ClaimsKey is the context key for the authenticated claim set.
const ClaimsKey contextKeyAuth = "auth_claims"

// loginPath is the only route exempt from authentication.
const loginPath = "/auth/login"

// Authenticate returns an HTTP middleware that requires a valid bearer token
// on every route except login. A missing or malformed Authorization header is
// rejected before the token is even looked at, with a distinct message from a
// failed verification. On success the decoded claims are attached to the
// request context for downstream handlers.
func Authenticate(authSvc *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, loginPath) {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				writeEnvelope(w, http.StatusUnauthorized, "Authorization token required")
				return
			}

			claims, err := authSvc.VerifyToken(token)
			if err != nil {
				writeEnvelope(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", false
	}
	return token, true
}

// GetClaims extracts the authenticated claim set from the context. Returns
// nil for an unauthenticated request (i.e. the login handler).
func GetClaims(ctx context.Context) *service.Claims {
	if c, ok := ctx.Value(ClaimsKey).(*service.Claims); ok {
		return c
	}
	return nil
}

// writeEnvelope writes the standard JSON error envelope. Middleware share
// this instead of the handler package's helper to keep the dependency
// direction one-way.
func writeEnvelope(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(model.NewError(status, message))
}
