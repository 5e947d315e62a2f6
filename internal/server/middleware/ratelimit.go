package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// RateLimit returns an HTTP middleware enforcing a sliding-window cap per
// session. The window is keyed by the caller's Authorization header when
// present, falling back to the real client IP for unauthenticated requests
// (the login route). X-RateLimit-Remaining and X-RateLimit-Reset are exposed
// on every response regardless of outcome; a rejected request gets a JSON
// 429 with remaining quota zero.
func RateLimit(maxRequests int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		maxRequests,
		window,
		httprate.WithKeyFuncs(sessionKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(w, http.StatusTooManyRequests, "Rate limit exceeded")
		}),
	)
}

// sessionKey identifies the caller's session for rate limiting. Bearer
// credentials key the window so one session cannot starve another behind the
// same NAT; everything else falls back to IP.
func sessionKey(r *http.Request) (string, error) {
	if auth := r.Header.Get("Authorization"); auth != "" {
		return auth, nil
	}
	return httprate.KeyByRealIP(r)
}
