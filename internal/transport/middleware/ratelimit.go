package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/frahmantamala/school-core/internal"
	"github.com/go-chi/httprate"
)

// RateLimit caps requests per caller. Authenticated callers are keyed by user
// id, everyone else by IP. A zero limit disables it.
func RateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	if limit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(limit, window,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			appErr := internal.NewUploadFailedError("Too many uploads, try again later", nil).
				WithDetail("limit", limit).
				WithDetail("window_seconds", int(window.Seconds()))
			appErr.StatusCode = http.StatusTooManyRequests

			status, body := appErr.ToHTTPResponse()
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(body)
		}),
	)
}

func rateLimitKey(r *http.Request) (string, error) {
	if id, ok := internal.IdentityFromContext(r.Context()); ok && id.UserID != 0 {
		return "user:" + strconv.FormatInt(id.UserID, 10), nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
