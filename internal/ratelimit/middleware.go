package ratelimit

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"

	"veritas/pkg/platform/httputil"
	"veritas/pkg/requestcontext"
)

// Middleware enforces the limiter per caller. Authenticated callers are
// keyed by actor ID, anonymous ones by client IP. Limiter failures fail
// open: a broken Redis must not take the ledger down with it.
func Middleware(limiter Limiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			allowed, retryAfter, err := limiter.Allow(ctx, callerKey(r))
			if err != nil {
				logger.WarnContext(ctx, "rate limiter unavailable, allowing request",
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				seconds := int(math.Ceil(retryAfter.Seconds()))
				if seconds < 1 {
					seconds = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(seconds))
				httputil.WriteJSON(w, http.StatusTooManyRequests, map[string]string{
					"error":   "rate_limited",
					"message": "request rate limit exceeded",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func callerKey(r *http.Request) string {
	if actor := requestcontext.ActorID(r.Context()); actor != "" {
		return "actor:" + actor
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
