package testutil

import (
	"context"
	"net/http"
	"time"

	"veritas/pkg/requestcontext"
)

// WithActor adds an authenticated actor ID to the request context,
// simulating what the auth middleware does for authenticated requests.
func WithActor(req *http.Request, actorID string) *http.Request {
	ctx := requestcontext.WithActorID(req.Context(), actorID)
	return req.WithContext(ctx)
}

// WithRequestTime pins the request-scoped clock, so SLA deadlines and
// timestamps are deterministic in handler tests.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	ctx := requestcontext.WithTime(req.Context(), t)
	return req.WithContext(ctx)
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
