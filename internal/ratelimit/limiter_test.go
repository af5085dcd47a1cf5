package ratelimit

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veritas/pkg/requestcontext"
)

func TestMemoryLimiter(t *testing.T) {
	ctx := context.Background()

	t.Run("allows up to the limit", func(t *testing.T) {
		l := NewMemoryLimiter(3, time.Minute)
		for range 3 {
			allowed, _, err := l.Allow(ctx, "actor:reviewer-9")
			require.NoError(t, err)
			assert.True(t, allowed)
		}

		allowed, retryAfter, err := l.Allow(ctx, "actor:reviewer-9")
		require.NoError(t, err)
		assert.False(t, allowed)
		assert.Greater(t, retryAfter, time.Duration(0))
	})

	t.Run("callers are limited independently", func(t *testing.T) {
		l := NewMemoryLimiter(1, time.Minute)
		allowed, _, err := l.Allow(ctx, "actor:reviewer-9")
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, _, err = l.Allow(ctx, "actor:reviewer-10")
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, _, err = l.Allow(ctx, "actor:reviewer-9")
		require.NoError(t, err)
		assert.False(t, allowed)
	})
}

type deniedLimiter struct{}

func (deniedLimiter) Allow(context.Context, string) (bool, time.Duration, error) {
	return false, 30 * time.Second, nil
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string) (bool, time.Duration, error) {
	return false, 0, context.DeadlineExceeded
}

func TestMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("allowed requests pass through", func(t *testing.T) {
		handler := Middleware(NewMemoryLimiter(10, time.Minute), logger)(okHandler)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/decisions", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("denied requests get 429 with retry hint", func(t *testing.T) {
		handler := Middleware(deniedLimiter{}, logger)(okHandler)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/decisions", nil))
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "30", rec.Header().Get("Retry-After"))
	})

	t.Run("limiter failure fails open", func(t *testing.T) {
		handler := Middleware(brokenLimiter{}, logger)(okHandler)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/decisions", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("authenticated callers are keyed by actor", func(t *testing.T) {
		handler := Middleware(NewMemoryLimiter(1, time.Minute), logger)(okHandler)

		send := func(actor string) int {
			req := httptest.NewRequest(http.MethodPost, "/v1/decisions", nil)
			req = req.WithContext(requestcontext.WithActorID(req.Context(), actor))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			return rec.Code
		}

		assert.Equal(t, http.StatusNoContent, send("reviewer-9"))
		assert.Equal(t, http.StatusTooManyRequests, send("reviewer-9"))
		assert.Equal(t, http.StatusNoContent, send("reviewer-10"))
	})
}
