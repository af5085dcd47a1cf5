// Package requestid assigns each request a correlation ID.
package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"veritas/pkg/requestcontext"
)

// Header is the inbound/outbound correlation header.
const Header = "X-Request-ID"

// Middleware propagates the caller's request ID or mints a new one, stores
// it in the context, and echoes it on the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(Header)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		w.Header().Set(Header, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
