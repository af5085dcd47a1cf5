// Package auth authenticates service-to-service callers.
//
// Two credential forms are accepted: a Bearer JWT signed with the shared
// HS256 key (model-serving layer, reviewers through the gateway), or a
// static API key checked against a bcrypt hash (monitors and batch jobs).
// The authenticated actor ID lands in the request context for services to
// record as assigned_to / verified_by values.
package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	dErrors "veritas/pkg/domain-errors"
	"veritas/pkg/platform/secrets"
	"veritas/pkg/requestcontext"
)

// APIKeyHeader carries static API key credentials.
const APIKeyHeader = "X-API-Key"

// Config holds the credential material the middleware validates against.
type Config struct {
	// JWTSigningKey verifies HS256 bearer tokens. Empty disables JWT auth.
	JWTSigningKey string
	// APIKeyHash is a bcrypt hash of the static service API key.
	// Empty disables API key auth.
	APIKeyHash string
}

// Enabled reports whether any credential form is configured.
// When false the middleware passes requests through (dev mode).
func (c Config) Enabled() bool {
	return c.JWTSigningKey != "" || c.APIKeyHash != ""
}

// RequireAuth validates caller credentials and injects the actor ID into
// the request context.
func RequireAuth(cfg Config, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled() {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()

			if apiKey := r.Header.Get(APIKeyHeader); apiKey != "" && cfg.APIKeyHash != "" {
				if err := secrets.Verify(apiKey, cfg.APIKeyHash); err != nil {
					logger.WarnContext(ctx, "unauthorized access - invalid api key",
						"request_id", requestcontext.RequestID(ctx),
					)
					writeUnauthorized(w, "invalid API key")
					return
				}
				ctx = requestcontext.WithActorID(ctx, "service:api-key")
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || cfg.JWTSigningKey == "" {
				writeUnauthorized(w, "credentials required")
				return
			}

			subject, err := validateToken(token, cfg.JWTSigningKey)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				writeUnauthorized(w, "invalid or expired token")
				return
			}

			ctx = requestcontext.WithActorID(ctx, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func validateToken(tokenString, signingKey string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(signingKey), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", fmt.Errorf("token is not valid")
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return subject, nil
}

func writeUnauthorized(w http.ResponseWriter, desc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = fmt.Fprintf(w, `{"error":%q,"error_description":%q}`, dErrors.CodeUnauthorized, desc)
}
