// Package httputil centralizes JSON encoding and domain-error translation
// for HTTP handlers so every endpoint speaks the same envelope.
package httputil

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	dErrors "veritas/pkg/domain-errors"
)

// Validatable is implemented by request structs that validate and parse
// themselves after decoding.
type Validatable interface {
	Validate() error
}

type validatablePtr[T any] interface {
	*T
	Validatable
}

// errorBody is the JSON error envelope. error_description is omitted for
// internal errors so infrastructure details never leak to callers.
type errorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into the JSON error envelope.
// Non-domain errors are treated as internal.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)

	body := errorBody{Error: string(code)}
	if code != dErrors.CodeInternal {
		body.ErrorDescription = dErrors.MessageOf(err)
	}
	WriteJSON(w, StatusFor(code), body)
}

// StatusFor maps domain error codes to HTTP statuses.
func StatusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeValidation, dErrors.CodeInvalidInput, dErrors.CodeBadRequest:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict, dErrors.CodeChainConflict:
		return http.StatusConflict
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// DecodeAndPrepare decodes a JSON request body into T, runs its Validate
// method, and writes the error response itself on failure. Handlers only
// proceed when ok is true.
func DecodeAndPrepare[T any, PT validatablePtr[T]](
	w http.ResponseWriter,
	r *http.Request,
	logger *slog.Logger,
	ctx context.Context,
	requestID string,
) (PT, bool) {
	var req T
	ptr := PT(&req)

	if err := json.NewDecoder(r.Body).Decode(ptr); err != nil {
		if logger != nil {
			logger.WarnContext(ctx, "request body decode failed",
				"request_id", requestID,
				"error", err,
			)
		}
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "request body must be valid JSON"))
		return nil, false
	}

	if err := ptr.Validate(); err != nil {
		if logger != nil {
			logger.WarnContext(ctx, "request validation failed",
				"request_id", requestID,
				"error", err,
			)
		}
		WriteError(w, err)
		return nil, false
	}

	return ptr, true
}
