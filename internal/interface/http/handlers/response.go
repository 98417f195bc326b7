package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

// Error codes returned in the "code" field.
const (
	CodeValidation       = "validation_failed"
	CodeInvalidJSON      = "invalid_json"
	CodeNotFound         = "not_found"
	CodeUnavailable      = "service_unavailable"
	CodeInternal         = "internal_error"
	CodeMissingAPIKey    = "missing_api_key"
	CodeInvalidAPIKey    = "invalid_api_key"
	CodePayloadTooLarge  = "payload_too_large"
	CodeMethodNotAllowed = "method_not_allowed"
	CodeRateLimited      = "rate_limited"
)

// Response is the envelope of successful responses.
type Response struct {
	Data      any       `json:"data"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error     string       `json:"error"`
	Code      string       `json:"code"`
	Fields    []FieldError `json:"fields,omitempty"`
	RequestID string       `json:"request_id,omitempty"`
}

// WriteJSON writes data wrapped in a Response envelope.
func WriteJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	writeBody(w, status, Response{
		Data:      data,
		RequestID: RequestIDFrom(r.Context()),
		Timestamp: time.Now().UTC(),
	})
}

// WriteError writes an ErrorResponse.
func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeBody(w, status, ErrorResponse{
		Error:     message,
		Code:      code,
		RequestID: RequestIDFrom(r.Context()),
	})
}

// WriteValidationError writes a 400 with per-field details.
func WriteValidationError(w http.ResponseWriter, r *http.Request, err *ValidationError) {
	writeBody(w, http.StatusBadRequest, ErrorResponse{
		Error:     err.Error(),
		Code:      CodeValidation,
		Fields:    err.Fields,
		RequestID: RequestIDFrom(r.Context()),
	})
}

func writeBody(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST ID
// ══════════════════════════════════════════════════════════════════════════════

type contextKey string

const contextKeyRequestID contextKey = "request_id"

// WithRequestID stores the request ID in ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID, id)
}

// RequestIDFrom returns the request ID stored in ctx, or "".
func RequestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(contextKeyRequestID).(string); ok {
		return id
	}
	return ""
}
