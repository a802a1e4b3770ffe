// Package http provides HTTP server and handler implementations.
//
// This file implements the Builder Pattern for constructing JSON responses.
// It gives handlers one fluent API for status, headers, body and the
// persistence warning raised when a mutation could not be saved.

package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"spese/internal/core"
)

// PersistenceWarningHeader is set on mutating responses whose change was
// applied in memory but could not be written to storage.
const PersistenceWarningHeader = "X-Persistence-Warning"

const persistenceWarning = "change applied but not saved; it will be retried on the next change"

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	raw        []byte
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON sets the value to encode as the response body.
func (b *JSONResponseBuilder) JSON(v any) *JSONResponseBuilder {
	b.body = v
	b.raw = nil
	return b
}

// Raw sets pre-encoded body bytes with their content type.
func (b *JSONResponseBuilder) Raw(contentType string, data []byte) *JSONResponseBuilder {
	b.headers["Content-Type"] = contentType
	b.raw = data
	b.body = nil
	return b
}

// PersistenceWarning flags the response when saveErr is set.
func (b *JSONResponseBuilder) PersistenceWarning(saveErr error) *JSONResponseBuilder {
	if saveErr != nil {
		b.headers[PersistenceWarningHeader] = persistenceWarning
	}
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	body := b.raw
	if b.body != nil {
		encoded, err := json.Marshal(b.body)
		if err != nil {
			http.Error(w, "failed to encode response", http.StatusInternalServerError)
			return
		}
		body = append(encoded, '\n')
	}

	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.statusCode == http.StatusNoContent {
		w.Header().Del("Content-Type")
		w.WriteHeader(b.statusCode)
		return
	}
	w.WriteHeader(b.statusCode)
	if len(body) > 0 {
		_, _ = w.Write(body)
	}
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error      string `json:"error"`
	Field      string `json:"field,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// ErrorResponse creates a standard JSON error response.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		JSON(errorBody{Error: message})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// ValidationErrorResponse creates a 422 response naming the rejected field.
func ValidationErrorResponse(err error) *JSONResponseBuilder {
	body := errorBody{Error: err.Error()}
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		body.Field = verr.Field
		body.Suggestion = verr.Suggestion
	}
	return NewJSONResponse().
		Status(http.StatusUnprocessableEntity).
		JSON(body)
}

// NotReadyError creates a 503 response asking the client to retry shortly.
func NotReadyError(retryAfterSeconds int) *JSONResponseBuilder {
	return ErrorResponse(http.StatusServiceUnavailable, "ledger is still loading").
		Header("Retry-After", strconv.Itoa(retryAfterSeconds))
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// TooManyRequestsError creates a 429 response.
func TooManyRequestsError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, please try again later")
}
