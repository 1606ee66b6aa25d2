package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"wealthwise/internal/core"
	"wealthwise/internal/log"
)

// JSONResponseBuilder provides a fluent API for JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	payload    interface{}
}

// NewJSONResponse creates a builder with a default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

func (b *JSONResponseBuilder) Body(payload interface{}) *JSONResponseBuilder {
	b.payload = payload
	return b
}

// Write sends the response. A nil payload writes the status only.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.payload == nil {
		w.WriteHeader(b.statusCode)
		return
	}

	data, err := json.Marshal(b.payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to encode response"}` + "\n"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(append(data, '\n'))
}

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error     string      `json:"error"`
	Field     string      `json:"field,omitempty"`
	Available json.Number `json:"available,omitempty"`
}

// ErrorResponse creates a JSON error response.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Body(ErrorBody{Error: message})
}

func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// ErrorFor maps domain errors to status codes. Unknown errors become a 500
// without leaking their text.
func ErrorFor(err error) *JSONResponseBuilder {
	var (
		validation   *core.ValidationError
		notFound     *core.NotFoundError
		insufficient *core.InsufficientFundsError
	)
	switch {
	case errors.As(err, &validation):
		return NewJSONResponse().
			Status(http.StatusUnprocessableEntity).
			Body(ErrorBody{Error: validation.Error(), Field: validation.Field})
	case errors.As(err, &notFound):
		return ErrorResponse(http.StatusNotFound, notFound.Error())
	case errors.As(err, &insufficient):
		return NewJSONResponse().
			Status(http.StatusConflict).
			Body(ErrorBody{Error: insufficient.Error(), Available: amount(insufficient.Available)})
	case isBadRequest(err):
		return BadRequestError(err.Error())
	default:
		return InternalServerError("internal server error")
	}
}

// ErrorType classifies err for structured logs.
func ErrorType(err error) string {
	switch {
	case errors.Is(err, core.ErrValidation), isBadRequest(err):
		return log.ErrorTypeValidation
	case errors.Is(err, core.ErrNotFound):
		return log.ErrorTypeNotFound
	case errors.Is(err, core.ErrInsufficientFunds):
		return log.ErrorTypeInsufficientFunds
	default:
		return log.ErrorTypeInternal
	}
}
