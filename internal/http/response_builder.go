// Package http provides HTTP server and handler implementations.
//
// This file implements the Builder Pattern for constructing JSON responses.
// Every error path goes through ErrorResponse so clients always receive a
// {"error": "..."} body.

package http

import (
	"encoding/json"
	"net/http"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	raw        []byte
	headers    map[string]string
}

// ErrorBody is the payload of every error response.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
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

// Body sets the value encoded as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Attachment sends content as a download instead of JSON.
func (b *JSONResponseBuilder) Attachment(filename, contentType string, content []byte) *JSONResponseBuilder {
	b.headers["Content-Type"] = contentType
	b.headers["Content-Disposition"] = `attachment; filename="` + filename + `"`
	b.raw = content
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	if b.raw != nil {
		w.WriteHeader(b.statusCode)
		_, _ = w.Write(b.raw)
		return
	}

	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}

	payload, err := json.Marshal(b.body)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to encode response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(payload)
	_, _ = w.Write([]byte("\n"))
}

// ErrorResponse creates a standard error response.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Body(ErrorBody{Error: message})
}

// CodedErrorResponse is ErrorResponse with a machine-readable code.
func CodedErrorResponse(statusCode int, code, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Body(ErrorBody{Error: message, Code: code})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// UnauthorizedError creates a 401 Unauthorized error response.
func UnauthorizedError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnauthorized, message).
		Header("WWW-Authenticate", `Bearer realm="pitaka"`)
}

// UnprocessableEntityError creates a 422 Unprocessable Entity error response.
func UnprocessableEntityError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// ServiceUnavailableError creates a 503 Service Unavailable error response.
func ServiceUnavailableError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusServiceUnavailable, message)
}
