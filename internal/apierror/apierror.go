// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "validation failed", Fields: fields}
}

// RejectionError is the envelope for rejected build/associate operations: a
// machine-readable code plus structured detail for the caller's UI.
type RejectionError struct {
	Code   string      `json:"code"`
	Detail string      `json:"detail"`
	Data   interface{} `json:"data,omitempty"`
}

func NewRejection(code, detail string, data interface{}) *RejectionError {
	return &RejectionError{Code: code, Detail: detail, Data: data}
}
