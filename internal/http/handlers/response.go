// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the standard response utilities used across all endpoints:
// the structured error envelope and helpers for writing it. The goal is a
// uniform, machine-friendly failure shape for every route.
//
// Conventions:
//   - All error responses return an ErrorResponse with a stable `code`.
//   - `fail()` centralizes error logging and formatting, ensuring 5xx responses
//     are logged with request context for observability.
//
// Example error response:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "error": "enquiry not found"
//	}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-enquiry-backend/internal/domain"
	"github.com/tbourn/go-enquiry-backend/internal/http/middleware"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
//
// Fields:
//   - RequestID: correlation ID, echoed from X-Request-ID.
//   - Code: a stable, machine-readable string (see errors.go constants).
//   - Error: a human-readable description, safe for display to users.
//   - Fields: per-field validation failures; only set for validation_failed.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"validation_failed"`
	// Human-readable message (safe to show to users)
	Error string `json:"error" example:"invalid enquiry"`
	// Field-level detail for validation failures
	Fields []domain.FieldError `json:"fields,omitempty"`
}

// fail aborts the request with a structured error and logs server-side errors.
//
// Server errors (>=500) are logged using the request-scoped logger from
// middleware, together with cause when one is given.
func fail(c *gin.Context, status int, code, msg string, cause ...error) {
	if status >= http.StatusInternalServerError {
		ev := middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code)
		if len(cause) > 0 && cause[0] != nil {
			ev = ev.Err(cause[0])
		}
		ev.Msg("api error")
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: middleware.RequestIDFrom(c),
		Code:      code,
		Error:     msg,
	})
}

// failValidation writes a 400 carrying every field failure.
func failValidation(c *gin.Context, verr *domain.ValidationError) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
		RequestID: middleware.RequestIDFrom(c),
		Code:      ErrCodeValidationFailed,
		Error:     msgInvalidEnquiry,
		Fields:    verr.Fields,
	})
}

// Fail is the exported variant of fail().
//
// External packages (e.g., router setup) should call Fail to return
// consistent error envelopes without directly depending on unexported helpers.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}
