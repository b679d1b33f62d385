// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// This file centralizes symbolic error code constants that are mapped to HTTP responses
// (via the `fail()` helper in this package). These codes provide clients with a stable,
// machine-readable error taxonomy that supplements human-readable messages.
//
// Conventions:
//   - Codes are lowercase, snake_case, and domain-agnostic unless explicitly noted.
//   - Generic codes (e.g., bad_request, not_found) mirror common HTTP status
//     semantics to aid interoperability.
//   - Domain-specific codes (e.g., validation_failed, create_failed) are reserved for
//     business logic errors that cannot be conveyed by status alone.
//   - All error responses must include both an HTTP status and one of these codes.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "validation_failed",
//	  "error": "invalid enquiry",
//	  "fields": [{"field": "phone", "code": "missing", "message": "phone is required"}]
//	}
package handlers

const (
	ErrCodeBadRequest      = "bad_request"
	ErrCodeNotFound        = "not_found"
	ErrCodePayloadTooLarge = "payload_too_large"
	ErrCodeRateLimited     = "too_many_requests"
	ErrCodeInternal        = "internal_error"
	ErrCodeNotReady        = "not_ready"

	// Domain-specific:
	ErrCodeValidationFailed = "validation_failed"
	ErrCodeCreateFailed     = "create_failed"
	ErrCodeListFailed       = "list_failed"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)

// Client-facing messages. Storage causes are logged, never returned.
const (
	msgInvalidJSON     = "invalid JSON body"
	msgInvalidEnquiry  = "invalid enquiry"
	msgCreateFailed    = "Failed to create enquiry"
	msgBodyTooLarge    = "request body too large"
	msgEnquiryNotFound = "enquiry not found"
)
