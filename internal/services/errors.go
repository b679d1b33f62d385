// Package services defines the business logic for enquiries.
// This file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and translation
// into user-facing messages or HTTP status codes should be performed at the
// handler/controller layer.
package services

import (
	"errors"
	"fmt"

	"github.com/tbourn/go-enquiry-backend/internal/domain"
)

var (
	// ErrValidation matches any rejected payload. The concrete error is a
	// *domain.ValidationError carrying field detail.
	ErrValidation = domain.ErrInvalidEnquiry

	// ErrStorage matches any failure of the record store. The concrete error
	// is a *StorageError wrapping the cause.
	ErrStorage = errors.New("enquiry storage failed")

	// ErrEnquiryNotFound indicates that the requested enquiry does not exist.
	ErrEnquiryNotFound = errors.New("enquiry not found")
)

// StorageError reports that the record store could not complete Op. The
// cause is for logs only; it is never shown to API clients.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, ErrStorage, e.Err)
}

// Unwrap exposes the underlying store error.
func (e *StorageError) Unwrap() error { return e.Err }

// Is lets callers match with errors.Is(err, ErrStorage).
func (e *StorageError) Is(target error) bool { return target == ErrStorage }
