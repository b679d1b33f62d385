// Package services – EnquiryService
//
// This file implements the EnquiryService, which accepts contact-form
// submissions. Create validates the untrusted payload against the enquiry
// field rules and, only when it is valid, asks the record store to persist
// it. Failures are classified so handlers can map them to HTTP results:
//
//   - *domain.ValidationError (matches ErrValidation): the store is never called.
//   - *StorageError (matches ErrStorage): the store failed; nothing is retried.
//
// The service keeps no state between calls and takes no locks; concurrency
// safety belongs to the store. Get, List and Stats back the read-only admin
// routes.
package services

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-enquiry-backend/internal/domain"
	"github.com/tbourn/go-enquiry-backend/internal/observability"
	"github.com/tbourn/go-enquiry-backend/internal/repo"
	"github.com/tbourn/go-enquiry-backend/internal/utils"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// EnquiryStore is the record store capability required by EnquiryService.
// Implementations assign the id and createdAt of new records.
type EnquiryStore interface {
	// CreateEnquiry inserts one record atomically and returns it.
	CreateEnquiry(ctx context.Context, in domain.EnquiryInput) (*domain.Enquiry, error)

	// GetEnquiry fetches one record; repo.ErrNotFound when absent.
	GetEnquiry(ctx context.Context, id string) (*domain.Enquiry, error)

	// ListEnquiries returns a page (newest first) and the total count.
	ListEnquiries(ctx context.Context, offset, limit int) ([]domain.Enquiry, int64, error)

	// Stats returns the record count and newest CreatedAt.
	Stats(ctx context.Context) (int64, *time.Time, error)

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}

// EnquiryService validates and persists enquiries.
type EnquiryService struct {
	// Store is injected at startup; there is no package-level default.
	Store EnquiryStore
}

// NewEnquiryService constructs an EnquiryService over store.
func NewEnquiryService(store EnquiryStore) *EnquiryService {
	return &EnquiryService{Store: store}
}

// Create validates payload and persists it as a new enquiry.
//
// payload is the decoded JSON object exactly as received; unknown keys,
// including id and createdAt, are ignored. Each successful call produces a
// new record, even for identical payloads.
func (s *EnquiryService) Create(ctx context.Context, payload map[string]any) (*domain.Enquiry, error) {
	ctx, span := observability.Tracer().Start(ctx, "EnquiryService.Create",
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	defer span.End()

	in, err := domain.ValidateEnquiry(payload)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			span.SetAttributes(attribute.Int("enquiry.invalid_fields", len(verr.Fields)))
		}
		span.SetStatus(codes.Error, "validation failed")
		observability.RecordEnquiry(observability.OutcomeRejected)
		return nil, err
	}

	e, err := s.Store.CreateEnquiry(ctx, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store failed")
		observability.RecordEnquiry(observability.OutcomeFailed)
		return nil, &StorageError{Op: "create enquiry", Err: err}
	}

	span.SetAttributes(attribute.String("enquiry.id", e.ID))
	observability.RecordEnquiry(observability.OutcomeCreated)
	return e, nil
}

// Get returns one enquiry by id, or ErrEnquiryNotFound.
func (s *EnquiryService) Get(ctx context.Context, id string) (*domain.Enquiry, error) {
	ctx, span := observability.Tracer().Start(ctx, "EnquiryService.Get",
		trace.WithAttributes(attribute.String("enquiry.id", id)),
	)
	defer span.End()

	e, err := s.Store.GetEnquiry(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrEnquiryNotFound
	}
	if err != nil {
		span.RecordError(err)
		return nil, &StorageError{Op: "get enquiry", Err: err}
	}
	return e, nil
}

// List returns a page of enquiries, newest first, plus the total count.
// Invalid page values fall back to page 1 and defaultPageSize; pageSize is
// capped at maxPageSize.
func (s *EnquiryService) List(ctx context.Context, page, pageSize int) ([]domain.Enquiry, int64, error) {
	ctx, span := observability.Tracer().Start(ctx, "EnquiryService.List",
		trace.WithAttributes(attribute.Int("page", page), attribute.Int("page_size", pageSize)),
	)
	defer span.End()

	_, size, offset := utils.Page(page, pageSize, defaultPageSize, maxPageSize)
	items, total, err := s.Store.ListEnquiries(ctx, offset, size)
	if err != nil {
		span.RecordError(err)
		return nil, 0, &StorageError{Op: "list enquiries", Err: err}
	}
	return items, total, nil
}

// Stats returns the count and newest creation time, used for ETags.
func (s *EnquiryService) Stats(ctx context.Context) (int64, *time.Time, error) {
	count, newest, err := s.Store.Stats(ctx)
	if err != nil {
		return 0, nil, &StorageError{Op: "enquiry stats", Err: err}
	}
	return count, newest, nil
}

// Ping reports whether the record store is reachable.
func (s *EnquiryService) Ping(ctx context.Context) error {
	if err := s.Store.Ping(ctx); err != nil {
		return &StorageError{Op: "ping", Err: err}
	}
	return nil
}
