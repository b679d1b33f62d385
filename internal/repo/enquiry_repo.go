// Package repo implements the data persistence layer for enquiries, backed by
// GORM. This file provides repository functions for the Enquiry model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business rules, only persistence
// and query composition. Validation happens before these are called.
//
// Error semantics:
//   - When an enquiry is not found, functions return ErrNotFound
//     (an alias of gorm.ErrRecordNotFound).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// Functions:
//
//   - CreateEnquiry(ctx, db, in) -> *domain.Enquiry, error
//     Inserts one row with a UUID primary key and UTC timestamp.
//
//   - GetEnquiry(ctx, db, id) -> *domain.Enquiry, error
//
//   - CountEnquiries(ctx, db) -> int64, error
//
//   - ListEnquiriesPage(ctx, db, offset, limit) -> []domain.Enquiry, error
//     Newest first; ties broken by id so pages are stable.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-enquiry-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound; the Mongo and memory stores return it too.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateEnquiry inserts a new Enquiry row built from validated input. The id
// is a random UUID and CreatedAt is the current UTC time rounded up to the
// microsecond, the finest precision Postgres timestamptz keeps. The insert is a
// single statement, so a failed call leaves no row behind.
//
// On success, it returns the persisted Enquiry. On failure, it returns a DB error.
func CreateEnquiry(ctx context.Context, db *gorm.DB, in domain.EnquiryInput) (*domain.Enquiry, error) {
	e := domain.NewEnquiry(uuid.NewString(), domain.CeilTime(time.Now().UTC(), time.Microsecond), in)
	if err := db.WithContext(ctx).Create(e).Error; err != nil {
		return nil, err
	}
	return e, nil
}

// GetEnquiry fetches a single enquiry by id, or ErrNotFound.
func GetEnquiry(ctx context.Context, db *gorm.DB, id string) (*domain.Enquiry, error) {
	var e domain.Enquiry
	if err := db.WithContext(ctx).Where("id = ?", id).First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

// CountEnquiries returns the total number of stored enquiries.
func CountEnquiries(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Enquiry{}).Count(&total).Error
	return total, err
}

// ListEnquiriesPage returns a page of enquiries ordered newest first.
// The caller computes offset and limit (e.g., (page-1)*pageSize).
func ListEnquiriesPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Enquiry, error) {
	var out []domain.Enquiry
	err := db.WithContext(ctx).
		Order("created_at desc").
		Order("id").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
