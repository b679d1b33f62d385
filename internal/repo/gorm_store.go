package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-enquiry-backend/internal/domain"
)

// GormStore adapts the repository free functions to the Store interface.
type GormStore struct {
	DB *gorm.DB
}

// NewGormStore wraps an opened and migrated GORM handle.
func NewGormStore(db *gorm.DB) *GormStore { return &GormStore{DB: db} }

// CreateEnquiry proxies CreateEnquiry.
func (s *GormStore) CreateEnquiry(ctx context.Context, in domain.EnquiryInput) (*domain.Enquiry, error) {
	return CreateEnquiry(ctx, s.DB, in)
}

// GetEnquiry proxies GetEnquiry.
func (s *GormStore) GetEnquiry(ctx context.Context, id string) (*domain.Enquiry, error) {
	return GetEnquiry(ctx, s.DB, id)
}

// ListEnquiries returns one page and the total row count.
func (s *GormStore) ListEnquiries(ctx context.Context, offset, limit int) ([]domain.Enquiry, int64, error) {
	total, err := CountEnquiries(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Enquiry{}, 0, nil
	}
	items, err := ListEnquiriesPage(ctx, s.DB, offset, limit)
	return items, total, err
}

// Stats proxies EnquiriesStats.
func (s *GormStore) Stats(ctx context.Context) (int64, *time.Time, error) {
	return EnquiriesStats(ctx, s.DB)
}

// Ping checks the underlying connection.
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
