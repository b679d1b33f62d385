// Package repo implements the data persistence layer for enquiries. This file
// provides a small aggregate query used for conditional responses (ETag
// generation) on the admin listing.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-enquiry-backend/internal/domain"
)

// EnquiriesStats returns the total number of enquiries and the newest
// CreatedAt among them. Since enquiries are append-only, the pair changes
// exactly when the listing changes. When there are no rows, count is 0 and
// newest is nil.
func EnquiriesStats(ctx context.Context, db *gorm.DB) (count int64, newest *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Enquiry{})

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest created_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		CreatedAt time.Time
	}
	if err = q.Select("created_at").Order("created_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.CreatedAt, nil
}
