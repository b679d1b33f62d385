package repo

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tbourn/go-enquiry-backend/internal/domain"
)

// ErrStoreClosed is returned by MemoryStore after Close.
var ErrStoreClosed = errors.New("store closed")

// MemoryStore keeps enquiries in process memory. It backs DB_DRIVER=memory
// for local development and stands in for a database in tests. Records are
// lost on restart.
//
// This type is safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[string]domain.Enquiry
	order  []string // insertion order
	closed bool

	// FailWith, when non-nil, makes every call fail with this error.
	// Used to simulate an unavailable medium.
	FailWith error
}

// NewMemoryStore returns an empty, ready store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]domain.Enquiry)}
}

func (s *MemoryStore) check() error {
	if s.FailWith != nil {
		return s.FailWith
	}
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

// CreateEnquiry assigns a fresh UUID and timestamp and stores the record.
func (s *MemoryStore) CreateEnquiry(ctx context.Context, in domain.EnquiryInput) (*domain.Enquiry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	for _, taken := s.byID[id]; taken; _, taken = s.byID[id] {
		id = uuid.NewString()
	}
	e := domain.NewEnquiry(id, time.Now().UTC(), in)
	s.byID[id] = *e
	s.order = append(s.order, id)

	out := *e
	return &out, nil
}

// GetEnquiry returns a copy of the stored record, or ErrNotFound.
func (s *MemoryStore) GetEnquiry(ctx context.Context, id string) (*domain.Enquiry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return nil, err
	}
	e, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

// ListEnquiries returns a page ordered newest first and the total count.
func (s *MemoryStore) ListEnquiries(ctx context.Context, offset, limit int) ([]domain.Enquiry, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return nil, 0, err
	}

	all := make([]domain.Enquiry, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		all = append(all, s.byID[s.order[i]])
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := int64(len(all))
	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return []domain.Enquiry{}, total, nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], total, nil
}

// Stats returns the record count and newest CreatedAt.
func (s *MemoryStore) Stats(ctx context.Context) (int64, *time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return 0, nil, err
	}
	if len(s.byID) == 0 {
		return 0, nil, nil
	}
	var newest time.Time
	for _, e := range s.byID {
		if e.CreatedAt.After(newest) {
			newest = e.CreatedAt
		}
	}
	return int64(len(s.byID)), &newest, nil
}

// Len reports how many records are stored.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Ping reports whether the store is usable.
func (s *MemoryStore) Ping(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.check()
}

// Close marks the store unusable.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
