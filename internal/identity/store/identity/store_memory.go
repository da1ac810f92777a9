package identity

import (
	"context"
	"sync"

	"veris/internal/identity/models"
	"veris/pkg/domain"
	"veris/pkg/platform/sentinel"
)

// InMemory keeps identity records in a map keyed by owner. Reads and
// writes exchange deep copies so callers never alias stored state.
type InMemory struct {
	mu      sync.RWMutex
	records map[domain.Owner]*models.IdentityRecord
}

func NewInMemory() *InMemory {
	return &InMemory{
		records: make(map[domain.Owner]*models.IdentityRecord),
	}
}

func (s *InMemory) Get(_ context.Context, owner domain.Owner) (*models.IdentityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[owner]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return rec.Clone(), nil
}

// Create inserts a record only when the owner holds none, keeping the
// one-record-per-owner invariant at the storage boundary.
func (s *InMemory) Create(_ context.Context, owner domain.Owner, rec *models.IdentityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[owner]; exists {
		return sentinel.ErrConflict
	}
	s.records[owner] = rec.Clone()
	return nil
}

// Put upserts the record under owner. Used for in-place mutations and
// for materializing a transferred record under its new key.
func (s *InMemory) Put(_ context.Context, owner domain.Owner, rec *models.IdentityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[owner] = rec.Clone()
	return nil
}

func (s *InMemory) Delete(_ context.Context, owner domain.Owner) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[owner]; !exists {
		return sentinel.ErrNotFound
	}
	delete(s.records, owner)
	return nil
}
