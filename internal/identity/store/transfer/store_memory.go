package transfer

import (
	"context"
	"sync"

	"veris/internal/identity/models"
	"veris/pkg/domain"
	"veris/pkg/platform/sentinel"
)

// InMemory keeps pending transfers keyed by the current owner. The
// at-most-one-per-owner invariant is enforced here: Create refuses a
// second entry for the same key.
type InMemory struct {
	mu        sync.RWMutex
	transfers map[domain.Owner]*models.PendingTransfer
}

func NewInMemory() *InMemory {
	return &InMemory{
		transfers: make(map[domain.Owner]*models.PendingTransfer),
	}
}

func (s *InMemory) Get(_ context.Context, owner domain.Owner) (*models.PendingTransfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pt, ok := s.transfers[owner]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *pt
	return &cp, nil
}

func (s *InMemory) Create(_ context.Context, owner domain.Owner, pt *models.PendingTransfer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.transfers[owner]; exists {
		return sentinel.ErrConflict
	}
	cp := *pt
	s.transfers[owner] = &cp
	return nil
}

func (s *InMemory) Delete(_ context.Context, owner domain.Owner) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.transfers[owner]; !exists {
		return sentinel.ErrNotFound
	}
	delete(s.transfers, owner)
	return nil
}
