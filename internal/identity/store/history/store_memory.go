package history

import (
	"context"
	"slices"
	"sync"

	"veris/internal/identity/models"
	"veris/pkg/domain"
	"veris/pkg/platform/sentinel"
)

// InMemory keeps per-owner transfer logs. Append rejects writes past
// models.MaxTransferHistory; nothing is ever dropped or rotated.
type InMemory struct {
	mu      sync.RWMutex
	entries map[domain.Owner][]models.TransferHistoryEntry
}

func NewInMemory() *InMemory {
	return &InMemory{
		entries: make(map[domain.Owner][]models.TransferHistoryEntry),
	}
}

// Get returns the owner's log in insertion order, empty if none.
func (s *InMemory) Get(_ context.Context, owner domain.Owner) ([]models.TransferHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.entries[owner]), nil
}

func (s *InMemory) Append(_ context.Context, owner domain.Owner, entry models.TransferHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries[owner]) >= models.MaxTransferHistory {
		return sentinel.ErrCapacity
	}
	s.entries[owner] = append(s.entries[owner], entry)
	return nil
}

// Delete discards the owner's entire log. Only used by cascade revoke.
func (s *InMemory) Delete(_ context.Context, owner domain.Owner) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, owner)
	return nil
}
