package history

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"

	"veris/internal/identity/models"
	"veris/pkg/domain"
	"veris/pkg/platform/sentinel"
)

type HistoryStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *HistoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestHistoryStoreSuite(t *testing.T) {
	suite.Run(t, new(HistoryStoreSuite))
}

func (s *HistoryStoreSuite) TestEmptyLog() {
	entries, err := s.store.Get(s.ctx, "nobody")
	s.Require().NoError(err)
	s.Empty(entries, "missing log reads as empty, never as an error")
}

func (s *HistoryStoreSuite) TestAppendPreservesOrder() {
	for i := 0; i < 3; i++ {
		entry := models.TransferHistoryEntry{
			From:      "alice",
			To:        "bob",
			Timestamp: uint64(100 + i),
		}
		s.Require().NoError(s.store.Append(s.ctx, "bob", entry))
	}

	entries, err := s.store.Get(s.ctx, "bob")
	s.Require().NoError(err)
	s.Require().Len(entries, 3)
	for i, e := range entries {
		s.Equal(uint64(100+i), e.Timestamp)
	}
}

func (s *HistoryStoreSuite) TestCapacityRejected() {
	for i := 0; i < models.MaxTransferHistory; i++ {
		entry := models.TransferHistoryEntry{
			From:      "alice",
			To:        "bob",
			Timestamp: uint64(i),
		}
		s.Require().NoError(s.store.Append(s.ctx, "bob", entry), "append %d", i+1)
	}

	err := s.store.Append(s.ctx, "bob", models.TransferHistoryEntry{From: "x", To: "bob", Timestamp: 999})
	s.Require().ErrorIs(err, sentinel.ErrCapacity)

	entries, err := s.store.Get(s.ctx, "bob")
	s.Require().NoError(err)
	s.Len(entries, models.MaxTransferHistory, "rejected append must not alter the log")
}

func (s *HistoryStoreSuite) TestLogsAreIndependent() {
	for i := 0; i < 4; i++ {
		owner := domain.Owner(fmt.Sprintf("owner-%d", i))
		entry := models.TransferHistoryEntry{From: "seed", To: owner, Timestamp: uint64(i)}
		s.Require().NoError(s.store.Append(s.ctx, owner, entry))
	}

	for i := 0; i < 4; i++ {
		entries, err := s.store.Get(s.ctx, domain.Owner(fmt.Sprintf("owner-%d", i)))
		s.Require().NoError(err)
		s.Len(entries, 1)
	}
}

func (s *HistoryStoreSuite) TestGetReturnsCopy() {
	s.Require().NoError(s.store.Append(s.ctx, "bob", models.TransferHistoryEntry{From: "alice", To: "bob", Timestamp: 1}))

	first, err := s.store.Get(s.ctx, "bob")
	s.Require().NoError(err)
	first[0].From = "mallory"

	second, err := s.store.Get(s.ctx, "bob")
	s.Require().NoError(err)
	s.EqualValues("alice", second[0].From)
}
