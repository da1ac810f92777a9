package service

import (
	"context"
	"fmt"

	"veris/internal/audit"
	"veris/internal/identity/models"
	"veris/pkg/domain"
	dErrors "veris/pkg/domain-errors"
	"veris/pkg/requestcontext"
)

// =============================================================================
// Transfer Handshake Tests
// =============================================================================

func (s *ServiceSuite) TestInitiateTransfer() {
	s.Run("records a pending transfer with the full window", func() {
		ctx := s.ctx("alice", 100)
		s.Require().NoError(s.service.CreateDID(ctx, "did:stx:alice"))
		s.Require().NoError(s.service.InitiateTransfer(ctx, "bob"))

		pt, err := s.service.GetPendingTransfer(ctx, "alice")
		s.Require().NoError(err)
		s.Require().NotNil(pt)
		s.Equal(domain.Owner("bob"), pt.NewOwner)
		s.Equal(uint64(100), pt.InitiatedAt)
		s.Equal(uint64(100+models.TransferWindow), pt.ExpiresAt)
	})

	s.Run("missing identity returns not found", func() {
		err := s.service.InitiateTransfer(s.ctx("nobody", 1), "bob")
		s.assertCode(err, dErrors.CodeNotFound)
	})

	s.Run("deactivated identity cannot start a transfer", func() {
		ctx := s.ctx("carol", 1)
		s.Require().NoError(s.service.CreateDID(ctx, "did:stx:carol"))
		s.Require().NoError(s.service.DeactivateDID(ctx, ""))

		s.assertCode(s.service.InitiateTransfer(ctx, "bob"), dErrors.CodeDeactivated)
	})

	s.Run("pending transfer blocks a second initiation", func() {
		ctx := s.ctx("dave", 1)
		s.Require().NoError(s.service.CreateDID(ctx, "did:stx:dave"))
		s.Require().NoError(s.service.InitiateTransfer(ctx, "bob"))

		s.assertCode(s.service.InitiateTransfer(ctx, "eve"), dErrors.CodeTransferInProgress)
	})

	s.Run("pending check precedes self-transfer check", func() {
		ctx := s.ctx("erin", 1)
		s.Require().NoError(s.service.CreateDID(ctx, "did:stx:erin"))
		s.Require().NoError(s.service.InitiateTransfer(ctx, "bob"))

		s.assertCode(s.service.InitiateTransfer(ctx, "erin"), dErrors.CodeTransferInProgress)
	})

	s.Run("self-transfer is refused", func() {
		ctx := s.ctx("frank", 1)
		s.Require().NoError(s.service.CreateDID(ctx, "did:stx:frank"))

		s.assertCode(s.service.InitiateTransfer(ctx, "frank"), dErrors.CodeSelfTransfer)
	})

	s.Run("target holding an identity is refused", func() {
		s.Require().NoError(s.service.CreateDID(s.ctx("gina", 1), "did:stx:gina"))
		s.Require().NoError(s.service.CreateDID(s.ctx("hugo", 1), "did:stx:hugo"))

		err := s.service.InitiateTransfer(s.ctx("gina", 2), "hugo")
		s.assertCode(err, dErrors.CodeAlreadyExists)
	})
}

func (s *ServiceSuite) TestCancelTransfer() {
	s.Run("removes the pending entry", func() {
		ctx := s.ctx("alice", 1)
		s.Require().NoError(s.service.CreateDID(ctx, "did:stx:alice"))
		s.Require().NoError(s.service.InitiateTransfer(ctx, "bob"))
		s.Require().NoError(s.service.CancelTransfer(ctx))

		pt, err := s.service.GetPendingTransfer(ctx, "alice")
		s.NoError(err)
		s.Nil(pt)
	})

	s.Run("second cancel returns no pending transfer", func() {
		ctx := s.ctx("bob", 1)
		s.Require().NoError(s.service.CreateDID(ctx, "did:stx:bob"))
		s.Require().NoError(s.service.InitiateTransfer(ctx, "carol"))
		s.Require().NoError(s.service.CancelTransfer(ctx))

		s.assertCode(s.service.CancelTransfer(ctx), dErrors.CodeNoPendingTransfer)
	})

	s.Run("cancel clears an expired entry", func() {
		ctx := s.ctx("dora", 100)
		s.Require().NoError(s.service.CreateDID(ctx, "did:stx:dora"))
		s.Require().NoError(s.service.InitiateTransfer(ctx, "evan"))

		late := s.ctx("dora", 100+models.TransferWindow+1)
		expired, err := s.service.IsTransferExpired(late, "dora")
		s.Require().NoError(err)
		s.True(expired)

		s.NoError(s.service.CancelTransfer(late))
		s.NoError(s.service.InitiateTransfer(late, "evan"))
	})
}

func (s *ServiceSuite) TestAcceptTransfer() {
	s.Run("moves the record with credentials intact", func() {
		alice := s.ctx("alice", 50)
		s.Require().NoError(s.service.CreateDID(alice, "did:stx:alice"))
		s.Require().NoError(s.service.AddCredential(alice, "vc:kyc"))
		s.Require().NoError(s.service.InitiateTransfer(alice, "bob"))

		bob := s.ctx("bob", 60)
		s.Require().NoError(s.service.AcceptTransfer(bob, "alice"))

		old, err := s.service.GetDID(bob, "alice")
		s.NoError(err)
		s.Nil(old)

		moved, err := s.service.GetDID(bob, "bob")
		s.Require().NoError(err)
		s.Require().NotNil(moved)
		s.Equal(domain.DID("did:stx:alice"), moved.DID)
		s.Equal([]domain.Credential{"vc:kyc"}, moved.Credentials)
		s.Equal(uint64(50), moved.CreatedAt)
		s.Equal(uint64(60), moved.UpdatedAt)

		pt, err := s.service.GetPendingTransfer(bob, "alice")
		s.NoError(err)
		s.Nil(pt)

		entries, err := s.service.GetTransferHistory(bob, "bob")
		s.Require().NoError(err)
		s.Require().Len(entries, 1)
		s.Equal(domain.Owner("alice"), entries[0].From)
		s.Equal(domain.Owner("bob"), entries[0].To)
		s.Equal(uint64(60), entries[0].Timestamp)
	})

	s.Run("no pending transfer returns not found", func() {
		s.Require().NoError(s.service.CreateDID(s.ctx("carl", 1), "did:stx:carl"))

		err := s.service.AcceptTransfer(s.ctx("bob", 1), "carl")
		s.assertCode(err, dErrors.CodeNotFound)
	})

	s.Run("only the named recipient may accept", func() {
		ctx := s.ctx("dina", 1)
		s.Require().NoError(s.service.CreateDID(ctx, "did:stx:dina"))
		s.Require().NoError(s.service.InitiateTransfer(ctx, "nick"))

		err := s.service.AcceptTransfer(s.ctx("mallory", 2), "dina")
		s.assertCode(err, dErrors.CodeUnauthorized)
	})

	s.Run("deactivation after initiation blocks acceptance", func() {
		ctx := s.ctx("ed", 1)
		s.Require().NoError(s.service.CreateDID(ctx, "did:stx:ed"))
		s.Require().NoError(s.service.InitiateTransfer(ctx, "olga"))
		s.Require().NoError(s.service.DeactivateDID(ctx, ""))

		err := s.service.AcceptTransfer(s.ctx("olga", 2), "ed")
		s.assertCode(err, dErrors.CodeDeactivated)
	})

	s.Run("acceptance at the window boundary succeeds", func() {
		ctx := s.ctx("fay", 200)
		s.Require().NoError(s.service.CreateDID(ctx, "did:stx:fay"))
		s.Require().NoError(s.service.InitiateTransfer(ctx, "pam"))

		atBoundary := s.ctx("pam", 200+models.TransferWindow)
		s.NoError(s.service.AcceptTransfer(atBoundary, "fay"))
	})

	s.Run("expired transfer fails but stays stored", func() {
		ctx := s.ctx("gus", 200)
		s.Require().NoError(s.service.CreateDID(ctx, "did:stx:gus"))
		s.Require().NoError(s.service.InitiateTransfer(ctx, "quin"))

		late := s.ctx("quin", 200+models.TransferWindow+1)
		err := s.service.AcceptTransfer(late, "gus")
		s.assertCode(err, dErrors.CodeTransferExpired)

		pt, err := s.service.GetPendingTransfer(late, "gus")
		s.NoError(err)
		s.NotNil(pt)

		rec, err := s.service.GetDID(late, "gus")
		s.NoError(err)
		s.NotNil(rec)
	})

	s.Run("full history aborts with nothing moved", func() {
		ctx := s.ctx("hal", 1)
		s.Require().NoError(s.service.CreateDID(ctx, "did:stx:hal"))
		s.Require().NoError(s.service.InitiateTransfer(ctx, "ivy"))

		for i := 0; i < models.MaxTransferHistory; i++ {
			entry := models.TransferHistoryEntry{
				From:      domain.Owner(fmt.Sprintf("prior-%d", i)),
				To:        "ivy",
				Timestamp: uint64(i),
			}
			s.Require().NoError(s.history.Append(context.Background(), "ivy", entry))
		}

		ivy := s.ctx("ivy", 2)
		err := s.service.AcceptTransfer(ivy, "hal")
		s.assertCode(err, dErrors.CodeHistoryFull)

		rec, err := s.service.GetDID(ivy, "hal")
		s.NoError(err)
		s.NotNil(rec)

		moved, err := s.service.GetDID(ivy, "ivy")
		s.NoError(err)
		s.Nil(moved)

		pt, err := s.service.GetPendingTransfer(ivy, "hal")
		s.NoError(err)
		s.NotNil(pt)

		entries, err := s.service.GetTransferHistory(ivy, "ivy")
		s.NoError(err)
		s.Len(entries, models.MaxTransferHistory)
	})

	s.Run("recipient can transfer onward after accepting", func() {
		a := s.ctx("jan", 10)
		s.Require().NoError(s.service.CreateDID(a, "did:stx:jan"))
		s.Require().NoError(s.service.InitiateTransfer(a, "kim"))
		s.Require().NoError(s.service.AcceptTransfer(s.ctx("kim", 11), "jan"))

		kim := s.ctx("kim", 12)
		s.Require().NoError(s.service.InitiateTransfer(kim, "lee"))
		s.Require().NoError(s.service.AcceptTransfer(s.ctx("lee", 13), "kim"))

		entries, err := s.service.GetTransferHistory(kim, "lee")
		s.Require().NoError(err)
		s.Require().Len(entries, 1)
		s.Equal(domain.Owner("kim"), entries[0].From)
	})
}

func (s *ServiceSuite) TestTransferAuditTrail() {
	alice := s.ctx("alice", 20)
	s.Require().NoError(s.service.CreateDID(alice, "did:stx:alice"))
	s.Require().NoError(s.service.InitiateTransfer(alice, "bob"))
	s.Require().NoError(s.service.AcceptTransfer(s.ctx("bob", 21), "alice"))

	events := s.sink.Events()
	s.Require().Len(events, 3)
	s.Equal(audit.EventTransferInitiated, events[1].Action)
	s.Equal(domain.Owner("alice"), events[1].Owner)
	s.Equal(domain.Owner("bob"), events[1].Subject)
	s.Equal(audit.EventTransferAccepted, events[2].Action)
	s.Equal(domain.Owner("alice"), events[2].Owner)
	s.Equal(domain.Owner("bob"), events[2].Subject)
}

func (s *ServiceSuite) TestIsTransferExpired() {
	s.Run("no pending transfer reads false", func() {
		expired, err := s.service.IsTransferExpired(s.ctx("alice", 1), "alice")
		s.NoError(err)
		s.False(expired)
	})

	s.Run("missing height reads false", func() {
		ctx := s.ctx("bob", 1)
		s.Require().NoError(s.service.CreateDID(ctx, "did:stx:bob"))
		s.Require().NoError(s.service.InitiateTransfer(ctx, "carol"))

		noHeight := requestcontext.WithCaller(context.Background(), "bob")
		expired, err := s.service.IsTransferExpired(noHeight, "bob")
		s.NoError(err)
		s.False(expired)
	})
}

func (s *ServiceSuite) TestGetTransferHistory() {
	s.Run("empty history reads as empty slice", func() {
		entries, err := s.service.GetTransferHistory(context.Background(), "nobody")
		s.NoError(err)
		s.Empty(entries)
	})
}
