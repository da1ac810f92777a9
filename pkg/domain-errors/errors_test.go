package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndHasCode(t *testing.T) {
	err := New(CodeNotFound, "identity not found")
	require.Error(t, err)
	assert.True(t, HasCode(err, CodeNotFound))
	assert.False(t, HasCode(err, CodeAlreadyExists))
	assert.Equal(t, "NOT_FOUND: identity not found", err.Error())
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(cause, CodeInternal, "store unavailable")
	require.Error(t, err)
	assert.True(t, HasCode(err, CodeInternal))
	assert.ErrorIs(t, err, cause)
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, CodeInternal, "ignored"))
}

func TestCodeOf(t *testing.T) {
	t.Run("coded error", func(t *testing.T) {
		assert.Equal(t, CodeSelfTransfer, CodeOf(New(CodeSelfTransfer, "cannot transfer to self")))
	})

	t.Run("wrapped through fmt", func(t *testing.T) {
		inner := New(CodeTransferExpired, "transfer window elapsed")
		outer := fmt.Errorf("accept failed: %w", inner)
		assert.Equal(t, CodeTransferExpired, CodeOf(outer))
		assert.True(t, HasCode(outer, CodeTransferExpired))
	})

	t.Run("uncoded error defaults to internal", func(t *testing.T) {
		assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	})
}

func TestIs(t *testing.T) {
	assert.True(t, Is(New(CodeHistoryFull, "history at capacity"), CodeHistoryFull))
	assert.False(t, Is(New(CodeHistoryFull, "history at capacity"), CodeNotFound))
	assert.False(t, Is(errors.New("plain"), CodeHistoryFull))
	assert.False(t, Is(nil, CodeHistoryFull))
}

func TestErrorIsMatchesCodeAndMessage(t *testing.T) {
	err := New(CodeUnauthorized, "token has expired")
	assert.ErrorIs(t, err, New(CodeUnauthorized, "token has expired"))
	assert.NotErrorIs(t, err, New(CodeUnauthorized, "invalid token"))
	assert.NotErrorIs(t, err, New(CodeNotFound, "token has expired"))
}
