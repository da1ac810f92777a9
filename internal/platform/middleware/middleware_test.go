package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veris/internal/ledger"
	"veris/pkg/domain"
	"veris/pkg/requestcontext"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type staticValidator struct {
	claims *Claims
	err    error
}

func (v *staticValidator) ValidateToken(string) (*Claims, error) {
	return v.claims, v.err
}

func TestRequireAuthInjectsCaller(t *testing.T) {
	validator := &staticValidator{claims: &Claims{Owner: "alice", JTI: "jti-1"}}

	var got domain.Owner
	handler := RequireAuth(validator, discard)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = requestcontext.Caller(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/did", nil)
	req.Header.Set("Authorization", "Bearer sometoken")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.Owner("alice"), got)
}

func TestRequireAuthRejectsMissingHeader(t *testing.T) {
	validator := &staticValidator{claims: &Claims{Owner: "alice"}}

	called := false
	handler := RequireAuth(validator, discard)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/did", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
	assert.JSONEq(t, `{"error":"UNAUTHORIZED","error_description":"missing or invalid Authorization header"}`, rec.Body.String())
}

func TestRequireAuthRejectsInvalidToken(t *testing.T) {
	validator := &staticValidator{err: assert.AnError}

	handler := RequireAuth(validator, discard)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/did", nil)
	req.Header.Set("Authorization", "Bearer bad")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHeightAdvancesOnWrites(t *testing.T) {
	source := ledger.NewCounter(10)

	var heights []uint64
	handler := Height(source, discard)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := requestcontext.Height(r.Context())
		require.True(t, ok)
		heights = append(heights, h)
	}))

	for _, method := range []string{http.MethodPost, http.MethodPost, http.MethodGet, http.MethodDelete} {
		req := httptest.NewRequest(method, "/v1/did", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	// Two writes advance to 11 and 12, the read observes 12, the
	// delete advances to 13.
	assert.Equal(t, []uint64{11, 12, 12, 13}, heights)
}

func TestRequestIDGeneratedAndEchoed(t *testing.T) {
	var got string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = requestcontext.RequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.NotEmpty(t, got)
	assert.Equal(t, got, rec.Header().Get(RequestIDHeader))
}

func TestRequestIDPreservesUpstream(t *testing.T) {
	var got string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = requestcontext.RequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "upstream-id")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "upstream-id", got)
}

func TestRecoveryConvertsPanic(t *testing.T) {
	handler := Recovery(discard)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestLoggerPassesThrough(t *testing.T) {
	handler := Logger(discard, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Millisecond)
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
}
