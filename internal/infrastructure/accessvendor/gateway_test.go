package accessvendor

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymdesk/accessbridge/internal/domain/synclog"
	"github.com/gymdesk/accessbridge/internal/shared/logger"
)

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

type gatewayFixture struct {
	gw      *Gateway
	stub    *vendorStub
	tokens  *fakeTokenSource
	syncLog *recordingSyncLog
	sleeps  *sleepRecorder
}

func newGatewayFixture(t *testing.T, api http.HandlerFunc, opts ...GatewayOption) *gatewayFixture {
	t.Helper()
	stub := newVendorStub(tokenHandler("unused", time.Hour), api)
	t.Cleanup(stub.Close)

	f := &gatewayFixture{
		stub:    stub,
		tokens:  &fakeTokenSource{},
		syncLog: &recordingSyncLog{},
		sleeps:  &sleepRecorder{},
	}
	opts = append([]GatewayOption{WithSleep(f.sleeps.sleep)}, opts...)
	f.gw = NewGateway(
		newFakeSettingsRepo(stub.settings(1)),
		f.tokens,
		f.syncLog,
		stub.server.Client(),
		GatewayConfig{},
		logger.NewNop(),
		opts...,
	)
	return f
}

func TestGateway_Success(t *testing.T) {
	var auth string
	f := newGatewayFixture(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		writeEnvelope(w, http.StatusOK, `{"code":0,"msg":"ok","data":{"personId":"P-9"}}`)
	})

	resp, err := f.gw.Call(context.Background(), 1, PathUpsertPerson, http.MethodPost, map[string]string{"a": "b"})
	require.NoError(t, err)

	var data upsertPersonData
	require.NoError(t, resp.Decode(&data))
	assert.Equal(t, "P-9", data.PersonID)
	assert.Equal(t, "Bearer tok-1", auth)
	assert.Empty(t, f.sleeps.delays)
	assert.Empty(t, f.syncLog.records)
}

func TestGateway_ServerErrorsExhaustAttempts(t *testing.T) {
	f := newGatewayFixture(t, func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, http.StatusInternalServerError, `boom`)
	})

	_, err := f.gw.Call(context.Background(), 1, PathBindCard, http.MethodPost, nil)
	require.Error(t, err)

	var callErr *CallError
	require.True(t, errors.As(err, &callErr))
	assert.Equal(t, 3, callErr.Attempts)
	assert.Equal(t, http.StatusInternalServerError, callErr.Status)
	assert.Equal(t, PathBindCard, callErr.Endpoint)
	assert.Equal(t, http.MethodPost, callErr.Method)
	assert.EqualValues(t, 1, callErr.BranchID)
	assert.Equal(t, KindTransient, KindOf(err))
	assert.EqualValues(t, 3, f.stub.apiCalls.Load())

	require.Len(t, f.sleeps.delays, 2)
	assert.LessOrEqual(t, f.sleeps.delays[0], f.sleeps.delays[1])
	assert.InDelta(t, float64(2*time.Second), float64(f.sleeps.delays[0]), float64(400*time.Millisecond))
	assert.InDelta(t, float64(4*time.Second), float64(f.sleeps.delays[1]), float64(800*time.Millisecond))

	assert.Len(t, f.syncLog.byCategory(synclog.CategoryError), 1)
}

func TestGateway_UnauthorizedEvictsAndRetries(t *testing.T) {
	var calls atomic.Int32
	f := newGatewayFixture(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			writeEnvelope(w, http.StatusUnauthorized, `{}`)
			return
		}
		writeEnvelope(w, http.StatusOK, `{"code":"0","data":{}}`)
	})

	_, err := f.gw.Call(context.Background(), 1, PathSyncDevices, http.MethodPost, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, f.tokens.evictions.Load())
	assert.EqualValues(t, 2, f.stub.apiCalls.Load())
	assert.Len(t, f.syncLog.byCategory(synclog.CategoryWarning), 1)
}

func TestGateway_PersistentUnauthorizedIsAuthError(t *testing.T) {
	f := newGatewayFixture(t, func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, `{}`)
	})

	_, err := f.gw.Call(context.Background(), 1, PathSyncDevices, http.MethodPost, nil)

	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, http.StatusUnauthorized, authErr.Status)
	assert.Contains(t, err.Error(), "vendor auth failed")
	assert.EqualValues(t, 3, f.tokens.evictions.Load())
	// one warning per rejected attempt, one terminal error
	assert.Len(t, f.syncLog.byCategory(synclog.CategoryWarning), 3)
	assert.Len(t, f.syncLog.byCategory(synclog.CategoryError), 1)
}

func TestGateway_TokenExpiredCodeEvictsAndRetries(t *testing.T) {
	var calls atomic.Int32
	f := newGatewayFixture(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			writeEnvelope(w, http.StatusOK, `{"code":"TOKEN_EXPIRED","msg":"expired"}`)
			return
		}
		writeEnvelope(w, http.StatusOK, `{"code":"0"}`)
	})

	_, err := f.gw.Call(context.Background(), 1, PathConfigureAccess, http.MethodPost, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, f.tokens.evictions.Load())
	assert.Len(t, f.sleeps.delays, 1)
}

func TestGateway_DomainCodesAreNotRetried(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		sentinel error
	}{
		{name: "person not found", code: CodePersonNotFound, sentinel: ErrPersonNotFound},
		{name: "device offline", code: CodeDeviceOffline, sentinel: ErrDeviceOffline},
		{name: "unknown code", code: "E1234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGatewayFixture(t, func(w http.ResponseWriter, _ *http.Request) {
				writeEnvelope(w, http.StatusOK, `{"code":"`+tt.code+`","msg":"nope"}`)
			})

			_, err := f.gw.Call(context.Background(), 1, PathUpsertPerson, http.MethodPost, nil)

			var vendorErr *VendorError
			require.True(t, errors.As(err, &vendorErr))
			assert.Equal(t, tt.code, vendorErr.Code)
			assert.Equal(t, tt.code, CodeOf(err))
			assert.Equal(t, KindDomain, KindOf(err))
			if tt.sentinel != nil {
				assert.ErrorIs(t, err, tt.sentinel)
			}
			assert.EqualValues(t, 1, f.stub.apiCalls.Load())
			assert.Empty(t, f.sleeps.delays)
			assert.Len(t, f.syncLog.byCategory(synclog.CategoryError), 1)
		})
	}
}

func TestGateway_ClientErrorIsFatal(t *testing.T) {
	f := newGatewayFixture(t, func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, http.StatusBadRequest, `bad`)
	})

	_, err := f.gw.Call(context.Background(), 1, PathBindCard, http.MethodPost, nil)

	var callErr *CallError
	require.True(t, errors.As(err, &callErr))
	assert.Equal(t, 1, callErr.Attempts)
	assert.EqualValues(t, 1, f.stub.apiCalls.Load())
}

func TestGateway_UndecodableBodyIsFatal(t *testing.T) {
	f := newGatewayFixture(t, func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, http.StatusOK, `<html>`)
	})

	_, err := f.gw.Call(context.Background(), 1, PathBindCard, http.MethodPost, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errUndecodable)
	assert.EqualValues(t, 1, f.stub.apiCalls.Load())
}

func TestGateway_MissingSettingsIsConfigError(t *testing.T) {
	f := newGatewayFixture(t, okHandler(`{}`))

	_, err := f.gw.Call(context.Background(), 99, PathBindCard, http.MethodPost, nil)

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Zero(t, f.stub.apiCalls.Load())
}

func TestGateway_TokenFailureStopsImmediately(t *testing.T) {
	f := newGatewayFixture(t, okHandler(`{}`))
	f.tokens.GetTokenFunc = func(context.Context, uint) (string, error) {
		return "", &AuthError{BranchID: 1, Status: http.StatusForbidden}
	}

	_, err := f.gw.Call(context.Background(), 1, PathBindCard, http.MethodPost, nil)

	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Zero(t, f.stub.apiCalls.Load())
	assert.Empty(t, f.sleeps.delays)
}

func TestGateway_RateLimitedSlotsConsumeAttempts(t *testing.T) {
	limiter := &fakeLimiter{AllowFunc: func(_ context.Context, key string) (bool, error) {
		assert.Equal(t, "branch:1", key)
		return false, nil
	}}
	f := newGatewayFixture(t, okHandler(`{}`), WithLimiter(limiter))

	_, err := f.gw.Call(context.Background(), 1, PathBindCard, http.MethodPost, nil)

	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Zero(t, f.stub.apiCalls.Load())
	assert.Len(t, f.sleeps.delays, 2)
}

func TestGateway_CancelledDuringBackoff(t *testing.T) {
	f := newGatewayFixture(t, func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, http.StatusServiceUnavailable, ``)
	}, WithSleep(func(context.Context, time.Duration) error {
		return context.Canceled
	}))

	_, err := f.gw.Call(context.Background(), 1, PathBindCard, http.MethodPost, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.EqualValues(t, 1, f.stub.apiCalls.Load())
}

func TestGateway_WithTokenManagerEvictsOnUnauthorized(t *testing.T) {
	var issued atomic.Int32
	stub := newVendorStub(func(w http.ResponseWriter, r *http.Request) {
		n := issued.Add(1)
		tokenHandler("tok-"+string(rune('0'+n)), 7*24*time.Hour)(w, r)
	}, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer tok-1" {
			writeEnvelope(w, http.StatusUnauthorized, `{}`)
			return
		}
		writeEnvelope(w, http.StatusOK, `{"code":"0"}`)
	})
	defer stub.Close()

	store := newFakeTokenStore()
	syncLog := &recordingSyncLog{}
	settings := newFakeSettingsRepo(stub.settings(1))
	tm := NewTokenManager(settings, store, syncLog, stub.server.Client(), TokenManagerConfig{}, logger.NewNop())
	sleeps := &sleepRecorder{}
	gw := NewGateway(settings, tm, syncLog, stub.server.Client(), GatewayConfig{}, logger.NewNop(), WithSleep(sleeps.sleep))

	_, err := gw.Call(context.Background(), 1, PathBindCard, http.MethodPost, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stub.tokenCalls.Load())
	assert.EqualValues(t, 2, stub.apiCalls.Load())
}
