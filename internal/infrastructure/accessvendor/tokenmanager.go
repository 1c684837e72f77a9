package accessvendor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/gymdesk/accessbridge/internal/domain/branch"
	"github.com/gymdesk/accessbridge/internal/domain/synclog"
	"github.com/gymdesk/accessbridge/internal/infrastructure/metrics"
	"github.com/gymdesk/accessbridge/internal/shared/goroutine"
	"github.com/gymdesk/accessbridge/internal/shared/logger"
)

const (
	tokenPath = "/token/get"

	DefaultTokenTimeout     = 10 * time.Second
	DefaultRefreshThreshold = 24 * time.Hour
)

// SyncLogger is the audit sink for vendor interactions.
type SyncLogger interface {
	Log(ctx context.Context, rec synclog.Record)
}

type tokenData struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// TokenManager obtains and caches vendor tokens per branch. A token inside
// the refresh threshold is still served while one background refresh runs.
type TokenManager struct {
	settings  branch.SettingsRepository
	store     branch.TokenRepository
	syncLog   SyncLogger
	client    *http.Client
	signer    Signer
	logger    logger.Interface
	threshold time.Duration
	timeout   time.Duration
	now       func() time.Time

	mu    sync.RWMutex
	cache map[uint]branch.Token

	inflightMu sync.Mutex
	inflight   map[uint]struct{}
	background sync.WaitGroup

	group singleflight.Group
}

type TokenManagerConfig struct {
	Timeout          time.Duration
	RefreshThreshold time.Duration
}

func NewTokenManager(
	settings branch.SettingsRepository,
	store branch.TokenRepository,
	syncLog SyncLogger,
	client *http.Client,
	cfg TokenManagerConfig,
	log logger.Interface,
) *TokenManager {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTokenTimeout
	}
	if cfg.RefreshThreshold <= 0 {
		cfg.RefreshThreshold = DefaultRefreshThreshold
	}
	if client == nil {
		client = &http.Client{}
	}
	return &TokenManager{
		settings:  settings,
		store:     store,
		syncLog:   syncLog,
		client:    client,
		signer:    NewSigner(),
		logger:    log.Named("token-manager"),
		threshold: cfg.RefreshThreshold,
		timeout:   cfg.Timeout,
		now:       time.Now,
		cache:     make(map[uint]branch.Token),
		inflight:  make(map[uint]struct{}),
	}
}

// GetToken returns a usable token for the branch, refreshing synchronously
// only when neither the cache nor the persisted copy holds one.
func (m *TokenManager) GetToken(ctx context.Context, branchID uint) (string, error) {
	now := m.now()

	if tok, ok := m.cached(branchID); ok && tok.IsUsable(now) {
		if tok.InRefreshWindow(now, m.threshold) {
			m.refreshAsync(branchID)
		}
		return tok.Value, nil
	}

	if stored, err := m.store.Get(ctx, branchID); err == nil && stored.IsUsable(now) {
		m.put(*stored)
		if stored.InRefreshWindow(now, m.threshold) {
			m.refreshAsync(branchID)
		}
		return stored.Value, nil
	} else if err != nil && !errors.Is(err, branch.ErrTokenNotFound) {
		m.logger.Warnw("failed to read persisted token", "branch_id", branchID, "error", err)
	}

	tok, err := m.refreshShared(ctx, branchID)
	if err != nil {
		return "", err
	}
	return tok.Value, nil
}

// Evict drops the cached and persisted token so the next GetToken
// re-authenticates.
func (m *TokenManager) Evict(ctx context.Context, branchID uint) {
	m.mu.Lock()
	delete(m.cache, branchID)
	m.mu.Unlock()

	if err := m.store.Delete(ctx, branchID); err != nil {
		m.logger.Warnw("failed to delete persisted token", "branch_id", branchID, "error", err)
	}
}

// Warm refreshes the branch token when it is missing or inside the refresh
// window. Used by the scheduler so idle branches never hit a synchronous
// refresh.
func (m *TokenManager) Warm(ctx context.Context, branchID uint) error {
	now := m.now()
	if tok, ok := m.cached(branchID); ok && tok.IsUsable(now) && !tok.InRefreshWindow(now, m.threshold) {
		return nil
	}
	_, err := m.refreshShared(ctx, branchID)
	return err
}

func (m *TokenManager) cached(branchID uint) (branch.Token, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tok, ok := m.cache[branchID]
	return tok, ok
}

func (m *TokenManager) put(tok branch.Token) {
	m.mu.Lock()
	m.cache[tok.BranchID] = tok
	m.mu.Unlock()
}

// refreshShared coalesces concurrent synchronous refreshes of one branch
// into a single vendor request. The request is detached from whichever
// caller started it and bounded by the token timeout.
func (m *TokenManager) refreshShared(ctx context.Context, branchID uint) (branch.Token, error) {
	shared := context.WithoutCancel(ctx)
	ch := m.group.DoChan(strconv.FormatUint(uint64(branchID), 10), func() (any, error) {
		flightCtx, cancel := context.WithTimeout(shared, m.timeout)
		defer cancel()
		return m.refresh(flightCtx, branchID)
	})

	select {
	case <-ctx.Done():
		return branch.Token{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			metrics.TokenRefreshTotal.WithLabelValues("sync", "error").Inc()
			m.Evict(shared, branchID)
			return branch.Token{}, res.Err
		}
		metrics.TokenRefreshTotal.WithLabelValues("sync", "success").Inc()
		return res.Val.(branch.Token), nil
	}
}

// refreshAsync starts a background refresh unless one is already running
// for the branch. It never blocks the caller.
func (m *TokenManager) refreshAsync(branchID uint) {
	m.inflightMu.Lock()
	if _, busy := m.inflight[branchID]; busy {
		m.inflightMu.Unlock()
		return
	}
	m.inflight[branchID] = struct{}{}
	m.inflightMu.Unlock()

	m.background.Add(1)
	goroutine.SafeGo(m.logger, "vendor-token-refresh", func() {
		defer m.background.Done()
		defer func() {
			m.inflightMu.Lock()
			delete(m.inflight, branchID)
			m.inflightMu.Unlock()
		}()

		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()

		_, err, _ := m.group.Do(strconv.FormatUint(uint64(branchID), 10), func() (any, error) {
			return m.refresh(ctx, branchID)
		})
		if err != nil {
			// the current token is still valid until it expires
			metrics.TokenRefreshTotal.WithLabelValues("background", "error").Inc()
			m.logger.Warnw("background token refresh failed", "branch_id", branchID, "error", err)
			return
		}
		metrics.TokenRefreshTotal.WithLabelValues("background", "success").Inc()
	})
}

// refresh performs the signed token request and stores the result.
func (m *TokenManager) refresh(ctx context.Context, branchID uint) (branch.Token, error) {
	settings, err := m.loadSettings(ctx, branchID)
	if err != nil {
		m.syncLog.Log(ctx, synclog.Record{
			BranchID: branchID,
			Category: synclog.CategoryError,
			Status:   synclog.StatusError,
			Message:  "vendor token refresh skipped: branch settings unusable",
			Details:  map[string]any{"error": err.Error()},
		})
		return branch.Token{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	tok, status, err := m.requestToken(ctx, settings)
	if err != nil {
		authErr := &AuthError{BranchID: branchID, Status: status, Err: err}
		var vendorErr *VendorError
		if errors.As(err, &vendorErr) {
			authErr.Code = vendorErr.Code
		}
		m.syncLog.Log(ctx, synclog.Record{
			BranchID: branchID,
			Category: synclog.CategoryError,
			Status:   synclog.StatusError,
			Message:  "vendor token refresh failed",
			Details:  map[string]any{"endpoint": tokenPath, "status": status, "error": err.Error()},
		})
		return branch.Token{}, authErr
	}

	m.put(tok)
	if err := m.store.Save(ctx, &tok); err != nil {
		m.logger.Warnw("failed to persist vendor token", "branch_id", branchID, "error", err)
	}

	m.syncLog.Log(ctx, synclog.Record{
		BranchID: branchID,
		Category: synclog.CategorySync,
		Status:   synclog.StatusSuccess,
		Message:  "vendor token refreshed",
		Details:  map[string]any{"expires_at": tok.ExpiresAt.UTC().Format(time.RFC3339)},
	})
	m.logger.Infow("vendor token refreshed", "branch_id", branchID, "expires_at", tok.ExpiresAt)
	return tok, nil
}

func (m *TokenManager) loadSettings(ctx context.Context, branchID uint) (*branch.Settings, error) {
	settings, err := m.settings.GetByBranchID(ctx, branchID)
	if err != nil {
		if errors.Is(err, branch.ErrSettingsNotFound) {
			return nil, &ConfigError{BranchID: branchID, Reason: "settings not found"}
		}
		return nil, fmt.Errorf("failed to load branch settings: %w", err)
	}
	if !settings.IsActive {
		return nil, &ConfigError{BranchID: branchID, Reason: "integration inactive"}
	}
	if err := settings.Validate(); err != nil {
		return nil, &ConfigError{BranchID: branchID, Reason: "settings invalid", Err: err}
	}
	return settings, nil
}

func (m *TokenManager) requestToken(ctx context.Context, settings *branch.Settings) (branch.Token, int, error) {
	body, err := json.Marshal(map[string]string{"appKey": settings.AppKey})
	if err != nil {
		return branch.Token{}, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, settings.Endpoint(tokenPath), bytes.NewReader(body))
	if err != nil {
		return branch.Token{}, 0, fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	m.signer.Sign(req, settings.AppKey, settings.AppSecret)

	resp, err := m.client.Do(req)
	if err != nil {
		return branch.Token{}, 0, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return branch.Token{}, resp.StatusCode, fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return branch.Token{}, resp.StatusCode, fmt.Errorf("token endpoint returned http %d", resp.StatusCode)
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return branch.Token{}, resp.StatusCode, fmt.Errorf("failed to decode token response: %w", err)
	}
	if string(env.Code) != CodeOK {
		return branch.Token{}, resp.StatusCode, &VendorError{Endpoint: tokenPath, Code: string(env.Code), Message: env.Msg}
	}

	var data tokenData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return branch.Token{}, resp.StatusCode, fmt.Errorf("failed to decode token data: %w", err)
	}
	if data.AccessToken == "" || data.ExpiresIn <= 0 {
		return branch.Token{}, resp.StatusCode, errors.New("token response missing token or expiry")
	}

	return branch.Token{
		BranchID:  settings.BranchID,
		Value:     data.AccessToken,
		ExpiresAt: m.now().Add(time.Duration(data.ExpiresIn) * time.Second).UTC(),
	}, resp.StatusCode, nil
}

// Wait blocks until in-flight background refreshes finish. Called on
// shutdown.
func (m *TokenManager) Wait() {
	m.background.Wait()
}
