package accessvendor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/gymdesk/accessbridge/internal/domain/branch"
	"github.com/gymdesk/accessbridge/internal/domain/synclog"
	"github.com/gymdesk/accessbridge/internal/infrastructure/metrics"
	"github.com/gymdesk/accessbridge/internal/shared/logger"
	"github.com/gymdesk/accessbridge/internal/shared/utils/logutil"
)

const (
	DefaultMaxAttempts = 3
	DefaultCallTimeout = 30 * time.Second

	maxResponseBytes = 4 << 20
)

// TokenSource is the part of TokenManager the gateway depends on.
type TokenSource interface {
	GetToken(ctx context.Context, branchID uint) (string, error)
	Evict(ctx context.Context, branchID uint)
}

// Limiter throttles outbound calls per key.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type GatewayConfig struct {
	MaxAttempts int
	CallTimeout time.Duration
	Backoff     BackoffPolicy
}

// Gateway issues authenticated calls to a branch's vendor API with retry,
// backoff and error classification.
type Gateway struct {
	settings    branch.SettingsRepository
	tokens      TokenSource
	syncLog     SyncLogger
	client      *http.Client
	limiter     Limiter
	classifier  Classifier
	newBackOff  func() backoff.BackOff
	sleep       func(ctx context.Context, d time.Duration) error
	maxAttempts int
	callTimeout time.Duration
	logger      logger.Interface
}

type GatewayOption func(*Gateway)

func WithLimiter(l Limiter) GatewayOption {
	return func(g *Gateway) { g.limiter = l }
}

func WithClassifier(c Classifier) GatewayOption {
	return func(g *Gateway) { g.classifier = c }
}

// WithSleep replaces the inter-attempt wait; tests use it to observe delays.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) GatewayOption {
	return func(g *Gateway) { g.sleep = fn }
}

func NewGateway(
	settings branch.SettingsRepository,
	tokens TokenSource,
	syncLog SyncLogger,
	client *http.Client,
	cfg GatewayConfig,
	log logger.Interface,
	opts ...GatewayOption,
) *Gateway {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	if cfg.Backoff.Initial <= 0 {
		cfg.Backoff = DefaultBackoffPolicy()
	}
	if client == nil {
		client = &http.Client{}
	}
	g := &Gateway{
		settings:    settings,
		tokens:      tokens,
		syncLog:     syncLog,
		client:      client,
		classifier:  DefaultClassifier,
		newBackOff:  cfg.Backoff.NewBackOff,
		sleep:       sleepContext,
		maxAttempts: cfg.MaxAttempts,
		callTimeout: cfg.CallTimeout,
		logger:      log.Named("vendor-gateway"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Call sends body as JSON to endpoint on the branch's vendor API. It returns
// *VendorError for non-retryable vendor codes, *AuthError when the vendor
// keeps rejecting the token and *CallError when transient failures exhaust
// the attempt budget.
func (g *Gateway) Call(ctx context.Context, branchID uint, endpoint, method string, body any) (*Response, error) {
	started := time.Now()
	defer func() {
		metrics.VendorCallDuration.WithLabelValues(endpoint).Observe(time.Since(started).Seconds())
	}()

	settings, err := g.loadSettings(ctx, branchID)
	if err != nil {
		g.finalFailure(ctx, branchID, endpoint, method, err)
		return nil, err
	}

	var payload []byte
	if body != nil {
		if payload, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("failed to encode vendor request: %w", err)
		}
	}

	b := g.newBackOff()
	var last *Attempt

	for n := 1; n <= g.maxAttempts; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		attempt, outcome, err := g.attempt(ctx, settings, n, endpoint, method, payload)
		if err != nil {
			// token acquisition failed; TokenManager already recorded it
			metrics.VendorCallsTotal.WithLabelValues(endpoint, "auth_error").Inc()
			return nil, err
		}
		metrics.VendorAttemptsTotal.WithLabelValues(endpoint, outcome.String()).Inc()

		switch outcome {
		case OutcomeSuccess:
			metrics.VendorCallsTotal.WithLabelValues(endpoint, "success").Inc()
			return &Response{Status: attempt.Status, Code: attempt.Code, Msg: attempt.Msg, Data: attempt.Data}, nil

		case OutcomeFatal:
			fatal := g.fatalError(branchID, endpoint, method, attempt)
			g.finalFailure(ctx, branchID, endpoint, method, fatal)
			return nil, fatal
		}

		last = attempt
		if isAuthFailure(attempt) {
			g.tokens.Evict(ctx, branchID)
			if attempt.Status == http.StatusUnauthorized {
				g.logAuthRejected(ctx, branchID, endpoint, attempt)
			}
		}

		if n == g.maxAttempts {
			break
		}
		delay := b.NextBackOff()
		if delay == backoff.Stop {
			break
		}
		g.logger.Debugw("retrying vendor call",
			"branch_id", branchID,
			"endpoint", endpoint,
			"attempt", n,
			"status", attempt.Status,
			"code", attempt.Code,
			"delay", delay,
		)
		if err := g.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	final := g.exhaustedError(branchID, endpoint, method, last)
	g.finalFailure(ctx, branchID, endpoint, method, final)
	return nil, final
}

// attempt performs one exchange. A non-nil error means no request was sent
// because the token could not be obtained.
func (g *Gateway) attempt(ctx context.Context, settings *branch.Settings, n int, endpoint, method string, payload []byte) (*Attempt, Outcome, error) {
	a := &Attempt{Number: n}

	if g.limiter != nil {
		allowed, err := g.limiter.Allow(ctx, fmt.Sprintf("branch:%d", settings.BranchID))
		if err != nil {
			g.logger.Warnw("rate limiter unavailable, sending anyway", "branch_id", settings.BranchID, "error", err)
		} else if !allowed {
			a.Status = http.StatusTooManyRequests
			a.Err = ErrRateLimited
			return a, OutcomeRetryable, nil
		}
	}

	token, err := g.tokens.GetToken(ctx, settings.BranchID)
	if err != nil {
		return nil, OutcomeFatal, err
	}

	callCtx, cancel := context.WithTimeout(ctx, g.callTimeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(callCtx, method, settings.Endpoint(endpoint), reader)
	if err != nil {
		a.Err = fmt.Errorf("%w: %v", errUndecodable, err)
		return a, g.classifier.Classify(a), nil
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := g.client.Do(req)
	if err != nil {
		a.Err = err
		return a, g.classifier.Classify(a), nil
	}
	defer resp.Body.Close()

	a.Status = resp.StatusCode
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		a.Err = fmt.Errorf("failed to read vendor response: %w", err)
		return a, g.classifier.Classify(a), nil
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			a.Err = fmt.Errorf("%w: %v (body %s)", errUndecodable, err, logutil.TruncateForLog(string(raw), 200))
			return a, g.classifier.Classify(a), nil
		}
		a.Code = string(env.Code)
		a.Msg = env.Msg
		a.Data = env.Data
	}

	return a, g.classifier.Classify(a), nil
}

func (g *Gateway) loadSettings(ctx context.Context, branchID uint) (*branch.Settings, error) {
	settings, err := g.settings.GetByBranchID(ctx, branchID)
	if err != nil {
		if errors.Is(err, branch.ErrSettingsNotFound) {
			return nil, &ConfigError{BranchID: branchID, Reason: "settings not found"}
		}
		return nil, fmt.Errorf("failed to load branch settings: %w", err)
	}
	if !settings.IsActive {
		return nil, &ConfigError{BranchID: branchID, Reason: "integration inactive"}
	}
	return settings, nil
}

func (g *Gateway) fatalError(branchID uint, endpoint, method string, a *Attempt) error {
	if a.Code != "" && a.Code != CodeOK {
		return &VendorError{Endpoint: endpoint, Code: a.Code, Message: a.Msg}
	}
	cause := a.Err
	if cause == nil {
		cause = fmt.Errorf("unexpected http status %d", a.Status)
	}
	return &CallError{
		Endpoint: endpoint,
		Method:   method,
		BranchID: branchID,
		Status:   a.Status,
		Attempts: a.Number,
		Err:      cause,
	}
}

func (g *Gateway) exhaustedError(branchID uint, endpoint, method string, a *Attempt) error {
	if a == nil {
		return &CallError{Endpoint: endpoint, Method: method, BranchID: branchID, Err: errors.New("no attempt made")}
	}
	cause := a.Err
	if cause == nil {
		switch {
		case a.Code != "" && a.Code != CodeOK:
			cause = &VendorError{Endpoint: endpoint, Code: a.Code, Message: a.Msg}
		default:
			cause = fmt.Errorf("http status %d", a.Status)
		}
	}
	if isAuthFailure(a) {
		return &AuthError{BranchID: branchID, Status: a.Status, Code: a.Code, Err: cause}
	}
	return &CallError{
		Endpoint: endpoint,
		Method:   method,
		BranchID: branchID,
		Status:   a.Status,
		Code:     a.Code,
		Attempts: a.Number,
		Err:      cause,
	}
}

// finalFailure writes the single terminal entry for a failed call.
func (g *Gateway) finalFailure(ctx context.Context, branchID uint, endpoint, method string, err error) {
	kind := KindOf(err)
	metrics.VendorCallsTotal.WithLabelValues(endpoint, string(kind)+"_error").Inc()

	details := map[string]any{
		"endpoint": endpoint,
		"method":   method,
		"kind":     string(kind),
		"error":    err.Error(),
	}
	if code := CodeOf(err); code != "" {
		details["code"] = code
	}
	var callErr *CallError
	if errors.As(err, &callErr) {
		details["status"] = callErr.Status
		details["attempts"] = callErr.Attempts
	}

	g.logger.Errorw("vendor call failed",
		"branch_id", branchID,
		"endpoint", endpoint,
		"kind", kind,
		"error", err,
	)
	g.syncLog.Log(ctx, synclog.Record{
		BranchID: branchID,
		Category: synclog.CategoryError,
		Status:   synclog.StatusError,
		Message:  fmt.Sprintf("vendor call %s %s failed", method, endpoint),
		Details:  details,
	})
}

// logAuthRejected records every 401 individually, unlike other failures.
func (g *Gateway) logAuthRejected(ctx context.Context, branchID uint, endpoint string, a *Attempt) {
	g.logger.Warnw("vendor rejected token", "branch_id", branchID, "endpoint", endpoint, "attempt", a.Number)
	g.syncLog.Log(ctx, synclog.Record{
		BranchID: branchID,
		Category: synclog.CategoryWarning,
		Status:   synclog.StatusWarning,
		Message:  "vendor rejected token; cached token evicted",
		Details: map[string]any{
			"endpoint": endpoint,
			"status":   a.Status,
			"attempt":  a.Number,
		},
	})
}
