package accessvendor

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Outcome is the classification of one vendor attempt.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeRetryable
	OutcomeFatal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeRetryable:
		return "retryable"
	default:
		return "fatal"
	}
}

// Attempt captures what happened on one HTTP exchange. Err is set for
// transport failures and undecodable bodies; Code is the envelope code.
type Attempt struct {
	Number int
	Status int
	Code   string
	Msg    string
	Data   []byte
	Err    error
}

// Classifier decides whether an attempt succeeded, may be retried, or must
// be surfaced immediately.
type Classifier interface {
	Classify(a *Attempt) Outcome
}

type ClassifierFunc func(a *Attempt) Outcome

func (f ClassifierFunc) Classify(a *Attempt) Outcome { return f(a) }

// DefaultClassifier retries transport errors, 401, 429, 5xx and
// TOKEN_EXPIRED. Other vendor codes and client errors are fatal.
var DefaultClassifier = ClassifierFunc(func(a *Attempt) Outcome {
	if a.Err != nil {
		if errors.Is(a.Err, errUndecodable) {
			return OutcomeFatal
		}
		return OutcomeRetryable
	}
	switch {
	case a.Status == http.StatusUnauthorized,
		a.Status == http.StatusTooManyRequests,
		a.Status >= http.StatusInternalServerError:
		return OutcomeRetryable
	case a.Status < 200 || a.Status >= 300:
		return OutcomeFatal
	}
	switch a.Code {
	case CodeOK:
		return OutcomeSuccess
	case CodeTokenExpired:
		return OutcomeRetryable
	default:
		return OutcomeFatal
	}
})

// isAuthFailure reports attempts after which the cached token must go.
func isAuthFailure(a *Attempt) bool {
	return a.Status == http.StatusUnauthorized || a.Code == CodeTokenExpired
}

var errUndecodable = errors.New("undecodable vendor response")

// BackoffPolicy mirrors the exponential policy: delay = initial *
// multiplier^(n-1), capped at Max, randomised by Jitter.
type BackoffPolicy struct {
	Initial    time.Duration
	Multiplier float64
	Max        time.Duration
	Jitter     float64
}

func DefaultBackoffPolicy() BackoffPolicy {
	return BackoffPolicy{
		Initial:    2 * time.Second,
		Multiplier: 2,
		Max:        30 * time.Second,
		Jitter:     0.2,
	}
}

// NewBackOff returns a fresh backoff sequence for one call.
func (p BackoffPolicy) NewBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.Initial
	b.Multiplier = p.Multiplier
	b.MaxInterval = p.Max
	b.RandomizationFactor = p.Jitter
	b.Reset()
	return b
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
