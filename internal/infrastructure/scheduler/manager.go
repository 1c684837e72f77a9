// Package scheduler runs the periodic reconciliation and token warm-up jobs
// using gocron v2.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"golang.org/x/sync/errgroup"

	"github.com/gymdesk/accessbridge/internal/domain/branch"
	"github.com/gymdesk/accessbridge/internal/infrastructure/cache"
	"github.com/gymdesk/accessbridge/internal/shared/biztime"
	"github.com/gymdesk/accessbridge/internal/shared/logger"
)

// BranchJob processes one branch and returns the number of items handled.
type BranchJob interface {
	Execute(ctx context.Context, branchID uint) (int, error)
}

// TokenWarmer refreshes a branch's vendor token ahead of expiry.
type TokenWarmer interface {
	Warm(ctx context.Context, branchID uint) error
}

// BranchLister lists the branches with an active vendor integration.
type BranchLister interface {
	ListActive(ctx context.Context) ([]*branch.Settings, error)
}

// SchedulerManager owns the gocron scheduler. Jobs fan out over all active
// branches with bounded concurrency.
type SchedulerManager struct {
	scheduler   gocron.Scheduler
	branches    BranchLister
	concurrency int
	logger      logger.Interface

	started   bool
	startedMu sync.RWMutex
}

func NewSchedulerManager(branches BranchLister, concurrency int, log logger.Interface) (*SchedulerManager, error) {
	s, err := gocron.NewScheduler(
		gocron.WithLocation(biztime.Location()),
	)
	if err != nil {
		return nil, err
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &SchedulerManager{
		scheduler:   s,
		branches:    branches,
		concurrency: concurrency,
		logger:      log.Named("scheduler"),
	}, nil
}

// RegisterReconcileJob runs job for every active branch each interval.
func (m *SchedulerManager) RegisterReconcileJob(job BranchJob, interval, timeout time.Duration) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			m.ReconcileAll(ctx, job)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("attendance", "reconcile"),
		gocron.WithName("event-reconciliation"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered reconciliation job", "interval", interval)
	return nil
}

// RegisterTokenWarmJob keeps tokens of idle branches fresh.
func (m *SchedulerManager) RegisterTokenWarmJob(warmer TokenWarmer, interval time.Duration) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			m.WarmAll(ctx, warmer)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("vendor", "token"),
		gocron.WithName("vendor-token-warm"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered token warm job", "interval", interval)
	return nil
}

// ReconcileAll runs one reconciliation pass over every active branch and
// returns the total number of events processed. Branch failures are logged
// and do not stop the other branches.
func (m *SchedulerManager) ReconcileAll(ctx context.Context, job BranchJob) int {
	startTime := biztime.NowUTC()
	var (
		mu    sync.Mutex
		total int
	)

	m.forEachBranch(ctx, func(ctx context.Context, branchID uint) {
		n, err := job.Execute(ctx, branchID)
		if n > 0 {
			mu.Lock()
			total += n
			mu.Unlock()
		}
		switch {
		case errors.Is(err, cache.ErrLockHeld):
			m.logger.Debugw("branch reconciliation already running elsewhere", "branch_id", branchID)
		case err != nil:
			m.logger.Errorw("branch reconciliation failed", "branch_id", branchID, "processed", n, "error", err)
		case n > 0:
			m.logger.Infow("branch events reconciled", "branch_id", branchID, "count", n)
		}
	})

	m.logger.Debugw("reconciliation pass finished", "processed", total, "duration", time.Since(startTime))
	return total
}

// WarmAll refreshes tokens that are missing or close to expiry.
func (m *SchedulerManager) WarmAll(ctx context.Context, warmer TokenWarmer) {
	m.forEachBranch(ctx, func(ctx context.Context, branchID uint) {
		if err := warmer.Warm(ctx, branchID); err != nil {
			m.logger.Warnw("vendor token warm-up failed", "branch_id", branchID, "error", err)
		}
	})
}

func (m *SchedulerManager) forEachBranch(ctx context.Context, fn func(ctx context.Context, branchID uint)) {
	branches, err := m.branches.ListActive(ctx)
	if err != nil {
		m.logger.Errorw("failed to list active branches", "error", err)
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)
	for _, b := range branches {
		branchID := b.BranchID
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			fn(gctx, branchID)
			return nil
		})
	}
	_ = g.Wait()
}

// Start starts the scheduler and all registered jobs.
func (m *SchedulerManager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if m.started {
		return
	}

	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler manager started", "job_count", len(m.scheduler.Jobs()))
}

// Stop waits for running jobs to complete before returning.
func (m *SchedulerManager) Stop() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if !m.started {
		return nil
	}

	m.logger.Infow("stopping scheduler manager")
	err := m.scheduler.Shutdown()
	m.started = false

	if err != nil {
		m.logger.Errorw("scheduler manager shutdown with error", "error", err)
		return err
	}

	m.logger.Infow("scheduler manager stopped")
	return nil
}

func (m *SchedulerManager) IsStarted() bool {
	m.startedMu.RLock()
	defer m.startedMu.RUnlock()
	return m.started
}

// Jobs returns all registered jobs for inspection.
func (m *SchedulerManager) Jobs() []gocron.Job {
	return m.scheduler.Jobs()
}
