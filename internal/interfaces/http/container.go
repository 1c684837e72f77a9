package http

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/gymdesk/accessbridge/internal/infrastructure/config"
	"github.com/gymdesk/accessbridge/internal/infrastructure/metrics"
	"github.com/gymdesk/accessbridge/internal/infrastructure/ratelimit"
	"github.com/gymdesk/accessbridge/internal/infrastructure/scheduler"
	"github.com/gymdesk/accessbridge/internal/interfaces/http/middleware"
	"github.com/gymdesk/accessbridge/internal/shared/logger"
)

// Container wires infrastructure, use cases, handlers and background jobs
// and owns their shutdown. redisClient may be nil; the branch lock and the
// vendor rate limiter are then disabled.
type Container struct {
	engine *gin.Engine
	db     *gorm.DB
	cfg    *config.Config
	log    logger.Interface
	redis  *redis.Client

	repos *repositories
	ucs   *allUseCases
	hdlrs *allHandlers

	apiTokens     *middleware.ServiceTokenMiddleware
	webhookTokens *middleware.ServiceTokenMiddleware
	webhookLimit  *middleware.RateLimiter

	scheduler *scheduler.SchedulerManager
}

func NewContainer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, log logger.Interface) (*Container, error) {
	metrics.Register()

	c := &Container{
		engine: gin.New(),
		db:     db,
		cfg:    cfg,
		log:    log,
		redis:  redisClient,
	}

	c.repos = newRepositories(db, log)
	c.ucs = newUseCases(cfg, db, redisClient, c.repos, log)
	c.hdlrs = newHandlers(db, redisClient, c.ucs, log)

	c.apiTokens = middleware.NewServiceTokenMiddleware(cfg.Server.APITokens, log)
	c.webhookTokens = middleware.NewServiceTokenMiddleware(cfg.Server.WebhookTokens, log)
	if redisClient != nil && cfg.Server.WebhookRequestsPerMinute > 0 {
		limiter := ratelimit.NewRedisRateLimiter(redisClient, ratelimit.RateLimitConfig{
			RequestsPerMinute: cfg.Server.WebhookRequestsPerMinute,
		})
		c.webhookLimit = middleware.NewRateLimiter(limiter, "webhook", log)
	}

	sm, err := scheduler.NewSchedulerManager(c.repos.settings, cfg.Reconcile.Concurrency, log)
	if err != nil {
		return nil, err
	}
	c.scheduler = sm

	return c, nil
}

// StartScheduler registers the reconciliation and token warm-up jobs and
// starts them.
func (c *Container) StartScheduler() error {
	if err := c.scheduler.RegisterReconcileJob(c.ucs.processEvents, c.cfg.Reconcile.Interval, c.cfg.Reconcile.LockTTL); err != nil {
		return err
	}
	if c.cfg.Reconcile.TokenWarmEvery > 0 {
		if err := c.scheduler.RegisterTokenWarmJob(c.ucs.tokenManager, c.cfg.Reconcile.TokenWarmEvery); err != nil {
			return err
		}
	}
	c.scheduler.Start()
	return nil
}

// ReconcileOnce runs a single reconciliation pass over all active branches.
func (c *Container) ReconcileOnce(ctx context.Context) int {
	return c.scheduler.ReconcileAll(ctx, c.ucs.processEvents)
}

func (c *Container) Engine() *gin.Engine {
	return c.engine
}

// Shutdown stops background jobs and waits for in-flight token refreshes.
func (c *Container) Shutdown(ctx context.Context) {
	if err := c.scheduler.Stop(); err != nil {
		c.log.Errorw("failed to stop scheduler", "error", err)
	}

	done := make(chan struct{})
	go func() {
		c.ucs.tokenManager.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		c.log.Warnw("token refreshes still running at shutdown")
	case <-time.After(15 * time.Second):
		c.log.Warnw("timed out waiting for token refreshes")
	}
}
