package http

import (
	"net/http"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/gymdesk/accessbridge/internal/application/access/services"
	accessUsecases "github.com/gymdesk/accessbridge/internal/application/access/usecases"
	attendanceUsecases "github.com/gymdesk/accessbridge/internal/application/attendance/usecases"
	appsynclog "github.com/gymdesk/accessbridge/internal/application/synclog"
	"github.com/gymdesk/accessbridge/internal/infrastructure/accessvendor"
	"github.com/gymdesk/accessbridge/internal/infrastructure/cache"
	"github.com/gymdesk/accessbridge/internal/infrastructure/config"
	"github.com/gymdesk/accessbridge/internal/infrastructure/ratelimit"
	"github.com/gymdesk/accessbridge/internal/shared/biztime"
	"github.com/gymdesk/accessbridge/internal/shared/db"
	"github.com/gymdesk/accessbridge/internal/shared/logger"
)

type allUseCases struct {
	recorder     *appsynclog.Recorder
	tokenManager *accessvendor.TokenManager
	resolver     *services.AccessResolver

	syncMember        *accessUsecases.SyncMemberUseCase
	registerCard      *accessUsecases.RegisterCardUseCase
	revokeCredentials *accessUsecases.RevokeCredentialsUseCase
	ingestEvents      *attendanceUsecases.IngestEventsUseCase
	processEvents     *attendanceUsecases.ProcessEventsUseCase
}

func newUseCases(cfg *config.Config, gdb *gorm.DB, redisClient *redis.Client, repos *repositories, log logger.Interface) *allUseCases {
	recorder := appsynclog.NewRecorder(repos.syncLogs, log)
	clock := biztime.Clock(biztime.NowUTC)

	tokenManager := accessvendor.NewTokenManager(
		repos.settings, repos.tokens, recorder, &http.Client{},
		accessvendor.TokenManagerConfig{
			Timeout:          cfg.Vendor.TokenTimeout,
			RefreshThreshold: cfg.Vendor.TokenRefreshThreshold,
		},
		log,
	)

	var gatewayOpts []accessvendor.GatewayOption
	if redisClient != nil && cfg.Vendor.RequestsPerMinute > 0 {
		limiter := ratelimit.NewRedisRateLimiter(redisClient, ratelimit.RateLimitConfig{
			RequestsPerMinute: cfg.Vendor.RequestsPerMinute,
		})
		gatewayOpts = append(gatewayOpts, accessvendor.WithLimiter(limiter))
	}
	gateway := accessvendor.NewGateway(
		repos.settings, tokenManager, recorder, &http.Client{},
		accessvendor.GatewayConfig{
			MaxAttempts: cfg.Vendor.MaxAttempts,
			CallTimeout: cfg.Vendor.CallTimeout,
			Backoff: accessvendor.BackoffPolicy{
				Initial:    cfg.Vendor.BackoffInitial,
				Multiplier: 2,
				Max:        cfg.Vendor.BackoffMax,
				Jitter:     cfg.Vendor.BackoffJitter,
			},
		},
		log,
		gatewayOpts...,
	)
	controller := accessvendor.NewDoorController(gateway)

	// Schedules are evaluated on the branch wall clock.
	resolver := services.NewDefaultAccessResolver(repos.access, repos.members, repos.access, biztime.Now, log)

	// A typed nil *BranchLock must not reach the interface.
	var locker attendanceUsecases.BranchLocker
	if redisClient != nil {
		locker = cache.NewBranchLock(redisClient, cfg.Reconcile.LockTTL)
	}

	return &allUseCases{
		recorder:     recorder,
		tokenManager: tokenManager,
		resolver:     resolver,
		syncMember: accessUsecases.NewSyncMemberUseCase(
			repos.members, repos.members, repos.credentials, repos.vendorPersons,
			repos.access, repos.access, repos.settings,
			resolver, controller, recorder, clock, log,
		),
		registerCard: accessUsecases.NewRegisterCardUseCase(
			repos.members, repos.credentials, repos.vendorPersons, repos.access,
			repos.settings, controller, recorder, clock, log,
		),
		revokeCredentials: accessUsecases.NewRevokeCredentialsUseCase(repos.credentials, recorder, clock, log),
		ingestEvents: attendanceUsecases.NewIngestEventsUseCase(
			repos.events, repos.vendorPersons, repos.members, repos.access, log,
		),
		processEvents: attendanceUsecases.NewProcessEventsUseCase(
			repos.events, repos.sessions, repos.members,
			db.NewTransactionManager(gdb), locker, recorder, clock,
			attendanceUsecases.ProcessEventsConfig{
				FetchLimit:      cfg.Reconcile.FetchLimit,
				BatchSize:       cfg.Reconcile.BatchSize,
				DuplicateWindow: cfg.Reconcile.DuplicateWindow,
			},
			log,
		),
	}
}
