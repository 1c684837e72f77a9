package http

import (
	"context"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/gymdesk/accessbridge/internal/interfaces/http/handlers"
	"github.com/gymdesk/accessbridge/internal/shared/logger"
)

type allHandlers struct {
	access     *handlers.AccessHandler
	attendance *handlers.AttendanceHandler
	syncLog    *handlers.SyncLogHandler
	health     *handlers.HealthHandler
}

func newHandlers(gdb *gorm.DB, redisClient *redis.Client, ucs *allUseCases, log logger.Interface) *allHandlers {
	checks := map[string]handlers.HealthCheck{
		"database": func(ctx context.Context) error {
			sqlDB, err := gdb.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}

	return &allHandlers{
		access: handlers.NewAccessHandler(
			ucs.syncMember, ucs.registerCard, ucs.revokeCredentials, ucs.resolver, log,
		),
		attendance: handlers.NewAttendanceHandler(ucs.ingestEvents, ucs.processEvents, log),
		syncLog:    handlers.NewSyncLogHandler(ucs.recorder, log),
		health:     handlers.NewHealthHandler(checks),
	}
}
