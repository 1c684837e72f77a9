// Package bootstrap loads configuration and opens the shared connections
// used by every command.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/gymdesk/accessbridge/internal/infrastructure/config"
	"github.com/gymdesk/accessbridge/internal/infrastructure/database"
	"github.com/gymdesk/accessbridge/internal/shared/biztime"
	"github.com/gymdesk/accessbridge/internal/shared/logger"
)

// Env holds the process-wide dependencies built by Init.
type Env struct {
	Name   string
	Config *config.Config
	Log    logger.Interface
	DB     *gorm.DB
	Redis  *redis.Client
}

// Init loads config, sets up logging and the business timezone, and opens
// the database. Redis is connected only when withRedis is set and the config
// enables it; a failed ping is fatal.
func Init(env, configPath string, withRedis bool) (*Env, error) {
	cfg, err := config.Load(env, configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Server.Mode = MapEnvToGinMode(cfg.Server.Mode)

	if err := logger.Init(&cfg.Logger, cfg.Server.Mode == "debug"); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger()

	if err := biztime.Init(cfg.Server.Timezone); err != nil {
		return nil, fmt.Errorf("failed to initialize business timezone: %w", err)
	}

	if err := database.Init(&cfg.Database); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	e := &Env{Name: env, Config: cfg, Log: log, DB: database.Get()}

	if withRedis && cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.GetAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			e.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		log.Infow("redis connection established", "address", cfg.Redis.GetAddr())
		e.Redis = client
	}

	return e, nil
}

// Close releases the database and Redis connections.
func (e *Env) Close() {
	if e.Redis != nil {
		if err := e.Redis.Close(); err != nil {
			e.Log.Warnw("failed to close redis", "error", err)
		}
	}
	if err := database.Close(); err != nil {
		e.Log.Warnw("failed to close database", "error", err)
	}
}

func MapEnvToGinMode(environment string) string {
	switch environment {
	case "production", "prod", "release":
		return "release"
	case "test", "testing":
		return "test"
	default:
		return "debug"
	}
}
