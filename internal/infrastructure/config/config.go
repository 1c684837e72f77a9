package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"

	sharedConfig "github.com/gymdesk/accessbridge/internal/shared/config"
)

type Config struct {
	Server    sharedConfig.ServerConfig    `mapstructure:"server"`
	Database  sharedConfig.DatabaseConfig  `mapstructure:"database"`
	Logger    sharedConfig.LoggerConfig    `mapstructure:"logger"`
	Redis     sharedConfig.RedisConfig     `mapstructure:"redis"`
	Vendor    sharedConfig.VendorConfig    `mapstructure:"vendor"`
	Reconcile sharedConfig.ReconcileConfig `mapstructure:"reconcile"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load reads configs/config.yaml (if present) and ACCESSBRIDGE_* environment
// overrides. configPath, when set, points at an explicit file.
func Load(env, configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath("../../configs")
	}

	v.SetEnvPrefix("ACCESSBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if env != "" && env != "default" {
		v.Set("server.mode", env)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	appConfigMu.Lock()
	appConfig = &cfg
	appConfigMu.Unlock()

	return &cfg, nil
}

// Get returns the last loaded configuration, or nil before Load.
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.timezone", "UTC")
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.api_tokens", []string{})
	v.SetDefault("server.webhook_tokens", []string{})
	v.SetDefault("server.webhook_requests_per_minute", 600)

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.username", "root")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.database", "gym")
	v.SetDefault("database.path", "./data/accessbridge.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.conn_max_lifetime", 60)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output_path", "stdout")

	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("vendor.token_timeout", "10s")
	v.SetDefault("vendor.call_timeout", "30s")
	v.SetDefault("vendor.token_refresh_threshold", "24h")
	v.SetDefault("vendor.max_attempts", 3)
	v.SetDefault("vendor.backoff_initial", "2s")
	v.SetDefault("vendor.backoff_max", "30s")
	v.SetDefault("vendor.backoff_jitter", 0.2)
	v.SetDefault("vendor.requests_per_minute", 120)

	v.SetDefault("reconcile.fetch_limit", 100)
	v.SetDefault("reconcile.batch_size", 20)
	v.SetDefault("reconcile.duplicate_window", "5m")
	v.SetDefault("reconcile.interval", "1m")
	v.SetDefault("reconcile.lock_ttl", "5m")
	v.SetDefault("reconcile.concurrency", 4)
	v.SetDefault("reconcile.token_warm_every", "1h")
}
