package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	Timezone       string   `mapstructure:"timezone"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	// APITokens guard the platform-facing routes; WebhookTokens the vendor
	// webhook. Empty lists disable the check.
	APITokens                []string `mapstructure:"api_tokens"`
	WebhookTokens            []string `mapstructure:"webhook_tokens"`
	WebhookRequestsPerMinute int      `mapstructure:"webhook_requests_per_minute"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig selects the gorm dialector. Driver "sqlite" uses Path and
// ignores the network fields.
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	Path            string `mapstructure:"path"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&collation=utf8mb4_general_ci&parseTime=true&loc=UTC",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// RedisConfig backs the branch reconciliation lock and the rate limiters.
// With Enabled false both run without Redis.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// VendorConfig tunes the door-controller gateway. Durations are read as Go
// duration strings ("30s", "24h").
type VendorConfig struct {
	TokenTimeout          time.Duration `mapstructure:"token_timeout"`
	CallTimeout           time.Duration `mapstructure:"call_timeout"`
	TokenRefreshThreshold time.Duration `mapstructure:"token_refresh_threshold"`
	MaxAttempts           int           `mapstructure:"max_attempts"`
	BackoffInitial        time.Duration `mapstructure:"backoff_initial"`
	BackoffMax            time.Duration `mapstructure:"backoff_max"`
	BackoffJitter         float64       `mapstructure:"backoff_jitter"`
	RequestsPerMinute     int           `mapstructure:"requests_per_minute"`
}

type ReconcileConfig struct {
	FetchLimit      int           `mapstructure:"fetch_limit"`
	BatchSize       int           `mapstructure:"batch_size"`
	DuplicateWindow time.Duration `mapstructure:"duplicate_window"`
	Interval        time.Duration `mapstructure:"interval"`
	LockTTL         time.Duration `mapstructure:"lock_ttl"`
	Concurrency     int           `mapstructure:"concurrency"`
	TokenWarmEvery  time.Duration `mapstructure:"token_warm_every"`
}
