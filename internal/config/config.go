// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	JWTSecret  string `mapstructure:"JWT_SECRET"`
	Port       string `mapstructure:"PORT"`
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBSSLMode  string `mapstructure:"DB_SSLMODE"`
	DBReadHost string `mapstructure:"DB_READ_HOST"`
	DBReadPort string `mapstructure:"DB_READ_PORT"`
	DBReadUser string `mapstructure:"DB_READ_USER"`
	DBReadPassword string `mapstructure:"DB_READ_PASSWORD"`

	RedisURL        string `mapstructure:"REDIS_URL"`
	AllowedOrigins  string `mapstructure:"ALLOWED_ORIGINS"`
	Env             string `mapstructure:"APP_ENV"`
	DBSchemaMode    string `mapstructure:"DB_SCHEMA_MODE"`
	DBAutoMigrateAllowDestructive bool `mapstructure:"DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE"`

	DBMaxOpenConns           int `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns           int `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBConnMaxLifetimeMinutes int `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`

	TracingEnabled         bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter        string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint           string  `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTELServiceName        string  `mapstructure:"OTEL_SERVICE_NAME"`
	OTELTracesSamplerRatio float64 `mapstructure:"OTEL_TRACES_SAMPLER_RATIO"`
	EnableProxyHeader      bool    `mapstructure:"ENABLE_PROXY_HEADER"`

	// Auth gateway, spec.md §4.A / §6.
	JWKSURL         string `mapstructure:"JWKS_URL"`
	JWTIssuer       string `mapstructure:"JWT_ISSUER"`
	JWTClockSkewSec int    `mapstructure:"JWT_CLOCK_SKEW_SEC"`
	JWTLegacySecret string `mapstructure:"JWT_LEGACY_SECRET"`

	// Presence core, spec.md §4.C / §6.
	PresenceHeartbeatSec   int `mapstructure:"PRESENCE_HEARTBEAT_SEC"`
	PresenceStaleSec       int `mapstructure:"PRESENCE_STALE_SEC"`
	PresenceGraceSec       int `mapstructure:"PRESENCE_GRACE_SEC"`
	PresenceRetentionHours int `mapstructure:"PRESENCE_RETENTION_HOURS"`

	// Timer core, spec.md §4.D / §6.
	TimerMaxDurationSec        int `mapstructure:"TIMER_MAX_DURATION_SEC"`
	TimerReconcileIntervalSec  int `mapstructure:"TIMER_RECONCILE_INTERVAL_SEC"`

	// Partnership engine, spec.md §4.E / §6.
	PartnershipPendingTTLHours  int `mapstructure:"PARTNERSHIP_PENDING_TTL_HOURS"`
	CheckinGapToleranceHours    int `mapstructure:"CHECKIN_GAP_TOLERANCE_HOURS"`

	// Resilience fabric, spec.md §4.B / §6 — one set of values shared by
	// every dependency in resilience.NewFabric; only the time limit has a
	// separate notification value. No per-dependency keys are read.
	CBWindowSize          int     `mapstructure:"CB_WINDOW_SIZE"`
	CBFailureRateThreshold float64 `mapstructure:"CB_FAILURE_RATE_THRESHOLD"`
	CBSlowCallRateThreshold float64 `mapstructure:"CB_SLOW_CALL_RATE_THRESHOLD"`
	CBWaitDurationSec     int     `mapstructure:"CB_WAIT_DURATION_SEC"`
	CBProbeCalls          int     `mapstructure:"CB_PROBE_CALLS"`
	RetryMaxAttempts      int     `mapstructure:"RETRY_MAX_ATTEMPTS"`
	RetryBaseDelayMs      int     `mapstructure:"RETRY_BASE_DELAY_MS"`
	RetryMultiplier       float64 `mapstructure:"RETRY_MULTIPLIER"`
	RetryJitterPct        float64 `mapstructure:"RETRY_JITTER_PCT"`
	BulkheadMaxConcurrent int     `mapstructure:"BH_MAX_CONCURRENT"`
	TimeLimiterDefaultSec int     `mapstructure:"TL_DEFAULT_SEC"`
	TimeLimiterNotificationSec int `mapstructure:"TL_NOTIFICATION_SEC"`
	RateLimitPublicPerHour        int `mapstructure:"RATE_LIMIT_PUBLIC"`
	RateLimitAuthenticatedPerHour int `mapstructure:"RATE_LIMIT_AUTHENTICATED"`
	RateLimitAdminPerHour         int `mapstructure:"RATE_LIMIT_ADMIN"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// Initial read to get APP_ENV if set in base config
	// We intentionally ignore this error as the config file may not exist yet
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	viper.SetDefault("PORT", "8375")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "focushive")
	viper.SetDefault("DB_READ_HOST", "")
	viper.SetDefault("DB_READ_PORT", "5432")
	viper.SetDefault("DB_READ_USER", "user")
	viper.SetDefault("DB_READ_PASSWORD", "password")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("JWT_SECRET", "your-secret-key-change-in-production")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_SCHEMA_MODE", "sql")
	viper.SetDefault("DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE", false)
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 5)
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("OTEL_SERVICE_NAME", "focushive-api")
	viper.SetDefault("OTEL_TRACES_SAMPLER_RATIO", 1.0)
	viper.SetDefault("ENABLE_PROXY_HEADER", false)

	viper.SetDefault("JWKS_URL", "")
	viper.SetDefault("JWT_ISSUER", "focushive")
	viper.SetDefault("JWT_CLOCK_SKEW_SEC", 30)
	viper.SetDefault("JWT_LEGACY_SECRET", "")

	viper.SetDefault("PRESENCE_HEARTBEAT_SEC", 30)
	viper.SetDefault("PRESENCE_STALE_SEC", 60)
	viper.SetDefault("PRESENCE_GRACE_SEC", 30)
	viper.SetDefault("PRESENCE_RETENTION_HOURS", 24)

	viper.SetDefault("TIMER_MAX_DURATION_SEC", 4*3600)
	viper.SetDefault("TIMER_RECONCILE_INTERVAL_SEC", 60)

	viper.SetDefault("PARTNERSHIP_PENDING_TTL_HOURS", 72)
	viper.SetDefault("CHECKIN_GAP_TOLERANCE_HOURS", 0)

	viper.SetDefault("CB_WINDOW_SIZE", 10)
	viper.SetDefault("CB_FAILURE_RATE_THRESHOLD", 0.5)
	viper.SetDefault("CB_SLOW_CALL_RATE_THRESHOLD", 0.8)
	viper.SetDefault("CB_WAIT_DURATION_SEC", 5)
	viper.SetDefault("CB_PROBE_CALLS", 3)
	viper.SetDefault("RETRY_MAX_ATTEMPTS", 3)
	viper.SetDefault("RETRY_BASE_DELAY_MS", 1000)
	viper.SetDefault("RETRY_MULTIPLIER", 2.0)
	viper.SetDefault("RETRY_JITTER_PCT", 0.2)
	viper.SetDefault("BH_MAX_CONCURRENT", 25)
	viper.SetDefault("TL_DEFAULT_SEC", 5)
	viper.SetDefault("TL_NOTIFICATION_SEC", 10)
	viper.SetDefault("RATE_LIMIT_PUBLIC", 100)
	viper.SetDefault("RATE_LIMIT_AUTHENTICATED", 1000)
	viper.SetDefault("RATE_LIMIT_ADMIN", 10000)

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.DBSchemaMode == "" {
		c.DBSchemaMode = "sql"
	}
	mode := strings.ToLower(strings.TrimSpace(c.DBSchemaMode))
	switch mode {
	case "hybrid", "sql", "auto":
	default:
		return fmt.Errorf("DB_SCHEMA_MODE must be one of hybrid|sql|auto, got %q", c.DBSchemaMode)
	}
	c.DBSchemaMode = mode

	if c.DBMaxOpenConns < 0 {
		return errors.New("DB_MAX_OPEN_CONNS must be >= 0")
	}
	if c.DBMaxIdleConns < 0 {
		return errors.New("DB_MAX_IDLE_CONNS must be >= 0")
	}
	if c.DBConnMaxLifetimeMinutes < 0 {
		return errors.New("DB_CONN_MAX_LIFETIME_MINUTES must be >= 0")
	}
	if c.DBMaxOpenConns > 0 && c.DBMaxIdleConns > c.DBMaxOpenConns {
		return errors.New("DB_MAX_IDLE_CONNS cannot be greater than DB_MAX_OPEN_CONNS")
	}
	if c.JWTClockSkewSec < 0 {
		return errors.New("JWT_CLOCK_SKEW_SEC must be >= 0")
	}
	if c.PresenceStaleSec <= c.PresenceHeartbeatSec {
		return errors.New("PRESENCE_STALE_SEC must exceed PRESENCE_HEARTBEAT_SEC")
	}
	if c.TimerMaxDurationSec <= 0 {
		return errors.New("TIMER_MAX_DURATION_SEC must be > 0")
	}

	isProduction := c.Env == "production" || c.Env == "prod"

	c.DBSSLMode = strings.ToLower(strings.TrimSpace(c.DBSSLMode))

	if isProduction {
		if c.DBConnMaxLifetimeMinutes < 1 {
			return errors.New("DB_CONN_MAX_LIFETIME_MINUTES must be >= 1 in production")
		}
		if c.DBSSLMode == "" || c.DBSSLMode == "disable" {
			return errors.New("DB_SSLMODE must be set to a mode other than disable in production")
		}
		if c.JWTSecret == "your-secret-key-change-in-production" {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.DBPassword == "password" || c.DBPassword == "" {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is required in production (presence, auth revocation, and rate limiting depend on it)")
		}
		if c.JWKSURL == "" && c.JWTLegacySecret == "" {
			return errors.New("either JWKS_URL or JWT_LEGACY_SECRET must be configured in production")
		}
	} else if len(c.JWTSecret) < 32 {
		log.Println("WARNING: JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	return nil
}
