package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config represents the runtime configuration for the Huddle backend.
type Config struct {
	Server      ServerConfig      `mapstructure:"server" yaml:"server"`
	Database    DatabaseConfig    `mapstructure:"database" yaml:"database"`
	Auth        AuthConfig        `mapstructure:"auth" yaml:"auth"`
	Monitoring  MonitoringConfig  `mapstructure:"monitoring" yaml:"monitoring"`
	Features    FeatureConfig     `mapstructure:"features" yaml:"features"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance" yaml:"maintenance"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port            int             `mapstructure:"port" yaml:"port"`
	LogLevel        string          `mapstructure:"log_level" yaml:"log_level"`
	LogFormat       string          `mapstructure:"log_format" yaml:"log_format"`
	ShutdownTimeout time.Duration   `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	CORS            CORSConfig      `mapstructure:"cors" yaml:"cors"`
	RateLimit       RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`
}

// CORSConfig lists browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

// RateLimitConfig configures the per-client token bucket.
type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled" yaml:"enabled"`
	RPS     float64 `mapstructure:"rps" yaml:"rps"`
	Burst   int     `mapstructure:"burst" yaml:"burst"`
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver   string       `mapstructure:"driver" yaml:"driver"`
	Path     string       `mapstructure:"path" yaml:"path"`
	DSN      string       `mapstructure:"dsn" yaml:"dsn"`
	Postgres DBAuthConfig `mapstructure:"postgres" yaml:"postgres"`
	MySQL    DBAuthConfig `mapstructure:"mysql" yaml:"mysql"`
	Pool     PoolConfig   `mapstructure:"pool" yaml:"pool"`
}

// DBAuthConfig represents host based database parameters.
type DBAuthConfig struct {
	Host     string            `mapstructure:"host" yaml:"host"`
	Port     int               `mapstructure:"port" yaml:"port"`
	Database string            `mapstructure:"database" yaml:"database"`
	Username string            `mapstructure:"username" yaml:"username"`
	Password string            `mapstructure:"password" yaml:"password"`
	Options  map[string]string `mapstructure:"options" yaml:"options,omitempty"`
}

// PoolConfig bounds the connection pool of server databases.
type PoolConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" yaml:"conn_max_lifetime"`
}

// AuthConfig captures identity token settings.
type AuthConfig struct {
	JWT JWTSettings `mapstructure:"jwt" yaml:"jwt"`
}

// JWTSettings configures verification of identity provider tokens.
type JWTSettings struct {
	Secret   string        `mapstructure:"secret" yaml:"secret"`
	Issuer   string        `mapstructure:"issuer" yaml:"issuer"`
	Audience string        `mapstructure:"audience" yaml:"audience"`
	TTL      time.Duration `mapstructure:"access_token_ttl" yaml:"access_token_ttl"`
}

// MonitoringConfig enables health checks and metrics.
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus" yaml:"prometheus"`
	Health     HealthConfig     `mapstructure:"health_check" yaml:"health_check"`
}

// PrometheusConfig toggles metrics endpoints.
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
}

// HealthConfig toggles health endpoints.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// FeatureConfig toggles optional behaviour.
type FeatureConfig struct {
	RSVP     RSVPFeatureConfig     `mapstructure:"rsvp" yaml:"rsvp"`
	Realtime RealtimeFeatureConfig `mapstructure:"realtime" yaml:"realtime"`
}

// RSVPFeatureConfig selects how max_capacity is enforced.
type RSVPFeatureConfig struct {
	StrictCapacity bool `mapstructure:"strict_capacity" yaml:"strict_capacity"`
}

// RealtimeFeatureConfig toggles the websocket row-change feed.
type RealtimeFeatureConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// MaintenanceConfig schedules housekeeping jobs.
type MaintenanceConfig struct {
	Enabled               bool          `mapstructure:"enabled" yaml:"enabled"`
	AuditRetentionDays    int           `mapstructure:"audit_retention_days" yaml:"audit_retention_days"`
	AuditSchedule         string        `mapstructure:"audit_schedule" yaml:"audit_schedule"`
	PendingReportSchedule string        `mapstructure:"pending_report_schedule" yaml:"pending_report_schedule"`
	PendingStaleAfter     time.Duration `mapstructure:"pending_stale_after" yaml:"pending_stale_after"`
}

// LoadConfig initialises application configuration using Viper with sensible defaults.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.NewWithOptions(viper.ExperimentalBindStruct())
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("HUDDLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	switch strings.ToLower(strings.TrimSpace(c.Database.Driver)) {
	case "", "sqlite", "sqlite3", "postgres", "postgresql", "mysql", "mariadb":
	default:
		return fmt.Errorf("config: unsupported database.driver %q", c.Database.Driver)
	}
	if c.Server.RateLimit.Enabled && (c.Server.RateLimit.RPS <= 0 || c.Server.RateLimit.Burst <= 0) {
		return errors.New("config: server.rate_limit requires positive rps and burst")
	}
	if c.Maintenance.Enabled && c.Maintenance.AuditRetentionDays <= 0 {
		return errors.New("config: maintenance.audit_retention_days must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_format", "json")
	v.SetDefault("server.shutdown_timeout", "15s")
	v.SetDefault("server.cors.allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("server.rate_limit.enabled", true)
	v.SetDefault("server.rate_limit.rps", 20)
	v.SetDefault("server.rate_limit.burst", 40)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/huddle.sqlite")
	v.SetDefault("database.pool.max_open_conns", 20)
	v.SetDefault("database.pool.max_idle_conns", 5)
	v.SetDefault("database.pool.conn_max_lifetime", "30m")

	v.SetDefault("auth.jwt.issuer", "")
	v.SetDefault("auth.jwt.access_token_ttl", "15m")

	v.SetDefault("monitoring.prometheus.enabled", true)
	v.SetDefault("monitoring.prometheus.endpoint", "/metrics")
	v.SetDefault("monitoring.health_check.enabled", true)

	v.SetDefault("features.rsvp.strict_capacity", false)
	v.SetDefault("features.realtime.enabled", true)

	v.SetDefault("maintenance.enabled", true)
	v.SetDefault("maintenance.audit_retention_days", 90)
	v.SetDefault("maintenance.audit_schedule", "@daily")
	v.SetDefault("maintenance.pending_report_schedule", "@hourly")
	v.SetDefault("maintenance.pending_stale_after", "168h")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
