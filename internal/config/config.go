// Package config loads service configuration from defaults, a YAML file and
// ASSETDESK_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bissquit/asset-desk/internal/sla"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "ASSETDESK_"

// PathEnv names the environment variable holding the config file path.
const PathEnv = EnvPrefix + "CONFIG"

// Snapshot source drivers.
const (
	DriverPostgres  = "postgres"
	DriverFirestore = "firestore"
)

// Config is the complete service configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Log       LogConfig       `koanf:"log"`
	CORS      CORSConfig      `koanf:"cors"`
	SLA       SLAConfig       `koanf:"sla"`
	Source    SourceConfig    `koanf:"source"`
	Firestore FirestoreConfig `koanf:"firestore"`
	Alerts    AlertsConfig    `koanf:"alerts"`
}

// ServerConfig configures the API and metrics listeners.
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              string        `koanf:"port"`
	MetricsPort       string        `koanf:"metrics_port"`
	ReadTimeout       time.Duration `koanf:"read_timeout"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	WriteTimeout      time.Duration `koanf:"write_timeout"`
	IdleTimeout       time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig configures the PostgreSQL pool.
type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnectTimeout  time.Duration `koanf:"connect_timeout"`
	ConnectAttempts int           `koanf:"connect_attempts"`
	MigrateOnStart  bool          `koanf:"migrate_on_start"`
	MigrationsPath  string        `koanf:"migrations_path"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// CORSConfig configures cross-origin access for the dashboard.
type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// SLAConfig configures the business calendar and batch evaluation.
type SLAConfig struct {
	Timezone      string   `koanf:"timezone"`
	BusinessStart string   `koanf:"business_start"`
	BusinessEnd   string   `koanf:"business_end"`
	Workdays      []string `koanf:"workdays"`
	Workers       int      `koanf:"workers"`
}

// SourceConfig selects where SLA endpoints read incidents from.
type SourceConfig struct {
	Driver string `koanf:"driver"`
}

// FirestoreConfig configures the live Firestore mirror.
type FirestoreConfig struct {
	ProjectID    string        `koanf:"project_id"`
	DatabaseID   string        `koanf:"database_id"`
	ReadyTimeout time.Duration `koanf:"ready_timeout"`
}

// AlertsConfig configures the SLA breach alert worker.
type AlertsConfig struct {
	Enabled      bool          `koanf:"enabled"`
	WebhookURL   string        `koanf:"webhook_url"`
	Channel      string        `koanf:"channel"`
	Username     string        `koanf:"username"`
	DashboardURL string        `koanf:"dashboard_url"`
	Interval     time.Duration `koanf:"interval"`
	RateLimit    float64       `koanf:"rate_limit"`
	Timeout      time.Duration `koanf:"timeout"`
	MaxAge       time.Duration `koanf:"max_age"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              "8080",
			MetricsPort:       "9090",
			ReadTimeout:       15 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
			ShutdownTimeout:   15 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 30 * time.Minute,
			ConnectTimeout:  30 * time.Second,
			ConnectAttempts: 5,
			MigrationsPath:  "file://migrations",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		SLA: SLAConfig{
			Timezone:      "Europe/Madrid",
			BusinessStart: "08:00",
			BusinessEnd:   "18:00",
			Workdays:      []string{"monday", "tuesday", "wednesday", "thursday", "friday"},
			Workers:       8,
		},
		Source: SourceConfig{
			Driver: DriverPostgres,
		},
		Firestore: FirestoreConfig{
			DatabaseID:   "(default)",
			ReadyTimeout: 30 * time.Second,
		},
		Alerts: AlertsConfig{
			Username:  "asset-desk",
			Interval:  5 * time.Minute,
			RateLimit: 1,
			Timeout:   10 * time.Second,
			MaxAge:    72 * time.Hour,
		},
	}
}

// Load reads configuration. When path is empty the ASSETDESK_CONFIG variable is
// consulted; a missing file path means defaults plus environment only.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(PathEnv)
	}

	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// envKey maps ASSETDESK_DATABASE_MAX_OPEN_CONNS to database.max_open_conns.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if s == "config" {
		return ""
	}
	return strings.Replace(s, "_", ".", 1)
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Database.URL == "" {
		errs = append(errs, errors.New("database.url is required"))
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		errs = append(errs, fmt.Errorf("log.format %q is not one of json, text", c.Log.Format))
	}

	if _, err := c.SLA.CalendarConfig(); err != nil {
		errs = append(errs, err)
	}
	if c.SLA.Workers <= 0 {
		errs = append(errs, errors.New("sla.workers must be positive"))
	}

	switch c.Source.Driver {
	case DriverPostgres:
	case DriverFirestore:
		if c.Firestore.ProjectID == "" {
			errs = append(errs, errors.New("firestore.project_id is required when source.driver is firestore"))
		}
	default:
		errs = append(errs, fmt.Errorf("source.driver %q is not one of postgres, firestore", c.Source.Driver))
	}

	if c.Alerts.Enabled {
		if c.Alerts.WebhookURL == "" {
			errs = append(errs, errors.New("alerts.webhook_url is required when alerts are enabled"))
		}
		if c.Alerts.Interval <= 0 {
			errs = append(errs, errors.New("alerts.interval must be positive"))
		}
		if c.Alerts.RateLimit <= 0 {
			errs = append(errs, errors.New("alerts.rate_limit must be positive"))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// CalendarConfig converts the sla section into a business calendar configuration.
func (c SLAConfig) CalendarConfig() (sla.CalendarConfig, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return sla.CalendarConfig{}, fmt.Errorf("sla.timezone: %w", err)
	}

	start, err := sla.ParseClock(c.BusinessStart)
	if err != nil {
		return sla.CalendarConfig{}, fmt.Errorf("sla.business_start: %w", err)
	}
	end, err := sla.ParseClock(c.BusinessEnd)
	if err != nil {
		return sla.CalendarConfig{}, fmt.Errorf("sla.business_end: %w", err)
	}

	days := make([]time.Weekday, 0, len(c.Workdays))
	for _, name := range c.Workdays {
		d, ok := weekdays[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return sla.CalendarConfig{}, fmt.Errorf("sla.workdays: unknown weekday %q", name)
		}
		days = append(days, d)
	}

	cfg := sla.CalendarConfig{
		Location: loc,
		DayStart: start,
		DayEnd:   end,
		Workdays: days,
	}
	if _, err := sla.NewCalendar(cfg); err != nil {
		return sla.CalendarConfig{}, fmt.Errorf("sla business window: %w", err)
	}
	return cfg, nil
}

// Calendar builds the business calendar described by the sla section.
func (c SLAConfig) Calendar() (*sla.Calendar, error) {
	cfg, err := c.CalendarConfig()
	if err != nil {
		return nil, err
	}
	return sla.NewCalendar(cfg)
}
