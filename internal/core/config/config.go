package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config represents the top-level application config.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	Funnel    FunnelConfig    `koanf:"funnel"`
	Checkout  CheckoutConfig  `koanf:"checkout"`
	Dashboard DashboardConfig `koanf:"dashboard"`
	Questions QuestionsConfig `koanf:"questions"`
}

type ServerConfig struct {
	Port          int    `koanf:"port"`
	Host          string `koanf:"host"`
	MaxBodySizeMB int    `koanf:"max_body_size_mb"`
	Mode          string `koanf:"mode"` // debug | release
}

// DatabaseConfig selects and configures the metrics backend. Type "memory"
// needs nothing else; "postgres" uses the DSN and pool settings; "redis"
// reads the redis section.
type DatabaseConfig struct {
	Type         string `koanf:"type"` // memory | postgres | redis
	DSN          string `koanf:"dsn"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
	AutoMigrate  bool   `koanf:"auto_migrate"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	Key      string `koanf:"key"`
}

// FunnelConfig tunes the session state machine and visitor attribution.
type FunnelConfig struct {
	ProcessingDelay string `koanf:"processing_delay"`
	DiagnosisLevels int    `koanf:"diagnosis_levels"`

	VisitorCountry string `koanf:"visitor_country"`
	VisitorRegion  string `koanf:"visitor_region"`
	VisitorCity    string `koanf:"visitor_city"`
}

// ParsedProcessingDelay returns the processing delay as a duration. Validate
// has already checked it parses.
func (c FunnelConfig) ParsedProcessingDelay() time.Duration {
	d, _ := time.ParseDuration(c.ProcessingDelay)
	return d
}

type CheckoutConfig struct {
	BaseURL     string `koanf:"base_url"`
	CountryCode string `koanf:"country_code"`
}

type DashboardConfig struct {
	Secret     string `koanf:"secret"`
	SigningKey string `koanf:"signing_key"`
	SessionTTL string `koanf:"session_ttl"`
}

// ParsedSessionTTL returns the session TTL as a duration. Validate has
// already checked it parses.
func (c DashboardConfig) ParsedSessionTTL() time.Duration {
	d, _ := time.ParseDuration(c.SessionTTL)
	return d
}

type QuestionsConfig struct {
	Path string `koanf:"path"`
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d (must be 1-65535)", c.Server.Port)
	}
	if strings.TrimSpace(c.Server.Host) == "" {
		return fmt.Errorf("server.host is required")
	}
	if c.Server.MaxBodySizeMB <= 0 {
		return fmt.Errorf("server.max_body_size_mb must be > 0")
	}
	if c.Server.Mode != "debug" && c.Server.Mode != "release" {
		return fmt.Errorf("invalid server.mode %q (must be debug or release)", c.Server.Mode)
	}

	switch c.Database.Type {
	case "memory":
	case "postgres":
		if strings.TrimSpace(c.Database.DSN) == "" {
			return fmt.Errorf("database.dsn is required for database.type postgres")
		}
		if c.Database.MaxOpenConns <= 0 {
			return fmt.Errorf("database.max_open_conns must be > 0")
		}
		if c.Database.MaxIdleConns <= 0 {
			return fmt.Errorf("database.max_idle_conns must be > 0")
		}
	case "redis":
		if strings.TrimSpace(c.Redis.Addr) == "" {
			return fmt.Errorf("redis.addr is required for database.type redis")
		}
		if strings.TrimSpace(c.Redis.Key) == "" {
			return fmt.Errorf("redis.key is required for database.type redis")
		}
	default:
		return fmt.Errorf("unsupported database.type %q (must be memory, postgres or redis)", c.Database.Type)
	}

	delay, err := time.ParseDuration(c.Funnel.ProcessingDelay)
	if err != nil {
		return fmt.Errorf("invalid funnel.processing_delay %q: %w", c.Funnel.ProcessingDelay, err)
	}
	if delay <= 0 {
		return fmt.Errorf("funnel.processing_delay must be > 0")
	}
	if c.Funnel.DiagnosisLevels <= 0 {
		return fmt.Errorf("funnel.diagnosis_levels must be > 0")
	}

	if strings.TrimSpace(c.Checkout.BaseURL) == "" {
		return fmt.Errorf("checkout.base_url is required")
	}
	if strings.TrimSpace(c.Checkout.CountryCode) == "" {
		return fmt.Errorf("checkout.country_code is required")
	}

	if strings.TrimSpace(c.Dashboard.Secret) == "" {
		return fmt.Errorf("dashboard.secret is required")
	}
	if strings.TrimSpace(c.Dashboard.SigningKey) == "" {
		return fmt.Errorf("dashboard.signing_key is required")
	}
	ttl, err := time.ParseDuration(c.Dashboard.SessionTTL)
	if err != nil {
		return fmt.Errorf("invalid dashboard.session_ttl %q: %w", c.Dashboard.SessionTTL, err)
	}
	if ttl <= 0 {
		return fmt.Errorf("dashboard.session_ttl must be > 0")
	}

	if strings.TrimSpace(c.Questions.Path) == "" {
		return fmt.Errorf("questions.path is required")
	}

	return nil
}

// Load parses config from file + env and validates it.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"server.port":             8080,
		"server.host":             "0.0.0.0",
		"server.max_body_size_mb": 1,
		"server.mode":             "release",
		"database.type":           "memory",
		"database.dsn":            "",
		"database.max_open_conns": 10,
		"database.max_idle_conns": 10,
		"database.auto_migrate":   true,
		"redis.addr":              "localhost:6379",
		"redis.password":          "",
		"redis.db":                0,
		"redis.key":               "funnel_metrics",
		"funnel.processing_delay": "2500ms",
		"funnel.diagnosis_levels": 3,
		"funnel.visitor_country":  "Brazil",
		"funnel.visitor_region":   "São Paulo",
		"funnel.visitor_city":     "São Paulo",
		"checkout.base_url":       "https://pay.hotmart.com/checkout",
		"checkout.country_code":   "55",
		"dashboard.secret":        "admin123",
		"dashboard.signing_key":   "",
		"dashboard.session_ttl":   "12h",
		"questions.path":          "./config/questions.yaml",
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("QUIZFUNNEL_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "QUIZFUNNEL_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
