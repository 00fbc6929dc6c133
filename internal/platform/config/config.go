package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Addr                   string        `yaml:"addr"`
	DBDriver               string        `yaml:"db_driver"`
	DatabaseURL            string        `yaml:"database_url"`
	SQLitePath             string        `yaml:"sqlite_path"`
	JWTSecret              string        `yaml:"jwt_secret"`
	TokenTTL               time.Duration `yaml:"token_ttl"`
	Environment            string        `yaml:"environment"`
	SeedTenantName         string        `yaml:"seed_tenant_name"`
	SeedAdminEmail         string        `yaml:"seed_admin_email"`
	SeedAdminPassword      string        `yaml:"seed_admin_password"`
	EmailFrom              string        `yaml:"email_from"`
	EmailEnabled           bool          `yaml:"email_enabled"`
	SMTPHost               string        `yaml:"smtp_host"`
	SMTPPort               int           `yaml:"smtp_port"`
	SMTPUser               string        `yaml:"smtp_user"`
	SMTPPassword           string        `yaml:"smtp_password"`
	SMTPUseTLS             bool          `yaml:"smtp_use_tls"`
	RunMigrations          bool          `yaml:"run_migrations"`
	RunSeed                bool          `yaml:"run_seed"`
	MaxBodyBytes           int64         `yaml:"max_body_bytes"`
	RateLimitPerMinute     int           `yaml:"rate_limit_per_minute"`
	ProgressResyncInterval time.Duration `yaml:"progress_resync_interval"`
	MetricsEnabled         bool          `yaml:"metrics_enabled"`
}

func Defaults() Config {
	return Config{
		Addr:               ":8080",
		DBDriver:           DriverPostgres,
		SQLitePath:         "data/perftrack.db",
		TokenTTL:           12 * time.Hour,
		Environment:        "development",
		SeedTenantName:     "Default Tenant",
		EmailFrom:          "no-reply@example.com",
		SMTPPort:           587,
		SMTPUseTLS:         true,
		RunMigrations:      true,
		RunSeed:            true,
		MaxBodyBytes:       1048576,
		RateLimitPerMinute: 120,
		MetricsEnabled:     true,
	}
}

// Load reads the optional YAML file named by APP_CONFIG_FILE and then applies
// environment overrides on top of it.
func Load() (Config, error) {
	cfg := Defaults()
	if path := os.Getenv("APP_CONFIG_FILE"); path != "" {
		fileCfg, err := LoadFile(path, cfg)
		if err != nil {
			return Config{}, err
		}
		cfg = fileCfg
	}
	return applyEnv(cfg), nil
}

func LoadFile(path string, base Config) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	cfg := base
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return cfg, nil
}

func applyEnv(cfg Config) Config {
	cfg.Addr = getEnv("APP_ADDR", cfg.Addr)
	cfg.DBDriver = strings.ToLower(getEnv("DB_DRIVER", cfg.DBDriver))
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.SQLitePath = getEnv("SQLITE_PATH", cfg.SQLitePath)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.TokenTTL = getEnvDuration("TOKEN_TTL", cfg.TokenTTL)
	cfg.Environment = getEnv("APP_ENV", cfg.Environment)
	cfg.SeedTenantName = getEnv("SEED_TENANT_NAME", cfg.SeedTenantName)
	cfg.SeedAdminEmail = getEnv("SEED_ADMIN_EMAIL", cfg.SeedAdminEmail)
	cfg.SeedAdminPassword = getEnv("SEED_ADMIN_PASSWORD", cfg.SeedAdminPassword)
	cfg.EmailFrom = getEnv("EMAIL_FROM", cfg.EmailFrom)
	cfg.EmailEnabled = getEnvBool("EMAIL_ENABLED", cfg.EmailEnabled)
	cfg.SMTPHost = getEnv("SMTP_HOST", cfg.SMTPHost)
	cfg.SMTPPort = getEnvInt("SMTP_PORT", cfg.SMTPPort)
	cfg.SMTPUser = getEnv("SMTP_USER", cfg.SMTPUser)
	cfg.SMTPPassword = getEnv("SMTP_PASSWORD", cfg.SMTPPassword)
	cfg.SMTPUseTLS = getEnvBool("SMTP_USE_TLS", cfg.SMTPUseTLS)
	cfg.RunMigrations = getEnvBool("RUN_MIGRATIONS", cfg.RunMigrations)
	cfg.RunSeed = getEnvBool("RUN_SEED", cfg.RunSeed)
	cfg.MaxBodyBytes = int64(getEnvInt("MAX_BODY_BYTES", int(cfg.MaxBodyBytes)))
	cfg.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", cfg.RateLimitPerMinute)
	cfg.ProgressResyncInterval = getEnvDuration("PROGRESS_RESYNC_INTERVAL", cfg.ProgressResyncInterval)
	cfg.MetricsEnabled = getEnvBool("METRICS_ENABLED", cfg.MetricsEnabled)
	return cfg
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) Validate() error {
	switch c.DBDriver {
	case DriverPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}
	case DriverSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return fmt.Errorf("SQLITE_PATH is required when DB_DRIVER is sqlite")
		}
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q", DriverPostgres, DriverSQLite)
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Environment == "production" {
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
		}
		if c.RunSeed && strings.TrimSpace(c.SeedAdminPassword) == "" {
			return fmt.Errorf("SEED_ADMIN_PASSWORD must be set or RUN_SEED disabled in production")
		}
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.ProgressResyncInterval < 0 {
		return fmt.Errorf("PROGRESS_RESYNC_INTERVAL must not be negative")
	}
	if c.EmailEnabled && c.SMTPHost == "" {
		return fmt.Errorf("SMTP_HOST must be set when EMAIL_ENABLED is true")
	}
	return nil
}
