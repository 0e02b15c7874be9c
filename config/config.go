package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Audit    AuditConfig
	Seed     SeedConfig
	Log      LogConfig
}

// ServerConfig contains HTTP and session settings.
type ServerConfig struct {
	Port            string `validate:"required,numeric"`
	SecureCookies   bool
	SessionCookie   string `validate:"required"`
	SessionLifetime int64  `validate:"gt=0"` // seconds
	UploadMaxBytes  int64  `validate:"gt=0"`
}

// DatabaseConfig contains connection settings for the relational store.
type DatabaseConfig struct {
	Driver          string `validate:"oneof=pgx sqlite3"`
	User            string `validate:"required_if=Driver pgx"`
	Password        string
	Host            string `validate:"required_if=Driver pgx"`
	Port            string `validate:"required_if=Driver pgx"`
	Name            string `validate:"required_if=Driver pgx"`
	SSLMode         string
	SQLitePath      string `validate:"required_if=Driver sqlite3"`
	ConnectAttempts int    `validate:"gte=1"`
	ConnectInterval time.Duration
}

// AuditConfig contains audit log settings.
type AuditConfig struct {
	Timezone string `validate:"required"`
}

// SeedConfig holds the passwords of the two default accounts.
type SeedConfig struct {
	AdminPassword  string `validate:"required"`
	ViewerPassword string `validate:"required"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level  string
	Pretty bool
}

// Load reads an optional .env file and builds the configuration from the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, reading configuration from the environment")
	}

	sessionLifetime, err := getEnvInt("SESSION_LIFETIME", 3600)
	if err != nil {
		return nil, err
	}
	uploadMax, err := getEnvInt("UPLOAD_MAX_BYTES", 10<<20)
	if err != nil {
		return nil, err
	}
	attempts, err := getEnvInt("DB_CONNECT_ATTEMPTS", 10)
	if err != nil {
		return nil, err
	}
	interval, err := time.ParseDuration(getEnv("DB_CONNECT_INTERVAL", "3s"))
	if err != nil {
		return nil, fmt.Errorf("invalid duration for DB_CONNECT_INTERVAL: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			SecureCookies:   getEnv("USE_HTTPS", "false") == "true",
			SessionCookie:   getEnv("SESSION_COOKIE", "records_session"),
			SessionLifetime: int64(sessionLifetime),
			UploadMaxBytes:  int64(uploadMax),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "pgx"),
			User:            getEnv("POSTGRES_USER", ""),
			Password:        getEnv("POSTGRES_PASSWORD", ""),
			Host:            getEnv("POSTGRES_HOST", ""),
			Port:            getEnv("POSTGRES_PORT", "5432"),
			Name:            getEnv("POSTGRES_DB", ""),
			SSLMode:         getEnv("POSTGRES_SSLMODE", "disable"),
			SQLitePath:      getEnv("SQLITE_PATH", "registros.db"),
			ConnectAttempts: attempts,
			ConnectInterval: interval,
		},
		Audit: AuditConfig{
			Timezone: getEnv("AUDIT_TIMEZONE", "America/Santiago"),
		},
		Seed: SeedConfig{
			AdminPassword:  getEnv("SEED_ADMIN_PASSWORD", "admin123"),
			ViewerPassword: getEnv("SEED_VIEWER_PASSWORD", "viewer123"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Pretty: getEnv("LOG_PRETTY", "false") == "true",
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for missing or malformed values.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := time.LoadLocation(c.Audit.Timezone); err != nil {
		return fmt.Errorf("invalid AUDIT_TIMEZONE %q: %w", c.Audit.Timezone, err)
	}
	return nil
}

// Location returns the time zone audit timestamps are shown in.
func (c AuditConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DSN returns the data source name for the configured driver.
func (c DatabaseConfig) DSN() string {
	if c.Driver == "sqlite3" {
		return "file:" + c.SQLitePath + "?_busy_timeout=5000&_txlock=immediate&_foreign_keys=on"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + c.Port,
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

// String returns a string representation of the config (sensitive values are masked).
func (c *Config) String() string {
	db := c.Database.SQLitePath
	if c.Database.Driver == "pgx" {
		db = fmt.Sprintf("%s@%s:%s/%s", c.Database.User, c.Database.Host, c.Database.Port, c.Database.Name)
	}
	return fmt.Sprintf("Config{Port: %s, DB: %s(%s), TZ: %s, Seeds: *** (masked) ***}",
		c.Server.Port, c.Database.Driver, db, c.Audit.Timezone)
}

// getEnv retrieves an environment variable with a default fallback.
func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

// getEnvInt retrieves an environment variable as an integer with a default fallback.
func getEnvInt(key string, defaultVal int) (int, error) {
	if value, exists := os.LookupEnv(key); exists {
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid integer for %s: %w", key, err)
		}
		return intVal, nil
	}
	return defaultVal, nil
}
