// Package config holds the process-wide configuration for the Crew Panel
// backend. Everything is loaded once at startup and treated as read-only
// afterwards; components receive the sections they need explicitly.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Storage   StorageConfig   `yaml:"storage"`
	Auth      AuthConfig      `yaml:"auth"`
	Upload    UploadConfig    `yaml:"upload"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"              env:"CREW_ADDR"              env-default:":8080"`
	// Read covers the whole request body, so it must allow for large
	// uploads on slow links.
	ReadTimeout     time.Duration `yaml:"read_timeout"      env:"CREW_READ_TIMEOUT"      env-default:"10m"`
	WriteTimeout    time.Duration `yaml:"write_timeout"     env:"CREW_WRITE_TIMEOUT"     env-default:"10m"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"      env:"CREW_IDLE_TIMEOUT"      env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"  env:"CREW_SHUTDOWN_TIMEOUT"  env-default:"5s"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_URL"`
	MaxOpenConns    int           `yaml:"max_open_conns"     env:"CREW_DB_MAX_OPEN_CONNS" env-default:"10"`
	MaxIdleConns    int           `yaml:"max_idle_conns"     env:"CREW_DB_MAX_IDLE_CONNS" env-default:"10"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"  env:"CREW_DB_CONN_LIFETIME"  env-default:"30m"`
}

// StorageConfig holds the object store (MinIO / S3-compatible) settings.
type StorageConfig struct {
	Endpoint  string `yaml:"endpoint"   env:"CREW_S3_ENDPOINT"`
	AccessKey string `yaml:"access_key" env:"CREW_S3_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"CREW_S3_SECRET_KEY"`
	Bucket    string `yaml:"bucket"     env:"CREW_BUCKET" env-default:"crew-panel"`
}

// AuthConfig holds token and credential settings. The JWT secret is
// process-wide configuration: it must come from the environment and is
// never logged.
type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret"  env:"CREW_JWT_SECRET"`
	JWTIssuer  string        `yaml:"jwt_issuer"  env:"CREW_JWT_ISSUER"  env-default:"crew-panel"`
	TokenTTL   time.Duration `yaml:"token_ttl"   env:"CREW_TOKEN_TTL"   env-default:"24h"`
	BcryptCost int           `yaml:"bcrypt_cost" env:"CREW_BCRYPT_COST" env-default:"12"`
}

// UploadConfig bounds file uploads.
type UploadConfig struct {
	MaxBytes int64 `yaml:"max_bytes" env:"CREW_MAX_UPLOAD_BYTES" env-default:"104857600"`
}

// RateLimitConfig configures the per-IP limiters. Auth endpoints get a
// much smaller bucket than the rest of the API.
type RateLimitConfig struct {
	Requests     int           `yaml:"requests"      env:"CREW_RATE_REQUESTS"      env-default:"300"`
	Window       time.Duration `yaml:"window"        env:"CREW_RATE_WINDOW"        env-default:"1m"`
	AuthRequests int           `yaml:"auth_requests" env:"CREW_AUTH_RATE_REQUESTS" env-default:"10"`
	AuthWindow   time.Duration `yaml:"auth_window"   env:"CREW_AUTH_RATE_WINDOW"   env-default:"1m"`
}

// Load reads an optional YAML file (path in CREW_CONFIG) and then the
// environment, with environment values taking precedence.
func Load() (*Config, error) {
	var cfg Config

	if path := os.Getenv("CREW_CONFIG"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate enforces the settings the service refuses to start without.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("CREW_JWT_SECRET is required")
	}
	if len(c.Auth.JWTSecret) < 32 {
		return errors.New("CREW_JWT_SECRET must be at least 32 characters")
	}
	if c.Storage.Endpoint == "" || c.Storage.AccessKey == "" || c.Storage.SecretKey == "" {
		return errors.New("object storage configuration incomplete")
	}
	if c.Auth.BcryptCost < 10 || c.Auth.BcryptCost > 16 {
		return fmt.Errorf("bcrypt cost out of range: %d", c.Auth.BcryptCost)
	}
	if c.Upload.MaxBytes <= 0 {
		return errors.New("upload max bytes must be positive")
	}
	return nil
}
