package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Session persistence backends.
const (
	SessionBackendFile     = "file"
	SessionBackendMemory   = "memory"
	SessionBackendPostgres = "postgres"
	SessionBackendRedis    = "redis"
)

// Preview storage backends.
const (
	PreviewBackendTemp = "temp"
	PreviewBackendS3   = "s3"
)

// Config captures the runtime configuration for the feed client.
type Config struct {
	APIURL         string        `yaml:"api_url" env:"VIDFRIENDS_API_URL" env-default:"http://localhost:8080"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"VIDFRIENDS_REQUEST_TIMEOUT" env-default:"15s"`
	RateLimitRPS   float64       `yaml:"rate_limit_rps" env:"VIDFRIENDS_RATE_LIMIT_RPS" env-default:"10"`
	RateLimitBurst int           `yaml:"rate_limit_burst" env:"VIDFRIENDS_RATE_LIMIT_BURST" env-default:"5"`
	LogLevel       string        `yaml:"log_level" env:"VIDFRIENDS_LOG_LEVEL" env-default:"info"`
	LogFormat      string        `yaml:"log_format" env:"VIDFRIENDS_LOG_FORMAT" env-default:"json"`
	MetricsAddr    string        `yaml:"metrics_addr" env:"VIDFRIENDS_METRICS_ADDR"`
	Player         string        `yaml:"player" env:"VIDFRIENDS_PLAYER"`

	Session SessionConfig `yaml:"session"`
	Upload  UploadConfig  `yaml:"upload"`
	Preview PreviewConfig `yaml:"preview"`
}

// SessionConfig selects where the token and profile are persisted.
type SessionConfig struct {
	Backend     string `yaml:"backend" env:"VIDFRIENDS_SESSION_BACKEND" env-default:"file"`
	File        string `yaml:"file" env:"VIDFRIENDS_SESSION_FILE"`
	Passphrase  string `yaml:"passphrase" env:"VIDFRIENDS_SESSION_PASSPHRASE"`
	DatabaseURL string `yaml:"database_url" env:"VIDFRIENDS_SESSION_DATABASE_URL"`
	RedisURL    string `yaml:"redis_url" env:"VIDFRIENDS_SESSION_REDIS_URL"`
	Profile     string `yaml:"profile" env:"VIDFRIENDS_SESSION_PROFILE" env-default:"default"`
}

// UploadConfig controls the upload dialog timings and limits.
type UploadConfig struct {
	Tick       time.Duration `yaml:"tick" env:"VIDFRIENDS_UPLOAD_TICK" env-default:"200ms"`
	CloseDelay time.Duration `yaml:"close_delay" env:"VIDFRIENDS_UPLOAD_CLOSE_DELAY" env-default:"1s"`
	MaxBytes   int64         `yaml:"max_bytes" env:"VIDFRIENDS_UPLOAD_MAX_BYTES" env-default:"104857600"`
	Genre      string        `yaml:"genre" env:"VIDFRIENDS_UPLOAD_GENRE" env-default:"entertainment"`
}

// PreviewConfig selects where upload previews are materialised.
type PreviewConfig struct {
	Backend string `yaml:"backend" env:"VIDFRIENDS_PREVIEW_BACKEND" env-default:"temp"`
	Dir     string `yaml:"dir" env:"VIDFRIENDS_PREVIEW_DIR"`
	Bytes   int64  `yaml:"bytes" env:"VIDFRIENDS_PREVIEW_BYTES" env-default:"4194304"`

	ObjectStore ObjectStoreConfig `yaml:"object_store"`
}

// ObjectStoreConfig describes an S3-compatible bucket.
type ObjectStoreConfig struct {
	Bucket        string `yaml:"bucket" env:"VIDFRIENDS_S3_BUCKET"`
	Region        string `yaml:"region" env:"VIDFRIENDS_S3_REGION" env-default:"us-east-1"`
	Endpoint      string `yaml:"endpoint" env:"VIDFRIENDS_S3_ENDPOINT"`
	PublicBaseURL string `yaml:"public_base_url" env:"VIDFRIENDS_S3_PUBLIC_BASE_URL"`
}

// Load reads configuration from a .env file, an optional YAML file named by
// VIDFRIENDS_CONFIG and the environment, in increasing order of precedence.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path := strings.TrimSpace(os.Getenv("VIDFRIENDS_CONFIG")); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env config: %w", err)
	}

	if cfg.Session.File == "" {
		cfg.Session.File = defaultSessionFile()
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the client cannot run with.
func (c Config) Validate() error {
	u, err := url.Parse(strings.TrimSpace(c.APIURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("VIDFRIENDS_API_URL must be an absolute URL, got %q", c.APIURL)
	}
	if c.RequestTimeout <= 0 {
		return errors.New("VIDFRIENDS_REQUEST_TIMEOUT must be positive")
	}
	if c.Upload.Tick <= 0 {
		return errors.New("VIDFRIENDS_UPLOAD_TICK must be positive")
	}
	if c.Upload.CloseDelay < 0 {
		return errors.New("VIDFRIENDS_UPLOAD_CLOSE_DELAY cannot be negative")
	}

	switch c.Session.Backend {
	case SessionBackendFile:
		if strings.TrimSpace(c.Session.File) == "" {
			return errors.New("VIDFRIENDS_SESSION_FILE cannot be empty")
		}
	case SessionBackendMemory:
	case SessionBackendPostgres:
		if strings.TrimSpace(c.Session.DatabaseURL) == "" {
			return errors.New("VIDFRIENDS_SESSION_DATABASE_URL is required for the postgres backend")
		}
	case SessionBackendRedis:
		if strings.TrimSpace(c.Session.RedisURL) == "" {
			return errors.New("VIDFRIENDS_SESSION_REDIS_URL is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown session backend %q", c.Session.Backend)
	}

	switch c.Preview.Backend {
	case PreviewBackendTemp:
	case PreviewBackendS3:
		if strings.TrimSpace(c.Preview.ObjectStore.Bucket) == "" {
			return errors.New("VIDFRIENDS_S3_BUCKET is required for the s3 preview backend")
		}
	default:
		return fmt.Errorf("unknown preview backend %q", c.Preview.Backend)
	}

	return nil
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return ".vidfriends-session.json"
	}
	return dir + string(os.PathSeparator) + "vidfriends" + string(os.PathSeparator) + "session.json"
}
