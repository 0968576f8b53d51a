package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"
)

const (
	StorageDriverR2    = "r2"
	StorageDriverLocal = "local"
)

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	PublicURL       string
	// Endpoint overrides the account endpoint, e.g. for MinIO in development.
	Endpoint string
}

// EndpointURL returns the S3 API endpoint for the configured account.
func (c R2Config) EndpointURL() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.AccountID)
}

type JWTConfig struct {
	Secret   string
	Issuer   string
	Audience string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type UploadConfig struct {
	MaxBytes          int
	Timeout           time.Duration
	DecodeConcurrency int
}

type CleanupConfig struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
}

type Config struct {
	Port             string
	LogLevel         string
	DatabaseURL      string
	CORSAllowOrigins string
	DefaultTimezone  string
	RateLimit        int

	JWT     JWTConfig
	Redis   RedisConfig
	Upload  UploadConfig
	Cleanup CleanupConfig

	StorageDriver   string
	R2              R2Config
	LocalStorageDir string
	LocalStorageURL string
}

// LoadConfig reads the process environment. Call godotenv.Load first to pick
// up a .env file.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		LogLevel:         getEnv("APP_LOG_LEVEL", "info"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		CORSAllowOrigins: getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173"),
		DefaultTimezone:  getEnv("DEFAULT_TIMEZONE", "UTC"),
		StorageDriver:    strings.ToLower(getEnv("STORAGE_DRIVER", StorageDriverR2)),
		LocalStorageDir:  getEnv("LOCAL_STORAGE_DIR", "./data/objects"),
		LocalStorageURL:  getEnv("LOCAL_STORAGE_URL", "http://localhost:8080/objects"),
	}

	cfg.JWT.Secret = os.Getenv("JWT_SECRET")
	cfg.JWT.Issuer = os.Getenv("JWT_ISSUER")
	cfg.JWT.Audience = getEnv("JWT_AUDIENCE", "authenticated")

	cfg.R2.AccountID = os.Getenv("R2_ACCOUNT_ID")
	cfg.R2.AccessKeyID = os.Getenv("R2_ACCESS_KEY_ID")
	cfg.R2.SecretAccessKey = os.Getenv("R2_SECRET_ACCESS_KEY")
	cfg.R2.Bucket = os.Getenv("R2_BUCKET")
	cfg.R2.PublicURL = os.Getenv("R2_PUBLIC_URL")
	cfg.R2.Endpoint = os.Getenv("R2_ENDPOINT")

	cfg.Redis.Addr = os.Getenv("REDIS_ADDR")
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")

	var err error
	if cfg.Redis.DB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.RateLimit, err = getInt("RATE_LIMIT_PER_MINUTE", 60); err != nil {
		return nil, err
	}
	if cfg.Upload.MaxBytes, err = getInt("UPLOAD_MAX_BYTES", 10*1024*1024); err != nil {
		return nil, err
	}
	if cfg.Upload.Timeout, err = getDuration("UPLOAD_TIMEOUT", time.Minute); err != nil {
		return nil, err
	}
	if cfg.Upload.DecodeConcurrency, err = getInt("DECODE_CONCURRENCY", runtime.NumCPU()); err != nil {
		return nil, err
	}
	if cfg.Cleanup.Workers, err = getInt("CLEANUP_WORKERS", 2); err != nil {
		return nil, err
	}
	if cfg.Cleanup.QueueSize, err = getInt("CLEANUP_QUEUE_SIZE", 256); err != nil {
		return nil, err
	}
	if cfg.Cleanup.Timeout, err = getDuration("CLEANUP_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is not set"))
	}
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET is not set"))
	}
	if _, err := time.LoadLocation(c.DefaultTimezone); err != nil {
		errs = append(errs, fmt.Errorf("DEFAULT_TIMEZONE: %w", err))
	}

	switch c.StorageDriver {
	case StorageDriverR2:
		if c.R2.Bucket == "" || c.R2.PublicURL == "" {
			errs = append(errs, errors.New("R2_BUCKET and R2_PUBLIC_URL are required for the r2 storage driver"))
		}
		if c.R2.AccountID == "" && c.R2.Endpoint == "" {
			errs = append(errs, errors.New("one of R2_ACCOUNT_ID or R2_ENDPOINT is required"))
		}
	case StorageDriverLocal:
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver))
	}

	if c.Upload.MaxBytes <= 0 {
		errs = append(errs, errors.New("UPLOAD_MAX_BYTES must be positive"))
	}
	if c.Upload.DecodeConcurrency <= 0 {
		errs = append(errs, errors.New("DECODE_CONCURRENCY must be positive"))
	}
	if c.Cleanup.Workers <= 0 || c.Cleanup.QueueSize <= 0 {
		errs = append(errs, errors.New("CLEANUP_WORKERS and CLEANUP_QUEUE_SIZE must be positive"))
	}

	return errors.Join(errs...)
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
