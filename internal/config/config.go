package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	CatalogMemory = "memory"
	CatalogSQLite = "sqlite"

	PhotoBackendLocal = "local"
	PhotoBackendS3    = "s3"
)

type Config struct {
	Host           string
	Port           int
	CacheDir       string
	CatalogBackend string
	PhotoBackend   string
	S3Bucket       string
	S3Region       string
	S3Endpoint     string
	S3Prefix       string
	S3AccessKeyID  string
	S3SecretKey    string
	BaseURL        string
	MaxUploadMB    int
	RateLimitRPS   float64
	RateLimitBurst int
	LogLevel       string
	LogFormat      string
	LogFile        string

	ShutdownTimeout time.Duration
}

// Load reads an optional .env file, then the environment, then args. Values
// given on the command line win over the environment.
func Load(args []string) (*Config, error) {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	cfg := &Config{
		Host:            getEnv("HOST", "127.0.0.1"),
		Port:            getIntEnv("PORT", 8080),
		CacheDir:        getEnv("CACHE_DIR", "./cache"),
		CatalogBackend:  getEnv("CATALOG_BACKEND", CatalogMemory),
		PhotoBackend:    getEnv("PHOTO_BACKEND", PhotoBackendLocal),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Region:        getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:      getEnv("S3_ENDPOINT", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),
		S3AccessKeyID:   getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretKey:     getEnv("S3_SECRET_ACCESS_KEY", ""),
		BaseURL:         getEnv("BASE_URL", ""),
		MaxUploadMB:     getIntEnv("MAX_UPLOAD_MB", 50),
		RateLimitRPS:    getFloatEnv("RATE_LIMIT_RPS", 0),
		RateLimitBurst:  getIntEnv("RATE_LIMIT_BURST", 20),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "json"),
		LogFile:         getEnv("LOG_FILE", ""),
		ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 5*time.Second),
	}

	fs := flag.NewFlagSet("stocktake", flag.ContinueOnError)
	fs.StringVar(&cfg.Host, "host", cfg.Host, "listen host")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "listen port")
	fs.StringVar(&cfg.CacheDir, "cache-dir", cfg.CacheDir, "directory for uploaded photos")
	fs.StringVar(&cfg.CatalogBackend, "catalog", cfg.CatalogBackend, "catalog backend (memory|sqlite)")
	fs.StringVar(&cfg.PhotoBackend, "photo-backend", cfg.PhotoBackend, "photo backend (local|s3)")
	fs.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "prefix for generated photo URLs")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug|info|warn|error)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Host == "" {
		errs = append(errs, errors.New("host is required"))
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.CacheDir == "" {
		errs = append(errs, errors.New("cache dir is required"))
	}
	switch c.CatalogBackend {
	case CatalogMemory, CatalogSQLite:
	default:
		errs = append(errs, fmt.Errorf("unknown catalog backend %q", c.CatalogBackend))
	}
	switch c.PhotoBackend {
	case PhotoBackendLocal:
	case PhotoBackendS3:
		if c.S3Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required when PHOTO_BACKEND=s3"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown photo backend %q", c.PhotoBackend))
	}
	if c.MaxUploadMB <= 0 {
		errs = append(errs, errors.New("max upload size must be positive"))
	}
	return errors.Join(errs...)
}

// EnsureCacheDir creates the cache directory and any missing parents. It
// runs at startup whichever photo backend is selected.
func (c *Config) EnsureCacheDir() error {
	if err := os.MkdirAll(c.CacheDir, 0755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}
	return nil
}

// Addr is the host:port pair the server listens on.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if val, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getFloatEnv(key string, defaultVal float64) float64 {
	if val, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
