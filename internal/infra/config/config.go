package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Cache     CacheConfig     `yaml:"cache"`
	Providers ProvidersConfig `yaml:"providers"`
	Router    RouterConfig    `yaml:"router"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Archive   ArchiveConfig   `yaml:"archive"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// CacheConfig controls the envelope cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Addr    string        `yaml:"addr"`
	TTL     time.Duration `yaml:"ttl"`
	Prefix  string        `yaml:"prefix"`
}

// ProvidersConfig holds upstream data source settings.
type ProvidersConfig struct {
	Argo   ArgoConfig   `yaml:"argo"`
	ERDDAP ERDDAPConfig `yaml:"erddap"`
	NOAA   NOAAConfig   `yaml:"noaa"`
}

// ArgoConfig tunes the primary source.
type ArgoConfig struct {
	BaseURL         string        `yaml:"baseUrl"`
	MaxFiles        int           `yaml:"maxFiles"`
	DownloadTimeout time.Duration `yaml:"downloadTimeout"`
}

// ERDDAPConfig tunes the secondary source.
type ERDDAPConfig struct {
	BaseURL string `yaml:"baseUrl"`
	Dataset string `yaml:"dataset"`
}

// NOAAConfig tunes the tertiary source.
type NOAAConfig struct {
	BaseURL string `yaml:"baseUrl"`
}

// RouterConfig drives the query routing pipeline.
type RouterConfig struct {
	ExternalTimeout time.Duration `yaml:"externalTimeout"`
	Debug           bool          `yaml:"debug"`
}

// IngestConfig controls the scheduled ingestion job.
type IngestConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

// ArchiveConfig configures the S3-compatible raw payload archive.
type ArchiveConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
}

// Load reads configuration from an optional .env file, a YAML file, and
// environment variables, in increasing precedence.
func Load() (*Config, error) {
	// Best-effort: a missing .env is the normal production case.
	_ = godotenv.Load()

	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitAndTrim(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = isTrue(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("POSTGRES_MIN_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.MinConns = int32(parsed)
		}
	}
	if v := os.Getenv("CACHE_ENABLED"); v != "" {
		cfg.Cache.Enabled = isTrue(v)
	}
	if v := os.Getenv("CACHE_ADDR"); v != "" {
		cfg.Cache.Addr = v
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Cache.TTL = parsed
		}
	}
	if v := os.Getenv("ARGO_BASE_URL"); v != "" {
		cfg.Providers.Argo.BaseURL = v
	}
	if v := os.Getenv("ARGO_MAX_FILES"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Providers.Argo.MaxFiles = parsed
		}
	}
	if v := os.Getenv("ERDDAP_BASE_URL"); v != "" {
		cfg.Providers.ERDDAP.BaseURL = v
	}
	if v := os.Getenv("ERDDAP_DATASET"); v != "" {
		cfg.Providers.ERDDAP.Dataset = v
	}
	if v := os.Getenv("NOAA_BASE_URL"); v != "" {
		cfg.Providers.NOAA.BaseURL = v
	}
	if v := os.Getenv("ROUTER_EXTERNAL_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Router.ExternalTimeout = parsed
		}
	}
	if v := os.Getenv("ROUTER_DEBUG"); v != "" {
		cfg.Router.Debug = isTrue(v)
	}
	if v := os.Getenv("INGEST_ENABLED"); v != "" {
		cfg.Ingest.Enabled = isTrue(v)
	}
	if v := os.Getenv("INGEST_INTERVAL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Ingest.Interval = parsed
		}
	}
	if v := os.Getenv("ARCHIVE_ENABLED"); v != "" {
		cfg.Archive.Enabled = isTrue(v)
	}
	if v := os.Getenv("ARCHIVE_ENDPOINT"); v != "" {
		cfg.Archive.Endpoint = v
	}
	if v := os.Getenv("ARCHIVE_ACCESS_KEY"); v != "" {
		cfg.Archive.AccessKey = v
	}
	if v := os.Getenv("ARCHIVE_SECRET_KEY"); v != "" {
		cfg.Archive.SecretKey = v
	}
	if v := os.Getenv("ARCHIVE_BUCKET"); v != "" {
		cfg.Archive.Bucket = v
	}
	if v := os.Getenv("ARCHIVE_REGION"); v != "" {
		cfg.Archive.Region = v
	}
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 120,
				Burst:             30,
			},
		},
		Postgres: PostgresConfig{
			MaxConns: 8,
			MinConns: 0,
		},
		Cache: CacheConfig{
			Enabled: false,
			TTL:     5 * time.Minute,
			Prefix:  "oceanchat",
		},
		Providers: ProvidersConfig{
			Argo: ArgoConfig{
				BaseURL:         "https://data-argo.ifremer.fr",
				MaxFiles:        3,
				DownloadTimeout: 30 * time.Second,
			},
			ERDDAP: ERDDAPConfig{
				BaseURL: "https://coastwatch.pfeg.noaa.gov/erddap",
				Dataset: "ArgoFloats",
			},
			NOAA: NOAAConfig{
				BaseURL: "https://api.tidesandcurrents.noaa.gov/api",
			},
		},
		Router: RouterConfig{
			ExternalTimeout: 3 * time.Second,
		},
		Ingest: IngestConfig{
			Enabled:  false,
			Interval: time.Hour,
		},
		Archive: ArchiveConfig{
			Bucket: "oceanchat-raw-profiles",
			Region: "auto",
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.Cache.Enabled && strings.TrimSpace(c.Cache.Addr) == "" {
		return errors.New("cache.addr cannot be empty when the envelope cache is enabled")
	}
	if c.Cache.TTL < 0 {
		return errors.New("cache.ttl cannot be negative")
	}
	if c.Providers.Argo.BaseURL == "" {
		return errors.New("providers.argo.baseUrl cannot be empty")
	}
	if c.Providers.Argo.MaxFiles <= 0 {
		return errors.New("providers.argo.maxFiles must be positive")
	}
	if c.Providers.ERDDAP.BaseURL == "" {
		return errors.New("providers.erddap.baseUrl cannot be empty")
	}
	if c.Router.ExternalTimeout <= 0 {
		return errors.New("router.externalTimeout must be positive")
	}
	if c.Ingest.Enabled && c.Ingest.Interval <= 0 {
		return errors.New("ingest.interval must be positive when ingestion is enabled")
	}
	if c.Archive.Enabled {
		if c.Archive.Endpoint == "" {
			return errors.New("archive.endpoint cannot be empty when the archive is enabled")
		}
		if c.Archive.Bucket == "" {
			return errors.New("archive.bucket cannot be empty when the archive is enabled")
		}
	}
	return nil
}

func isTrue(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func splitAndTrim(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
