package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Creditflow CreditflowConfig `yaml:"creditflow"`
	Server     ServerConfig     `yaml:"server"`
	Source     SourceConfig     `yaml:"source"`
	Resources  ResourcesConfig  `yaml:"resources"`
	Loader     LoaderConfig     `yaml:"loader"`
	Offers     OffersConfig     `yaml:"offers"`
	Search     SearchConfig     `yaml:"search"`
	Watchlist  WatchlistConfig  `yaml:"watchlist"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type CreditflowConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type ServerConfig struct {
	Address         string        `yaml:"address"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type SourceConfig struct {
	Backend string           `yaml:"backend"`
	HTTP    HTTPSourceConfig `yaml:"http"`
	File    FileSourceConfig `yaml:"file"`
	S3      S3SourceConfig   `yaml:"s3"`
}

type HTTPSourceConfig struct {
	BaseURL   string          `yaml:"base_url"`
	Timeout   time.Duration   `yaml:"timeout"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type RateLimitConfig struct {
	RequestsPerSecond int `yaml:"requests_per_second"`
	BurstSize         int `yaml:"burst_size"`
}

type FileSourceConfig struct {
	Dir string `yaml:"dir"`
}

type S3SourceConfig struct {
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type ResourcesConfig struct {
	Assets    string `yaml:"assets"`
	Prices    string `yaml:"prices"`
	Offers    string `yaml:"offers"`
	Calendar  string `yaml:"calendar"`
	Documents string `yaml:"documents"`
	Metadata  string `yaml:"metadata"`
}

type LoaderConfig struct {
	Timeout         time.Duration `yaml:"timeout"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
}

type OffersConfig struct {
	ActiveStatuses []string `yaml:"active_statuses"`
}

type SearchConfig struct {
	Threshold  float64 `yaml:"threshold"`
	MaxResults int     `yaml:"max_results"`
}

type WatchlistConfig struct {
	Path string `yaml:"path"`
}

type MetricsConfig struct {
	Enabled    bool             `yaml:"enabled"`
	CloudWatch CloudWatchConfig `yaml:"cloudwatch"`
}

type CloudWatchConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Region    string `yaml:"region"`
	Namespace string `yaml:"namespace"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	MaxAge int    `yaml:"max_age"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Config{
		Source: SourceConfig{Backend: "http"},
		Resources: ResourcesConfig{
			Assets:    "data/assets_master.csv",
			Prices:    "data/prices.csv",
			Offers:    "data/offers.csv",
			Calendar:  "data/calendar.csv",
			Documents: "data/documents.csv",
			Metadata:  "data/metadata.json",
		},
		Offers:    OffersConfig{ActiveStatuses: []string{"Em Aberto", "Planejada"}},
		Search:    SearchConfig{Threshold: 0.3, MaxResults: 8},
		Watchlist: WatchlistConfig{Path: "data/watchlist.json"},
		Metrics:   MetricsConfig{Enabled: true},
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override S3 settings from environment variables if available
	if config.Source.Backend == "s3" {
		if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
			config.Source.S3.AccessKeyID = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
			config.Source.S3.SecretAccessKey = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_REGION"); v != "" {
			config.Source.S3.Region = strings.TrimSpace(v)
		}
		if v := os.Getenv("S3_BUCKET"); v != "" {
			config.Source.S3.Bucket = strings.TrimSpace(v)
		}
	}

	applyDefaults(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.ReadTimeout <= 0 {
		cfg.Server.ReadTimeout = 10 * time.Second
	}
	if cfg.Server.WriteTimeout <= 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = 5 * time.Second
	}
	if cfg.Loader.Timeout <= 0 {
		cfg.Loader.Timeout = 30 * time.Second
	}
	if cfg.Source.HTTP.Timeout <= 0 {
		cfg.Source.HTTP.Timeout = 30 * time.Second
	}
	if cfg.Search.Threshold <= 0 {
		cfg.Search.Threshold = 0.3
	}
	if cfg.Search.MaxResults <= 0 {
		cfg.Search.MaxResults = 8
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Creditflow.Name == "" {
		return fmt.Errorf("creditflow.name is required")
	}
	if cfg.Creditflow.Version == "" {
		return fmt.Errorf("creditflow.version is required")
	}

	switch cfg.Source.Backend {
	case "http":
		if cfg.Source.HTTP.BaseURL == "" {
			return fmt.Errorf("source.http.base_url is required for the http backend")
		}
	case "file":
		if cfg.Source.File.Dir == "" {
			return fmt.Errorf("source.file.dir is required for the file backend")
		}
	case "s3":
		if cfg.Source.S3.Bucket == "" {
			return fmt.Errorf("source.s3.bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unknown source.backend %q (expected http, file or s3)", cfg.Source.Backend)
	}

	if cfg.Watchlist.Path == "" {
		return fmt.Errorf("watchlist.path is required")
	}

	return nil
}
