package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `json:"server"`
	Backend BackendConfig `json:"backend"`
	Logging LoggingConfig `json:"logging"`
	Reports ReportsConfig `json:"reports"`
	Storage StorageConfig `json:"storage"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	IdleTimeout     time.Duration `json:"idle_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	AllowedOrigin   string        `json:"allowed_origin"`
}

// BackendConfig points at the REST backend that owns users and documents
type BackendConfig struct {
	BaseURL string        `json:"base_url"`
	APIKey  string        `json:"api_key"`
	Timeout time.Duration `json:"timeout"`
}

// LoggingConfig
type LoggingConfig struct {
	Level       string `json:"level"`
	Development bool   `json:"development"`
}

// ReportsConfig drives scheduled roster snapshots
type ReportsConfig struct {
	SnapshotCron     string `json:"snapshot_cron"`
	SnapshotTimezone string `json:"snapshot_timezone"`
	SnapshotFormat   string `json:"snapshot_format"`
	MaxConcurrent    int    `json:"max_concurrent"`
}

// StorageConfig selects where snapshots are delivered
type StorageConfig struct {
	Driver     string `json:"driver"` // local, s3
	LocalDir   string `json:"local_dir"`
	S3Bucket   string `json:"s3_bucket"`
	S3Region   string `json:"s3_region"`
	S3Endpoint string `json:"s3_endpoint"`
	S3Prefix   string `json:"s3_prefix"`
	AccessKey  string `json:"access_key"`
	SecretKey  string `json:"secret_key"`
}

// Default returns the configuration used when nothing else is provided
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 5 * time.Second,
			AllowedOrigin:   "*",
		},
		Backend: BackendConfig{
			BaseURL: "http://localhost:3000/api",
			Timeout: 15 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Reports: ReportsConfig{
			SnapshotTimezone: "UTC",
			SnapshotFormat:   "xlsx",
			MaxConcurrent:    5,
		},
		Storage: StorageConfig{
			Driver:   "local",
			LocalDir: "snapshots",
			S3Region: "us-east-1",
			S3Prefix: "compliance-snapshots",
		},
	}
}

// LoadConfig loads configuration from a .env file, an optional JSON file and
// environment variables, in increasing order of precedence
func LoadConfig(configPath string) (*Config, error) {
	_ = godotenv.Load()

	config := Default()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err == nil {
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	if err := overrideWithEnv(config); err != nil {
		return nil, err
	}

	return config, nil
}

func overrideWithEnv(config *Config) error {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid SERVER_PORT %q: %w", port, err)
		}
		config.Server.Port = p
	}
	if origin := os.Getenv("ALLOWED_ORIGIN"); origin != "" {
		config.Server.AllowedOrigin = origin
	}

	if baseURL := os.Getenv("BACKEND_BASE_URL"); baseURL != "" {
		config.Backend.BaseURL = baseURL
	}
	if apiKey := os.Getenv("BACKEND_API_KEY"); apiKey != "" {
		config.Backend.APIKey = apiKey
	}
	if timeout := os.Getenv("BACKEND_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("invalid BACKEND_TIMEOUT %q: %w", timeout, err)
		}
		config.Backend.Timeout = d
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if dev := os.Getenv("LOG_DEVELOPMENT"); dev != "" {
		config.Logging.Development = strings.EqualFold(dev, "true")
	}

	if cron := os.Getenv("SNAPSHOT_CRON"); cron != "" {
		config.Reports.SnapshotCron = cron
	}
	if tz := os.Getenv("SNAPSHOT_TIMEZONE"); tz != "" {
		config.Reports.SnapshotTimezone = tz
	}
	if format := os.Getenv("SNAPSHOT_FORMAT"); format != "" {
		config.Reports.SnapshotFormat = format
	}

	if driver := os.Getenv("STORAGE_DRIVER"); driver != "" {
		config.Storage.Driver = driver
	}
	if dir := os.Getenv("LOCAL_STORAGE_DIR"); dir != "" {
		config.Storage.LocalDir = dir
	}
	if bucket := os.Getenv("S3_BUCKET"); bucket != "" {
		config.Storage.S3Bucket = bucket
	}
	if region := os.Getenv("S3_REGION"); region != "" {
		config.Storage.S3Region = region
	}
	if endpoint := os.Getenv("S3_ENDPOINT"); endpoint != "" {
		config.Storage.S3Endpoint = endpoint
	}
	if key := os.Getenv("S3_ACCESS_KEY"); key != "" {
		config.Storage.AccessKey = key
	}
	if secret := os.Getenv("S3_SECRET_KEY"); secret != "" {
		config.Storage.SecretKey = secret
	}
	return nil
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
