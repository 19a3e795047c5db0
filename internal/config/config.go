package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// ConfigPathEnv names the optional YAML file layered between defaults and the environment.
const ConfigPathEnv = "HISTMAP_CONFIG"

// DatabaseConfig holds the historical store connection settings.
// Driver "sqlite" uses Path; driver "postgres" uses the host fields.
type DatabaseConfig struct {
	Driver             string `yaml:"driver" env:"DB_DRIVER"`
	Path               string `yaml:"path" env:"DB_PATH"`
	BusyTimeoutMs      int    `yaml:"busy_timeout_ms" env:"DB_BUSY_TIMEOUT_MS"`
	Host               string `yaml:"host" env:"DB_HOST"`
	Port               string `yaml:"port" env:"DB_PORT"`
	User               string `yaml:"user" env:"DB_USER"`
	Password           string `yaml:"password" env:"DB_PASSWORD"`
	Name               string `yaml:"name" env:"DB_NAME"`
	SSLMode            string `yaml:"sslmode" env:"DB_SSLMODE"`
	MaxOpenConns       int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
	MaxIdleConns       int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
	ConnMaxLifetimeSec int    `yaml:"conn_max_lifetime_sec" env:"DB_CONN_MAX_LIFETIME_SEC"`
}

// MinIOConfig holds object storage settings for the minio tile store.
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint" env:"MINIO_ENDPOINT"`
	AccessKey string `yaml:"access_key" env:"MINIO_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"MINIO_SECRET_KEY"`
	Bucket    string `yaml:"bucket" env:"MINIO_BUCKET"`
	UseSSL    bool   `yaml:"use_ssl" env:"MINIO_USE_SSL"`
}

// RedisConfig holds settings for the redis tile store.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
	TTLSec   int    `yaml:"ttl_sec" env:"REDIS_TTL_SEC"`
}

// TileConfig controls tile fetching and where fetched tiles are kept.
type TileConfig struct {
	URLTemplate string  `yaml:"url_template" env:"TILE_URL_TEMPLATE"`
	UserAgent   string  `yaml:"user_agent" env:"TILE_USER_AGENT"`
	TimeoutMs   int     `yaml:"timeout_ms" env:"TILE_TIMEOUT_MS"`
	RateLimit   float64 `yaml:"rate_limit" env:"TILE_RATE_LIMIT"`
	Burst       int     `yaml:"burst" env:"TILE_BURST"`
	Engine      string  `yaml:"engine" env:"TILE_ENGINE"`
	Store       string  `yaml:"store" env:"TILE_STORE"`
	Dir         string  `yaml:"dir" env:"TILE_DIR"`
	MemoryLimit int     `yaml:"memory_limit" env:"TILE_MEMORY_LIMIT"`
}

// LogConfig controls the process logger and the in-memory log buffer.
type LogConfig struct {
	Level      string `yaml:"level" env:"LOG_LEVEL"`
	BufferSize int    `yaml:"buffer_size" env:"LOG_BUFFER_SIZE"`
}

// AppConfig is the centralized configuration struct for the application.
type AppConfig struct {
	AppHost         string `yaml:"app_host" env:"APP_HOST"`
	Port            string `yaml:"port" env:"PORT"`
	Language        string `yaml:"language" env:"LANGUAGE"`
	ImportDir       string `yaml:"import_dir" env:"IMPORT_DIR"`
	ExchangeDir     string `yaml:"exchange_dir" env:"EXCHANGE_DIR"`
	WorkerQueueSize int    `yaml:"worker_queue_size" env:"WORKER_QUEUE_SIZE"`
	DataCacheSize   int    `yaml:"data_cache_size" env:"DATA_CACHE_SIZE"`

	Database DatabaseConfig `yaml:"database"`
	MinIO    MinIOConfig    `yaml:"minio"`
	Redis    RedisConfig    `yaml:"redis"`
	Tile     TileConfig     `yaml:"tile"`
	Log      LogConfig      `yaml:"log"`
}

// Defaults returns the configuration used when neither a file nor the environment override a value.
func Defaults() *AppConfig {
	return &AppConfig{
		AppHost:         "localhost:8080",
		Port:            "8080",
		Language:        "en-US",
		ExchangeDir:     "exchange",
		WorkerQueueSize: 128,
		DataCacheSize:   8,
		Database: DatabaseConfig{
			Driver:             "sqlite",
			Path:               "HistoricalMapDB.sqlite",
			BusyTimeoutMs:      5000,
			Port:               "5432",
			SSLMode:            "disable",
			MaxOpenConns:       10,
			MaxIdleConns:       5,
			ConnMaxLifetimeSec: 300,
		},
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			TTLSec: 7 * 24 * 3600,
		},
		Tile: TileConfig{
			URLTemplate: "https://a.tile.openstreetmap.org/{Z}/{X}/{Y}.png",
			UserAgent:   "historicalmap/1.0",
			TimeoutMs:   1000,
			RateLimit:   8,
			Burst:       4,
			Engine:      "raster",
			Store:       "memory",
			Dir:         "tiles",
			MemoryLimit: 512,
		},
		Log: LogConfig{
			Level:      "info",
			BufferSize: 1000,
		},
	}
}

// Load builds the configuration: defaults, then the YAML file named by HISTMAP_CONFIG,
// then environment variables. A .env file is honoured when the binary imports
// _ "github.com/joho/godotenv/autoload".
func Load() (*AppConfig, error) {
	cfg := Defaults()

	if path := strings.TrimSpace(os.Getenv(ConfigPathEnv)); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *AppConfig) error {
	path = filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("unsupported config format: %s", ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}
	return nil
}

// Validate rejects configurations the service cannot start with.
func (c *AppConfig) Validate() error {
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("invalid database config: path is required for sqlite")
		}
	case "postgres":
	default:
		return fmt.Errorf("invalid database config: unsupported driver %q", c.Database.Driver)
	}

	switch c.Tile.Store {
	case "memory", "fs", "badger", "minio", "redis":
	default:
		return fmt.Errorf("invalid tile config: unsupported store %q", c.Tile.Store)
	}

	if c.Port == "" {
		return fmt.Errorf("invalid config: port is required")
	}
	if c.ExchangeDir == "" {
		return fmt.Errorf("invalid config: exchange dir is required")
	}
	if c.WorkerQueueSize <= 0 {
		return fmt.Errorf("invalid config: worker queue size must be positive")
	}
	if c.DataCacheSize <= 0 {
		return fmt.Errorf("invalid config: data cache size must be positive")
	}
	return nil
}
