package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default values for the server configuration.
const (
	DefaultPort            = 3000
	DefaultDatabaseURL     = "mongodb://localhost:27017"
	DefaultDatabaseName    = "QADB"
	DefaultCollectionName  = "questions"
	DefaultConnectTimeout  = 10 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
	DefaultLogLevel        = "info"
)

// FileEnv names the environment variable holding an optional YAML config path.
const FileEnv = "QA_CONFIG"

type Config struct {
	Port            int           `yaml:"port"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	LogLevel        string        `yaml:"log_level"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	Mongo           MongoConfig   `yaml:"mongo"`
}

type MongoConfig struct {
	URL            string        `yaml:"url"`
	Database       string        `yaml:"database"`
	Collection     string        `yaml:"collection"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Level maps LogLevel onto a slog level. Unknown values were rejected by
// validate, so the fallback is never reached for a loaded Config.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Load builds the configuration from, in increasing precedence: defaults, the
// YAML file at path (skipped when path is empty), a .env file in the working
// directory and the process environment.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	}

	// A missing .env is normal outside development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Port:            DefaultPort,
		AllowedOrigins:  []string{"http://localhost:3000", "http://localhost:3001"},
		LogLevel:        DefaultLogLevel,
		ShutdownTimeout: DefaultShutdownTimeout,
		Mongo: MongoConfig{
			URL:            DefaultDatabaseURL,
			Database:       DefaultDatabaseName,
			Collection:     DefaultCollectionName,
			ConnectTimeout: DefaultConnectTimeout,
		},
	}
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT %q: %w", v, err)
		}
		cfg.Port = port
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Mongo.URL = v
	}
	if v := os.Getenv("DATABASE_NAME"); v != "" {
		cfg.Mongo.Database = v
	}
	if v := os.Getenv("COLLECTION_NAME"); v != "" {
		cfg.Mongo.Collection = v
	}
	if v := os.Getenv("CONNECT_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CONNECT_TIMEOUT %q: %w", v, err)
		}
		cfg.Mongo.ConnectTimeout = d
	}
	if v := os.Getenv("SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SHUTDOWN_TIMEOUT %q: %w", v, err)
		}
		cfg.ShutdownTimeout = d
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.AllowedOrigins = origins
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	return nil
}

func validate(cfg *Config) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("port %d is out of range [1, 65535]", cfg.Port)
	}
	if cfg.Mongo.URL == "" {
		return errors.New("mongo.url must not be empty")
	}
	if cfg.Mongo.Database == "" || cfg.Mongo.Collection == "" {
		return errors.New("mongo.database and mongo.collection must not be empty")
	}
	if cfg.Mongo.ConnectTimeout <= 0 {
		return errors.New("mongo.connect_timeout must be positive")
	}
	if cfg.ShutdownTimeout < 0 {
		return errors.New("shutdown_timeout must not be negative")
	}
	if len(cfg.AllowedOrigins) == 0 {
		return errors.New("allowed_origins must not be empty")
	}
	for _, o := range cfg.AllowedOrigins {
		// Credentials are always allowed, and browsers refuse them with a wildcard origin.
		if o == "*" {
			return errors.New("allowed_origins must list explicit origins, not *")
		}
		if !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			return fmt.Errorf("allowed origin %q must start with http:// or https://", o)
		}
	}
	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level %q unknown: want debug|info|warn|error", cfg.LogLevel)
	}
	return nil
}
