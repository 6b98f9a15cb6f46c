// Package config loads and validates configuration for the perlin
// command-line tools from YAML files with environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration shared by perlin-index and
// perlin-search.
type Config struct {
	Index    IndexConfig    `yaml:"index"`
	Source   SourceConfig   `yaml:"source"`
	Server   ServerConfig   `yaml:"server"`
	Postgres PostgresConfig `yaml:"postgres"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// IndexConfig locates the index directory and fixes its storage geometry.
type IndexConfig struct {
	Dir       string `yaml:"dir"`
	PageSize  int    `yaml:"pageSize"`
	StopWords bool   `yaml:"stopWords"`
}

// SourceConfig selects where perlin-index reads documents from.
// Kind is one of "file", "postgres", or "kafka".
type SourceConfig struct {
	Kind string `yaml:"kind"`
	// Path of a newline-delimited document file when kind is "file".
	Path string `yaml:"path"`
	// Query returning (id, body) rows when kind is "postgres".
	Query string `yaml:"query"`
	// MaxDocuments bounds a kafka-fed build; 0 means until idle.
	MaxDocuments int `yaml:"maxDocuments"`
	// IdleTimeout ends a kafka-fed build when no message arrives in time.
	IdleTimeout time.Duration `yaml:"idleTimeout"`
}

// ServerConfig holds the perlin-search HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// PostgresConfig holds PostgreSQL connection parameters for the document
// source.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds broker and topic settings for the streaming document
// source.
type KafkaConfig struct {
	Brokers       []string `yaml:"brokers"`
	Topic         string   `yaml:"topic"`
	ConsumerGroup string   `yaml:"consumerGroup"`
}

// RedisConfig holds the query-cache connection and TTL.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies
// environment-variable overrides on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Index.Dir == "" {
		return fmt.Errorf("config: index.dir must be set")
	}
	if c.Index.PageSize <= 0 {
		return fmt.Errorf("config: index.pageSize must be positive")
	}
	switch c.Source.Kind {
	case "file", "postgres", "kafka":
	default:
		return fmt.Errorf("config: unknown source kind %q", c.Source.Kind)
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		Index: IndexConfig{
			Dir:      "data/index",
			PageSize: 4096,
		},
		Source: SourceConfig{
			Kind:        "file",
			Path:        "documents.txt",
			Query:       "SELECT id, body FROM documents ORDER BY id",
			IdleTimeout: 10 * time.Second,
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "perlin",
			User:            "perlin",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			Topic:         "documents",
			ConsumerGroup: "perlin-indexer",
		},
		Redis: RedisConfig{
			Enabled:  false,
			Addr:     "localhost:6379",
			DB:       0,
			PoolSize: 10,
			CacheTTL: 60 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads PERLIN_* environment variables and overrides
// the corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PERLIN_INDEX_DIR"); v != "" {
		cfg.Index.Dir = v
	}
	if v := os.Getenv("PERLIN_INDEX_PAGESIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Index.PageSize = n
		}
	}
	if v := os.Getenv("PERLIN_SOURCE_KIND"); v != "" {
		cfg.Source.Kind = v
	}
	if v := os.Getenv("PERLIN_SOURCE_PATH"); v != "" {
		cfg.Source.Path = v
	}
	if v := os.Getenv("PERLIN_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("PERLIN_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("PERLIN_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("PERLIN_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("PERLIN_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("PERLIN_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("PERLIN_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("PERLIN_KAFKA_TOPIC"); v != "" {
		cfg.Kafka.Topic = v
	}
	if v := os.Getenv("PERLIN_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("PERLIN_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("PERLIN_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("PERLIN_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
