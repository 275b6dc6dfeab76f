package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the complete application configuration.
type Config struct {
	API       APIConfig       `mapstructure:"api" yaml:"api"`
	Worker    WorkerConfig    `mapstructure:"worker" yaml:"worker"`
	Database  DatabaseConfig  `mapstructure:"database" yaml:"database"`
	NATS      NATSConfig      `mapstructure:"nats" yaml:"nats"`
	Storage   StorageConfig   `mapstructure:"storage" yaml:"storage"`
	Providers ProvidersConfig `mapstructure:"providers" yaml:"providers"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
}

// APIConfig holds API server configuration.
type APIConfig struct {
	Host         string        `mapstructure:"host" yaml:"host"`
	Port         string        `mapstructure:"port" yaml:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
}

// WorkerConfig holds worker configuration.
type WorkerConfig struct {
	Concurrency     int           `mapstructure:"concurrency" yaml:"concurrency"`
	QueueGroup      string        `mapstructure:"queue_group" yaml:"queue_group"`
	JobTimeout      time.Duration `mapstructure:"job_timeout" yaml:"job_timeout"`
	ClaimTimeout    time.Duration `mapstructure:"claim_timeout" yaml:"claim_timeout"`
	ReapInterval    time.Duration `mapstructure:"reap_interval" yaml:"reap_interval"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Host           string `mapstructure:"host" yaml:"host"`
	Port           int    `mapstructure:"port" yaml:"port"`
	User           string `mapstructure:"user" yaml:"user"`
	Password       string `mapstructure:"password" yaml:"password"`
	Name           string `mapstructure:"name" yaml:"name"`
	Schema         string `mapstructure:"schema" yaml:"schema"`
	SSLMode        string `mapstructure:"sslmode" yaml:"sslmode"`
	MaxConnections int    `mapstructure:"max_connections" yaml:"max_connections"`
	MinConnections int    `mapstructure:"min_connections" yaml:"min_connections"`
}

// DSN returns the database connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// NATSConfig holds NATS configuration.
type NATSConfig struct {
	URL           string        `mapstructure:"url" yaml:"url"`
	MaxReconnects int           `mapstructure:"max_reconnects" yaml:"max_reconnects"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait" yaml:"reconnect_wait"`
}

// StorageConfig holds blob storage configuration.
type StorageConfig struct {
	BlobDir string `mapstructure:"blob_dir" yaml:"blob_dir"`
}

// ProvidersConfig holds the pipeline provider configuration.
type ProvidersConfig struct {
	Parser   ParserConfig   `mapstructure:"parser" yaml:"parser"`
	Chunker  ChunkerConfig  `mapstructure:"chunker" yaml:"chunker"`
	Embedder EmbedderConfig `mapstructure:"embedder" yaml:"embedder"`
}

// ParserConfig identifies the document parser in use.
type ParserConfig struct {
	Name    string `mapstructure:"name" yaml:"name"`
	Version string `mapstructure:"version" yaml:"version"`
}

// ChunkerConfig identifies the chunker in use and its sizing.
type ChunkerConfig struct {
	Name          string `mapstructure:"name" yaml:"name"`
	Version       string `mapstructure:"version" yaml:"version"`
	MaxChunkChars int    `mapstructure:"max_chunk_chars" yaml:"max_chunk_chars"`
}

// EmbedderConfig identifies the embedding model in use.
type EmbedderConfig struct {
	Model        string `mapstructure:"model" yaml:"model"`
	ModelVersion string `mapstructure:"model_version" yaml:"model_version"`
	Dimensions   int    `mapstructure:"dimensions" yaml:"dimensions"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// New creates a new Config instance from Viper.
func New(v *viper.Viper) *Config {
	var config Config

	if err := v.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("unable to decode config: %w", err))
	}

	if err := config.Validate(); err != nil {
		panic(fmt.Errorf("invalid configuration: %w", err))
	}

	return &config
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Database.User == "" {
		return errors.New("database.user is required")
	}

	if c.Database.Name == "" {
		return errors.New("database.name is required")
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return errors.New("database.port must be between 1 and 65535")
	}

	if c.Worker.Concurrency < 1 {
		return errors.New("worker.concurrency must be at least 1")
	}

	if c.Worker.JobTimeout < 0 {
		return errors.New("worker.job_timeout cannot be negative")
	}

	if c.NATS.URL == "" {
		return errors.New("nats.url is required")
	}

	if c.NATS.MaxReconnects < 0 {
		return errors.New("nats.max_reconnects cannot be negative")
	}

	if c.Providers.Chunker.MaxChunkChars < 0 {
		return errors.New("providers.chunker.max_chunk_chars cannot be negative")
	}

	return nil
}
