package config

import (
	"errors"
	"fmt"
)

// Database types
const (
	DatabaseMemory   = "memory"
	DatabasePostgres = "postgres"
	DatabaseSQLite   = "sqlite"
	DatabaseMongo    = "mongodb"
)

// Storage types
const (
	StorageMemory = "memory"
	StorageFS     = "fs"
	StorageS3     = "s3"
)

// Identity modes
const (
	AuthMemory = "memory"
	AuthRedis  = "redis"
	AuthJWT    = "jwt"
)

// Queue types
const (
	QueueMemory = "memory"
	QueueRedis  = "redis"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:              "5000",
		Environment:       "development",
		DatabaseType:      DatabaseMemory,
		DBDatabase:        "files_manager",
		StorageType:       StorageFS,
		StorageDir:        "/tmp/files_manager",
		KeyLayout:         "flat",
		S3:                S3Config{Region: "us-east-1"},
		AuthMode:          AuthMemory,
		QueueType:         QueueMemory,
		QueuePrefix:       "fileQueue",
		QueueCapacity:     1024,
		WorkerConcurrency: 1,
	}
}

// ServerConfig is the resolved configuration of a files-manager process
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// Metadata store
	DatabaseType string // memory, postgres, sqlite, mongodb
	DatabaseURL  string // connection string, or file path for sqlite
	DBDatabase   string // Mongo database name
	DBSchema     string // Postgres search_path, empty for the default

	// Content store
	StorageType string // memory, fs, s3
	StorageDir  string
	KeyLayout   string // flat or sharded
	S3          S3Config

	// Identity
	AuthMode   string // memory, redis, jwt
	AuthTokens string // token:user pairs for memory mode
	JWTSecret  string
	RedisURL   string

	// Thumbnail pipeline
	QueueType         string // memory, redis
	QueuePrefix       string
	QueueCapacity     int
	WorkerConcurrency int
}

// S3Config carries the S3 content store settings
type S3Config struct {
	Bucket                 string
	Region                 string
	Prefix                 string
	AccessKeyID            string
	SecretAccessKey        string
	Endpoint               string
	UsePathStyle           bool
	CreateBucketIfNotExist bool
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	switch c.DatabaseType {
	case DatabaseMemory:
	case DatabasePostgres, DatabaseSQLite:
		if c.DatabaseURL == "" {
			return fmt.Errorf("database_url is required when using %s", c.DatabaseType)
		}
	case DatabaseMongo:
		if c.DatabaseURL == "" {
			return errors.New("database_url is required when using mongodb")
		}
		if c.DBDatabase == "" {
			return errors.New("db_database is required when using mongodb")
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}

	switch c.StorageType {
	case StorageMemory:
	case StorageFS:
		if c.StorageDir == "" {
			return errors.New("storage directory is required when using fs storage")
		}
	case StorageS3:
		if c.S3.Bucket == "" {
			return errors.New("s3 bucket is required when using s3 storage")
		}
	default:
		return fmt.Errorf("unsupported storage type: %s", c.StorageType)
	}

	if c.KeyLayout != "flat" && c.KeyLayout != "sharded" {
		return fmt.Errorf("key layout must be 'flat' or 'sharded', got %q", c.KeyLayout)
	}

	switch c.AuthMode {
	case AuthMemory:
	case AuthRedis:
		if c.RedisURL == "" {
			return errors.New("redis_url is required when using redis auth")
		}
	case AuthJWT:
		if c.JWTSecret == "" {
			return errors.New("jwt_secret is required when using jwt auth")
		}
	default:
		return fmt.Errorf("unsupported auth mode: %s", c.AuthMode)
	}

	switch c.QueueType {
	case QueueMemory:
		if c.QueueCapacity < 1 {
			return errors.New("queue capacity must be at least 1")
		}
	case QueueRedis:
		if c.RedisURL == "" {
			return errors.New("redis_url is required when using the redis queue")
		}
		if c.QueuePrefix == "" {
			return errors.New("queue prefix is required when using the redis queue")
		}
	default:
		return fmt.Errorf("unsupported queue type: %s", c.QueueType)
	}

	if c.WorkerConcurrency < 1 {
		return errors.New("worker concurrency must be at least 1")
	}

	return nil
}
