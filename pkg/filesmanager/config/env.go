package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// EnvConfig is the environment surface read by cleanenv. Empty values leave
// the corresponding ServerConfig default untouched.
type EnvConfig struct {
	Port        string `env:"PORT" env-description:"HTTP listen port"`
	Environment string `env:"ENVIRONMENT" env-description:"development, production or testing"`

	DatabaseURL string `env:"DATABASE_URL" env-description:"memory, postgres://..., sqlite://path or mongodb://..."`
	DBDatabase  string `env:"DB_DATABASE" env-description:"MongoDB database name"`
	DBSchema    string `env:"DB_SCHEMA" env-description:"Postgres schema to use as search_path"`

	StorageURL string `env:"STORAGE_URL" env-description:"memory://, file:///path or s3://bucket"`
	FolderPath string `env:"FOLDER_PATH" env-description:"filesystem store directory when STORAGE_URL is unset"`
	KeyLayout  string `env:"KEY_LAYOUT" env-description:"content key layout: flat or sharded"`

	AWSRegion          string `env:"AWS_REGION" env-description:"S3 region"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" env-description:"S3 access key"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" env-description:"S3 secret key"`
	S3Endpoint         string `env:"S3_ENDPOINT" env-description:"custom endpoint for S3-compatible services"`
	S3UsePathStyle     bool   `env:"S3_USE_PATH_STYLE" env-description:"use path-style bucket addressing"`
	S3CreateBucket     bool   `env:"S3_CREATE_BUCKET" env-description:"create the bucket on first upload"`

	AuthMode   string `env:"AUTH_MODE" env-description:"memory, redis or jwt (redis when REDIS_URL is set)"`
	AuthTokens string `env:"AUTH_TOKENS" env-description:"token:user pairs for memory auth"`
	JWTSecret  string `env:"JWT_SECRET" env-description:"HS256 secret for jwt auth"`
	RedisURL   string `env:"REDIS_URL" env-description:"redis://host:port/db"`

	Queue             string `env:"QUEUE" env-description:"memory or redis (redis when REDIS_URL is set)"`
	QueuePrefix       string `env:"QUEUE_PREFIX" env-description:"redis key prefix of the thumbnail queue"`
	QueueCapacity     int    `env:"QUEUE_CAPACITY" env-description:"buffer size of the memory queue"`
	WorkerConcurrency int    `env:"WORKER_CONCURRENCY" env-description:"thumbnail jobs processed in parallel"`
}

// WithEnv applies environment variable overrides.
func WithEnv() Option {
	return func(c *ServerConfig) error {
		var env EnvConfig
		if err := cleanenv.ReadEnv(&env); err != nil {
			return fmt.Errorf("read environment: %w", err)
		}
		return env.apply(c)
	}
}

// WithFile reads a yaml, json, toml or .env file, with the environment taking
// precedence over its values.
func WithFile(path string) Option {
	return func(c *ServerConfig) error {
		var env EnvConfig
		if err := cleanenv.ReadConfig(path, &env); err != nil {
			return fmt.Errorf("read config file %s: %w", path, err)
		}
		return env.apply(c)
	}
}

// WithEnvConfig applies an already populated EnvConfig.
func WithEnvConfig(env EnvConfig) Option {
	return func(c *ServerConfig) error {
		return env.apply(c)
	}
}

// Describe returns the documentation of every supported variable.
func Describe() (string, error) {
	header := "Environment variables:"
	return cleanenv.GetDescription(&EnvConfig{}, &header)
}

func (e EnvConfig) apply(c *ServerConfig) error {
	setString(&c.Port, e.Port)
	setString(&c.Environment, e.Environment)
	setString(&c.DBDatabase, e.DBDatabase)
	setString(&c.DBSchema, e.DBSchema)
	setString(&c.KeyLayout, e.KeyLayout)
	setString(&c.AuthTokens, e.AuthTokens)
	setString(&c.JWTSecret, e.JWTSecret)
	setString(&c.RedisURL, e.RedisURL)
	setString(&c.QueuePrefix, e.QueuePrefix)
	if e.QueueCapacity != 0 {
		c.QueueCapacity = e.QueueCapacity
	}
	if e.WorkerConcurrency != 0 {
		c.WorkerConcurrency = e.WorkerConcurrency
	}

	if err := e.applyDatabase(c); err != nil {
		return err
	}
	if err := e.applyStorage(c); err != nil {
		return err
	}

	switch {
	case e.AuthMode != "":
		c.AuthMode = e.AuthMode
	case e.RedisURL != "":
		c.AuthMode = AuthRedis
	}
	switch {
	case e.Queue != "":
		c.QueueType = e.Queue
	case e.RedisURL != "":
		c.QueueType = QueueRedis
	}

	return nil
}

// applyDatabase detects the metadata store from DATABASE_URL
func (e EnvConfig) applyDatabase(c *ServerConfig) error {
	dbURL := e.DatabaseURL
	switch {
	case dbURL == "":
		return nil
	case dbURL == "memory":
		c.DatabaseType = DatabaseMemory
		c.DatabaseURL = ""
	case strings.HasPrefix(dbURL, "postgres://"), strings.HasPrefix(dbURL, "postgresql://"):
		c.DatabaseType = DatabasePostgres
		c.DatabaseURL = dbURL
	case strings.HasPrefix(dbURL, "sqlite://"):
		path := strings.TrimPrefix(dbURL, "sqlite://")
		if path == "" {
			return fmt.Errorf("sqlite path cannot be empty in DATABASE_URL")
		}
		c.DatabaseType = DatabaseSQLite
		c.DatabaseURL = path
	case strings.HasPrefix(dbURL, "mongodb://"), strings.HasPrefix(dbURL, "mongodb+srv://"):
		c.DatabaseType = DatabaseMongo
		c.DatabaseURL = dbURL
	default:
		return fmt.Errorf("unsupported DATABASE_URL format: %s (use 'memory', 'postgres://...', 'sqlite://...' or 'mongodb://...')", dbURL)
	}
	return nil
}

// applyStorage detects the content store from STORAGE_URL, falling back to
// FOLDER_PATH for the filesystem store
func (e EnvConfig) applyStorage(c *ServerConfig) error {
	storageURL := e.StorageURL
	switch {
	case storageURL == "":
		if e.FolderPath != "" {
			c.StorageType = StorageFS
			c.StorageDir = e.FolderPath
		}
	case storageURL == "memory", storageURL == "memory://":
		c.StorageType = StorageMemory
	case strings.HasPrefix(storageURL, "file://"):
		path := strings.TrimPrefix(storageURL, "file://")
		if path == "" {
			return fmt.Errorf("filesystem path cannot be empty in STORAGE_URL")
		}
		c.StorageType = StorageFS
		c.StorageDir = path
	case strings.HasPrefix(storageURL, "s3://"):
		if err := e.applyS3(storageURL, c); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported STORAGE_URL format: %s (use 'memory://', 'file://...' or 's3://...')", storageURL)
	}
	return nil
}

// applyS3 parses s3://bucket/prefix?region=...&endpoint=...
func (e EnvConfig) applyS3(storageURL string, c *ServerConfig) error {
	u, err := url.Parse(storageURL)
	if err != nil {
		return fmt.Errorf("invalid STORAGE_URL: %w", err)
	}
	if u.Host == "" {
		return fmt.Errorf("S3 bucket name cannot be empty in STORAGE_URL")
	}

	c.StorageType = StorageS3
	c.S3.Bucket = u.Host
	c.S3.Prefix = strings.Trim(u.Path, "/")

	query := u.Query()
	setString(&c.S3.Region, query.Get("region"))
	setString(&c.S3.Endpoint, query.Get("endpoint"))

	setString(&c.S3.Region, e.AWSRegion)
	setString(&c.S3.AccessKeyID, e.AWSAccessKeyID)
	setString(&c.S3.SecretAccessKey, e.AWSSecretAccessKey)
	setString(&c.S3.Endpoint, e.S3Endpoint)
	if e.S3UsePathStyle {
		c.S3.UsePathStyle = true
	}
	if e.S3CreateBucket {
		c.S3.CreateBucketIfNotExist = true
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
