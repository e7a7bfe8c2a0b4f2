package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Moseh-25-sudo/alx-files-manager/pkg/filesmanager"
	jwtidentity "github.com/Moseh-25-sudo/alx-files-manager/pkg/filesmanager/identity/jwt"
	memoryidentity "github.com/Moseh-25-sudo/alx-files-manager/pkg/filesmanager/identity/memory"
	redisidentity "github.com/Moseh-25-sudo/alx-files-manager/pkg/filesmanager/identity/redis"
	"github.com/Moseh-25-sudo/alx-files-manager/pkg/filesmanager/objectkey"
	memoryqueue "github.com/Moseh-25-sudo/alx-files-manager/pkg/filesmanager/queue/memory"
	redisqueue "github.com/Moseh-25-sudo/alx-files-manager/pkg/filesmanager/queue/redis"
	memoryrepo "github.com/Moseh-25-sudo/alx-files-manager/pkg/filesmanager/repo/memory"
	mongorepo "github.com/Moseh-25-sudo/alx-files-manager/pkg/filesmanager/repo/mongo"
	repopg "github.com/Moseh-25-sudo/alx-files-manager/pkg/filesmanager/repo/postgres"
	sqliterepo "github.com/Moseh-25-sudo/alx-files-manager/pkg/filesmanager/repo/sqlite"
	fsstorage "github.com/Moseh-25-sudo/alx-files-manager/pkg/filesmanager/storage/fs"
	memorystorage "github.com/Moseh-25-sudo/alx-files-manager/pkg/filesmanager/storage/memory"
	s3storage "github.com/Moseh-25-sudo/alx-files-manager/pkg/filesmanager/storage/s3"
	"github.com/Moseh-25-sudo/alx-files-manager/pkg/filesmanager/thumbnail"
)

// Components bundles everything a process needs. Close releases the
// connections in reverse order of creation.
type Components struct {
	Service    filesmanager.Service
	Repository filesmanager.Repository
	Store      filesmanager.ContentStore
	Identity   filesmanager.IdentityResolver

	// Queue is the raw producer; the service enqueues through a logging wrapper
	Queue  filesmanager.JobQueue
	Source filesmanager.JobSource

	// InProcessQueue is set when producer and consumer share memory, in
	// which case the worker must run inside the serving process
	InProcessQueue    bool
	WorkerConcurrency int

	Logger  *slog.Logger
	closers []func() error
}

func (c *Components) addCloser(fn func() error) {
	c.closers = append(c.closers, fn)
}

// Close releases every connection opened by Build
func (c *Components) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

// NewWorker returns a thumbnail worker consuming Source
func (c *Components) NewWorker(opts ...thumbnail.WorkerOption) *thumbnail.Worker {
	options := append([]thumbnail.WorkerOption{
		thumbnail.WithConcurrency(c.WorkerConcurrency),
		thumbnail.WithWorkerLogger(c.Logger),
	}, opts...)
	return thumbnail.NewWorker(c.Source, c.Repository, c.Store, options...)
}

// Build opens every backend named by the configuration and assembles the
// service. On error, anything already opened is closed.
func (c *ServerConfig) Build(ctx context.Context, logger *slog.Logger) (*Components, error) {
	if logger == nil {
		logger = slog.Default()
	}
	components := &Components{
		Logger:            logger,
		WorkerConcurrency: c.WorkerConcurrency,
	}

	if err := c.build(ctx, components); err != nil {
		if closeErr := components.Close(); closeErr != nil {
			logger.Warn("Failed to close partially built components", "err", closeErr)
		}
		return nil, err
	}
	return components, nil
}

func (c *ServerConfig) build(ctx context.Context, components *Components) error {
	repo, err := c.buildRepository(ctx, components)
	if err != nil {
		return fmt.Errorf("failed to build repository: %w", err)
	}
	components.Repository = repo

	store, err := c.buildStorageBackend(ctx)
	if err != nil {
		return fmt.Errorf("failed to build storage backend %s: %w", c.StorageType, err)
	}
	components.Store = store

	var redisClient *goredis.Client
	if c.AuthMode == AuthRedis || c.QueueType == QueueRedis {
		redisClient, err = NewRedisClient(ctx, c.RedisURL)
		if err != nil {
			return err
		}
		components.addCloser(redisClient.Close)
	}

	identity, err := c.buildIdentity(redisClient)
	if err != nil {
		return fmt.Errorf("failed to build identity resolver: %w", err)
	}
	components.Identity = identity

	switch c.QueueType {
	case QueueRedis:
		queue := redisqueue.New(redisClient, redisqueue.WithPrefix(c.QueuePrefix))
		components.Queue = queue
		components.Source = queue
	default:
		queue := memoryqueue.New(c.QueueCapacity)
		components.Queue = queue
		components.Source = queue
		components.InProcessQueue = true
	}

	var keys objectkey.Generator = objectkey.NewFlatGenerator()
	if c.KeyLayout == "sharded" {
		keys = objectkey.NewShardedGenerator()
	}

	service, err := filesmanager.New(
		filesmanager.WithRepository(repo),
		filesmanager.WithContentStore(c.StorageType, store),
		filesmanager.WithIdentityResolver(identity),
		filesmanager.WithJobQueue(filesmanager.NewLoggingJobQueue(components.Queue, components.Logger)),
		filesmanager.WithKeyGenerator(keys),
		filesmanager.WithLogger(components.Logger),
	)
	if err != nil {
		return fmt.Errorf("failed to build service: %w", err)
	}
	components.Service = service
	return nil
}

// buildRepository creates a Repository based on the configuration
func (c *ServerConfig) buildRepository(ctx context.Context, components *Components) (filesmanager.Repository, error) {
	switch c.DatabaseType {
	case DatabaseMemory:
		return memoryrepo.New(), nil
	case DatabasePostgres:
		pool, err := NewPostgresPool(ctx, c.DatabaseURL, c.DBSchema)
		if err != nil {
			return nil, err
		}
		components.addCloser(func() error {
			pool.Close()
			return nil
		})
		return repopg.NewWithPool(pool), nil
	case DatabaseSQLite:
		repo, err := sqliterepo.Open(c.DatabaseURL)
		if err != nil {
			return nil, err
		}
		components.addCloser(repo.Close)
		return repo, nil
	case DatabaseMongo:
		repo, client, err := mongorepo.Connect(ctx, c.DatabaseURL, c.DBDatabase)
		if err != nil {
			return nil, err
		}
		components.addCloser(func() error {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return client.Disconnect(disconnectCtx)
		})
		return repo, nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

// buildStorageBackend creates a ContentStore based on the configuration
func (c *ServerConfig) buildStorageBackend(ctx context.Context) (filesmanager.ContentStore, error) {
	switch c.StorageType {
	case StorageMemory:
		return memorystorage.New(), nil
	case StorageFS:
		return fsstorage.New(fsstorage.Config{BaseDir: c.StorageDir})
	case StorageS3:
		return s3storage.New(ctx, s3storage.Config{
			Region:                 c.S3.Region,
			Bucket:                 c.S3.Bucket,
			Prefix:                 c.S3.Prefix,
			AccessKeyID:            c.S3.AccessKeyID,
			SecretAccessKey:        c.S3.SecretAccessKey,
			Endpoint:               c.S3.Endpoint,
			UsePathStyle:           c.S3.UsePathStyle,
			CreateBucketIfNotExist: c.S3.CreateBucketIfNotExist,
		})
	default:
		return nil, fmt.Errorf("unsupported storage backend type: %s", c.StorageType)
	}
}

func (c *ServerConfig) buildIdentity(redisClient *goredis.Client) (filesmanager.IdentityResolver, error) {
	switch c.AuthMode {
	case AuthRedis:
		return redisidentity.New(redisClient), nil
	case AuthJWT:
		return jwtidentity.New(c.JWTSecret)
	case AuthMemory:
		return memoryidentity.Parse(c.AuthTokens)
	default:
		return nil, fmt.Errorf("unsupported auth mode: %s", c.AuthMode)
	}
}

// Migrate brings the configured metadata store's schema up to date
func (c *ServerConfig) Migrate(ctx context.Context) error {
	switch c.DatabaseType {
	case DatabaseMemory:
		return nil
	case DatabasePostgres:
		pool, err := NewPostgresPool(ctx, c.DatabaseURL, c.DBSchema)
		if err != nil {
			return err
		}
		defer pool.Close()
		return repopg.NewWithPool(pool).EnsureSchema(ctx)
	case DatabaseSQLite:
		// Open applies pending migrations
		repo, err := sqliterepo.Open(c.DatabaseURL)
		if err != nil {
			return err
		}
		return repo.Close()
	case DatabaseMongo:
		repo, client, err := mongorepo.Connect(ctx, c.DatabaseURL, c.DBDatabase)
		if err != nil {
			return err
		}
		defer client.Disconnect(context.Background())
		return repo.EnsureIndexes(ctx)
	default:
		return fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

// NewPostgresPool connects and pings Postgres, setting search_path on every
// session when schema is given.
func NewPostgresPool(ctx context.Context, databaseURL, schema string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}
	if schema != "" {
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s", pgx.Identifier{schema}.Sanitize()))
			return err
		}
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return pool, nil
}

// NewRedisClient connects and pings Redis
func NewRedisClient(ctx context.Context, redisURL string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
	}
	client := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}
