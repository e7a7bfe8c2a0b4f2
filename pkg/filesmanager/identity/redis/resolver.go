package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Moseh-25-sudo/alx-files-manager/pkg/filesmanager"
)

// DefaultKeyPrefix matches the key layout written by the auth service:
// auth_<token> holds the user id.
const DefaultKeyPrefix = "auth_"

// DefaultTTL is the lifetime of tokens created by Issue
const DefaultTTL = 24 * time.Hour

// Resolver looks tokens up in Redis
type Resolver struct {
	client    redisClient
	keyPrefix string
}

// Option configures a Resolver
type Option func(*Resolver)

// WithKeyPrefix overrides DefaultKeyPrefix
func WithKeyPrefix(prefix string) Option {
	return func(r *Resolver) {
		r.keyPrefix = prefix
	}
}

// New creates a resolver on an existing go-redis client
func New(client goredis.UniversalClient, opts ...Option) *Resolver {
	return newResolver(&goRedisClient{client: client}, opts...)
}

func newResolver(client redisClient, opts ...Option) *Resolver {
	r := &Resolver{client: client, keyPrefix: DefaultKeyPrefix}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) key(token string) string {
	return r.keyPrefix + token
}

// Resolve returns the user id stored for token
func (r *Resolver) Resolve(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", filesmanager.ErrUnauthorized
	}

	userID, err := r.client.Get(ctx, r.key(token))
	if err != nil {
		if errors.Is(err, errKeyNotFound) {
			return "", filesmanager.ErrUnauthorized
		}
		return "", fmt.Errorf("redis lookup: %w", err)
	}
	if userID == "" {
		return "", filesmanager.ErrUnauthorized
	}
	return userID, nil
}

// Issue stores a fresh token for userID. A ttl of 0 uses DefaultTTL.
func (r *Resolver) Issue(ctx context.Context, userID string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("user id is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	token := uuid.NewString()
	if err := r.client.Set(ctx, r.key(token), userID, ttl); err != nil {
		return "", fmt.Errorf("redis store token: %w", err)
	}
	return token, nil
}

// Revoke deletes token
func (r *Resolver) Revoke(ctx context.Context, token string) error {
	if err := r.client.Del(ctx, r.key(token)); err != nil {
		return fmt.Errorf("redis revoke token: %w", err)
	}
	return nil
}

var _ filesmanager.IdentityResolver = (*Resolver)(nil)
