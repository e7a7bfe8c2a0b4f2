package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Moseh-25-sudo/alx-files-manager/pkg/filesmanager"
)

type fakeClient struct {
	mu      sync.Mutex
	values  map[string]string
	ttls    map[string]time.Duration
	failGet error
}

func newFakeClient() *fakeClient {
	return &fakeClient{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeClient) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet != nil {
		return "", f.failGet
	}
	v, ok := f.values[key]
	if !ok {
		return "", errKeyNotFound
	}
	return v, nil
}

func (f *fakeClient) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	f.ttls[key] = expiration
	return nil
}

func (f *fakeClient) Del(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.values, key)
	return nil
}

func TestResolver_Resolve(t *testing.T) {
	client := newFakeClient()
	client.values["auth_abc"] = "user-1"
	r := newResolver(client)
	ctx := context.Background()

	userID, err := r.Resolve(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	_, err = r.Resolve(ctx, "unknown")
	assert.ErrorIs(t, err, filesmanager.ErrUnauthorized)

	_, err = r.Resolve(ctx, "")
	assert.ErrorIs(t, err, filesmanager.ErrUnauthorized)
}

func TestResolver_BackendError(t *testing.T) {
	client := newFakeClient()
	client.failGet = errors.New("connection refused")
	r := newResolver(client)

	_, err := r.Resolve(context.Background(), "abc")
	require.Error(t, err)
	assert.NotErrorIs(t, err, filesmanager.ErrUnauthorized)
}

func TestResolver_IssueAndRevoke(t *testing.T) {
	client := newFakeClient()
	r := newResolver(client, WithKeyPrefix("session:"))
	ctx := context.Background()

	token, err := r.Issue(ctx, "user-2", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTTL, client.ttls["session:"+token])

	userID, err := r.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "user-2", userID)

	require.NoError(t, r.Revoke(ctx, token))
	_, err = r.Resolve(ctx, token)
	assert.ErrorIs(t, err, filesmanager.ErrUnauthorized)

	_, err = r.Issue(ctx, "", time.Minute)
	assert.Error(t, err)
}
