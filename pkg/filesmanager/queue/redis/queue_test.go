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

// fakeClient keeps lists in memory; index 0 is the LEFT end
type fakeClient struct {
	mu    sync.Mutex
	lists map[string][]string
}

func newFakeClient() *fakeClient {
	return &fakeClient{lists: map[string][]string{}}
}

func (f *fakeClient) LPush(ctx context.Context, key string, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists[key] = append([]string{value}, f.lists[key]...)
	return nil
}

func (f *fakeClient) RPush(ctx context.Context, key string, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists[key] = append(f.lists[key], value)
	return nil
}

func (f *fakeClient) LMove(ctx context.Context, source, destination, srcpos, destpos string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	src := f.lists[source]
	if len(src) == 0 {
		return "", errEmpty
	}
	var value string
	if srcpos == "LEFT" {
		value, f.lists[source] = src[0], src[1:]
	} else {
		value, f.lists[source] = src[len(src)-1], src[:len(src)-1]
	}
	if destpos == "LEFT" {
		f.lists[destination] = append([]string{value}, f.lists[destination]...)
	} else {
		f.lists[destination] = append(f.lists[destination], value)
	}
	return value, nil
}

func (f *fakeClient) BLMove(ctx context.Context, source, destination, srcpos, destpos string, timeout time.Duration) (string, error) {
	value, err := f.LMove(ctx, source, destination, srcpos, destpos)
	if !errors.Is(err, errEmpty) {
		return value, err
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(timeout):
		return "", errEmpty
	}
}

func (f *fakeClient) LRem(ctx context.Context, key string, count int64, value string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var removed int64
	kept := f.lists[key][:0:0]
	for _, v := range f.lists[key] {
		if v == value && (count == 0 || removed < count) {
			removed++
			continue
		}
		kept = append(kept, v)
	}
	f.lists[key] = kept
	return removed, nil
}

func (f *fakeClient) LLen(ctx context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.lists[key])), nil
}

func newTestQueue(client *fakeClient) *Queue {
	return newQueue(client, WithBlockTimeout(10*time.Millisecond))
}

func TestQueue_EnqueueDequeueAck(t *testing.T) {
	client := newFakeClient()
	q := newTestQueue(client)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, filesmanager.ThumbnailJob{FileID: "f1", UserID: "u1"}))
	require.NoError(t, q.Enqueue(ctx, filesmanager.ThumbnailJob{FileID: "f2", UserID: "u1"}))

	d, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, d.ID())

	job, err := d.Job()
	require.NoError(t, err)
	assert.Equal(t, "f1", job.FileID)
	assert.Equal(t, "u1", job.UserID)

	pending, processing, failed, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)
	assert.Equal(t, int64(1), processing)
	assert.Equal(t, int64(0), failed)

	require.NoError(t, d.Ack(ctx))
	_, processing, _, err = q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), processing)
}

func TestQueue_Nack(t *testing.T) {
	client := newFakeClient()
	q := newTestQueue(client)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, filesmanager.ThumbnailJob{FileID: "f1", UserID: "u1"}))
	d, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NoError(t, d.Nack(ctx, errors.New("decode failed")))

	pending, processing, failed, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pending)
	assert.Equal(t, int64(0), processing)
	assert.Equal(t, int64(1), failed)
}

func TestQueue_Recover(t *testing.T) {
	client := newFakeClient()
	q := newTestQueue(client)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, filesmanager.ThumbnailJob{FileID: "f1", UserID: "u1"}))
	require.NoError(t, q.Enqueue(ctx, filesmanager.ThumbnailJob{FileID: "f2", UserID: "u1"}))

	// a worker takes f1 and dies before acking
	_, err := q.Dequeue(ctx)
	require.NoError(t, err)

	moved, err := q.Recover(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, moved)

	d, err := q.Dequeue(ctx)
	require.NoError(t, err)
	job, err := d.Job()
	require.NoError(t, err)
	assert.Equal(t, "f1", job.FileID, "recovered job is consumed first")
}

func TestQueue_InvalidPayload(t *testing.T) {
	client := newFakeClient()
	q := newTestQueue(client)
	ctx := context.Background()

	require.NoError(t, client.LPush(ctx, "fileQueue:jobs", "{not json"))

	d, err := q.Dequeue(ctx)
	require.NoError(t, err)
	_, err = d.Job()
	assert.ErrorIs(t, err, filesmanager.ErrInvalidJob)
	assert.Empty(t, d.ID())
}

func TestQueue_DequeueHonorsContext(t *testing.T) {
	q := newTestQueue(newFakeClient())
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := q.Dequeue(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueue_Prefix(t *testing.T) {
	client := newFakeClient()
	q := newQueue(client, WithPrefix("thumbs"))

	require.NoError(t, q.Enqueue(context.Background(), filesmanager.ThumbnailJob{FileID: "f", UserID: "u"}))
	assert.Len(t, client.lists["thumbs:jobs"], 1)
}
