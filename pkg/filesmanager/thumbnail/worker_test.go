package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"image"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Moseh-25-sudo/alx-files-manager/pkg/filesmanager"
	memoryqueue "github.com/Moseh-25-sudo/alx-files-manager/pkg/filesmanager/queue/memory"
	memoryrepo "github.com/Moseh-25-sudo/alx-files-manager/pkg/filesmanager/repo/memory"
	memorystorage "github.com/Moseh-25-sudo/alx-files-manager/pkg/filesmanager/storage/memory"
)

type fixture struct {
	repo  *memoryrepo.Repository
	store *memorystorage.Backend
	queue *memoryqueue.Queue
}

func newFixture() *fixture {
	return &fixture{
		repo:  memoryrepo.New(),
		store: memorystorage.New(),
		queue: memoryqueue.New(16),
	}
}

func (f *fixture) addObject(t *testing.T, owner string, kind filesmanager.Kind, data []byte) *filesmanager.Object {
	t.Helper()
	ctx := context.Background()
	object := &filesmanager.Object{
		ID:        uuid.New(),
		OwnerID:   owner,
		Name:      "photo.png",
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if kind.HasContent() {
		object.ContentRef = uuid.NewString()
		require.NoError(t, f.store.Upload(ctx, object.ContentRef, bytes.NewReader(data)))
	}
	require.NoError(t, f.repo.CreateObject(ctx, object))
	return object
}

func (f *fixture) dequeue(t *testing.T, job filesmanager.ThumbnailJob) filesmanager.Delivery {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.queue.Enqueue(ctx, job))
	d, err := f.queue.Dequeue(ctx)
	require.NoError(t, err)
	return d
}

func TestWorker_ProcessImage(t *testing.T) {
	f := newFixture()
	object := f.addObject(t, "user-1", filesmanager.KindImage, encodePNG(t, 800, 600))
	w := NewWorker(f.queue, f.repo, f.store)

	result := w.Process(context.Background(), f.dequeue(t, filesmanager.ThumbnailJob{
		FileID: object.ID.String(),
		UserID: "user-1",
	}))

	require.NoError(t, result.Err)
	assert.True(t, result.Succeeded())
	assert.Equal(t, []int{100, 250, 500}, result.Widths)
	assert.Equal(t, 1, f.queue.Acked())

	for _, width := range filesmanager.ThumbnailWidths {
		rc, err := f.store.Download(context.Background(), filesmanager.DerivativeKey(object.ContentRef, width))
		require.NoError(t, err)
		data, _ := io.ReadAll(rc)
		rc.Close()

		cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, "png", format)
		assert.Equal(t, width, cfg.Width)
	}
}

func TestWorker_FailedJobs(t *testing.T) {
	f := newFixture()
	img := f.addObject(t, "user-1", filesmanager.KindImage, encodePNG(t, 50, 50))
	file := f.addObject(t, "user-1", filesmanager.KindFile, []byte("plain text"))
	broken := f.addObject(t, "user-1", filesmanager.KindImage, []byte("not an image"))

	tests := []struct {
		name    string
		job     filesmanager.ThumbnailJob
		wantErr error
	}{
		{name: "missing fileId", job: filesmanager.ThumbnailJob{UserID: "user-1"}, wantErr: filesmanager.ErrInvalidJob},
		{name: "missing userId", job: filesmanager.ThumbnailJob{FileID: img.ID.String()}, wantErr: filesmanager.ErrInvalidJob},
		{name: "malformed fileId", job: filesmanager.ThumbnailJob{FileID: "42", UserID: "user-1"}, wantErr: filesmanager.ErrInvalidJob},
		{name: "unknown file", job: filesmanager.ThumbnailJob{FileID: uuid.NewString(), UserID: "user-1"}, wantErr: filesmanager.ErrNotFound},
		{name: "other owner", job: filesmanager.ThumbnailJob{FileID: img.ID.String(), UserID: "user-2"}, wantErr: filesmanager.ErrNotFound},
		{name: "not an image", job: filesmanager.ThumbnailJob{FileID: file.ID.String(), UserID: "user-1"}, wantErr: filesmanager.ErrInvalidJob},
		{name: "undecodable", job: filesmanager.ThumbnailJob{FileID: broken.ID.String(), UserID: "user-1"}},
	}

	w := NewWorker(f.queue, f.repo, f.store)
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := w.Process(context.Background(), f.dequeue(t, tt.job))
			require.Error(t, result.Err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, result.Err, tt.wantErr)
			}
			assert.Empty(t, result.Widths)
			assert.Len(t, f.queue.Failed(), i+1)
		})
	}
	assert.Equal(t, 0, f.queue.Acked())
}

// flakyStore fails uploads whose key ends with failSuffix
type flakyStore struct {
	filesmanager.ContentStore
	failSuffix string
}

func (s *flakyStore) Upload(ctx context.Context, key string, r io.Reader) error {
	if strings.HasSuffix(key, s.failSuffix) {
		return errors.New("disk full")
	}
	return s.ContentStore.Upload(ctx, key, r)
}

func TestWorker_WidthsAreIndependent(t *testing.T) {
	f := newFixture()
	object := f.addObject(t, "user-1", filesmanager.KindImage, encodePNG(t, 600, 400))
	store := &flakyStore{ContentStore: f.store, failSuffix: "_250"}
	w := NewWorker(f.queue, f.repo, store)

	result := w.Process(context.Background(), f.dequeue(t, filesmanager.ThumbnailJob{
		FileID: object.ID.String(),
		UserID: "user-1",
	}))

	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "width 250")
	assert.Equal(t, []int{100, 500}, result.Widths)

	_, err := f.store.GetBlobMeta(context.Background(), filesmanager.DerivativeKey(object.ContentRef, 500))
	assert.NoError(t, err, "500 is written after 250 failed")
	_, err = f.store.GetBlobMeta(context.Background(), filesmanager.DerivativeKey(object.ContentRef, 250))
	assert.ErrorIs(t, err, filesmanager.ErrBlobNotFound)
	assert.Len(t, f.queue.Failed(), 1)
}

func TestWorker_Run(t *testing.T) {
	f := newFixture()
	good := f.addObject(t, "user-1", filesmanager.KindImage, encodePNG(t, 300, 300))

	results := make(chan JobResult, 4)
	w := NewWorker(f.queue, f.repo, f.store, WithConcurrency(2), WithResults(results))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, f.queue.Enqueue(ctx, filesmanager.ThumbnailJob{UserID: "user-1"}))
	require.NoError(t, f.queue.Enqueue(ctx, filesmanager.ThumbnailJob{FileID: good.ID.String(), UserID: "user-1"}))

	var got []JobResult
	for len(got) < 2 {
		select {
		case r := <-results:
			got = append(got, r)
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for results")
		}
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}

	succeeded := 0
	for _, r := range got {
		if r.Succeeded() {
			succeeded++
			assert.Equal(t, good.ID.String(), r.Job.FileID)
		}
	}
	assert.Equal(t, 1, succeeded, "a failed job does not stop the worker")
}

func TestWorker_RunStopsWithUnreadResults(t *testing.T) {
	f := newFixture()
	photo := f.addObject(t, "user-1", filesmanager.KindImage, encodePNG(t, 120, 120))

	// Nobody reads from results
	results := make(chan JobResult)
	w := NewWorker(f.queue, f.repo, f.store, WithResults(results))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, f.queue.Enqueue(ctx, filesmanager.ThumbnailJob{FileID: photo.ID.String(), UserID: "user-1"}))
	require.Eventually(t, func() bool {
		for _, width := range filesmanager.ThumbnailWidths {
			if _, err := f.store.GetBlobMeta(context.Background(), filesmanager.DerivativeKey(photo.ContentRef, width)); err != nil {
				return false
			}
		}
		return true
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("worker blocked on an unread result")
	}
}
