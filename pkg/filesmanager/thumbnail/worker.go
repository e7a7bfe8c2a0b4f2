package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Moseh-25-sudo/alx-files-manager/pkg/filesmanager"
)

// JobResult is the outcome of one delivery
type JobResult struct {
	DeliveryID string
	Job        filesmanager.ThumbnailJob
	// Widths lists the derivatives written successfully
	Widths   []int
	Err      error
	Duration time.Duration
}

// Succeeded reports whether every width was written
func (r JobResult) Succeeded() bool {
	return r.Err == nil
}

// Worker consumes thumbnail jobs
type Worker struct {
	source      filesmanager.JobSource
	repository  filesmanager.Repository
	store       filesmanager.ContentStore
	generator   *Generator
	widths      []int
	concurrency int
	retryDelay  time.Duration
	logger      *slog.Logger
	results     chan<- JobResult
}

// WorkerOption configures a Worker
type WorkerOption func(*Worker)

// WithConcurrency sets the number of jobs processed in parallel
func WithConcurrency(n int) WorkerOption {
	return func(w *Worker) {
		w.concurrency = n
	}
}

// WithGenerator replaces the default generator
func WithGenerator(g *Generator) WorkerOption {
	return func(w *Worker) {
		w.generator = g
	}
}

// WithWorkerLogger sets the logger
func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) {
		w.logger = logger
	}
}

// WithResults makes the worker send every JobResult on ch. A send that is
// still pending when the Run context ends is dropped.
func WithResults(ch chan<- JobResult) WorkerOption {
	return func(w *Worker) {
		w.results = ch
	}
}

// WithRetryDelay sets the pause after a failed dequeue
func WithRetryDelay(d time.Duration) WorkerOption {
	return func(w *Worker) {
		w.retryDelay = d
	}
}

// NewWorker creates a worker reading from source
func NewWorker(source filesmanager.JobSource, repository filesmanager.Repository, store filesmanager.ContentStore, opts ...WorkerOption) *Worker {
	w := &Worker{
		source:      source,
		repository:  repository,
		store:       store,
		generator:   NewGenerator(),
		widths:      filesmanager.ThumbnailWidths,
		concurrency: 1,
		retryDelay:  time.Second,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.concurrency < 1 {
		w.concurrency = 1
	}
	return w
}

// Run processes jobs until ctx is done. Jobs already taken are finished
// before Run returns.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("thumbnail worker started", "concurrency", w.concurrency)

	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			w.loop(ctx, slot)
		}(i)
	}
	wg.Wait()

	w.logger.Info("thumbnail worker stopped")
	return nil
}

func (w *Worker) loop(ctx context.Context, slot int) {
	for {
		delivery, err := w.source.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("failed to dequeue thumbnail job", "slot", slot, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.retryDelay):
			}
			continue
		}

		result := w.Process(ctx, delivery)
		if w.results != nil {
			select {
			case w.results <- result:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Process runs one delivery to completion and acknowledges it. Cancelling
// ctx does not interrupt the job.
func (w *Worker) Process(ctx context.Context, delivery filesmanager.Delivery) JobResult {
	ctx = context.WithoutCancel(ctx)
	start := time.Now()

	result := JobResult{DeliveryID: delivery.ID()}
	job, err := delivery.Job()
	if err == nil {
		result.Job = job
		result.Widths, err = w.process(ctx, job)
	}
	result.Err = err
	result.Duration = time.Since(start)

	if result.Err != nil {
		w.logger.Error("thumbnail job failed",
			"delivery_id", result.DeliveryID, "file_id", job.FileID, "user_id", job.UserID,
			"completed_widths", result.Widths, "error", result.Err)
		if err := delivery.Nack(ctx, result.Err); err != nil {
			w.logger.Error("failed to nack thumbnail job", "delivery_id", result.DeliveryID, "error", err)
		}
		return result
	}

	w.logger.Info("thumbnail job completed",
		"delivery_id", result.DeliveryID, "file_id", job.FileID,
		"widths", result.Widths, "duration", result.Duration)
	if err := delivery.Ack(ctx); err != nil {
		w.logger.Error("failed to ack thumbnail job", "delivery_id", result.DeliveryID, "error", err)
	}
	return result
}

func (w *Worker) process(ctx context.Context, job filesmanager.ThumbnailJob) ([]int, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}
	fileID, err := uuid.Parse(job.FileID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid fileId %q", filesmanager.ErrInvalidJob, job.FileID)
	}

	object, err := w.repository.GetOwnedObject(ctx, fileID, job.UserID)
	if err != nil {
		if errors.Is(err, filesmanager.ErrNotFound) {
			return nil, fmt.Errorf("file %s of user %s: %w", job.FileID, job.UserID, filesmanager.ErrNotFound)
		}
		return nil, fmt.Errorf("lookup file %s: %w", job.FileID, err)
	}
	if object.Kind != filesmanager.KindImage {
		return nil, fmt.Errorf("%w: file %s is a %s, not an image", filesmanager.ErrInvalidJob, object.ID, object.Kind)
	}

	reader, err := w.store.Download(ctx, object.ContentRef)
	if err != nil {
		return nil, fmt.Errorf("download original %s: %w", object.ContentRef, err)
	}
	data, err := io.ReadAll(reader)
	reader.Close()
	if err != nil {
		return nil, fmt.Errorf("read original %s: %w", object.ContentRef, err)
	}

	img, format, err := w.generator.Decode(data)
	if err != nil {
		return nil, err
	}

	var (
		done []int
		errs []error
	)
	for _, width := range w.widths {
		if err := w.derive(ctx, object, img, format, width); err != nil {
			errs = append(errs, fmt.Errorf("width %d: %w", width, err))
			continue
		}
		done = append(done, width)
	}

	return done, errors.Join(errs...)
}

func (w *Worker) derive(ctx context.Context, object *filesmanager.Object, img image.Image, format string, width int) error {
	data, err := w.generator.Resize(img, format, width)
	if err != nil {
		return err
	}
	key := filesmanager.DerivativeKey(object.ContentRef, width)
	if err := w.store.Upload(ctx, key, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}
