package filesmanager

import (
	"context"
	"log/slog"
)

// NoopJobQueue drops every job. Useful when thumbnails are disabled or for
// testing.
type NoopJobQueue struct{}

// NewNoopJobQueue creates a new no-operation job queue
func NewNoopJobQueue() JobQueue {
	return &NoopJobQueue{}
}

// Enqueue does nothing and returns nil
func (n *NoopJobQueue) Enqueue(ctx context.Context, job ThumbnailJob) error {
	return nil
}

// LoggingJobQueue logs each job accepted by the next queue
type LoggingJobQueue struct {
	next   JobQueue
	logger *slog.Logger
}

// NewLoggingJobQueue wraps next. A nil next behaves like NoopJobQueue.
func NewLoggingJobQueue(next JobQueue, logger *slog.Logger) JobQueue {
	if next == nil {
		next = NewNoopJobQueue()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingJobQueue{next: next, logger: logger}
}

// Enqueue forwards the job and logs the outcome
func (l *LoggingJobQueue) Enqueue(ctx context.Context, job ThumbnailJob) error {
	if err := l.next.Enqueue(ctx, job); err != nil {
		return err
	}
	l.logger.Info("thumbnail job enqueued", "file_id", job.FileID, "user_id", job.UserID)
	return nil
}
