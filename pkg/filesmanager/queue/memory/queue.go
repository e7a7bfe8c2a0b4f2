package memory

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/Moseh-25-sudo/alx-files-manager/pkg/filesmanager"
)

// DefaultCapacity is the buffer size used when none is given
const DefaultCapacity = 1024

// Queue is an in-process thumbnail queue backed by a buffered channel. It
// implements both the producer and the consumer side.
type Queue struct {
	jobs   chan *delivery
	nextID atomic.Uint64

	mu     sync.Mutex
	failed []filesmanager.ThumbnailJob
	acked  int
}

// New creates a queue holding up to capacity pending jobs
func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{jobs: make(chan *delivery, capacity)}
}

// Enqueue adds job without blocking; a full buffer returns ErrQueueFull
func (q *Queue) Enqueue(ctx context.Context, job filesmanager.ThumbnailJob) error {
	d := &delivery{
		id:    strconv.FormatUint(q.nextID.Add(1), 10),
		job:   job,
		queue: q,
	}
	select {
	case q.jobs <- d:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return filesmanager.ErrQueueFull
	}
}

// Dequeue blocks until a job is available or ctx is done
func (q *Queue) Dequeue(ctx context.Context) (filesmanager.Delivery, error) {
	select {
	case d := <-q.jobs:
		return d, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Len returns the number of pending jobs
func (q *Queue) Len() int {
	return len(q.jobs)
}

// Failed returns the jobs that were nacked
func (q *Queue) Failed() []filesmanager.ThumbnailJob {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]filesmanager.ThumbnailJob(nil), q.failed...)
}

// Acked returns the number of acknowledged jobs
func (q *Queue) Acked() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.acked
}

type delivery struct {
	id    string
	job   filesmanager.ThumbnailJob
	queue *Queue
}

func (d *delivery) ID() string {
	return d.id
}

func (d *delivery) Job() (filesmanager.ThumbnailJob, error) {
	return d.job, nil
}

func (d *delivery) Ack(ctx context.Context) error {
	d.queue.mu.Lock()
	defer d.queue.mu.Unlock()
	d.queue.acked++
	return nil
}

func (d *delivery) Nack(ctx context.Context, reason error) error {
	d.queue.mu.Lock()
	defer d.queue.mu.Unlock()
	d.queue.failed = append(d.queue.failed, d.job)
	return nil
}

var (
	_ filesmanager.JobQueue  = (*Queue)(nil)
	_ filesmanager.JobSource = (*Queue)(nil)
)
