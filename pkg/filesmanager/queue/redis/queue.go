// Package redis implements a reliable thumbnail queue on Redis lists.
//
// Producers LPUSH onto <prefix>:jobs. A consumer atomically moves the oldest
// entry into <prefix>:processing with BLMOVE and removes it on Ack. Entries
// left in processing by a crashed worker are put back by Recover. Nack parks
// the entry in <prefix>:failed; failed jobs are not retried automatically.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Moseh-25-sudo/alx-files-manager/pkg/filesmanager"
)

// DefaultPrefix names the queue's keys
const DefaultPrefix = "fileQueue"

// DefaultBlockTimeout bounds each BLMOVE so that Dequeue notices ctx
const DefaultBlockTimeout = 5 * time.Second

// message is the stored payload
type message struct {
	ID string `json:"id"`
	filesmanager.ThumbnailJob
}

// Queue is a Redis backed JobQueue and JobSource
type Queue struct {
	client       redisClient
	prefix       string
	blockTimeout time.Duration
}

// Option configures a Queue
type Option func(*Queue)

// WithPrefix overrides DefaultPrefix
func WithPrefix(prefix string) Option {
	return func(q *Queue) {
		q.prefix = prefix
	}
}

// WithBlockTimeout overrides DefaultBlockTimeout
func WithBlockTimeout(d time.Duration) Option {
	return func(q *Queue) {
		q.blockTimeout = d
	}
}

// New creates a queue on an existing go-redis client
func New(client goredis.UniversalClient, opts ...Option) *Queue {
	return newQueue(&goRedisClient{client: client}, opts...)
}

func newQueue(client redisClient, opts ...Option) *Queue {
	q := &Queue{
		client:       client,
		prefix:       DefaultPrefix,
		blockTimeout: DefaultBlockTimeout,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

func (q *Queue) jobsKey() string       { return q.prefix + ":jobs" }
func (q *Queue) processingKey() string { return q.prefix + ":processing" }
func (q *Queue) failedKey() string     { return q.prefix + ":failed" }

// Enqueue pushes job onto the pending list
func (q *Queue) Enqueue(ctx context.Context, job filesmanager.ThumbnailJob) error {
	payload, err := json.Marshal(message{ID: uuid.NewString(), ThumbnailJob: job})
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	if err := q.client.LPush(ctx, q.jobsKey(), string(payload)); err != nil {
		return fmt.Errorf("redis enqueue: %w", err)
	}
	return nil
}

// Dequeue blocks until a job is moved into processing or ctx is done
func (q *Queue) Dequeue(ctx context.Context) (filesmanager.Delivery, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		payload, err := q.client.BLMove(ctx, q.jobsKey(), q.processingKey(), "RIGHT", "LEFT", q.blockTimeout)
		if err != nil {
			if errors.Is(err, errEmpty) {
				continue
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("redis dequeue: %w", err)
		}

		return &delivery{queue: q, payload: payload}, nil
	}
}

// Recover moves every entry left in processing back to the consumer end of
// the pending list and returns how many were moved. Call it before workers
// start.
func (q *Queue) Recover(ctx context.Context) (int, error) {
	moved := 0
	for {
		_, err := q.client.LMove(ctx, q.processingKey(), q.jobsKey(), "RIGHT", "RIGHT")
		if errors.Is(err, errEmpty) {
			return moved, nil
		}
		if err != nil {
			return moved, fmt.Errorf("redis recover: %w", err)
		}
		moved++
	}
}

// Stats returns the lengths of the pending, processing and failed lists
func (q *Queue) Stats(ctx context.Context) (pending, processing, failed int64, err error) {
	if pending, err = q.client.LLen(ctx, q.jobsKey()); err != nil {
		return
	}
	if processing, err = q.client.LLen(ctx, q.processingKey()); err != nil {
		return
	}
	failed, err = q.client.LLen(ctx, q.failedKey())
	return
}

type delivery struct {
	queue   *Queue
	payload string
}

func (d *delivery) decode() (message, error) {
	var m message
	if err := json.Unmarshal([]byte(d.payload), &m); err != nil {
		return m, fmt.Errorf("%w: %v", filesmanager.ErrInvalidJob, err)
	}
	return m, nil
}

func (d *delivery) ID() string {
	m, _ := d.decode()
	return m.ID
}

func (d *delivery) Job() (filesmanager.ThumbnailJob, error) {
	m, err := d.decode()
	if err != nil {
		return filesmanager.ThumbnailJob{}, err
	}
	return m.ThumbnailJob, nil
}

func (d *delivery) Ack(ctx context.Context) error {
	if _, err := d.queue.client.LRem(ctx, d.queue.processingKey(), 1, d.payload); err != nil {
		return fmt.Errorf("redis ack: %w", err)
	}
	return nil
}

func (d *delivery) Nack(ctx context.Context, reason error) error {
	if err := d.queue.client.RPush(ctx, d.queue.failedKey(), d.payload); err != nil {
		return fmt.Errorf("redis nack: %w", err)
	}
	if _, err := d.queue.client.LRem(ctx, d.queue.processingKey(), 1, d.payload); err != nil {
		return fmt.Errorf("redis nack: %w", err)
	}
	return nil
}

var (
	_ filesmanager.JobQueue  = (*Queue)(nil)
	_ filesmanager.JobSource = (*Queue)(nil)
)
