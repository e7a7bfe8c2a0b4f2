package filesmanager

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// ContentStore defines the interface for byte storage backends. Keys are
// opaque; a store knows nothing about object metadata.
type ContentStore interface {
	// Upload writes the blob under key, creating the namespace if needed
	Upload(ctx context.Context, key string, reader io.Reader) error

	// Download returns the blob or an error wrapping ErrBlobNotFound
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the blob
	Delete(ctx context.Context, key string) error

	// GetBlobMeta retrieves size and modification time of a blob
	GetBlobMeta(ctx context.Context, key string) (*BlobMeta, error)
}

// Repository defines the interface for object metadata persistence.
// Lookups of missing records return ErrNotFound.
type Repository interface {
	CreateObject(ctx context.Context, object *Object) error
	GetObject(ctx context.Context, id uuid.UUID) (*Object, error)

	// GetOwnedObject matches on both id and owner
	GetOwnedObject(ctx context.Context, id uuid.UUID, ownerID string) (*Object, error)

	// SetVisibility updates IsPublic of the object owned by ownerID and
	// returns the updated record
	SetVisibility(ctx context.Context, id uuid.UUID, ownerID string, isPublic bool) (*Object, error)

	// ListObjects returns matching objects ordered by creation time
	ListObjects(ctx context.Context, params ListObjectsParams) ([]*Object, error)
}

// IdentityResolver maps a bearer token to an owner identity. Unknown tokens
// return ErrUnauthorized.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (string, error)
}

// JobQueue is the producer side of the thumbnail queue
type JobQueue interface {
	Enqueue(ctx context.Context, job ThumbnailJob) error
}

// JobSource is the consumer side of the thumbnail queue. Dequeue blocks
// until a delivery is available or ctx is done.
type JobSource interface {
	Dequeue(ctx context.Context) (Delivery, error)
}

// Delivery is one dequeued job. Exactly one of Ack or Nack must be called.
type Delivery interface {
	ID() string

	// Job decodes the payload; an unusable payload returns ErrInvalidJob
	Job() (ThumbnailJob, error)

	Ack(ctx context.Context) error
	Nack(ctx context.Context, reason error) error
}
