package filesmanager

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the main interface for the files-manager library. Every
// operation takes the caller's bearer token; an empty token is anonymous.
type Service interface {
	// Ingestion
	CreateObject(ctx context.Context, token string, req CreateObjectRequest) (*Object, error)

	// Metadata
	GetObject(ctx context.Context, id uuid.UUID, token string) (*Object, error)
	ListObjects(ctx context.Context, token string, req ListObjectsRequest) ([]*Object, error)

	// Visibility
	Publish(ctx context.Context, id uuid.UUID, token string) (*Object, error)
	Unpublish(ctx context.Context, id uuid.UUID, token string) (*Object, error)

	// Retrieval. size is 0 for the original bytes or one of ThumbnailWidths.
	ReadContent(ctx context.Context, id uuid.UUID, token string, size int) (*Content, error)
}
