package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Moseh-25-sudo/alx-files-manager/pkg/filesmanager"
)

// Repository implements filesmanager.Repository using in-memory storage
type Repository struct {
	mu      sync.RWMutex
	objects map[uuid.UUID]*filesmanager.Object
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		objects: make(map[uuid.UUID]*filesmanager.Object),
	}
}

func (r *Repository) CreateObject(ctx context.Context, object *filesmanager.Object) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.objects[object.ID]; exists {
		return fmt.Errorf("object %s already exists", object.ID)
	}

	// Create a copy to avoid external modifications
	objectCopy := *object
	r.objects[object.ID] = &objectCopy

	return nil
}

func (r *Repository) GetObject(ctx context.Context, id uuid.UUID) (*filesmanager.Object, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	object, exists := r.objects[id]
	if !exists {
		return nil, filesmanager.ErrNotFound
	}

	objectCopy := *object
	return &objectCopy, nil
}

func (r *Repository) GetOwnedObject(ctx context.Context, id uuid.UUID, ownerID string) (*filesmanager.Object, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	object, exists := r.objects[id]
	if !exists || object.OwnerID != ownerID {
		return nil, filesmanager.ErrNotFound
	}

	objectCopy := *object
	return &objectCopy, nil
}

func (r *Repository) SetVisibility(ctx context.Context, id uuid.UUID, ownerID string, isPublic bool) (*filesmanager.Object, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	object, exists := r.objects[id]
	if !exists || object.OwnerID != ownerID {
		return nil, filesmanager.ErrNotFound
	}

	object.IsPublic = isPublic
	object.UpdatedAt = time.Now().UTC()

	objectCopy := *object
	return &objectCopy, nil
}

func (r *Repository) ListObjects(ctx context.Context, params filesmanager.ListObjectsParams) ([]*filesmanager.Object, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*filesmanager.Object
	for _, object := range r.objects {
		if params.OwnerID != nil && object.OwnerID != *params.OwnerID {
			continue
		}
		if params.ParentID != nil && object.ParentID.UUID() != *params.ParentID {
			continue
		}
		if params.Kind != nil && object.Kind != *params.Kind {
			continue
		}
		objectCopy := *object
		result = append(result, &objectCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID.String() < result[j].ID.String()
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	if params.Offset > 0 {
		if params.Offset >= len(result) {
			return []*filesmanager.Object{}, nil
		}
		result = result[params.Offset:]
	}
	if params.Limit > 0 && len(result) > params.Limit {
		result = result[:params.Limit]
	}

	return result, nil
}

var _ filesmanager.Repository = (*Repository)(nil)
