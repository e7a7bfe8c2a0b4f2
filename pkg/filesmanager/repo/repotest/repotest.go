// Package repotest holds the behavior every filesmanager.Repository must
// share. Each backend's tests call Run with a constructor for a clean store.
package repotest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Moseh-25-sudo/alx-files-manager/pkg/filesmanager"
)

// NewObject returns a valid object owned by ownerID. Timestamps are
// truncated so that every backend round-trips them exactly.
func NewObject(ownerID string, kind filesmanager.Kind, parent uuid.UUID) *filesmanager.Object {
	now := time.Now().UTC().Truncate(time.Millisecond)
	object := &filesmanager.Object{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Name:      fmt.Sprintf("%s-%s", kind, uuid.NewString()[:8]),
		Kind:      kind,
		ParentID:  filesmanager.ParentRef(parent),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if kind.HasContent() {
		object.ContentRef = uuid.NewString()
	}
	return object
}

// Run exercises repo against the filesmanager.Repository contract
func Run(t *testing.T, newRepo func(t *testing.T) filesmanager.Repository) {
	ctx := context.Background()

	t.Run("CreateAndGet", func(t *testing.T) {
		repo := newRepo(t)
		object := NewObject("user-1", filesmanager.KindFile, filesmanager.RootID)
		object.IsPublic = true
		require.NoError(t, repo.CreateObject(ctx, object))

		got, err := repo.GetObject(ctx, object.ID)
		require.NoError(t, err)
		assert.Equal(t, object.ID, got.ID)
		assert.Equal(t, object.OwnerID, got.OwnerID)
		assert.Equal(t, object.Name, got.Name)
		assert.Equal(t, object.Kind, got.Kind)
		assert.True(t, got.ParentID.IsRoot())
		assert.True(t, got.IsPublic)
		assert.Equal(t, object.ContentRef, got.ContentRef)
		assert.True(t, object.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("FolderHasNoContentRef", func(t *testing.T) {
		repo := newRepo(t)
		folder := NewObject("user-1", filesmanager.KindFolder, filesmanager.RootID)
		require.NoError(t, repo.CreateObject(ctx, folder))

		got, err := repo.GetObject(ctx, folder.ID)
		require.NoError(t, err)
		assert.Empty(t, got.ContentRef)
		assert.Equal(t, filesmanager.KindFolder, got.Kind)
	})

	t.Run("GetNotFound", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.GetObject(ctx, uuid.New())
		assert.ErrorIs(t, err, filesmanager.ErrNotFound)
	})

	t.Run("DuplicateID", func(t *testing.T) {
		repo := newRepo(t)
		object := NewObject("user-1", filesmanager.KindFolder, filesmanager.RootID)
		require.NoError(t, repo.CreateObject(ctx, object))
		assert.Error(t, repo.CreateObject(ctx, object))
	})

	t.Run("GetOwnedObject", func(t *testing.T) {
		repo := newRepo(t)
		object := NewObject("owner", filesmanager.KindImage, filesmanager.RootID)
		require.NoError(t, repo.CreateObject(ctx, object))

		got, err := repo.GetOwnedObject(ctx, object.ID, "owner")
		require.NoError(t, err)
		assert.Equal(t, object.ID, got.ID)

		_, err = repo.GetOwnedObject(ctx, object.ID, "someone-else")
		assert.ErrorIs(t, err, filesmanager.ErrNotFound)
	})

	t.Run("SetVisibility", func(t *testing.T) {
		repo := newRepo(t)
		object := NewObject("owner", filesmanager.KindFile, filesmanager.RootID)
		require.NoError(t, repo.CreateObject(ctx, object))

		updated, err := repo.SetVisibility(ctx, object.ID, "owner", true)
		require.NoError(t, err)
		assert.True(t, updated.IsPublic)

		// idempotent
		updated, err = repo.SetVisibility(ctx, object.ID, "owner", true)
		require.NoError(t, err)
		assert.True(t, updated.IsPublic)

		updated, err = repo.SetVisibility(ctx, object.ID, "owner", false)
		require.NoError(t, err)
		assert.False(t, updated.IsPublic)

		got, err := repo.GetObject(ctx, object.ID)
		require.NoError(t, err)
		assert.False(t, got.IsPublic)
	})

	t.Run("SetVisibility_NotOwner", func(t *testing.T) {
		repo := newRepo(t)
		object := NewObject("owner", filesmanager.KindFile, filesmanager.RootID)
		require.NoError(t, repo.CreateObject(ctx, object))

		_, err := repo.SetVisibility(ctx, object.ID, "intruder", true)
		assert.ErrorIs(t, err, filesmanager.ErrNotFound)

		_, err = repo.SetVisibility(ctx, uuid.New(), "owner", true)
		assert.ErrorIs(t, err, filesmanager.ErrNotFound)

		got, err := repo.GetObject(ctx, object.ID)
		require.NoError(t, err)
		assert.False(t, got.IsPublic)
	})

	t.Run("ListObjects", func(t *testing.T) {
		repo := newRepo(t)
		folder := NewObject("owner", filesmanager.KindFolder, filesmanager.RootID)
		require.NoError(t, repo.CreateObject(ctx, folder))

		var children []*filesmanager.Object
		for i := 0; i < 5; i++ {
			child := NewObject("owner", filesmanager.KindFile, folder.ID)
			child.CreatedAt = folder.CreatedAt.Add(time.Duration(i+1) * time.Second)
			child.UpdatedAt = child.CreatedAt
			require.NoError(t, repo.CreateObject(ctx, child))
			children = append(children, child)
		}
		image := NewObject("owner", filesmanager.KindImage, folder.ID)
		image.CreatedAt = folder.CreatedAt.Add(10 * time.Second)
		require.NoError(t, repo.CreateObject(ctx, image))
		require.NoError(t, repo.CreateObject(ctx, NewObject("other", filesmanager.KindFile, folder.ID)))

		owner := "owner"
		parent := folder.ID
		got, err := repo.ListObjects(ctx, filesmanager.ListObjectsParams{
			OwnerID:  &owner,
			ParentID: &parent,
		})
		require.NoError(t, err)
		require.Len(t, got, 6)
		assert.Equal(t, children[0].ID, got[0].ID)

		page, err := repo.ListObjects(ctx, filesmanager.ListObjectsParams{
			OwnerID:  &owner,
			ParentID: &parent,
			Limit:    2,
			Offset:   2,
		})
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, children[2].ID, page[0].ID)
		assert.Equal(t, children[3].ID, page[1].ID)

		kind := filesmanager.KindImage
		images, err := repo.ListObjects(ctx, filesmanager.ListObjectsParams{Kind: &kind})
		require.NoError(t, err)
		require.Len(t, images, 1)
		assert.Equal(t, image.ID, images[0].ID)

		root := filesmanager.RootID
		top, err := repo.ListObjects(ctx, filesmanager.ListObjectsParams{OwnerID: &owner, ParentID: &root})
		require.NoError(t, err)
		require.Len(t, top, 1)
		assert.Equal(t, folder.ID, top[0].ID)

		past, err := repo.ListObjects(ctx, filesmanager.ListObjectsParams{OwnerID: &owner, ParentID: &parent, Offset: 100})
		require.NoError(t, err)
		assert.Empty(t, past)
	})
}
