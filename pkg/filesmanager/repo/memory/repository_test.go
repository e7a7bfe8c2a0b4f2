package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Moseh-25-sudo/alx-files-manager/pkg/filesmanager"
	"github.com/Moseh-25-sudo/alx-files-manager/pkg/filesmanager/repo/memory"
	"github.com/Moseh-25-sudo/alx-files-manager/pkg/filesmanager/repo/repotest"
)

func TestMemoryRepository(t *testing.T) {
	repotest.Run(t, func(t *testing.T) filesmanager.Repository {
		return memory.New()
	})
}

func TestMemoryRepository_ReturnsCopies(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	object := repotest.NewObject("owner", filesmanager.KindFile, filesmanager.RootID)
	require.NoError(t, repo.CreateObject(ctx, object))

	object.Name = "mutated after create"
	got, err := repo.GetObject(ctx, object.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "mutated after create", got.Name)

	got.IsPublic = true
	again, err := repo.GetObject(ctx, object.ID)
	require.NoError(t, err)
	assert.False(t, again.IsPublic)
}
