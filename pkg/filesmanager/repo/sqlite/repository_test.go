package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Moseh-25-sudo/alx-files-manager/pkg/filesmanager"
	"github.com/Moseh-25-sudo/alx-files-manager/pkg/filesmanager/repo/repotest"
)

func TestSQLiteRepository(t *testing.T) {
	repotest.Run(t, func(t *testing.T) filesmanager.Repository {
		repo, err := Open(":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { repo.Close() })
		return repo
	})
}

func TestSQLiteRepository_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "files.db")
	ctx := context.Background()

	repo, err := Open(path)
	require.NoError(t, err)
	object := repotest.NewObject("owner", filesmanager.KindImage, filesmanager.RootID)
	require.NoError(t, repo.CreateObject(ctx, object))
	require.NoError(t, repo.Close())

	// reopening runs migrations again and keeps the data
	repo, err = Open(path)
	require.NoError(t, err)
	defer repo.Close()

	got, err := repo.GetObject(ctx, object.ID)
	require.NoError(t, err)
	assert.Equal(t, object.ContentRef, got.ContentRef)
}

func TestSQLiteRepository_RejectsFolderWithContent(t *testing.T) {
	repo, err := Open(":memory:")
	require.NoError(t, err)
	defer repo.Close()

	folder := repotest.NewObject("owner", filesmanager.KindFolder, filesmanager.RootID)
	folder.ContentRef = "should-not-be-here"
	assert.Error(t, repo.CreateObject(context.Background(), folder))
}
