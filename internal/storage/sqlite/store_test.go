package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worktrack/internal/models"
	"worktrack/internal/storage"
	"worktrack/internal/storage/storagetest"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "worktrack.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestConformance(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Backend { return openTemp(t) })
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open("", nil)
	assert.Error(t, err)
}

func TestReopenKeepsRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "worktrack.db")
	ctx := context.Background()
	p := storagetest.Project(0)

	s, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.Atomic(ctx, func(tx storage.Tx) error { return tx.PutProject(ctx, p) }))
	require.NoError(t, s.Close())

	s, err = Open(path, nil)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.View(ctx, func(tx storage.Tx) error {
		got, err := tx.GetProject(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, p, storagetest.NormalizeProject(got))
		return nil
	}))
}

func TestViewRejectsWrites(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	err := s.View(ctx, func(tx storage.Tx) error {
		return tx.PutProject(ctx, storagetest.Project(0))
	})
	assert.ErrorIs(t, err, errReadOnly)
}

func TestForeignKeysGuardDanglingTasks(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	err := s.Atomic(ctx, func(tx storage.Tx) error {
		return tx.PutTask(ctx, storagetest.Task("no-such-project", 0, 0))
	})
	assert.Error(t, err)

	require.NoError(t, s.View(ctx, func(tx storage.Tx) error {
		tasks, err := tx.ListTasks(ctx, storage.TaskFilter{})
		require.NoError(t, err)
		assert.Empty(t, tasks)
		return nil
	}))
}

func TestDeleteMissing(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	err := s.Atomic(ctx, func(tx storage.Tx) error { return tx.DeleteComment(ctx, "missing") })
	assert.ErrorIs(t, err, models.ErrNotFound)
}
