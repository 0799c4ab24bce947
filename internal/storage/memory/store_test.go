package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worktrack/internal/models"
	"worktrack/internal/storage"
	"worktrack/internal/storage/storagetest"
)

func TestConformance(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Backend { return New(nil) })
}

func TestViewIsReadOnly(t *testing.T) {
	s := New(nil)
	ctx := context.Background()
	err := s.View(ctx, func(tx storage.Tx) error {
		return tx.PutProject(ctx, storagetest.Project(0))
	})
	assert.ErrorIs(t, err, errReadOnly)
}

func TestViewKeepsSnapshot(t *testing.T) {
	s := New(nil)
	ctx := context.Background()
	p := storagetest.Project(0)
	require.NoError(t, s.Atomic(ctx, func(tx storage.Tx) error { return tx.PutProject(ctx, p) }))

	err := s.View(ctx, func(tx storage.Tx) error {
		// a commit during the view is not observed by it
		require.NoError(t, s.Atomic(ctx, func(w storage.Tx) error { return w.DeleteProject(ctx, p.ID) }))
		_, err := tx.GetProject(ctx, p.ID)
		return err
	})
	require.NoError(t, err)

	err = s.View(ctx, func(tx storage.Tx) error {
		_, err := tx.GetProject(ctx, p.ID)
		return err
	})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	s := New(nil)
	ctx := context.Background()
	p := storagetest.Project(0)
	p.Tags = []string{"a"}
	require.NoError(t, s.Atomic(ctx, func(tx storage.Tx) error { return tx.PutProject(ctx, p) }))
	p.Tags[0] = "mutated"

	require.NoError(t, s.View(ctx, func(tx storage.Tx) error {
		got, err := tx.GetProject(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, got.Tags)
		got.Tags[0] = "again"
		return nil
	}))

	require.NoError(t, s.View(ctx, func(tx storage.Tx) error {
		got, err := tx.GetProject(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, got.Tags)
		return nil
	}))
}

func TestAtomicCancelledContext(t *testing.T) {
	s := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Atomic(ctx, func(tx storage.Tx) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConcurrentAtomicSerializes(t *testing.T) {
	s := New(nil)
	ctx := context.Background()
	p := storagetest.Project(0)
	require.NoError(t, s.Atomic(ctx, func(tx storage.Tx) error { return tx.PutProject(ctx, p) }))

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Atomic(ctx, func(tx storage.Tx) error {
				cur, err := tx.GetProject(ctx, p.ID)
				if err != nil {
					return err
				}
				cur.Progress++
				return tx.PutProject(ctx, cur)
			})
		}()
	}
	wg.Wait()

	require.NoError(t, s.View(ctx, func(tx storage.Tx) error {
		got, err := tx.GetProject(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 100, got.Progress)
		return nil
	}))
}
