package entity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worktrack/internal/models"
	"worktrack/internal/signal"
	"worktrack/internal/thread"
)

func TestThread(t *testing.T) {
	eachBackend(t, func(t *testing.T, f *fixture) {
		p := f.project("Garden")
		onProject := models.Target{Type: models.EntityProject, ID: p.ID}

		a := f.comment(onProject, "", "A")
		f.clock.Advance(time.Minute)
		b := f.comment(onProject, a.ID, "B")
		f.clock.Advance(time.Minute)
		c := f.comment(onProject, b.ID, "C")
		f.clock.Advance(time.Minute)
		d := f.comment(onProject, "", "D")

		task := f.task(p.ID, "Elsewhere")
		f.comment(models.Target{Type: models.EntityTask, ID: task.ID}, "", "not in this thread")

		forest, err := f.store.Thread(f.ctx, onProject)
		require.NoError(t, err)
		require.Len(t, forest, 2)
		assert.Equal(t, a.ID, forest[0].ID)
		assert.Equal(t, d.ID, forest[1].ID)
		require.Len(t, forest[0].Replies, 1)
		assert.Equal(t, b.ID, forest[0].Replies[0].ID)
		require.Len(t, forest[0].Replies[0].Replies, 1)
		assert.Equal(t, c.ID, forest[0].Replies[0].Replies[0].ID)
		assert.Equal(t, 4, thread.Count(forest))

		flat, err := f.store.ListComments(f.ctx, onProject)
		require.NoError(t, err)
		assert.Len(t, flat, 4)
	})
}

func TestThreadMissingTarget(t *testing.T) {
	f := newFixture(t, Options{})

	_, err := f.store.Thread(f.ctx, models.Target{Type: models.EntityTicket, ID: uuid.NewString()})
	require.ErrorIs(t, err, models.ErrNotFound)

	_, err = f.store.Thread(f.ctx, models.Target{Type: "milestone", ID: uuid.NewString()})
	require.ErrorIs(t, err, models.ErrInvalidReference)
}

func TestThreadAfterParentDeleted(t *testing.T) {
	f := newFixture(t, Options{})
	p := f.project("Garden")
	onProject := models.Target{Type: models.EntityProject, ID: p.ID}
	root := f.comment(onProject, "", "root")
	f.comment(onProject, root.ID, "reply")

	require.NoError(t, f.store.DeleteComment(f.ctx, root.ID, models.DeleteOptions{Cascade: true}))

	forest, err := f.store.Thread(f.ctx, onProject)
	require.NoError(t, err)
	assert.Empty(t, forest)
}

func TestPendingCounts(t *testing.T) {
	eachBackend(t, func(t *testing.T, f *fixture) {
		p := f.project("Garden")
		other := f.project("Kitchen")
		task := f.task(p.ID, "Dig")

		f.ticket(p.ID, "")
		f.ticket("", task.ID)
		f.ticket("", "")
		f.ticket(other.ID, "")
		approved := f.ticket(p.ID, task.ID)
		_, err := f.store.UpdateTicket(f.ctx, approved.ID, models.TicketPatch{
			Status:         ptr(models.TicketApproved),
			ResolutionNote: ptr("done"),
		})
		require.NoError(t, err)

		count := func(scope signal.Scope) int {
			t.Helper()
			n, err := f.store.PendingCount(f.ctx, scope)
			require.NoError(t, err)
			return n
		}
		assert.Equal(t, 4, count(signal.Global()))
		// the task-only ticket counts toward its project
		assert.Equal(t, 2, count(signal.ForProject(p.ID)))
		assert.Equal(t, 1, count(signal.ForProject(other.ID)))
		assert.Equal(t, 1, count(signal.ForTask(task.ID)))

		summary, err := f.store.PendingSummary(f.ctx)
		require.NoError(t, err)
		assert.Equal(t, 4, summary.Global)
		assert.Equal(t, map[string]int{p.ID: 2, other.ID: 1}, summary.ByProject)
		assert.Equal(t, map[string]int{task.ID: 1}, summary.ByTask)

		_, err = f.store.UpdateTicket(f.ctx, approved.ID, models.TicketPatch{Status: ptr(models.TicketPending)})
		require.ErrorIs(t, err, models.ErrInvalidTransition)
		assert.Equal(t, 4, count(signal.Global()))
	})
}

func TestPendingCountScopes(t *testing.T) {
	f := newFixture(t, Options{})

	_, err := f.store.PendingCount(f.ctx, signal.ForProject(uuid.NewString()))
	require.ErrorIs(t, err, models.ErrNotFound)

	_, err = f.store.PendingCount(f.ctx, signal.ForTask(uuid.NewString()))
	require.ErrorIs(t, err, models.ErrNotFound)

	_, err = f.store.PendingCount(f.ctx, signal.Scope{Kind: signal.ScopeProject})
	require.ErrorIs(t, err, models.ErrInvalidField)

	n, err := f.store.PendingCount(f.ctx, signal.Global())
	require.NoError(t, err)
	assert.Zero(t, n)
}
