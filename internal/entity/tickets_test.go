package entity

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worktrack/internal/models"
	"worktrack/internal/storage"
)

func TestCreateTicketDefaults(t *testing.T) {
	f := newFixture(t, Options{})

	tk, err := f.store.CreateTicket(f.ctx, models.TicketDraft{Title: "FYI", CreatedBy: models.PersonTim})
	require.NoError(t, err)
	assert.Equal(t, models.TicketPending, tk.Status)
	assert.Equal(t, models.TicketInfo, tk.Type)
	assert.Equal(t, models.PriorityMedium, tk.Priority)
	assert.Empty(t, tk.ProjectID)
	assert.Empty(t, tk.TaskID)
	assert.Nil(t, tk.ResolvedAt)
	assert.Equal(t, base, tk.CreatedAt)
}

func TestCreateTicketMustBePending(t *testing.T) {
	f := newFixture(t, Options{})

	_, err := f.store.CreateTicket(f.ctx, models.TicketDraft{
		Title:     "Approve me",
		Status:    models.TicketApproved,
		CreatedBy: models.PersonSage,
	})
	assertKind(t, err, models.ErrInvalidTransition, "status")

	_, err = f.store.CreateTicket(f.ctx, models.TicketDraft{Title: "x", CreatedBy: "bob"})
	assertKind(t, err, models.ErrInvalidField, "created_by")
}

func TestTicketScope(t *testing.T) {
	f := newFixture(t, Options{})
	a := f.project("A")
	b := f.project("B")
	taskInB := f.task(b.ID, "In B")

	_, err := f.store.CreateTicket(f.ctx, models.TicketDraft{
		ProjectID: a.ID,
		TaskID:    taskInB.ID,
		Title:     "Mismatched",
		CreatedBy: models.PersonSage,
	})
	assertKind(t, err, models.ErrInvalidReference, "task_id")

	_, err = f.store.CreateTicket(f.ctx, models.TicketDraft{ProjectID: uuid.NewString(), Title: "x", CreatedBy: models.PersonSage})
	assertKind(t, err, models.ErrReferenceNotFound, "project_id")

	_, err = f.store.CreateTicket(f.ctx, models.TicketDraft{TaskID: uuid.NewString(), Title: "x", CreatedBy: models.PersonSage})
	assertKind(t, err, models.ErrReferenceNotFound, "task_id")

	tk := f.ticket(b.ID, taskInB.ID)
	_, err = f.store.UpdateTicket(f.ctx, tk.ID, models.TicketPatch{ProjectID: ptr(a.ID)})
	assertKind(t, err, models.ErrInvalidReference, "task_id")

	moved, err := f.store.UpdateTicket(f.ctx, tk.ID, models.TicketPatch{ProjectID: ptr(a.ID), TaskID: ptr("")})
	require.NoError(t, err)
	assert.Equal(t, a.ID, moved.ProjectID)
	assert.Empty(t, moved.TaskID)
}

func TestRequireTicketScope(t *testing.T) {
	f := newFixture(t, Options{RequireTicketScope: true})

	_, err := f.store.CreateTicket(f.ctx, models.TicketDraft{Title: "Global", CreatedBy: models.PersonTim})
	assertKind(t, err, models.ErrInvalidReference, "project_id")

	p := f.project("Scoped")
	tk := f.ticket(p.ID, "")
	_, err = f.store.UpdateTicket(f.ctx, tk.ID, models.TicketPatch{ProjectID: ptr("")})
	assertKind(t, err, models.ErrInvalidReference, "project_id")
}

func TestTicketResolution(t *testing.T) {
	eachBackend(t, func(t *testing.T, f *fixture) {
		p := f.project("Garden")
		tk := f.ticket(p.ID, "")

		_, err := f.store.UpdateTicket(f.ctx, tk.ID, models.TicketPatch{Status: ptr(models.TicketApproved)})
		assertKind(t, err, models.ErrMissingResolution, "resolution_note")

		resolved := f.clock.Advance(time.Hour)
		got, err := f.store.UpdateTicket(f.ctx, tk.ID, models.TicketPatch{
			Status:         ptr(models.TicketApproved),
			ResolutionNote: ptr("  Looks good  "),
		})
		require.NoError(t, err)
		assert.Equal(t, models.TicketApproved, got.Status)
		assert.Equal(t, "Looks good", got.ResolutionNote)
		require.NotNil(t, got.ResolvedAt)
		assert.True(t, resolved.Equal(*got.ResolvedAt))

		_, err = f.store.UpdateTicket(f.ctx, tk.ID, models.TicketPatch{Status: ptr(models.TicketPending)})
		assertKind(t, err, models.ErrInvalidTransition, "status")

		stored, err := f.store.GetTicket(f.ctx, tk.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TicketApproved, stored.Status)
		assert.Equal(t, "Looks good", stored.ResolutionNote)
	})
}

func TestTicketDeferAndResubmit(t *testing.T) {
	f := newFixture(t, Options{})
	tk := f.ticket("", "")

	deferred, err := f.store.UpdateTicket(f.ctx, tk.ID, models.TicketPatch{
		Status:         ptr(models.TicketDeferred),
		ResolutionNote: ptr("After the holidays"),
	})
	require.NoError(t, err)
	require.NotNil(t, deferred.ResolvedAt)

	pending, err := f.store.UpdateTicket(f.ctx, tk.ID, models.TicketPatch{Status: ptr(models.TicketPending)})
	require.NoError(t, err)
	assert.Equal(t, models.TicketPending, pending.Status)
	assert.Nil(t, pending.ResolvedAt)
	assert.Empty(t, pending.ResolutionNote)
}

func TestTicketNoteEdits(t *testing.T) {
	f := newFixture(t, Options{})
	tk := f.ticket("", "")

	_, err := f.store.UpdateTicket(f.ctx, tk.ID, models.TicketPatch{ResolutionNote: ptr("early")})
	assertKind(t, err, models.ErrInvalidField, "resolution_note")

	_, err = f.store.UpdateTicket(f.ctx, tk.ID, models.TicketPatch{
		Status:         ptr(models.TicketRejected),
		ResolutionNote: ptr("Out of budget"),
	})
	require.NoError(t, err)

	edited, err := f.store.UpdateTicket(f.ctx, tk.ID, models.TicketPatch{ResolutionNote: ptr("Out of budget this year")})
	require.NoError(t, err)
	assert.Equal(t, "Out of budget this year", edited.ResolutionNote)

	_, err = f.store.UpdateTicket(f.ctx, tk.ID, models.TicketPatch{ResolutionNote: ptr(" ")})
	assertKind(t, err, models.ErrMissingResolution, "resolution_note")

	// repeating the current status is an edit, not a transition
	same, err := f.store.UpdateTicket(f.ctx, tk.ID, models.TicketPatch{
		Status:   ptr(models.TicketRejected),
		Priority: ptr(models.PriorityLow),
	})
	require.NoError(t, err)
	assert.Equal(t, models.PriorityLow, same.Priority)
	assert.Equal(t, "Out of budget this year", same.ResolutionNote)
}

func TestListTicketsFilters(t *testing.T) {
	f := newFixture(t, Options{})
	p := f.project("Garden")
	task := f.task(p.ID, "Dig")

	onProject := f.ticket(p.ID, "")
	f.clock.Advance(time.Minute)
	onTask := f.ticket("", task.ID)
	f.clock.Advance(time.Minute)
	global := f.ticket("", "")
	_, err := f.store.UpdateTicket(f.ctx, global.ID, models.TicketPatch{
		Status:         ptr(models.TicketApproved),
		ResolutionNote: ptr("ok"),
	})
	require.NoError(t, err)

	all, err := f.store.ListTickets(f.ctx, storage.TicketFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, global.ID, all[0].ID)

	pending, err := f.store.ListTickets(f.ctx, storage.TicketFilter{Status: models.TicketPending})
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	byProject, err := f.store.ListTickets(f.ctx, storage.TicketFilter{ProjectID: p.ID})
	require.NoError(t, err)
	require.Len(t, byProject, 1)
	assert.Equal(t, onProject.ID, byProject[0].ID)

	byTask, err := f.store.ListTickets(f.ctx, storage.TicketFilter{TaskID: task.ID})
	require.NoError(t, err)
	require.Len(t, byTask, 1)
	assert.Equal(t, onTask.ID, byTask[0].ID)
}

func TestConcurrentResolutionAppliesOneTransition(t *testing.T) {
	f := newFixture(t, Options{})
	tk := f.ticket("", "")

	const n = 40
	var wg sync.WaitGroup
	var mu sync.Mutex
	refused := map[models.TicketStatus]int{}
	for i := 0; i < n; i++ {
		target := models.TicketApproved
		if i%2 == 1 {
			target = models.TicketRejected
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.store.UpdateTicket(f.ctx, tk.ID, models.TicketPatch{
				Status:         ptr(target),
				ResolutionNote: ptr("decided"),
			})
			if err == nil {
				return
			}
			assert.True(t, errors.Is(err, models.ErrInvalidTransition), "unexpected error: %v", err)
			mu.Lock()
			refused[target]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	final, err := f.store.GetTicket(f.ctx, tk.ID)
	require.NoError(t, err)
	require.Contains(t, []models.TicketStatus{models.TicketApproved, models.TicketRejected}, final.Status)

	// every request for the losing status was refused; none for the winner
	loser := models.TicketApproved
	if final.Status == models.TicketApproved {
		loser = models.TicketRejected
	}
	assert.Equal(t, n/2, refused[loser])
	assert.Zero(t, refused[final.Status])
}
