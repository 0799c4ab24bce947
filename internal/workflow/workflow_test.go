package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worktrack/internal/models"
)

var now = time.Date(2026, 5, 4, 12, 30, 0, 0, time.UTC)

func TestTransitionTaskTable(t *testing.T) {
	all := []models.TaskStatus{
		models.TaskTodo, models.TaskInProgress, models.TaskBlocked, models.TaskReview, models.TaskDone,
	}
	allowed := map[[2]models.TaskStatus]bool{
		{models.TaskTodo, models.TaskInProgress}:    true,
		{models.TaskInProgress, models.TaskBlocked}: true,
		{models.TaskInProgress, models.TaskReview}:  true,
		{models.TaskInProgress, models.TaskDone}:    true,
		{models.TaskBlocked, models.TaskInProgress}: true,
		{models.TaskReview, models.TaskInProgress}:  true,
		{models.TaskReview, models.TaskDone}:        true,
		{models.TaskDone, models.TaskInProgress}:    true,
	}

	for _, from := range all {
		for _, to := range all {
			from, to := from, to
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				out, err := TransitionTask(from, to, now)
				if !allowed[[2]models.TaskStatus{from, to}] {
					require.ErrorIs(t, err, models.ErrInvalidTransition)
					return
				}
				require.NoError(t, err)
				assert.Equal(t, to, out.Status)
				// completed_at is set iff the target is done
				if to == models.TaskDone {
					require.NotNil(t, out.CompletedAt)
					assert.Equal(t, now, *out.CompletedAt)
				} else {
					assert.Nil(t, out.CompletedAt)
				}
			})
		}
	}
}

func TestTransitionTaskDoneToTodoRejected(t *testing.T) {
	_, err := TransitionTask(models.TaskDone, models.TaskTodo, now)
	require.ErrorIs(t, err, models.ErrInvalidTransition)

	var ve *models.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "status", ve.Field)
	assert.Equal(t, models.EntityTask, ve.Entity)
}

func TestTransitionTaskReopenClearsCompletion(t *testing.T) {
	out, err := TransitionTask(models.TaskDone, models.TaskInProgress, now)
	require.NoError(t, err)
	assert.Nil(t, out.CompletedAt)
}

func TestTransitionTaskUnknownStatus(t *testing.T) {
	_, err := TransitionTask(models.TaskTodo, "archived", now)
	require.ErrorIs(t, err, models.ErrInvalidField)
}

func TestInitialTask(t *testing.T) {
	assert.Nil(t, InitialTask(models.TaskTodo, now).CompletedAt)
	done := InitialTask(models.TaskDone, now)
	require.NotNil(t, done.CompletedAt)
	assert.Equal(t, now, *done.CompletedAt)
}

func TestTransitionTicketTable(t *testing.T) {
	all := []models.TicketStatus{
		models.TicketPending, models.TicketApproved, models.TicketRejected, models.TicketDeferred,
	}
	allowed := map[[2]models.TicketStatus]bool{
		{models.TicketPending, models.TicketApproved}: true,
		{models.TicketPending, models.TicketRejected}: true,
		{models.TicketPending, models.TicketDeferred}: true,
		{models.TicketDeferred, models.TicketPending}: true,
	}

	for _, from := range all {
		for _, to := range all {
			from, to := from, to
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				out, err := TransitionTicket(from, to, "noted", now)
				if !allowed[[2]models.TicketStatus{from, to}] {
					require.ErrorIs(t, err, models.ErrInvalidTransition)
					return
				}
				require.NoError(t, err)
				assert.Equal(t, to, out.Status)
				if to == models.TicketPending {
					assert.Nil(t, out.ResolvedAt)
					assert.Empty(t, out.ResolutionNote)
				} else {
					require.NotNil(t, out.ResolvedAt)
					assert.Equal(t, "noted", out.ResolutionNote)
				}
			})
		}
	}
}

func TestTransitionTicketRequiresNote(t *testing.T) {
	_, err := TransitionTicket(models.TicketPending, models.TicketApproved, "", now)
	require.ErrorIs(t, err, models.ErrMissingResolution)

	_, err = TransitionTicket(models.TicketPending, models.TicketRejected, "   ", now)
	require.ErrorIs(t, err, models.ErrMissingResolution)

	out, err := TransitionTicket(models.TicketPending, models.TicketApproved, "Looks good", now)
	require.NoError(t, err)
	require.NotNil(t, out.ResolvedAt)
	assert.Equal(t, now, *out.ResolvedAt)
	assert.Equal(t, "Looks good", out.ResolutionNote)
}

func TestTransitionTicketResubmitIgnoresNote(t *testing.T) {
	out, err := TransitionTicket(models.TicketDeferred, models.TicketPending, "ignored", now)
	require.NoError(t, err)
	assert.Equal(t, models.TicketPending, out.Status)
	assert.Nil(t, out.ResolvedAt)
	assert.Empty(t, out.ResolutionNote)
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(models.TicketApproved))
	assert.True(t, IsTerminal(models.TicketRejected))
	assert.False(t, IsTerminal(models.TicketDeferred))
	assert.False(t, IsTerminal(models.TicketPending))
}
