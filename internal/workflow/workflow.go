// Package workflow validates status transitions for tasks and tickets and
// derives the fields that follow from them. Every function is pure: the
// caller passes the committed state, the requested state and the current
// time, and gets back either the derived fields or the reason for refusal.
package workflow

import (
	"slices"
	"strings"
	"time"

	"worktrack/internal/models"
)

var taskTransitions = map[models.TaskStatus][]models.TaskStatus{
	models.TaskTodo:       {models.TaskInProgress},
	models.TaskInProgress: {models.TaskBlocked, models.TaskReview, models.TaskDone},
	models.TaskBlocked:    {models.TaskInProgress},
	models.TaskReview:     {models.TaskInProgress, models.TaskDone},
	models.TaskDone:       {models.TaskInProgress},
}

var ticketTransitions = map[models.TicketStatus][]models.TicketStatus{
	models.TicketPending:  {models.TicketApproved, models.TicketRejected, models.TicketDeferred},
	models.TicketDeferred: {models.TicketPending},
}

// TaskOutcome holds the task fields a transition produces.
type TaskOutcome struct {
	Status      models.TaskStatus
	CompletedAt *time.Time
}

// TicketOutcome holds the ticket fields a transition produces.
type TicketOutcome struct {
	Status         models.TicketStatus
	ResolvedAt     *time.Time
	ResolutionNote string
}

// CanTransitionTask reports whether a task may move from one status to another.
func CanTransitionTask(from, to models.TaskStatus) bool {
	return slices.Contains(taskTransitions[from], to)
}

// CanTransitionTicket reports whether a ticket may move from one status to another.
func CanTransitionTicket(from, to models.TicketStatus) bool {
	return slices.Contains(ticketTransitions[from], to)
}

// IsTerminal reports whether a ticket status accepts no further transitions.
func IsTerminal(s models.TicketStatus) bool {
	return s == models.TicketApproved || s == models.TicketRejected
}

// TransitionTask validates a move from the task's committed status to `to`.
// Entering done stamps CompletedAt with now; any other target clears it.
func TransitionTask(from, to models.TaskStatus, now time.Time) (TaskOutcome, error) {
	if _, ok := models.ValidTaskStatuses[to]; !ok {
		return TaskOutcome{}, models.Errorf(models.ErrInvalidField, models.EntityTask, "status", "unknown status %q", to)
	}
	if !CanTransitionTask(from, to) {
		return TaskOutcome{}, models.Errorf(models.ErrInvalidTransition, models.EntityTask, "status", "%s -> %s", from, to)
	}
	return InitialTask(to, now), nil
}

// InitialTask derives the fields of a task created directly in status s.
func InitialTask(s models.TaskStatus, now time.Time) TaskOutcome {
	out := TaskOutcome{Status: s}
	if s == models.TaskDone {
		completed := now
		out.CompletedAt = &completed
	}
	return out
}

// TransitionTicket validates a move from the ticket's committed status to
// `to`. Leaving pending requires a non-blank note and stamps ResolvedAt;
// returning to pending from deferred clears both resolution fields.
func TransitionTicket(from, to models.TicketStatus, note string, now time.Time) (TicketOutcome, error) {
	if _, ok := models.ValidTicketStatuses[to]; !ok {
		return TicketOutcome{}, models.Errorf(models.ErrInvalidField, models.EntityTicket, "status", "unknown status %q", to)
	}
	if !CanTransitionTicket(from, to) {
		return TicketOutcome{}, models.Errorf(models.ErrInvalidTransition, models.EntityTicket, "status", "%s -> %s", from, to)
	}
	if to == models.TicketPending {
		return TicketOutcome{Status: to}, nil
	}
	note = strings.TrimSpace(note)
	if note == "" {
		return TicketOutcome{}, models.Errorf(models.ErrMissingResolution, models.EntityTicket, "resolution_note", "%s requires a resolution note", to)
	}
	resolved := now
	return TicketOutcome{Status: to, ResolvedAt: &resolved, ResolutionNote: note}, nil
}
