// Package storage defines the record store the entity layer runs against.
// Backends only persist and retrieve records; every referential and
// workflow rule is enforced by the caller inside a single Atomic unit.
package storage

import (
	"context"

	"worktrack/internal/models"
)

// Backend runs units of work against a consistent view of the records.
type Backend interface {
	// Atomic runs fn in a read-write transaction. Writes made through tx
	// are committed only if fn returns nil; otherwise nothing is applied.
	// Concurrent Atomic calls are serialized with respect to the records
	// they touch, so reads inside fn observe the latest committed state.
	Atomic(ctx context.Context, fn func(tx Tx) error) error

	// View runs fn against a read-only snapshot.
	View(ctx context.Context, fn func(tx Tx) error) error

	Close() error
}

// Tx is the per-transaction record accessor. Get methods return an error
// wrapping models.ErrNotFound when the id does not exist. Put inserts or
// replaces the record with the same id.
type Tx interface {
	GetProject(ctx context.Context, id string) (models.Project, error)
	ListProjects(ctx context.Context) ([]models.Project, error)
	PutProject(ctx context.Context, p models.Project) error
	DeleteProject(ctx context.Context, id string) error

	GetTask(ctx context.Context, id string) (models.Task, error)
	ListTasks(ctx context.Context, f TaskFilter) ([]models.Task, error)
	PutTask(ctx context.Context, t models.Task) error
	DeleteTask(ctx context.Context, id string) error

	GetTicket(ctx context.Context, id string) (models.Ticket, error)
	ListTickets(ctx context.Context, f TicketFilter) ([]models.Ticket, error)
	PutTicket(ctx context.Context, t models.Ticket) error
	DeleteTicket(ctx context.Context, id string) error

	GetComment(ctx context.Context, id string) (models.Comment, error)
	ListComments(ctx context.Context, f CommentFilter) ([]models.Comment, error)
	PutComment(ctx context.Context, c models.Comment) error
	DeleteComment(ctx context.Context, id string) error
}

// TaskFilter narrows ListTasks. Zero fields match everything. Results are
// ordered by position, then created_at, then id.
type TaskFilter struct {
	ProjectID    string
	ParentTaskID string
}

// TicketFilter narrows ListTickets. Results are ordered newest first,
// ties broken by id.
type TicketFilter struct {
	ProjectID string
	TaskID    string
	Status    models.TicketStatus
}

// CommentFilter narrows ListComments. Results are ordered by created_at,
// then id.
type CommentFilter struct {
	Target   *models.Target
	ParentID string
}

// Match reports whether t passes the filter.
func (f TaskFilter) Match(t models.Task) bool {
	if f.ProjectID != "" && t.ProjectID != f.ProjectID {
		return false
	}
	if f.ParentTaskID != "" && t.ParentTaskID != f.ParentTaskID {
		return false
	}
	return true
}

// Match reports whether t passes the filter.
func (f TicketFilter) Match(t models.Ticket) bool {
	if f.ProjectID != "" && t.ProjectID != f.ProjectID {
		return false
	}
	if f.TaskID != "" && t.TaskID != f.TaskID {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	return true
}

// Match reports whether c passes the filter.
func (f CommentFilter) Match(c models.Comment) bool {
	if f.Target != nil && c.Target != *f.Target {
		return false
	}
	if f.ParentID != "" && c.ParentID != f.ParentID {
		return false
	}
	return true
}
