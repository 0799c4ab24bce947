package entity

import (
	"context"
	"errors"

	"worktrack/internal/models"
	"worktrack/internal/signal"
	"worktrack/internal/storage"
	"worktrack/internal/thread"
)

// ListComments returns the flat comments on target, oldest first.
func (s *Store) ListComments(ctx context.Context, target models.Target) ([]models.Comment, error) {
	var out []models.Comment
	err := s.view(ctx, func(tx storage.Tx) error {
		var err error
		out, err = tx.ListComments(ctx, storage.CommentFilter{Target: &target})
		return err
	})
	return out, err
}

// Thread returns the reply forest for target, built from a single
// snapshot.
func (s *Store) Thread(ctx context.Context, target models.Target) ([]*thread.Node, error) {
	if err := checkTarget(target); err != nil {
		return nil, err
	}
	var comments []models.Comment
	err := s.view(ctx, func(tx storage.Tx) error {
		if err := targetExists(ctx, tx, target); err != nil {
			return err
		}
		var err error
		comments, err = tx.ListComments(ctx, storage.CommentFilter{Target: &target})
		return err
	})
	if err != nil {
		return nil, err
	}
	return thread.Build(target, comments)
}

// PendingCount returns the number of pending tickets in scope. A project
// scope includes tickets filed only against the project's tasks.
func (s *Store) PendingCount(ctx context.Context, scope signal.Scope) (int, error) {
	if err := scope.Validate(); err != nil {
		return 0, err
	}
	var tickets []models.Ticket
	taskProject := map[string]string{}
	err := s.view(ctx, func(tx storage.Tx) error {
		switch scope.Kind {
		case signal.ScopeProject:
			if _, err := tx.GetProject(ctx, scope.ID); err != nil {
				return err
			}
			tasks, err := tx.ListTasks(ctx, storage.TaskFilter{ProjectID: scope.ID})
			if err != nil {
				return err
			}
			for _, t := range tasks {
				taskProject[t.ID] = t.ProjectID
			}
		case signal.ScopeTask:
			if _, err := tx.GetTask(ctx, scope.ID); err != nil {
				return err
			}
		}
		var err error
		tickets, err = tx.ListTickets(ctx, storage.TicketFilter{Status: models.TicketPending})
		return err
	})
	if err != nil {
		return 0, err
	}
	return signal.PendingCount(tickets, taskProject, scope)
}

// PendingSummary returns every pending count from one snapshot.
func (s *Store) PendingSummary(ctx context.Context) (signal.Summary, error) {
	var (
		tickets []models.Ticket
		tasks   []models.Task
	)
	err := s.view(ctx, func(tx storage.Tx) error {
		var err error
		if tickets, err = tx.ListTickets(ctx, storage.TicketFilter{Status: models.TicketPending}); err != nil {
			return err
		}
		tasks, err = tx.ListTasks(ctx, storage.TaskFilter{})
		return err
	})
	if err != nil {
		return signal.Summary{}, err
	}
	taskProject := make(map[string]string, len(tasks))
	for _, t := range tasks {
		taskProject[t.ID] = t.ProjectID
	}
	return signal.Summarize(tickets, taskProject), nil
}

// targetExists reports a missing thread target as not found rather than as
// a broken reference, since the target is what the caller addressed.
func targetExists(ctx context.Context, tx storage.Tx, target models.Target) error {
	err := resolveTarget(ctx, tx, target)
	if errors.Is(err, models.ErrReferenceNotFound) {
		return models.NotFound(target.Type, target.ID)
	}
	return err
}
