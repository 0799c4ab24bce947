package entity

import (
	"context"
	"strings"

	"worktrack/internal/models"
	"worktrack/internal/storage"
	"worktrack/internal/workflow"
)

// CreateTask stores a new task in an existing project. A task may start in
// any status; completed_at is set when it starts as done. Without an
// explicit position the task is placed after the last task of its project.
func (s *Store) CreateTask(ctx context.Context, d models.TaskDraft) (models.Task, error) {
	now := s.clock.Now()
	t := models.Task{
		ProjectID:      d.ProjectID,
		Title:          strings.TrimSpace(d.Title),
		Description:    strings.TrimSpace(d.Description),
		Status:         d.Status,
		Priority:       d.Priority,
		Assignee:       strings.TrimSpace(d.Assignee),
		DueDate:        copyTime(d.DueDate),
		EstimatedHours: copyFloat(d.EstimatedHours),
		ActualHours:    copyFloat(d.ActualHours),
		ParentTaskID:   d.ParentTaskID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if t.Status == "" {
		t.Status = models.TaskTodo
	}
	if t.Priority == "" {
		t.Priority = models.PriorityMedium
	}
	if t.ProjectID == "" {
		return models.Task{}, models.Errorf(models.ErrInvalidField, models.EntityTask, "project_id", "project_id is required")
	}
	if err := validateTask(t); err != nil {
		return models.Task{}, err
	}
	t.CompletedAt = workflow.InitialTask(t.Status, now).CompletedAt

	err := s.backend.Atomic(ctx, func(tx storage.Tx) error {
		if _, err := resolveProject(ctx, tx, models.EntityTask, "project_id", t.ProjectID); err != nil {
			return err
		}
		id, err := s.assignID(models.EntityTask, d.ID, func(id string) error {
			_, err := tx.GetTask(ctx, id)
			return err
		})
		if err != nil {
			return err
		}
		t.ID = id
		if t.ParentTaskID != "" {
			if err := checkTaskParent(ctx, tx, t.ID, t.ProjectID, t.ParentTaskID); err != nil {
				return err
			}
		}
		if d.Position != nil {
			t.Position = *d.Position
		} else {
			pos, err := nextPosition(ctx, tx, t.ProjectID)
			if err != nil {
				return err
			}
			t.Position = pos
		}
		return tx.PutTask(ctx, t)
	})
	if err != nil {
		return models.Task{}, err
	}
	s.logCommitted("task created", models.EntityTask, t.ID)
	return t, nil
}

func (s *Store) GetTask(ctx context.Context, id string) (models.Task, error) {
	var t models.Task
	err := s.view(ctx, func(tx storage.Tx) error {
		var err error
		t, err = tx.GetTask(ctx, id)
		return err
	})
	return t, err
}

// ListTasks returns tasks matching f in display order.
func (s *Store) ListTasks(ctx context.Context, f storage.TaskFilter) ([]models.Task, error) {
	var out []models.Task
	err := s.view(ctx, func(tx storage.Tx) error {
		var err error
		out, err = tx.ListTasks(ctx, f)
		return err
	})
	return out, err
}

// UpdateTask applies patch to the task. A status change is checked against
// the status committed at the time of the write, not the one the caller
// last read.
func (s *Store) UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (models.Task, error) {
	var next models.Task
	err := s.backend.Atomic(ctx, func(tx storage.Tx) error {
		cur, err := tx.GetTask(ctx, id)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		next = cur
		if patch.Title != nil {
			next.Title = strings.TrimSpace(*patch.Title)
		}
		if patch.Description != nil {
			next.Description = strings.TrimSpace(*patch.Description)
		}
		if patch.Priority != nil {
			next.Priority = *patch.Priority
		}
		if patch.Assignee != nil {
			next.Assignee = strings.TrimSpace(*patch.Assignee)
		}
		if patch.DueDate != nil {
			next.DueDate = clearableTime(patch.DueDate)
		}
		if patch.EstimatedHours != nil {
			next.EstimatedHours = copyFloat(patch.EstimatedHours)
		}
		if patch.ActualHours != nil {
			next.ActualHours = copyFloat(patch.ActualHours)
		}
		if patch.Position != nil {
			next.Position = *patch.Position
		}
		if err := validateTask(next); err != nil {
			return err
		}

		if patch.ParentTaskID != nil && *patch.ParentTaskID != cur.ParentTaskID {
			next.ParentTaskID = *patch.ParentTaskID
			if next.ParentTaskID != "" {
				if err := checkTaskParent(ctx, tx, cur.ID, cur.ProjectID, next.ParentTaskID); err != nil {
					return err
				}
			}
		}

		if patch.Status != nil && *patch.Status != cur.Status {
			out, err := workflow.TransitionTask(cur.Status, *patch.Status, now)
			if err != nil {
				return err
			}
			next.Status, next.CompletedAt = out.Status, out.CompletedAt
		}

		next.UpdatedAt = now
		return tx.PutTask(ctx, next)
	})
	if err != nil {
		return models.Task{}, err
	}
	s.logCommitted("task updated", models.EntityTask, id)
	return next, nil
}

// DeleteTask removes the task. Without opts.Cascade it fails with
// models.ErrHasDependents while subtasks, tickets or comments refer to it.
func (s *Store) DeleteTask(ctx context.Context, id string, opts models.DeleteOptions) error {
	err := s.backend.Atomic(ctx, func(tx storage.Tx) error {
		if _, err := tx.GetTask(ctx, id); err != nil {
			return err
		}
		return newRemover(ctx, tx, opts.Cascade).task(id)
	})
	if err != nil {
		return err
	}
	s.logCommitted("task deleted", models.EntityTask, id)
	return nil
}

func validateTask(t models.Task) error {
	if t.Title == "" {
		return models.Errorf(models.ErrInvalidField, models.EntityTask, "title", "title is required")
	}
	if _, ok := models.ValidTaskStatuses[t.Status]; !ok {
		return models.Errorf(models.ErrInvalidField, models.EntityTask, "status", "unknown status %q", t.Status)
	}
	if _, ok := models.ValidPriorities[t.Priority]; !ok {
		return models.Errorf(models.ErrInvalidField, models.EntityTask, "priority", "unknown priority %q", t.Priority)
	}
	if t.EstimatedHours != nil && *t.EstimatedHours < 0 {
		return models.Errorf(models.ErrInvalidField, models.EntityTask, "estimated_hours", "hours cannot be negative")
	}
	if t.ActualHours != nil && *t.ActualHours < 0 {
		return models.Errorf(models.ErrInvalidField, models.EntityTask, "actual_hours", "hours cannot be negative")
	}
	return nil
}

// nextPosition returns one past the highest position in the project, or 0
// for an empty project.
func nextPosition(ctx context.Context, tx storage.Tx, projectID string) (int64, error) {
	tasks, err := tx.ListTasks(ctx, storage.TaskFilter{ProjectID: projectID})
	if err != nil {
		return 0, err
	}
	if len(tasks) == 0 {
		return 0, nil
	}
	highest := tasks[0].Position
	for _, t := range tasks[1:] {
		highest = max(highest, t.Position)
	}
	return highest + 1, nil
}
