package entity

import (
	"context"
	"errors"

	"worktrack/internal/models"
	"worktrack/internal/storage"
)

// resolveProject loads a referenced project. field names the referencing
// field on the entity being written.
func resolveProject(ctx context.Context, tx storage.Tx, entity models.EntityType, field, id string) (models.Project, error) {
	if err := checkUUID(entity, field, id); err != nil {
		return models.Project{}, err
	}
	p, err := tx.GetProject(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return models.Project{}, models.Errorf(models.ErrReferenceNotFound, entity, field, "project %q does not exist", id)
	}
	return p, err
}

func resolveTask(ctx context.Context, tx storage.Tx, entity models.EntityType, field, id string) (models.Task, error) {
	if err := checkUUID(entity, field, id); err != nil {
		return models.Task{}, err
	}
	t, err := tx.GetTask(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return models.Task{}, models.Errorf(models.ErrReferenceNotFound, entity, field, "task %q does not exist", id)
	}
	return t, err
}

func resolveComment(ctx context.Context, tx storage.Tx, field, id string) (models.Comment, error) {
	if err := checkUUID(models.EntityComment, field, id); err != nil {
		return models.Comment{}, err
	}
	c, err := tx.GetComment(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return models.Comment{}, models.Errorf(models.ErrReferenceNotFound, models.EntityComment, field, "comment %q does not exist", id)
	}
	return c, err
}

// checkTarget validates the entity type of a comment target before any
// lookup happens.
func checkTarget(target models.Target) error {
	if _, ok := models.CommentTargets[target.Type]; !ok {
		return models.Errorf(models.ErrInvalidReference, models.EntityComment, "entity_type", "comments cannot target %q", target.Type)
	}
	return checkUUID(models.EntityComment, "entity_id", target.ID)
}

// resolveTarget dispatches on the target's entity type and checks that the
// record exists in the matching collection.
func resolveTarget(ctx context.Context, tx storage.Tx, target models.Target) error {
	if err := checkTarget(target); err != nil {
		return err
	}
	var err error
	switch target.Type {
	case models.EntityProject:
		_, err = tx.GetProject(ctx, target.ID)
	case models.EntityTask:
		_, err = tx.GetTask(ctx, target.ID)
	case models.EntityTicket:
		_, err = tx.GetTicket(ctx, target.ID)
	}
	if errors.Is(err, models.ErrNotFound) {
		return models.Errorf(models.ErrReferenceNotFound, models.EntityComment, "entity_id", "%s %q does not exist", target.Type, target.ID)
	}
	return err
}

// resolveTicketScope checks a ticket's optional project and task
// references. When both are set the task must belong to the project.
func (s *Store) resolveTicketScope(ctx context.Context, tx storage.Tx, projectID, taskID string) error {
	if projectID == "" && taskID == "" {
		if s.opts.RequireTicketScope {
			return models.Errorf(models.ErrInvalidReference, models.EntityTicket, "project_id", "ticket must reference a project or a task")
		}
		return nil
	}
	if projectID != "" {
		if _, err := resolveProject(ctx, tx, models.EntityTicket, "project_id", projectID); err != nil {
			return err
		}
	}
	if taskID != "" {
		task, err := resolveTask(ctx, tx, models.EntityTicket, "task_id", taskID)
		if err != nil {
			return err
		}
		if projectID != "" && task.ProjectID != projectID {
			return models.Errorf(models.ErrInvalidReference, models.EntityTicket, "task_id", "task %q belongs to project %q, not %q", taskID, task.ProjectID, projectID)
		}
	}
	return nil
}

// taskChainReaches reports whether following parent links from start
// arrives at target. A chain that loops back on itself without reaching
// target is also reported, since attaching to it would extend a cycle.
func taskChainReaches(ctx context.Context, tx storage.Tx, start, target string) (bool, error) {
	visited := map[string]struct{}{}
	for cur := start; cur != ""; {
		if cur == target {
			return true, nil
		}
		if _, seen := visited[cur]; seen {
			return true, nil
		}
		visited[cur] = struct{}{}
		t, err := tx.GetTask(ctx, cur)
		if errors.Is(err, models.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		cur = t.ParentTaskID
	}
	return false, nil
}

func commentChainReaches(ctx context.Context, tx storage.Tx, start, target string) (bool, error) {
	visited := map[string]struct{}{}
	for cur := start; cur != ""; {
		if cur == target {
			return true, nil
		}
		if _, seen := visited[cur]; seen {
			return true, nil
		}
		visited[cur] = struct{}{}
		c, err := tx.GetComment(ctx, cur)
		if errors.Is(err, models.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		cur = c.ParentID
	}
	return false, nil
}

// checkTaskParent validates a proposed parent for task id in projectID.
func checkTaskParent(ctx context.Context, tx storage.Tx, id, projectID, parentID string) error {
	if parentID == id {
		return models.Errorf(models.ErrCyclicReference, models.EntityTask, "parent_task_id", "task cannot be its own parent")
	}
	parent, err := resolveTask(ctx, tx, models.EntityTask, "parent_task_id", parentID)
	if err != nil {
		return err
	}
	if parent.ProjectID != projectID {
		return models.Errorf(models.ErrInvalidReference, models.EntityTask, "parent_task_id", "parent task %q belongs to project %q", parentID, parent.ProjectID)
	}
	cyclic, err := taskChainReaches(ctx, tx, parentID, id)
	if err != nil {
		return err
	}
	if cyclic {
		return models.Errorf(models.ErrCyclicReference, models.EntityTask, "parent_task_id", "parent task %q descends from %q", parentID, id)
	}
	return nil
}

// checkCommentParent validates a proposed parent for comment id on target.
func checkCommentParent(ctx context.Context, tx storage.Tx, id string, target models.Target, parentID string) error {
	if parentID == id {
		return models.Errorf(models.ErrCyclicReference, models.EntityComment, "parent_id", "comment cannot reply to itself")
	}
	parent, err := resolveComment(ctx, tx, "parent_id", parentID)
	if err != nil {
		return err
	}
	if parent.Target != target {
		return models.Errorf(models.ErrInvalidReference, models.EntityComment, "parent_id", "parent comment %q is on %s, not %s", parentID, parent.Target, target)
	}
	cyclic, err := commentChainReaches(ctx, tx, parentID, id)
	if err != nil {
		return err
	}
	if cyclic {
		return models.Errorf(models.ErrCyclicReference, models.EntityComment, "parent_id", "parent comment %q descends from %q", parentID, id)
	}
	return nil
}
