package entity

import (
	"context"
	"fmt"
	"strings"

	"worktrack/internal/models"
	"worktrack/internal/storage"
)

// remover deletes a record and, when cascading, everything that refers to
// it, children before parents. Without cascade it refuses to delete a
// record that still has dependents.
type remover struct {
	ctx     context.Context
	tx      storage.Tx
	cascade bool
	done    map[string]struct{}
}

func newRemover(ctx context.Context, tx storage.Tx, cascade bool) *remover {
	return &remover{ctx: ctx, tx: tx, cascade: cascade, done: map[string]struct{}{}}
}

// visit marks key and reports whether it was seen before. It stops
// recursion through corrupt parent loops.
func (r *remover) visit(entity models.EntityType, id string) bool {
	key := string(entity) + ":" + id
	if _, ok := r.done[key]; ok {
		return true
	}
	r.done[key] = struct{}{}
	return false
}

type dependents []string

func (d *dependents) add(n int, what string) {
	if n > 0 {
		*d = append(*d, fmt.Sprintf("%d %s", n, what))
	}
}

func (d dependents) check(entity models.EntityType, id string) error {
	if len(d) == 0 {
		return nil
	}
	return models.Errorf(models.ErrHasDependents, entity, "id", "%s %q is referenced by %s", entity, id, strings.Join(d, ", "))
}

func (r *remover) project(id string) error {
	if r.visit(models.EntityProject, id) {
		return nil
	}
	tasks, err := r.tx.ListTasks(r.ctx, storage.TaskFilter{ProjectID: id})
	if err != nil {
		return err
	}
	tickets, err := r.tx.ListTickets(r.ctx, storage.TicketFilter{ProjectID: id})
	if err != nil {
		return err
	}
	target := models.Target{Type: models.EntityProject, ID: id}
	comments, err := r.tx.ListComments(r.ctx, storage.CommentFilter{Target: &target})
	if err != nil {
		return err
	}
	if !r.cascade {
		var deps dependents
		deps.add(len(tasks), "tasks")
		deps.add(len(tickets), "tickets")
		deps.add(len(comments), "comments")
		if err := deps.check(models.EntityProject, id); err != nil {
			return err
		}
	}

	for _, t := range tasks {
		if err := r.task(t.ID); err != nil {
			return err
		}
	}
	for _, t := range tickets {
		if err := r.ticket(t.ID); err != nil {
			return err
		}
	}
	if err := r.comments(comments); err != nil {
		return err
	}
	return r.tx.DeleteProject(r.ctx, id)
}

func (r *remover) task(id string) error {
	if r.visit(models.EntityTask, id) {
		return nil
	}
	subtasks, err := r.tx.ListTasks(r.ctx, storage.TaskFilter{ParentTaskID: id})
	if err != nil {
		return err
	}
	tickets, err := r.tx.ListTickets(r.ctx, storage.TicketFilter{TaskID: id})
	if err != nil {
		return err
	}
	target := models.Target{Type: models.EntityTask, ID: id}
	comments, err := r.tx.ListComments(r.ctx, storage.CommentFilter{Target: &target})
	if err != nil {
		return err
	}
	if !r.cascade {
		var deps dependents
		deps.add(len(subtasks), "subtasks")
		deps.add(len(tickets), "tickets")
		deps.add(len(comments), "comments")
		if err := deps.check(models.EntityTask, id); err != nil {
			return err
		}
	}

	for _, t := range subtasks {
		if err := r.task(t.ID); err != nil {
			return err
		}
	}
	for _, t := range tickets {
		if err := r.ticket(t.ID); err != nil {
			return err
		}
	}
	if err := r.comments(comments); err != nil {
		return err
	}
	return r.tx.DeleteTask(r.ctx, id)
}

func (r *remover) ticket(id string) error {
	if r.visit(models.EntityTicket, id) {
		return nil
	}
	target := models.Target{Type: models.EntityTicket, ID: id}
	comments, err := r.tx.ListComments(r.ctx, storage.CommentFilter{Target: &target})
	if err != nil {
		return err
	}
	if !r.cascade {
		var deps dependents
		deps.add(len(comments), "comments")
		if err := deps.check(models.EntityTicket, id); err != nil {
			return err
		}
	}
	if err := r.comments(comments); err != nil {
		return err
	}
	return r.tx.DeleteTicket(r.ctx, id)
}

func (r *remover) comment(id string) error {
	if r.visit(models.EntityComment, id) {
		return nil
	}
	replies, err := r.tx.ListComments(r.ctx, storage.CommentFilter{ParentID: id})
	if err != nil {
		return err
	}
	if !r.cascade {
		var deps dependents
		deps.add(len(replies), "replies")
		if err := deps.check(models.EntityComment, id); err != nil {
			return err
		}
	}
	if err := r.comments(replies); err != nil {
		return err
	}
	return r.tx.DeleteComment(r.ctx, id)
}

// comments removes a batch of comments together with their replies.
func (r *remover) comments(batch []models.Comment) error {
	for _, c := range batch {
		if err := r.comment(c.ID); err != nil {
			return err
		}
	}
	return nil
}
