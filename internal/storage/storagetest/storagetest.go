// Package storagetest is a conformance suite every storage.Backend must pass.
package storagetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worktrack/internal/models"
	"worktrack/internal/storage"
)

// Base is the reference time of every fixture. It has no sub-microsecond
// component so that backends with microsecond precision round-trip it.
var Base = time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)

// Opener returns a fresh, empty backend for one subtest.
type Opener func(t *testing.T) storage.Backend

// Run executes the suite.
func Run(t *testing.T, open Opener) {
	t.Run("ProjectRoundTrip", func(t *testing.T) { testProjectRoundTrip(t, open(t)) })
	t.Run("TaskRoundTrip", func(t *testing.T) { testTaskRoundTrip(t, open(t)) })
	t.Run("TicketRoundTrip", func(t *testing.T) { testTicketRoundTrip(t, open(t)) })
	t.Run("CommentRoundTrip", func(t *testing.T) { testCommentRoundTrip(t, open(t)) })
	t.Run("NotFound", func(t *testing.T) { testNotFound(t, open(t)) })
	t.Run("Rollback", func(t *testing.T) { testRollback(t, open(t)) })
	t.Run("ReadYourWrites", func(t *testing.T) { testReadYourWrites(t, open(t)) })
	t.Run("ListFilters", func(t *testing.T) { testListFilters(t, open(t)) })
	t.Run("PutReplaces", func(t *testing.T) { testPutReplaces(t, open(t)) })
}

func at(minutes int) time.Time {
	return Base.Add(time.Duration(minutes) * time.Minute)
}

func ptrTime(t time.Time) *time.Time { return &t }
func ptrFloat(f float64) *float64    { return &f }

// Fixtures used by the suite and by backend-specific tests.

func Project(minute int) models.Project {
	return models.Project{
		ID:        uuid.NewString(),
		Name:      "Launch",
		Status:    models.ProjectActive,
		Priority:  models.PriorityMedium,
		Owner:     models.OwnerBoth,
		Color:     "#2563eb",
		CreatedAt: at(minute),
		UpdatedAt: at(minute),
	}
}

func Task(projectID string, position int64, minute int) models.Task {
	return models.Task{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Title:     "Write copy",
		Status:    models.TaskTodo,
		Priority:  models.PriorityLow,
		Position:  position,
		CreatedAt: at(minute),
		UpdatedAt: at(minute),
	}
}

func Ticket(projectID, taskID string, minute int) models.Ticket {
	return models.Ticket{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		TaskID:    taskID,
		Title:     "Approve budget",
		Type:      models.TicketApproval,
		Status:    models.TicketPending,
		Priority:  models.PriorityHigh,
		CreatedBy: models.PersonSage,
		CreatedAt: at(minute),
	}
}

func Comment(target models.Target, parentID string, minute int) models.Comment {
	return models.Comment{
		ID:        uuid.NewString(),
		Target:    target,
		Author:    models.PersonTim,
		Content:   "Looks right",
		ParentID:  parentID,
		CreatedAt: at(minute),
	}
}

func put(t *testing.T, b storage.Backend, fn func(ctx context.Context, tx storage.Tx) error) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, b.Atomic(ctx, func(tx storage.Tx) error { return fn(ctx, tx) }))
}

func view(t *testing.T, b storage.Backend, fn func(ctx context.Context, tx storage.Tx)) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, b.View(ctx, func(tx storage.Tx) error {
		fn(ctx, tx)
		return nil
	}))
}

func testProjectRoundTrip(t *testing.T, b storage.Backend) {
	p := Project(0)
	p.Description = "Spring launch"
	p.Progress = 40
	p.DueDate = ptrTime(at(60 * 24))
	p.Tags = []string{"marketing", "q2"}
	put(t, b, func(ctx context.Context, tx storage.Tx) error { return tx.PutProject(ctx, p) })

	view(t, b, func(ctx context.Context, tx storage.Tx) {
		got, err := tx.GetProject(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, p, NormalizeProject(got))

		all, err := tx.ListProjects(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, p.ID, all[0].ID)
	})
}

func testTaskRoundTrip(t *testing.T, b storage.Backend) {
	p := Project(0)
	parent := Task(p.ID, 0, 1)
	task := Task(p.ID, 1, 2)
	task.Description = "Landing page"
	task.Status = models.TaskDone
	task.Assignee = "tim"
	task.DueDate = ptrTime(at(90))
	task.EstimatedHours = ptrFloat(3.5)
	task.ActualHours = ptrFloat(4)
	task.ParentTaskID = parent.ID
	task.CompletedAt = ptrTime(at(30))
	put(t, b, func(ctx context.Context, tx storage.Tx) error {
		if err := tx.PutProject(ctx, p); err != nil {
			return err
		}
		if err := tx.PutTask(ctx, parent); err != nil {
			return err
		}
		return tx.PutTask(ctx, task)
	})

	view(t, b, func(ctx context.Context, tx storage.Tx) {
		got, err := tx.GetTask(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, task, NormalizeTask(got))
	})
}

func testTicketRoundTrip(t *testing.T, b storage.Backend) {
	p := Project(0)
	global := Ticket("", "", 1)
	resolved := Ticket(p.ID, "", 2)
	resolved.Status = models.TicketApproved
	resolved.ResolvedAt = ptrTime(at(5))
	resolved.ResolutionNote = "Looks good"
	resolved.Description = "Q2 spend"
	put(t, b, func(ctx context.Context, tx storage.Tx) error {
		if err := tx.PutProject(ctx, p); err != nil {
			return err
		}
		if err := tx.PutTicket(ctx, global); err != nil {
			return err
		}
		return tx.PutTicket(ctx, resolved)
	})

	view(t, b, func(ctx context.Context, tx storage.Tx) {
		got, err := tx.GetTicket(ctx, global.ID)
		require.NoError(t, err)
		assert.Equal(t, global, NormalizeTicket(got))

		got, err = tx.GetTicket(ctx, resolved.ID)
		require.NoError(t, err)
		assert.Equal(t, resolved, NormalizeTicket(got))
	})
}

func testCommentRoundTrip(t *testing.T, b storage.Backend) {
	p := Project(0)
	target := models.Target{Type: models.EntityProject, ID: p.ID}
	root := Comment(target, "", 1)
	reply := Comment(target, root.ID, 2)
	reply.EditedAt = ptrTime(at(3))
	put(t, b, func(ctx context.Context, tx storage.Tx) error {
		if err := tx.PutProject(ctx, p); err != nil {
			return err
		}
		if err := tx.PutComment(ctx, root); err != nil {
			return err
		}
		return tx.PutComment(ctx, reply)
	})

	view(t, b, func(ctx context.Context, tx storage.Tx) {
		got, err := tx.GetComment(ctx, reply.ID)
		require.NoError(t, err)
		assert.Equal(t, reply, NormalizeComment(got))

		list, err := tx.ListComments(ctx, storage.CommentFilter{Target: &target})
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, root.ID, list[0].ID)
		assert.Equal(t, reply.ID, list[1].ID)
	})
}

func testNotFound(t *testing.T, b storage.Backend) {
	missing := uuid.NewString()
	view(t, b, func(ctx context.Context, tx storage.Tx) {
		_, err := tx.GetProject(ctx, missing)
		assert.ErrorIs(t, err, models.ErrNotFound)
		_, err = tx.GetTask(ctx, missing)
		assert.ErrorIs(t, err, models.ErrNotFound)
		_, err = tx.GetTicket(ctx, missing)
		assert.ErrorIs(t, err, models.ErrNotFound)
		_, err = tx.GetComment(ctx, missing)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	ctx := context.Background()
	err := b.Atomic(ctx, func(tx storage.Tx) error { return tx.DeleteTask(ctx, missing) })
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func testRollback(t *testing.T, b storage.Backend) {
	ctx := context.Background()
	p := Project(0)
	boom := errors.New("boom")

	err := b.Atomic(ctx, func(tx storage.Tx) error {
		if err := tx.PutProject(ctx, p); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	view(t, b, func(ctx context.Context, tx storage.Tx) {
		_, err := tx.GetProject(ctx, p.ID)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func testReadYourWrites(t *testing.T, b storage.Backend) {
	ctx := context.Background()
	p := Project(0)
	task := Task(p.ID, 0, 1)
	put(t, b, func(ctx context.Context, tx storage.Tx) error {
		if err := tx.PutProject(ctx, p); err != nil {
			return err
		}
		return tx.PutTask(ctx, task)
	})

	require.NoError(t, b.Atomic(ctx, func(tx storage.Tx) error {
		if err := tx.DeleteTask(ctx, task.ID); err != nil {
			return err
		}
		_, err := tx.GetTask(ctx, task.ID)
		assert.ErrorIs(t, err, models.ErrNotFound)
		tasks, err := tx.ListTasks(ctx, storage.TaskFilter{ProjectID: p.ID})
		require.NoError(t, err)
		assert.Empty(t, tasks)
		return nil
	}))
}

func testListFilters(t *testing.T, b storage.Backend) {
	p1, p2 := Project(0), Project(1)
	t1 := Task(p1.ID, 2, 2)
	t2 := Task(p1.ID, 1, 3)
	t3 := Task(p1.ID, 1, 1)
	t3.ParentTaskID = t1.ID
	t4 := Task(p2.ID, 0, 4)

	k1 := Ticket(p1.ID, "", 5)
	k2 := Ticket(p1.ID, t1.ID, 6)
	k2.Status = models.TicketDeferred
	k2.ResolvedAt = ptrTime(at(7))
	k2.ResolutionNote = "later"
	k3 := Ticket("", "", 8)

	put(t, b, func(ctx context.Context, tx storage.Tx) error {
		for _, p := range []models.Project{p1, p2} {
			if err := tx.PutProject(ctx, p); err != nil {
				return err
			}
		}
		for _, task := range []models.Task{t1, t2, t3, t4} {
			if err := tx.PutTask(ctx, task); err != nil {
				return err
			}
		}
		for _, k := range []models.Ticket{k1, k2, k3} {
			if err := tx.PutTicket(ctx, k); err != nil {
				return err
			}
		}
		return nil
	})

	view(t, b, func(ctx context.Context, tx storage.Tx) {
		tasks, err := tx.ListTasks(ctx, storage.TaskFilter{ProjectID: p1.ID})
		require.NoError(t, err)
		// position, then created_at
		assert.Equal(t, []string{t3.ID, t2.ID, t1.ID}, taskIDs(tasks))

		sub, err := tx.ListTasks(ctx, storage.TaskFilter{ParentTaskID: t1.ID})
		require.NoError(t, err)
		assert.Equal(t, []string{t3.ID}, taskIDs(sub))

		all, err := tx.ListTasks(ctx, storage.TaskFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 4)

		tickets, err := tx.ListTickets(ctx, storage.TicketFilter{})
		require.NoError(t, err)
		// newest first
		assert.Equal(t, []string{k3.ID, k2.ID, k1.ID}, ticketIDs(tickets))

		pending, err := tx.ListTickets(ctx, storage.TicketFilter{ProjectID: p1.ID, Status: models.TicketPending})
		require.NoError(t, err)
		assert.Equal(t, []string{k1.ID}, ticketIDs(pending))

		byTask, err := tx.ListTickets(ctx, storage.TicketFilter{TaskID: t1.ID})
		require.NoError(t, err)
		assert.Equal(t, []string{k2.ID}, ticketIDs(byTask))
	})
}

func testPutReplaces(t *testing.T, b storage.Backend) {
	p := Project(0)
	put(t, b, func(ctx context.Context, tx storage.Tx) error { return tx.PutProject(ctx, p) })

	p.Name = "Renamed"
	p.Status = models.ProjectArchived
	p.Tags = []string{"old"}
	p.UpdatedAt = at(10)
	put(t, b, func(ctx context.Context, tx storage.Tx) error { return tx.PutProject(ctx, p) })

	view(t, b, func(ctx context.Context, tx storage.Tx) {
		got, err := tx.GetProject(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, p, NormalizeProject(got))
		all, err := tx.ListProjects(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})
}

func taskIDs(tasks []models.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func ticketIDs(tickets []models.Ticket) []string {
	out := make([]string, len(tickets))
	for i, t := range tickets {
		out[i] = t.ID
	}
	return out
}
