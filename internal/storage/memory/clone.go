package memory

import (
	"slices"
	"time"

	"worktrack/internal/models"
)

// Records are copied on the way in and out so that callers never share
// pointer fields with committed state.

func cloneProject(p models.Project) models.Project {
	p.DueDate = cloneTime(p.DueDate)
	p.Tags = slices.Clone(p.Tags)
	return p
}

func cloneTask(t models.Task) models.Task {
	t.DueDate = cloneTime(t.DueDate)
	t.CompletedAt = cloneTime(t.CompletedAt)
	t.EstimatedHours = cloneFloat(t.EstimatedHours)
	t.ActualHours = cloneFloat(t.ActualHours)
	return t
}

func cloneTicket(t models.Ticket) models.Ticket {
	t.ResolvedAt = cloneTime(t.ResolvedAt)
	return t
}

func cloneComment(c models.Comment) models.Comment {
	c.EditedAt = cloneTime(c.EditedAt)
	return c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
