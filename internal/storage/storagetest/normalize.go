package storagetest

import (
	"time"

	"worktrack/internal/models"
)

// Backends may return times in a different location or an empty tag list
// instead of nil. The Normalize helpers map both onto the fixture shape.

func NormalizeProject(p models.Project) models.Project {
	p.DueDate = utcPtr(p.DueDate)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	if len(p.Tags) == 0 {
		p.Tags = nil
	}
	return p
}

func NormalizeTask(t models.Task) models.Task {
	t.DueDate = utcPtr(t.DueDate)
	t.CompletedAt = utcPtr(t.CompletedAt)
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return t
}

func NormalizeTicket(t models.Ticket) models.Ticket {
	t.ResolvedAt = utcPtr(t.ResolvedAt)
	t.CreatedAt = t.CreatedAt.UTC()
	return t
}

func NormalizeComment(c models.Comment) models.Comment {
	c.EditedAt = utcPtr(c.EditedAt)
	c.CreatedAt = c.CreatedAt.UTC()
	return c
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
