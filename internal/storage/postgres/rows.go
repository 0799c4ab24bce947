package postgres

import (
	"time"

	"gorm.io/datatypes"

	"worktrack/internal/models"
)

// Row types mirror the hosted schema. Timestamps are owned by the entity
// layer's clock, so gorm's automatic time tracking is switched off.

type projectRow struct {
	ID          string                      `gorm:"primaryKey;type:uuid"`
	Name        string                      `gorm:"not null"`
	Description string                      `gorm:"not null;default:''"`
	Status      string                      `gorm:"not null;index"`
	Priority    string                      `gorm:"not null"`
	Progress    int                         `gorm:"not null;default:0"`
	DueDate     *time.Time                  `gorm:"type:timestamptz"`
	Owner       string                      `gorm:"not null"`
	Tags        datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	Color       string                      `gorm:"not null"`
	CreatedAt   time.Time                   `gorm:"type:timestamptz;not null;autoCreateTime:false"`
	UpdatedAt   time.Time                   `gorm:"type:timestamptz;not null;autoUpdateTime:false"`
}

func (projectRow) TableName() string { return "projects" }

type taskRow struct {
	ID             string     `gorm:"primaryKey;type:uuid"`
	ProjectID      string     `gorm:"type:uuid;not null;index"`
	Title          string     `gorm:"not null"`
	Description    string     `gorm:"not null;default:''"`
	Status         string     `gorm:"not null"`
	Priority       string     `gorm:"not null"`
	Assignee       *string    `gorm:"type:text"`
	DueDate        *time.Time `gorm:"type:timestamptz"`
	EstimatedHours *float64   `gorm:"type:double precision"`
	ActualHours    *float64   `gorm:"type:double precision"`
	OrderIndex     int64      `gorm:"column:order_index;not null;default:0"`
	ParentTaskID   *string    `gorm:"type:uuid;index"`
	CreatedAt      time.Time  `gorm:"type:timestamptz;not null;autoCreateTime:false"`
	UpdatedAt      time.Time  `gorm:"type:timestamptz;not null;autoUpdateTime:false"`
	CompletedAt    *time.Time `gorm:"type:timestamptz"`
}

func (taskRow) TableName() string { return "tasks" }

type ticketRow struct {
	ID             string     `gorm:"primaryKey;type:uuid"`
	ProjectID      *string    `gorm:"type:uuid;index"`
	TaskID         *string    `gorm:"type:uuid;index"`
	Title          string     `gorm:"not null"`
	Description    string     `gorm:"not null;default:''"`
	Type           string     `gorm:"not null"`
	Status         string     `gorm:"not null;index"`
	Priority       string     `gorm:"not null"`
	CreatedBy      string     `gorm:"not null"`
	CreatedAt      time.Time  `gorm:"type:timestamptz;not null;autoCreateTime:false"`
	ResolvedAt     *time.Time `gorm:"type:timestamptz"`
	ResolutionNote *string    `gorm:"type:text"`
}

func (ticketRow) TableName() string { return "tickets" }

type commentRow struct {
	ID         string     `gorm:"primaryKey;type:uuid"`
	EntityType string     `gorm:"not null;index:idx_comments_target"`
	EntityID   string     `gorm:"type:uuid;not null;index:idx_comments_target"`
	Author     string     `gorm:"not null"`
	Content    string     `gorm:"not null"`
	ParentID   *string    `gorm:"type:uuid;index"`
	CreatedAt  time.Time  `gorm:"type:timestamptz;not null;autoCreateTime:false"`
	EditedAt   *time.Time `gorm:"type:timestamptz"`
}

func (commentRow) TableName() string { return "comments" }

func projectToRow(p models.Project) projectRow {
	return projectRow{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Status:      string(p.Status),
		Priority:    string(p.Priority),
		Progress:    p.Progress,
		DueDate:     p.DueDate,
		Owner:       string(p.Owner),
		Tags:        datatypes.JSONSlice[string](p.Tags),
		Color:       p.Color,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (r projectRow) model() models.Project {
	return models.Project{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Status:      models.ProjectStatus(r.Status),
		Priority:    models.Priority(r.Priority),
		Progress:    r.Progress,
		DueDate:     r.DueDate,
		Owner:       models.ProjectOwner(r.Owner),
		Tags:        []string(r.Tags),
		Color:       r.Color,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func taskToRow(t models.Task) taskRow {
	return taskRow{
		ID:             t.ID,
		ProjectID:      t.ProjectID,
		Title:          t.Title,
		Description:    t.Description,
		Status:         string(t.Status),
		Priority:       string(t.Priority),
		Assignee:       optional(t.Assignee),
		DueDate:        t.DueDate,
		EstimatedHours: t.EstimatedHours,
		ActualHours:    t.ActualHours,
		OrderIndex:     t.Position,
		ParentTaskID:   optional(t.ParentTaskID),
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
		CompletedAt:    t.CompletedAt,
	}
}

func (r taskRow) model() models.Task {
	return models.Task{
		ID:             r.ID,
		ProjectID:      r.ProjectID,
		Title:          r.Title,
		Description:    r.Description,
		Status:         models.TaskStatus(r.Status),
		Priority:       models.Priority(r.Priority),
		Assignee:       deref(r.Assignee),
		DueDate:        r.DueDate,
		EstimatedHours: r.EstimatedHours,
		ActualHours:    r.ActualHours,
		Position:       r.OrderIndex,
		ParentTaskID:   deref(r.ParentTaskID),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
		CompletedAt:    r.CompletedAt,
	}
}

func ticketToRow(k models.Ticket) ticketRow {
	return ticketRow{
		ID:             k.ID,
		ProjectID:      optional(k.ProjectID),
		TaskID:         optional(k.TaskID),
		Title:          k.Title,
		Description:    k.Description,
		Type:           string(k.Type),
		Status:         string(k.Status),
		Priority:       string(k.Priority),
		CreatedBy:      string(k.CreatedBy),
		CreatedAt:      k.CreatedAt,
		ResolvedAt:     k.ResolvedAt,
		ResolutionNote: optional(k.ResolutionNote),
	}
}

func (r ticketRow) model() models.Ticket {
	return models.Ticket{
		ID:             r.ID,
		ProjectID:      deref(r.ProjectID),
		TaskID:         deref(r.TaskID),
		Title:          r.Title,
		Description:    r.Description,
		Type:           models.TicketType(r.Type),
		Status:         models.TicketStatus(r.Status),
		Priority:       models.Priority(r.Priority),
		CreatedBy:      models.Person(r.CreatedBy),
		CreatedAt:      r.CreatedAt,
		ResolvedAt:     r.ResolvedAt,
		ResolutionNote: deref(r.ResolutionNote),
	}
}

func commentToRow(c models.Comment) commentRow {
	return commentRow{
		ID:         c.ID,
		EntityType: string(c.Target.Type),
		EntityID:   c.Target.ID,
		Author:     string(c.Author),
		Content:    c.Content,
		ParentID:   optional(c.ParentID),
		CreatedAt:  c.CreatedAt,
		EditedAt:   c.EditedAt,
	}
}

func (r commentRow) model() models.Comment {
	return models.Comment{
		ID:        r.ID,
		Target:    models.Target{Type: models.EntityType(r.EntityType), ID: r.EntityID},
		Author:    models.Person(r.Author),
		Content:   r.Content,
		ParentID:  deref(r.ParentID),
		CreatedAt: r.CreatedAt,
		EditedAt:  r.EditedAt,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
