package models

import "time"

// Drafts carry the caller-supplied fields of a new record. ID is optional;
// when empty the store assigns a fresh UUID.

type ProjectDraft struct {
	ID          string        `json:"id,omitempty"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Status      ProjectStatus `json:"status,omitempty"`
	Priority    Priority      `json:"priority,omitempty"`
	Progress    int           `json:"progress,omitempty"`
	DueDate     *time.Time    `json:"due_date,omitempty"`
	Owner       ProjectOwner  `json:"owner,omitempty"`
	Tags        []string      `json:"tags,omitempty"`
	Color       string        `json:"color,omitempty"`
}

type TaskDraft struct {
	ID             string     `json:"id,omitempty"`
	ProjectID      string     `json:"project_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	Status         TaskStatus `json:"status,omitempty"`
	Priority       Priority   `json:"priority,omitempty"`
	Assignee       string     `json:"assignee,omitempty"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	EstimatedHours *float64   `json:"estimated_hours,omitempty"`
	ActualHours    *float64   `json:"actual_hours,omitempty"`
	Position       *int64     `json:"order_index,omitempty"`
	ParentTaskID   string     `json:"parent_task_id,omitempty"`
}

type TicketDraft struct {
	ID          string       `json:"id,omitempty"`
	ProjectID   string       `json:"project_id,omitempty"`
	TaskID      string       `json:"task_id,omitempty"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Type        TicketType   `json:"type,omitempty"`
	Status      TicketStatus `json:"status,omitempty"`
	Priority    Priority     `json:"priority,omitempty"`
	CreatedBy   Person       `json:"created_by"`
}

type CommentDraft struct {
	ID       string `json:"id,omitempty"`
	Target   Target `json:"target"`
	Author   Person `json:"author"`
	Content  string `json:"content"`
	ParentID string `json:"parent_id,omitempty"`
}

// Patches list the fields an update changes; nil means unchanged. For
// optional references and dates, a pointer to the zero value clears the field.

type ProjectPatch struct {
	Name        *string        `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	Status      *ProjectStatus `json:"status,omitempty"`
	Priority    *Priority      `json:"priority,omitempty"`
	Progress    *int           `json:"progress,omitempty"`
	DueDate     *time.Time     `json:"due_date,omitempty"`
	Owner       *ProjectOwner  `json:"owner,omitempty"`
	Tags        *[]string      `json:"tags,omitempty"`
	Color       *string        `json:"color,omitempty"`
}

type TaskPatch struct {
	Title          *string     `json:"title,omitempty"`
	Description    *string     `json:"description,omitempty"`
	Status         *TaskStatus `json:"status,omitempty"`
	Priority       *Priority   `json:"priority,omitempty"`
	Assignee       *string     `json:"assignee,omitempty"`
	DueDate        *time.Time  `json:"due_date,omitempty"`
	EstimatedHours *float64    `json:"estimated_hours,omitempty"`
	ActualHours    *float64    `json:"actual_hours,omitempty"`
	Position       *int64      `json:"order_index,omitempty"`
	ParentTaskID   *string     `json:"parent_task_id,omitempty"`
}

type TicketPatch struct {
	ProjectID      *string       `json:"project_id,omitempty"`
	TaskID         *string       `json:"task_id,omitempty"`
	Title          *string       `json:"title,omitempty"`
	Description    *string       `json:"description,omitempty"`
	Type           *TicketType   `json:"type,omitempty"`
	Status         *TicketStatus `json:"status,omitempty"`
	Priority       *Priority     `json:"priority,omitempty"`
	ResolutionNote *string       `json:"resolution_note,omitempty"`
}

type CommentPatch struct {
	Content *string `json:"content,omitempty"`
}

// DeleteOptions controls how a delete treats dependent records.
type DeleteOptions struct {
	Cascade bool
}
