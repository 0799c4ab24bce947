package models

import "time"

// Project groups tasks, tickets and discussion for one piece of work.
// Projects are archived through their status rather than removed.
type Project struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Status      ProjectStatus `json:"status"`
	Priority    Priority      `json:"priority"`
	Progress    int           `json:"progress"`
	DueDate     *time.Time    `json:"due_date,omitempty"`
	Owner       ProjectOwner  `json:"owner"`
	Tags        []string      `json:"tags,omitempty"`
	Color       string        `json:"color"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Task is a unit of work inside a project. ParentTaskID links subtasks
// to a task of the same project.
type Task struct {
	ID             string     `json:"id"`
	ProjectID      string     `json:"project_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	Status         TaskStatus `json:"status"`
	Priority       Priority   `json:"priority"`
	Assignee       string     `json:"assignee,omitempty"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	EstimatedHours *float64   `json:"estimated_hours,omitempty"`
	ActualHours    *float64   `json:"actual_hours,omitempty"`
	Position       int64      `json:"order_index"`
	ParentTaskID   string     `json:"parent_task_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// Ticket is a request for a review, decision, approval or an FYI, scoped to
// a project, a task, both, or neither (global).
type Ticket struct {
	ID             string       `json:"id"`
	ProjectID      string       `json:"project_id,omitempty"`
	TaskID         string       `json:"task_id,omitempty"`
	Title          string       `json:"title"`
	Description    string       `json:"description,omitempty"`
	Type           TicketType   `json:"type"`
	Status         TicketStatus `json:"status"`
	Priority       Priority     `json:"priority"`
	CreatedBy      Person       `json:"created_by"`
	CreatedAt      time.Time    `json:"created_at"`
	ResolvedAt     *time.Time   `json:"resolved_at,omitempty"`
	ResolutionNote string       `json:"resolution_note,omitempty"`
}

// Comment is attached to exactly one project, task or ticket. Replies point
// at their parent; reply lists are never stored.
type Comment struct {
	ID        string     `json:"id"`
	Target    Target     `json:"target"`
	Author    Person     `json:"author"`
	Content   string     `json:"content"`
	ParentID  string     `json:"parent_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	EditedAt  *time.Time `json:"edited_at,omitempty"`
}

// Target identifies the record a comment belongs to.
type Target struct {
	Type EntityType `json:"entity_type"`
	ID   string     `json:"entity_id"`
}

func (t Target) String() string {
	return string(t.Type) + ":" + t.ID
}
