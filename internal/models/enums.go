package models

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectPaused    ProjectStatus = "paused"
	ProjectCompleted ProjectStatus = "completed"
	ProjectArchived  ProjectStatus = "archived"
)

// TaskStatus is the workflow state of a task.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskBlocked    TaskStatus = "blocked"
	TaskReview     TaskStatus = "review"
	TaskDone       TaskStatus = "done"
)

// TicketStatus is the workflow state of a ticket.
type TicketStatus string

const (
	TicketPending  TicketStatus = "pending"
	TicketApproved TicketStatus = "approved"
	TicketRejected TicketStatus = "rejected"
	TicketDeferred TicketStatus = "deferred"
)

// TicketType classifies what a ticket asks for.
type TicketType string

const (
	TicketReview   TicketType = "review"
	TicketDecision TicketType = "decision"
	TicketApproval TicketType = "approval"
	TicketInfo     TicketType = "info"
)

// Priority is shared by projects, tasks and tickets.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Person is one of the two collaborators.
type Person string

const (
	PersonSage Person = "sage"
	PersonTim  Person = "tim"
)

// ProjectOwner is a Person or both of them.
type ProjectOwner string

const (
	OwnerSage ProjectOwner = "sage"
	OwnerTim  ProjectOwner = "tim"
	OwnerBoth ProjectOwner = "both"
)

// EntityType names the record kinds a comment can target.
type EntityType string

const (
	EntityProject EntityType = "project"
	EntityTask    EntityType = "task"
	EntityTicket  EntityType = "ticket"
	EntityComment EntityType = "comment"
)

// ValidProjectStatuses enumerates the accepted project statuses.
var ValidProjectStatuses = map[ProjectStatus]struct{}{
	ProjectActive:    {},
	ProjectPaused:    {},
	ProjectCompleted: {},
	ProjectArchived:  {},
}

// ValidTaskStatuses enumerates the statuses of the task board columns.
var ValidTaskStatuses = map[TaskStatus]struct{}{
	TaskTodo:       {},
	TaskInProgress: {},
	TaskBlocked:    {},
	TaskReview:     {},
	TaskDone:       {},
}

var ValidTicketStatuses = map[TicketStatus]struct{}{
	TicketPending:  {},
	TicketApproved: {},
	TicketRejected: {},
	TicketDeferred: {},
}

var ValidTicketTypes = map[TicketType]struct{}{
	TicketReview:   {},
	TicketDecision: {},
	TicketApproval: {},
	TicketInfo:     {},
}

var ValidPriorities = map[Priority]struct{}{
	PriorityLow:    {},
	PriorityMedium: {},
	PriorityHigh:   {},
	PriorityUrgent: {},
}

var ValidPeople = map[Person]struct{}{
	PersonSage: {},
	PersonTim:  {},
}

var ValidOwners = map[ProjectOwner]struct{}{
	OwnerSage: {},
	OwnerTim:  {},
	OwnerBoth: {},
}

// CommentTargets lists the entity types a comment may be attached to.
var CommentTargets = map[EntityType]struct{}{
	EntityProject: {},
	EntityTask:    {},
	EntityTicket:  {},
}
