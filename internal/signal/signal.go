// Package signal counts pending tickets for notification badges.
package signal

import (
	"worktrack/internal/models"
)

// ScopeKind is the aggregation boundary of a pending count.
type ScopeKind string

const (
	ScopeGlobal  ScopeKind = "global"
	ScopeProject ScopeKind = "project"
	ScopeTask    ScopeKind = "task"
)

// Scope selects the tickets a count covers. ID is empty for ScopeGlobal.
type Scope struct {
	Kind ScopeKind `json:"kind"`
	ID   string    `json:"id,omitempty"`
}

func Global() Scope              { return Scope{Kind: ScopeGlobal} }
func ForProject(id string) Scope { return Scope{Kind: ScopeProject, ID: id} }
func ForTask(id string) Scope    { return Scope{Kind: ScopeTask, ID: id} }

// Validate rejects unknown kinds and scoped kinds without an id.
func (s Scope) Validate() error {
	switch s.Kind {
	case ScopeGlobal:
		return nil
	case ScopeProject, ScopeTask:
		if s.ID == "" {
			return models.Errorf(models.ErrInvalidField, "", "scope", "%s scope requires an id", s.Kind)
		}
		return nil
	default:
		return models.Errorf(models.ErrInvalidField, "", "scope", "unknown scope %q", s.Kind)
	}
}

// PendingCount returns how many pending tickets fall within scope.
// taskProject maps task ids to their project so that a project scope also
// covers tickets filed against the project's tasks.
func PendingCount(tickets []models.Ticket, taskProject map[string]string, scope Scope) (int, error) {
	if err := scope.Validate(); err != nil {
		return 0, err
	}
	count := 0
	for i := range tickets {
		t := &tickets[i]
		if t.Status != models.TicketPending {
			continue
		}
		if inScope(t, taskProject, scope) {
			count++
		}
	}
	return count, nil
}

func inScope(t *models.Ticket, taskProject map[string]string, scope Scope) bool {
	switch scope.Kind {
	case ScopeGlobal:
		return true
	case ScopeProject:
		return projectOf(t, taskProject) == scope.ID
	case ScopeTask:
		return t.TaskID == scope.ID
	}
	return false
}

func projectOf(t *models.Ticket, taskProject map[string]string) string {
	if t.ProjectID != "" {
		return t.ProjectID
	}
	if t.TaskID != "" {
		return taskProject[t.TaskID]
	}
	return ""
}

// Summary is every pending count computed from one snapshot.
type Summary struct {
	Global    int            `json:"global"`
	ByProject map[string]int `json:"by_project"`
	ByTask    map[string]int `json:"by_task"`
}

// Summarize counts pending tickets globally, per project and per task.
// Scopes with no pending tickets are omitted from the maps.
func Summarize(tickets []models.Ticket, taskProject map[string]string) Summary {
	s := Summary{ByProject: map[string]int{}, ByTask: map[string]int{}}
	for i := range tickets {
		t := &tickets[i]
		if t.Status != models.TicketPending {
			continue
		}
		s.Global++
		if p := projectOf(t, taskProject); p != "" {
			s.ByProject[p]++
		}
		if t.TaskID != "" {
			s.ByTask[t.TaskID]++
		}
	}
	return s
}
