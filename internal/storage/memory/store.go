// Package memory is an in-process storage backend. Committed state is
// immutable: a transaction copies the record maps on its first write and
// publishes the copy on commit, so readers always see a whole snapshot.
package memory

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"worktrack/internal/models"
	"worktrack/internal/storage"
)

var errReadOnly = errors.New("memory: write in read-only view")

type state struct {
	projects map[string]models.Project
	tasks    map[string]models.Task
	tickets  map[string]models.Ticket
	comments map[string]models.Comment
}

func newState() *state {
	return &state{
		projects: map[string]models.Project{},
		tasks:    map[string]models.Task{},
		tickets:  map[string]models.Ticket{},
		comments: map[string]models.Comment{},
	}
}

func (s *state) clone() *state {
	next := &state{
		projects: make(map[string]models.Project, len(s.projects)),
		tasks:    make(map[string]models.Task, len(s.tasks)),
		tickets:  make(map[string]models.Ticket, len(s.tickets)),
		comments: make(map[string]models.Comment, len(s.comments)),
	}
	for k, v := range s.projects {
		next.projects[k] = v
	}
	for k, v := range s.tasks {
		next.tasks[k] = v
	}
	for k, v := range s.tickets {
		next.tickets[k] = v
	}
	for k, v := range s.comments {
		next.comments[k] = v
	}
	return next
}

// Store keeps all records in memory. Writers are serialized by a mutex;
// readers never block.
type Store struct {
	mu     sync.RWMutex
	state  *state
	logger *slog.Logger
}

// New returns an empty store.
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{state: newState(), logger: logger}
}

// Atomic implements storage.Backend.
func (s *Store) Atomic(ctx context.Context, fn func(tx storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &tx{base: s.state}
	if err := fn(t); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.next != nil {
		s.state = t.next
		s.logger.Debug("memory transaction committed",
			slog.Int("projects", len(t.next.projects)),
			slog.Int("tasks", len(t.next.tasks)),
		)
	}
	return nil
}

// View implements storage.Backend.
func (s *Store) View(ctx context.Context, fn func(tx storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	snapshot := s.state
	s.mu.RUnlock()
	return fn(&tx{base: snapshot, readOnly: true})
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

type tx struct {
	base     *state
	next     *state
	readOnly bool
}

func (t *tx) current() *state {
	if t.next != nil {
		return t.next
	}
	return t.base
}

func (t *tx) writable() (*state, error) {
	if t.readOnly {
		return nil, errReadOnly
	}
	if t.next == nil {
		t.next = t.base.clone()
	}
	return t.next, nil
}

func (t *tx) GetProject(_ context.Context, id string) (models.Project, error) {
	p, ok := t.current().projects[id]
	if !ok {
		return models.Project{}, models.NotFound(models.EntityProject, id)
	}
	return cloneProject(p), nil
}

func (t *tx) ListProjects(_ context.Context) ([]models.Project, error) {
	var out []models.Project
	for _, p := range t.current().projects {
		out = append(out, cloneProject(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (t *tx) PutProject(_ context.Context, p models.Project) error {
	st, err := t.writable()
	if err != nil {
		return err
	}
	st.projects[p.ID] = cloneProject(p)
	return nil
}

func (t *tx) DeleteProject(_ context.Context, id string) error {
	st, err := t.writable()
	if err != nil {
		return err
	}
	if _, ok := st.projects[id]; !ok {
		return models.NotFound(models.EntityProject, id)
	}
	delete(st.projects, id)
	return nil
}

func (t *tx) GetTask(_ context.Context, id string) (models.Task, error) {
	task, ok := t.current().tasks[id]
	if !ok {
		return models.Task{}, models.NotFound(models.EntityTask, id)
	}
	return cloneTask(task), nil
}

func (t *tx) ListTasks(_ context.Context, f storage.TaskFilter) ([]models.Task, error) {
	var out []models.Task
	for _, task := range t.current().tasks {
		if f.Match(task) {
			out = append(out, cloneTask(task))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (t *tx) PutTask(_ context.Context, task models.Task) error {
	st, err := t.writable()
	if err != nil {
		return err
	}
	st.tasks[task.ID] = cloneTask(task)
	return nil
}

func (t *tx) DeleteTask(_ context.Context, id string) error {
	st, err := t.writable()
	if err != nil {
		return err
	}
	if _, ok := st.tasks[id]; !ok {
		return models.NotFound(models.EntityTask, id)
	}
	delete(st.tasks, id)
	return nil
}

func (t *tx) GetTicket(_ context.Context, id string) (models.Ticket, error) {
	ticket, ok := t.current().tickets[id]
	if !ok {
		return models.Ticket{}, models.NotFound(models.EntityTicket, id)
	}
	return cloneTicket(ticket), nil
}

func (t *tx) ListTickets(_ context.Context, f storage.TicketFilter) ([]models.Ticket, error) {
	var out []models.Ticket
	for _, ticket := range t.current().tickets {
		if f.Match(ticket) {
			out = append(out, cloneTicket(ticket))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (t *tx) PutTicket(_ context.Context, ticket models.Ticket) error {
	st, err := t.writable()
	if err != nil {
		return err
	}
	st.tickets[ticket.ID] = cloneTicket(ticket)
	return nil
}

func (t *tx) DeleteTicket(_ context.Context, id string) error {
	st, err := t.writable()
	if err != nil {
		return err
	}
	if _, ok := st.tickets[id]; !ok {
		return models.NotFound(models.EntityTicket, id)
	}
	delete(st.tickets, id)
	return nil
}

func (t *tx) GetComment(_ context.Context, id string) (models.Comment, error) {
	c, ok := t.current().comments[id]
	if !ok {
		return models.Comment{}, models.NotFound(models.EntityComment, id)
	}
	return cloneComment(c), nil
}

func (t *tx) ListComments(_ context.Context, f storage.CommentFilter) ([]models.Comment, error) {
	var out []models.Comment
	for _, c := range t.current().comments {
		if f.Match(c) {
			out = append(out, cloneComment(c))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (t *tx) PutComment(_ context.Context, c models.Comment) error {
	st, err := t.writable()
	if err != nil {
		return err
	}
	st.comments[c.ID] = cloneComment(c)
	return nil
}

func (t *tx) DeleteComment(_ context.Context, id string) error {
	st, err := t.writable()
	if err != nil {
		return err
	}
	if _, ok := st.comments[id]; !ok {
		return models.NotFound(models.EntityComment, id)
	}
	delete(st.comments, id)
	return nil
}
