package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"worktrack/internal/models"
	"worktrack/internal/storage"
)

var errReadOnly = errors.New("sqlite: write in read-only view")

type tx struct {
	tx       *sql.Tx
	readOnly bool
}

func (t *tx) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if t.readOnly {
		return nil, errReadOnly
	}
	return t.tx.ExecContext(ctx, query, args...)
}

func (t *tx) deleteByID(ctx context.Context, table string, entity models.EntityType, id string) error {
	res, err := t.exec(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", entity, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.NotFound(entity, id)
	}
	return nil
}

const projectColumns = `id, name, description, status, priority, progress, due_date, owner, tags, color, created_at, updated_at`

func scanProject(row interface{ Scan(...any) error }) (models.Project, error) {
	var (
		p    models.Project
		due  sql.NullTime
		tags string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Status, &p.Priority, &p.Progress,
		&due, &p.Owner, &tags, &p.Color, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return models.Project{}, err
	}
	p.DueDate = fromNullTime(due)
	if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
		return models.Project{}, fmt.Errorf("decode tags: %w", err)
	}
	return p, nil
}

func (t *tx) GetProject(ctx context.Context, id string) (models.Project, error) {
	p, err := scanProject(t.tx.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Project{}, models.NotFound(models.EntityProject, id)
	}
	if err != nil {
		return models.Project{}, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

func (t *tx) ListProjects(ctx context.Context) ([]models.Project, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (t *tx) PutProject(ctx context.Context, p models.Project) error {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	encoded, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	_, err = t.exec(ctx, `INSERT INTO projects(`+projectColumns+`) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            name = excluded.name, description = excluded.description, status = excluded.status,
            priority = excluded.priority, progress = excluded.progress, due_date = excluded.due_date,
            owner = excluded.owner, tags = excluded.tags, color = excluded.color,
            created_at = excluded.created_at, updated_at = excluded.updated_at`,
		p.ID, p.Name, p.Description, p.Status, p.Priority, p.Progress, toNullTime(p.DueDate),
		p.Owner, string(encoded), p.Color, p.CreatedAt.UTC(), p.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("put project: %w", err)
	}
	return nil
}

func (t *tx) DeleteProject(ctx context.Context, id string) error {
	return t.deleteByID(ctx, "projects", models.EntityProject, id)
}

const taskColumns = `id, project_id, title, description, status, priority, assignee, due_date,
    estimated_hours, actual_hours, order_index, parent_task_id, created_at, updated_at, completed_at`

func scanTask(row interface{ Scan(...any) error }) (models.Task, error) {
	var (
		t                 models.Task
		assignee, parent  sql.NullString
		due, completed    sql.NullTime
		estimated, actual sql.NullFloat64
	)
	if err := row.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.Status, &t.Priority,
		&assignee, &due, &estimated, &actual, &t.Position, &parent,
		&t.CreatedAt, &t.UpdatedAt, &completed); err != nil {
		return models.Task{}, err
	}
	t.Assignee = assignee.String
	t.ParentTaskID = parent.String
	t.DueDate = fromNullTime(due)
	t.CompletedAt = fromNullTime(completed)
	t.EstimatedHours = fromNullFloat(estimated)
	t.ActualHours = fromNullFloat(actual)
	return t, nil
}

func (t *tx) GetTask(ctx context.Context, id string) (models.Task, error) {
	task, err := scanTask(t.tx.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, models.NotFound(models.EntityTask, id)
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

func (t *tx) ListTasks(ctx context.Context, f storage.TaskFilter) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE 1 = 1`
	var args []any
	if f.ProjectID != "" {
		query += ` AND project_id = ?`
		args = append(args, f.ProjectID)
	}
	if f.ParentTaskID != "" {
		query += ` AND parent_task_id = ?`
		args = append(args, f.ParentTaskID)
	}
	query += ` ORDER BY order_index, created_at, id`

	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (t *tx) PutTask(ctx context.Context, task models.Task) error {
	_, err := t.exec(ctx, `INSERT INTO tasks(`+taskColumns+`) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            project_id = excluded.project_id, title = excluded.title, description = excluded.description,
            status = excluded.status, priority = excluded.priority, assignee = excluded.assignee,
            due_date = excluded.due_date, estimated_hours = excluded.estimated_hours,
            actual_hours = excluded.actual_hours, order_index = excluded.order_index,
            parent_task_id = excluded.parent_task_id, created_at = excluded.created_at,
            updated_at = excluded.updated_at, completed_at = excluded.completed_at`,
		task.ID, task.ProjectID, task.Title, task.Description, task.Status, task.Priority,
		toNullString(task.Assignee), toNullTime(task.DueDate), toNullFloat(task.EstimatedHours),
		toNullFloat(task.ActualHours), task.Position, toNullString(task.ParentTaskID),
		task.CreatedAt.UTC(), task.UpdatedAt.UTC(), toNullTime(task.CompletedAt))
	if err != nil {
		return fmt.Errorf("put task: %w", err)
	}
	return nil
}

func (t *tx) DeleteTask(ctx context.Context, id string) error {
	return t.deleteByID(ctx, "tasks", models.EntityTask, id)
}

const ticketColumns = `id, project_id, task_id, title, description, type, status, priority,
    created_by, created_at, resolved_at, resolution_note`

func scanTicket(row interface{ Scan(...any) error }) (models.Ticket, error) {
	var (
		k                 models.Ticket
		projectID, taskID sql.NullString
		note              sql.NullString
		resolved          sql.NullTime
	)
	if err := row.Scan(&k.ID, &projectID, &taskID, &k.Title, &k.Description, &k.Type, &k.Status,
		&k.Priority, &k.CreatedBy, &k.CreatedAt, &resolved, &note); err != nil {
		return models.Ticket{}, err
	}
	k.ProjectID = projectID.String
	k.TaskID = taskID.String
	k.ResolutionNote = note.String
	k.ResolvedAt = fromNullTime(resolved)
	return k, nil
}

func (t *tx) GetTicket(ctx context.Context, id string) (models.Ticket, error) {
	k, err := scanTicket(t.tx.QueryRowContext(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Ticket{}, models.NotFound(models.EntityTicket, id)
	}
	if err != nil {
		return models.Ticket{}, fmt.Errorf("get ticket: %w", err)
	}
	return k, nil
}

func (t *tx) ListTickets(ctx context.Context, f storage.TicketFilter) ([]models.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE 1 = 1`
	var args []any
	if f.ProjectID != "" {
		query += ` AND project_id = ?`
		args = append(args, f.ProjectID)
	}
	if f.TaskID != "" {
		query += ` AND task_id = ?`
		args = append(args, f.TaskID)
	}
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, f.Status)
	}
	query += ` ORDER BY created_at DESC, id ASC`

	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	var tickets []models.Ticket
	for rows.Next() {
		k, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		tickets = append(tickets, k)
	}
	return tickets, rows.Err()
}

func (t *tx) PutTicket(ctx context.Context, k models.Ticket) error {
	_, err := t.exec(ctx, `INSERT INTO tickets(`+ticketColumns+`) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            project_id = excluded.project_id, task_id = excluded.task_id, title = excluded.title,
            description = excluded.description, type = excluded.type, status = excluded.status,
            priority = excluded.priority, created_by = excluded.created_by,
            created_at = excluded.created_at, resolved_at = excluded.resolved_at,
            resolution_note = excluded.resolution_note`,
		k.ID, toNullString(k.ProjectID), toNullString(k.TaskID), k.Title, k.Description, k.Type,
		k.Status, k.Priority, k.CreatedBy, k.CreatedAt.UTC(), toNullTime(k.ResolvedAt),
		toNullString(k.ResolutionNote))
	if err != nil {
		return fmt.Errorf("put ticket: %w", err)
	}
	return nil
}

func (t *tx) DeleteTicket(ctx context.Context, id string) error {
	return t.deleteByID(ctx, "tickets", models.EntityTicket, id)
}

const commentColumns = `id, entity_type, entity_id, author, content, parent_id, created_at, edited_at`

func scanComment(row interface{ Scan(...any) error }) (models.Comment, error) {
	var (
		c      models.Comment
		parent sql.NullString
		edited sql.NullTime
	)
	if err := row.Scan(&c.ID, &c.Target.Type, &c.Target.ID, &c.Author, &c.Content, &parent,
		&c.CreatedAt, &edited); err != nil {
		return models.Comment{}, err
	}
	c.ParentID = parent.String
	c.EditedAt = fromNullTime(edited)
	return c, nil
}

func (t *tx) GetComment(ctx context.Context, id string) (models.Comment, error) {
	c, err := scanComment(t.tx.QueryRowContext(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Comment{}, models.NotFound(models.EntityComment, id)
	}
	if err != nil {
		return models.Comment{}, fmt.Errorf("get comment: %w", err)
	}
	return c, nil
}

func (t *tx) ListComments(ctx context.Context, f storage.CommentFilter) ([]models.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE 1 = 1`
	var args []any
	if f.Target != nil {
		query += ` AND entity_type = ? AND entity_id = ?`
		args = append(args, f.Target.Type, f.Target.ID)
	}
	if f.ParentID != "" {
		query += ` AND parent_id = ?`
		args = append(args, f.ParentID)
	}
	query += ` ORDER BY created_at, id`

	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (t *tx) PutComment(ctx context.Context, c models.Comment) error {
	_, err := t.exec(ctx, `INSERT INTO comments(`+commentColumns+`) VALUES(?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            entity_type = excluded.entity_type, entity_id = excluded.entity_id,
            author = excluded.author, content = excluded.content, parent_id = excluded.parent_id,
            created_at = excluded.created_at, edited_at = excluded.edited_at`,
		c.ID, c.Target.Type, c.Target.ID, c.Author, c.Content, toNullString(c.ParentID),
		c.CreatedAt.UTC(), toNullTime(c.EditedAt))
	if err != nil {
		return fmt.Errorf("put comment: %w", err)
	}
	return nil
}

func (t *tx) DeleteComment(ctx context.Context, id string) error {
	return t.deleteByID(ctx, "comments", models.EntityComment, id)
}

func toNullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func toNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func fromNullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func toNullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func fromNullFloat(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}
