// Package postgres is the storage backend for the hosted relational
// database. It runs every Atomic unit as a serializable transaction and
// locks the rows it reads, so concurrent writers to one record are
// serialized and workflow checks see the committed status.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"worktrack/internal/models"
	"worktrack/internal/storage"
)

var errReadOnly = errors.New("postgres: write in read-only view")

// Store wraps a gorm connection pool.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

// Open connects to dsn and migrates the schema.
func Open(dsn string, logger *slog.Logger) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("empty postgres dsn")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return New(db, logger)
}

// New wraps an existing gorm connection and migrates the schema.
func New(db *gorm.DB, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := db.AutoMigrate(&projectRow{}, &taskRow{}, &ticketRow{}, &commentRow{}); err != nil {
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}
	logger.Info("postgres store ready")
	return &Store{db: db, logger: logger}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Atomic implements storage.Backend. Serialization failures are returned
// to the caller unchanged; retrying is the caller's decision.
func (s *Store) Atomic(ctx context.Context, fn func(tx storage.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(gtx *gorm.DB) error {
		return fn(&tx{db: gtx, lock: true})
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
}

// View implements storage.Backend on a repeatable-read snapshot.
func (s *Store) View(ctx context.Context, fn func(tx storage.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(gtx *gorm.DB) error {
		return fn(&tx{db: gtx, readOnly: true})
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
}

type tx struct {
	db       *gorm.DB
	lock     bool
	readOnly bool
}

func (t *tx) query(ctx context.Context) *gorm.DB {
	q := t.db.WithContext(ctx)
	if t.lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}

func (t *tx) write(ctx context.Context) (*gorm.DB, error) {
	if t.readOnly {
		return nil, errReadOnly
	}
	return t.db.WithContext(ctx), nil
}

func (t *tx) upsert(ctx context.Context, entity models.EntityType, row any) error {
	db, err := t.write(ctx)
	if err != nil {
		return err
	}
	if err := db.Clauses(clause.OnConflict{UpdateAll: true}).Create(row).Error; err != nil {
		return fmt.Errorf("put %s: %w", entity, err)
	}
	return nil
}

func (t *tx) remove(ctx context.Context, entity models.EntityType, row any, id string) error {
	db, err := t.write(ctx)
	if err != nil {
		return err
	}
	if !validID(id) {
		return models.NotFound(entity, id)
	}
	res := db.Where("id = ?", id).Delete(row)
	if res.Error != nil {
		return fmt.Errorf("delete %s: %w", entity, res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NotFound(entity, id)
	}
	return nil
}

// validID guards uuid columns; a malformed id would abort the transaction
// instead of matching nothing.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (t *tx) take(ctx context.Context, entity models.EntityType, dest any, id string) error {
	if !validID(id) {
		return models.NotFound(entity, id)
	}
	err := t.query(ctx).Where("id = ?", id).Take(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NotFound(entity, id)
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", entity, err)
	}
	return nil
}

func (t *tx) GetProject(ctx context.Context, id string) (models.Project, error) {
	var row projectRow
	if err := t.take(ctx, models.EntityProject, &row, id); err != nil {
		return models.Project{}, err
	}
	return row.model(), nil
}

func (t *tx) ListProjects(ctx context.Context) ([]models.Project, error) {
	var rows []projectRow
	if err := t.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	out := make([]models.Project, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

func (t *tx) PutProject(ctx context.Context, p models.Project) error {
	row := projectToRow(p)
	return t.upsert(ctx, models.EntityProject, &row)
}

func (t *tx) DeleteProject(ctx context.Context, id string) error {
	return t.remove(ctx, models.EntityProject, &projectRow{}, id)
}

func (t *tx) GetTask(ctx context.Context, id string) (models.Task, error) {
	var row taskRow
	if err := t.take(ctx, models.EntityTask, &row, id); err != nil {
		return models.Task{}, err
	}
	return row.model(), nil
}

func (t *tx) ListTasks(ctx context.Context, f storage.TaskFilter) ([]models.Task, error) {
	q := t.db.WithContext(ctx)
	if f.ProjectID != "" {
		q = q.Where("project_id = ?", f.ProjectID)
	}
	if f.ParentTaskID != "" {
		q = q.Where("parent_task_id = ?", f.ParentTaskID)
	}
	var rows []taskRow
	if err := q.Order("order_index ASC, created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	out := make([]models.Task, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

func (t *tx) PutTask(ctx context.Context, task models.Task) error {
	row := taskToRow(task)
	return t.upsert(ctx, models.EntityTask, &row)
}

func (t *tx) DeleteTask(ctx context.Context, id string) error {
	return t.remove(ctx, models.EntityTask, &taskRow{}, id)
}

func (t *tx) GetTicket(ctx context.Context, id string) (models.Ticket, error) {
	var row ticketRow
	if err := t.take(ctx, models.EntityTicket, &row, id); err != nil {
		return models.Ticket{}, err
	}
	return row.model(), nil
}

func (t *tx) ListTickets(ctx context.Context, f storage.TicketFilter) ([]models.Ticket, error) {
	q := t.db.WithContext(ctx)
	if f.ProjectID != "" {
		q = q.Where("project_id = ?", f.ProjectID)
	}
	if f.TaskID != "" {
		q = q.Where("task_id = ?", f.TaskID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}
	var rows []ticketRow
	if err := q.Order("created_at DESC, id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	out := make([]models.Ticket, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

func (t *tx) PutTicket(ctx context.Context, k models.Ticket) error {
	row := ticketToRow(k)
	return t.upsert(ctx, models.EntityTicket, &row)
}

func (t *tx) DeleteTicket(ctx context.Context, id string) error {
	return t.remove(ctx, models.EntityTicket, &ticketRow{}, id)
}

func (t *tx) GetComment(ctx context.Context, id string) (models.Comment, error) {
	var row commentRow
	if err := t.take(ctx, models.EntityComment, &row, id); err != nil {
		return models.Comment{}, err
	}
	return row.model(), nil
}

func (t *tx) ListComments(ctx context.Context, f storage.CommentFilter) ([]models.Comment, error) {
	q := t.db.WithContext(ctx)
	if f.Target != nil {
		q = q.Where("entity_type = ? AND entity_id = ?", string(f.Target.Type), f.Target.ID)
	}
	if f.ParentID != "" {
		q = q.Where("parent_id = ?", f.ParentID)
	}
	var rows []commentRow
	if err := q.Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	out := make([]models.Comment, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

func (t *tx) PutComment(ctx context.Context, c models.Comment) error {
	row := commentToRow(c)
	return t.upsert(ctx, models.EntityComment, &row)
}

func (t *tx) DeleteComment(ctx context.Context, id string) error {
	return t.remove(ctx, models.EntityComment, &commentRow{}, id)
}
