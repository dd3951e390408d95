package db

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"tasksmith/internal/config"
	"tasksmith/internal/core/domain"
	"tasksmith/internal/core/ports"
)

const (
	insertTaskQuery = `
INSERT INTO tasks (id, title, body, parent_id, status, priority, due_date, estimated_time, created_at, updated_at)
VALUES (:id, :title, :body, :parent_id, :status, :priority, :due_date, :estimated_time, :created_at, :updated_at);
`
	selectTaskQuery = `
SELECT id, title, body, parent_id, status, priority, due_date, estimated_time, created_at, updated_at
FROM tasks
WHERE id = ?;
`
	listTasksQuery = `
SELECT id, title, body, parent_id, status, priority, due_date, estimated_time, created_at, updated_at
FROM tasks
ORDER BY created_at, id;
`
	deleteTaskQuery = `DELETE FROM tasks WHERE id = ?;`

	defaultTimeout = 5 * time.Second
)

// Columns an update may touch, keyed by document field.
var updatableColumns = map[string]string{
	domain.FieldTitle:         "title",
	domain.FieldBody:          "body",
	domain.FieldParentID:      "parent_id",
	domain.FieldStatus:        "status",
	domain.FieldPriority:      "priority",
	domain.FieldDueDate:       "due_date",
	domain.FieldEstimatedTime: "estimated_time",
	domain.FieldUpdatedAt:     "updated_at",
}

type taskRow struct {
	ID            string         `db:"id"`
	Title         string         `db:"title"`
	Body          string         `db:"body"`
	ParentID      sql.NullString `db:"parent_id"`
	Status        string         `db:"status"`
	Priority      string         `db:"priority"`
	DueDate       sql.NullTime   `db:"due_date"`
	EstimatedTime int            `db:"estimated_time"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

// TaskStore keeps tasks in the MySQL tasks table.
type TaskStore struct {
	conf    *config.Config
	timeout time.Duration

	mu    sync.RWMutex
	db    *sqlx.DB
	owned bool
}

var _ ports.TaskStore = (*TaskStore)(nil)

func NewTaskStore(conf *config.Config) *TaskStore {
	timeout := conf.StoreTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &TaskStore{conf: conf, timeout: timeout}
}

// NewTaskStoreWithDB uses an existing pool. Close leaves it open.
func NewTaskStoreWithDB(db *sqlx.DB, timeout time.Duration) *TaskStore {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &TaskStore{db: db, timeout: timeout}
}

func (s *TaskStore) Connect(ctx context.Context) error {
	const op = "mysql.Connect"

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	db, err := ConnectDB(ctx, s.conf)
	if err != nil {
		return domain.NewError(domain.KindConnection, op, err)
	}

	s.mu.Lock()
	s.db = db
	s.owned = true
	s.mu.Unlock()

	zap.L().Info("connected to mysql", zap.String("host", s.conf.DbHost), zap.String("database", s.conf.DbName))
	return nil
}

func (s *TaskStore) Close(_ context.Context) error {
	s.mu.Lock()
	db, owned := s.db, s.owned
	s.db = nil
	s.owned = false
	s.mu.Unlock()

	if db == nil || !owned {
		return nil
	}
	return db.Close()
}

func (s *TaskStore) Ping(ctx context.Context) error {
	db, err := s.handle("mysql.Ping")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return db.PingContext(ctx)
}

func (s *TaskStore) AddTask(ctx context.Context, task domain.Task) (bool, error) {
	const op = "mysql.AddTask"

	db, err := s.handle(op)
	if err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := db.NamedExecContext(ctx, insertTaskQuery, rowFromTask(task)); err != nil {
		if isServerRejection(err) {
			zap.L().Warn("insert rejected", zap.String("task_id", task.ID()), zap.Error(err))
			return false, nil
		}
		return false, domain.NewError(domain.KindConnection, op, err)
	}
	return true, nil
}

func (s *TaskStore) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	const op = "mysql.GetTask"

	db, err := s.handle(op)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var row taskRow
	if err := db.GetContext(ctx, &row, selectTaskQuery, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			zap.L().Warn("task not found", zap.String("task_id", id))
			return nil, nil
		}
		return nil, domain.NewError(domain.KindConnection, op, err)
	}

	task, err := domain.FromDocument(row.document())
	if err != nil {
		zap.L().Error("failed to reconstruct task", zap.String("task_id", id), zap.Error(err))
		return nil, err
	}
	return &task, nil
}

func (s *TaskStore) ListTasks(ctx context.Context) ([]domain.Task, error) {
	const op = "mysql.ListTasks"

	db, err := s.handle(op)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var rows []taskRow
	if err := db.SelectContext(ctx, &rows, listTasksQuery); err != nil {
		return nil, domain.NewError(domain.KindConnection, op, err)
	}

	tasks := make([]domain.Task, 0, len(rows))
	for _, row := range rows {
		task, err := domain.FromDocument(row.document())
		if err != nil {
			zap.L().Warn("skipping invalid task row", zap.String("task_id", row.ID), zap.Error(err))
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (s *TaskStore) UpdateTask(ctx context.Context, id string, updates domain.UpdatePayload) (bool, error) {
	const op = "mysql.UpdateTask"

	prepared, err := domain.PrepareUpdates(updates)
	if err != nil {
		return false, err
	}
	if len(prepared) == 0 {
		return false, nil
	}

	db, err := s.handle(op)
	if err != nil {
		return false, err
	}

	query, args := buildUpdate(id, prepared)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		if isServerRejection(err) {
			zap.L().Warn("update rejected", zap.String("task_id", id), zap.Error(err))
			return false, nil
		}
		return false, domain.NewError(domain.KindConnection, op, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, domain.NewError(domain.KindConnection, op, err)
	}
	return affected == 1, nil
}

func (s *TaskStore) DeleteTask(ctx context.Context, id string) (bool, error) {
	const op = "mysql.DeleteTask"

	db, err := s.handle(op)
	if err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := db.ExecContext(ctx, deleteTaskQuery, id)
	if err != nil {
		return false, domain.NewError(domain.KindConnection, op, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, domain.NewError(domain.KindConnection, op, err)
	}
	return affected == 1, nil
}

func (s *TaskStore) handle(op string) (*sqlx.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, domain.NewError(domain.KindConnection, op, domain.ErrNotConnected)
	}
	return s.db, nil
}

// buildUpdate renders the SET clause in field order so the statement is stable.
func buildUpdate(id string, prepared domain.Document) (string, []any) {
	fields := make([]string, 0, len(prepared))
	for field := range prepared {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	assignments := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+1)
	for _, field := range fields {
		assignments = append(assignments, updatableColumns[field]+" = ?")
		args = append(args, prepared[field])
	}
	args = append(args, id)

	query := "UPDATE tasks SET " + strings.Join(assignments, ", ") + " WHERE id = ?"
	if updatedAt, ok := domain.UpdatedAtOf(prepared); ok {
		query += " AND created_at <= ?"
		args = append(args, updatedAt)
	}
	return query, args
}

func rowFromTask(task domain.Task) taskRow {
	row := taskRow{
		ID:            task.ID(),
		Title:         task.Title,
		Body:          task.Body,
		Status:        task.Status.String(),
		Priority:      task.Priority.String(),
		EstimatedTime: task.EstimatedTime,
		CreatedAt:     task.CreatedAt(),
		UpdatedAt:     task.UpdatedAt(),
	}
	if task.ParentID != nil {
		row.ParentID = sql.NullString{String: *task.ParentID, Valid: true}
	}
	if task.DueDate != nil {
		row.DueDate = sql.NullTime{Time: *task.DueDate, Valid: true}
	}
	return row
}

func (r taskRow) document() domain.Document {
	doc := domain.Document{
		domain.FieldID:            r.ID,
		domain.FieldTitle:         r.Title,
		domain.FieldBody:          r.Body,
		domain.FieldStatus:        r.Status,
		domain.FieldPriority:      r.Priority,
		domain.FieldEstimatedTime: r.EstimatedTime,
		domain.FieldCreatedAt:     r.CreatedAt,
		domain.FieldUpdatedAt:     r.UpdatedAt,
	}
	if r.ParentID.Valid {
		doc[domain.FieldParentID] = r.ParentID.String
	}
	if r.DueDate.Valid {
		doc[domain.FieldDueDate] = r.DueDate.Time
	}
	return doc
}

func isServerRejection(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr)
}
