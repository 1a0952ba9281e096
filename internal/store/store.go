// Package store provides SQLite-backed persistence for the taskboard backend.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fentz26/taskboard/internal/models"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrTaskNotFound is returned by mutations that address an unknown task id.
var ErrTaskNotFound = errors.New("task not found")

// Store provides access to the taskboard SQLite database.
type Store struct {
	db *sql.DB
}

// New creates a new Store and runs migrations.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Open with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer at a time
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate runs idempotent schema migrations.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		labels TEXT NOT NULL DEFAULT '[]',
		status TEXT NOT NULL DEFAULT 'OPEN',
		priority TEXT NOT NULL DEFAULT 'MEDIUM',
		assignee TEXT NOT NULL DEFAULT '',
		due_date DATETIME NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		comment TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS pdr (
		id TEXT PRIMARY KEY,
		action TEXT NOT NULL,
		inputs_hash TEXT NOT NULL,
		outcome TEXT NOT NULL,
		task_id INTEGER,
		details TEXT,
		timestamp DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_status_created ON tasks(status, created_at, id);
	CREATE INDEX IF NOT EXISTS idx_pdr_task_id ON pdr(task_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// --- Task Operations ---

const taskColumns = `id, name, labels, status, priority, assignee, due_date, created_at, updated_at, comment`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	var task models.Task
	var labels string
	if err := row.Scan(&task.ID, &task.Name, &labels, &task.Status, &task.Priority, &task.Assignee,
		&task.DueDate, &task.CreatedAt, &task.UpdatedAt, &task.Comment); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(labels), &task.Labels); err != nil {
		return nil, fmt.Errorf("decode labels of task %d: %w", task.ID, err)
	}
	if task.Labels == nil {
		task.Labels = []string{}
	}
	return &task, nil
}

// CreateTask inserts a new task. Zero status and priority default to OPEN and MEDIUM.
func (s *Store) CreateTask(req models.CreateTaskRequest) (*models.Task, error) {
	now := time.Now().UTC()
	return s.insertTask(req, now)
}

func (s *Store) insertTask(req models.CreateTaskRequest, createdAt time.Time) (*models.Task, error) {
	task := &models.Task{
		Name:      req.Name,
		Labels:    req.Labels,
		Status:    req.Status,
		Priority:  req.Priority,
		Assignee:  req.Assignee,
		DueDate:   req.DueDate.UTC(),
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if task.Labels == nil {
		task.Labels = []string{}
	}
	if task.Status == "" {
		task.Status = models.TaskStatusOpen
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	labels, err := json.Marshal(task.Labels)
	if err != nil {
		return nil, fmt.Errorf("encode labels: %w", err)
	}

	result, err := s.db.Exec(
		`INSERT INTO tasks (name, labels, status, priority, assignee, due_date, created_at, updated_at, comment) VALUES (?, ?, ?, ?, ?, ?, ?, ?, '')`,
		task.Name, string(labels), task.Status, task.Priority, task.Assignee, task.DueDate, task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	task.ID, err = result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("read task id: %w", err)
	}
	return task, nil
}

// GetTask retrieves a task by ID. It returns nil, nil when the task does not exist.
func (s *Store) GetTask(id int64) (*models.Task, error) {
	task, err := scanTask(s.db.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query task: %w", err)
	}
	return task, nil
}

// ListTasksPage returns one page of tasks in the given status, oldest first,
// together with the total number of tasks in that status.
func (s *Store) ListTasksPage(status models.TaskStatus, offset, limit int) ([]models.Task, int, error) {
	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM tasks WHERE status = ?`, status).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}

	rows, err := s.db.Query(
		`SELECT `+taskColumns+` FROM tasks WHERE status = ? ORDER BY created_at ASC, id ASC LIMIT ? OFFSET ?`,
		status, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *task)
	}
	return tasks, total, rows.Err()
}

// CountByStatus returns one count per requested status, in request order.
// Statuses without tasks are reported with a zero count.
func (s *Store) CountByStatus(statuses []models.TaskStatus) ([]models.StatusCount, error) {
	if len(statuses) == 0 {
		return []models.StatusCount{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(statuses)), ",")
	args := make([]interface{}, len(statuses))
	for i, st := range statuses {
		args[i] = st
	}

	rows, err := s.db.Query(
		`SELECT status, COUNT(*) FROM tasks WHERE status IN (`+placeholders+`) GROUP BY status`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("count tasks by status: %w", err)
	}
	defer rows.Close()

	found := make(map[models.TaskStatus]int, len(statuses))
	for rows.Next() {
		var st models.TaskStatus
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		found[st] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	counts := make([]models.StatusCount, len(statuses))
	for i, st := range statuses {
		counts[i] = models.StatusCount{Status: st, Count: found[st]}
	}
	return counts, nil
}

// UpdateTaskStatus sets status and comment in one statement and returns the
// updated task.
func (s *Store) UpdateTaskStatus(id int64, status models.TaskStatus, comment string) (*models.Task, error) {
	return s.updateTask(id,
		`UPDATE tasks SET status = ?, comment = ?, updated_at = ? WHERE id = ?`,
		status, comment, time.Now().UTC(), id,
	)
}

// UpdateTaskComment sets the comment of a task and returns the updated task.
func (s *Store) UpdateTaskComment(id int64, comment string) (*models.Task, error) {
	return s.updateTask(id,
		`UPDATE tasks SET comment = ?, updated_at = ? WHERE id = ?`,
		comment, time.Now().UTC(), id,
	)
}

func (s *Store) updateTask(id int64, query string, args ...interface{}) (*models.Task, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(query, args...)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrTaskNotFound
	}

	task, err := scanTask(tx.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("reload task: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return task, nil
}

// --- PDR Operations ---

// WritePDR writes a Process Decision Record.
func (s *Store) WritePDR(action, inputsHash, outcome string, taskID int64, details string) (*models.PDREntry, error) {
	now := time.Now().UTC()
	pdr := &models.PDREntry{
		ID:         uuid.New().String(),
		Action:     action,
		InputsHash: inputsHash,
		Outcome:    outcome,
		TaskID:     taskID,
		Details:    details,
		Timestamp:  now,
	}

	_, err := s.db.Exec(
		`INSERT INTO pdr (id, action, inputs_hash, outcome, task_id, details, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		pdr.ID, pdr.Action, pdr.InputsHash, pdr.Outcome, pdr.TaskID, pdr.Details, pdr.Timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert pdr: %w", err)
	}
	return pdr, nil
}

// ListPDR returns the audit records of a task, newest first.
func (s *Store) ListPDR(taskID int64) ([]models.PDREntry, error) {
	rows, err := s.db.Query(
		`SELECT id, action, inputs_hash, outcome, task_id, details, timestamp FROM pdr WHERE task_id = ? ORDER BY timestamp DESC`,
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("query pdr: %w", err)
	}
	defer rows.Close()

	var entries []models.PDREntry
	for rows.Next() {
		var e models.PDREntry
		var details sql.NullString
		if err := rows.Scan(&e.ID, &e.Action, &e.InputsHash, &e.Outcome, &e.TaskID, &details, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan pdr: %w", err)
		}
		if details.Valid {
			e.Details = details.String
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
