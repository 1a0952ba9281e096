// Package backend provides the HTTP API and service layer that serves task
// pages and accepts status and comment mutations.
package backend

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fentz26/taskboard/internal/audit"
	"github.com/fentz26/taskboard/internal/models"
	"github.com/fentz26/taskboard/internal/store"
)

// DefaultPageSize is used when a page request does not carry a size.
const DefaultPageSize = 10

// MaxPageSize caps the page size a client may request.
const MaxPageSize = 100

// Service provides the backend business logic.
type Service struct {
	store *store.Store
	trail *audit.Trail
}

// NewService creates a new backend service.
func NewService(s *store.Store, trail *audit.Trail) *Service {
	return &Service{
		store: s,
		trail: trail,
	}
}

// CreateTask creates a new task.
func (s *Service) CreateTask(req models.CreateTaskRequest) (*models.Task, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, ErrNameRequired
	}
	if req.Status != "" && !req.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, req.Status)
	}
	if req.Priority != "" && !req.Priority.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPriority, req.Priority)
	}

	task, err := s.store.CreateTask(req)
	if err != nil {
		return nil, err
	}

	s.trail.Created(task)
	return task, nil
}

// GetTask retrieves a task by ID.
func (s *Service) GetTask(id int64) (*models.Task, error) {
	task, err := s.store.GetTask(id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

// ListTasks returns one page of tasks in a status.
func (s *Service) ListTasks(status models.TaskStatus, offset, pageSize int) (*models.TaskPage, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if offset < 0 {
		offset = 0
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	tasks, total, err := s.store.ListTasksPage(status, offset, pageSize)
	if err != nil {
		return nil, err
	}
	return &models.TaskPage{
		Tasks: tasks,
		Pagination: models.Pagination{
			Total:    total,
			HasNext:  offset+pageSize < total,
			PageSize: pageSize,
			Offset:   offset,
		},
	}, nil
}

// CountTasks returns per-status counts. An empty request counts every status.
func (s *Service) CountTasks(statuses []models.TaskStatus) ([]models.StatusCount, error) {
	if len(statuses) == 0 {
		statuses = models.AllStatuses
	}
	for _, st := range statuses {
		if !st.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, st)
		}
	}
	return s.store.CountByStatus(statuses)
}

// UpdateStatus moves a task to a new status. A non-blank comment is required.
func (s *Service) UpdateStatus(id int64, status models.TaskStatus, comment string) (*models.Task, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	from := s.currentStatus(id)
	if strings.TrimSpace(comment) == "" {
		s.trail.StatusChanged(id, from, status, comment, audit.OutcomeRejected)
		return nil, ErrCommentRequired
	}

	task, err := s.store.UpdateTaskStatus(id, status, comment)
	if errors.Is(err, store.ErrTaskNotFound) {
		s.trail.StatusChanged(id, "", status, comment, audit.OutcomeNotFound)
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}

	s.trail.StatusChanged(id, from, task.Status, comment, audit.OutcomeSuccess)
	return task, nil
}

// UpdateComment replaces the comment of a task. A non-blank comment is required.
func (s *Service) UpdateComment(id int64, comment string) (*models.Task, error) {
	if strings.TrimSpace(comment) == "" {
		s.trail.CommentChanged(id, s.currentStatus(id), comment, audit.OutcomeRejected)
		return nil, ErrCommentRequired
	}

	task, err := s.store.UpdateTaskComment(id, comment)
	if errors.Is(err, store.ErrTaskNotFound) {
		s.trail.CommentChanged(id, "", comment, audit.OutcomeNotFound)
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}

	s.trail.CommentChanged(id, task.Status, comment, audit.OutcomeSuccess)
	return task, nil
}

// currentStatus returns the stored status of task id, or "" when it is
// unknown.
func (s *Service) currentStatus(id int64) models.TaskStatus {
	task, err := s.store.GetTask(id)
	if err != nil || task == nil {
		return ""
	}
	return task.Status
}
