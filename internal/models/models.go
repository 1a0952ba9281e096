// Package models defines the core domain types for taskboard.
package models

import (
	"strings"
	"time"
)

// TaskStatus represents the current state of a task. It also serves as the
// partition key of the task feed.
type TaskStatus string

const (
	TaskStatusOpen       TaskStatus = "OPEN"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusClosed     TaskStatus = "CLOSED"
)

// AllStatuses lists every status in tab order.
var AllStatuses = []TaskStatus{TaskStatusOpen, TaskStatusInProgress, TaskStatusClosed}

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusOpen, TaskStatusInProgress, TaskStatusClosed:
		return true
	}
	return false
}

// Label returns the human readable form, e.g. "In Progress".
func (s TaskStatus) Label() string {
	return TitleCase(string(s))
}

// ParseStatus accepts any casing and "-" or "_" separators.
func ParseStatus(raw string) (TaskStatus, bool) {
	s := TaskStatus(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(raw), "-", "_")))
	return s, s.Valid()
}

// Priority is the urgency of a task.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Task is a single record of the task list.
type Task struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Labels    []string   `json:"labels"`
	Status    TaskStatus `json:"status"`
	Priority  Priority   `json:"priority"`
	Assignee  string     `json:"assignee"`
	DueDate   time.Time  `json:"due_date"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Comment   string     `json:"comment"`
}

// Clone returns a copy that shares no slices with t.
func (t Task) Clone() Task {
	if t.Labels != nil {
		t.Labels = append([]string(nil), t.Labels...)
	}
	return t
}

// Pagination describes where a page sits in the full result set.
type Pagination struct {
	Total    int  `json:"total"`
	HasNext  bool `json:"has_next"`
	PageSize int  `json:"page_size"`
	Offset   int  `json:"offset"`
}

// TaskPage is the response body of a page fetch.
type TaskPage struct {
	Tasks      []Task     `json:"tasks"`
	Pagination Pagination `json:"pagination"`
}

// StatusCount is the number of tasks in one status.
type StatusCount struct {
	Status TaskStatus `json:"status"`
	Count  int        `json:"count"`
}

// CountsResponse is the response body of a counts fetch.
type CountsResponse struct {
	Counts []StatusCount `json:"counts"`
}

// TaskResponse wraps a single task for detail and mutation endpoints.
type TaskResponse struct {
	Success bool   `json:"success"`
	Task    *Task  `json:"task,omitempty"`
	Message string `json:"message,omitempty"`
}

// UpdateStatusRequest is the body of a status mutation.
type UpdateStatusRequest struct {
	NewStatus TaskStatus `json:"new_status"`
	Comment   string     `json:"comment"`
}

// UpdateCommentRequest is the body of a comment-only mutation.
type UpdateCommentRequest struct {
	Comment string `json:"comment"`
}

// CreateTaskRequest is the body of a task creation.
type CreateTaskRequest struct {
	Name     string     `json:"name"`
	Labels   []string   `json:"labels"`
	Status   TaskStatus `json:"status,omitempty"`
	Priority Priority   `json:"priority,omitempty"`
	Assignee string     `json:"assignee"`
	DueDate  time.Time  `json:"due_date"`
}

// PDREntry represents a Process Decision Record for audit.
type PDREntry struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	InputsHash string    `json:"inputs_hash"`
	Outcome    string    `json:"outcome"`
	TaskID     int64     `json:"task_id,omitempty"`
	Details    string    `json:"details,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// TitleCase turns "IN_PROGRESS" into "In Progress".
func TitleCase(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
