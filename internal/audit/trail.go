// Package audit keeps the trail of task mutations in the pdr table of the
// task store. Comments only enter a record through the inputs hash.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/fentz26/taskboard/internal/models"
	"github.com/fentz26/taskboard/internal/store"
)

// Audited actions.
const (
	ActionCreate  = "task.create"
	ActionStatus  = "task.status"
	ActionComment = "task.comment"
)

// Outcomes of an audited action.
const (
	OutcomeSuccess  = "success"
	OutcomeNotFound = "not_found"
	OutcomeRejected = "rejected"
)

// Change is the details payload of a record. From is empty for a new task
// and for a task that could not be found.
type Change struct {
	From          models.TaskStatus `json:"from,omitempty"`
	To            models.TaskStatus `json:"to,omitempty"`
	CommentLength int               `json:"comment_length"`
}

// Trail writes one record per mutation request the backend handles.
type Trail struct {
	store *store.Store
}

// NewTrail creates a trail over the task store.
func NewTrail(s *store.Store) *Trail {
	return &Trail{store: s}
}

// Created records a new task and the status it starts in.
func (tr *Trail) Created(t *models.Task) (*models.PDREntry, error) {
	inputs := map[string]string{"name": t.Name, "status": string(t.Status), "priority": string(t.Priority)}
	return tr.write(ActionCreate, inputs, OutcomeSuccess, t.ID, Change{To: t.Status})
}

// StatusChanged records a request to move task id from one status to another.
func (tr *Trail) StatusChanged(id int64, from, to models.TaskStatus, comment, outcome string) (*models.PDREntry, error) {
	inputs := map[string]interface{}{"id": id, "status": to, "comment": comment}
	return tr.write(ActionStatus, inputs, outcome, id, Change{From: from, To: to, CommentLength: len(comment)})
}

// CommentChanged records a request to replace the comment of task id.
func (tr *Trail) CommentChanged(id int64, status models.TaskStatus, comment, outcome string) (*models.PDREntry, error) {
	inputs := map[string]interface{}{"id": id, "comment": comment}
	return tr.write(ActionComment, inputs, outcome, id, Change{From: status, To: status, CommentLength: len(comment)})
}

func (tr *Trail) write(action string, inputs interface{}, outcome string, id int64, c Change) (*models.PDREntry, error) {
	details, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return tr.store.WritePDR(action, hashInputs(inputs), outcome, id, string(details))
}

// hashInputs creates a SHA256 hash of the inputs for reproducibility.
func hashInputs(inputs interface{}) string {
	data, err := json.Marshal(inputs)
	if err != nil {
		return "hash_error"
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
