package feed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fentz26/taskboard/internal/models"
)

// MutationKind tells which backend mutation a request maps to.
type MutationKind int

const (
	MutationStatus MutationKind = iota
	MutationComment
)

// MutationRequest is a validated mutation ready to be sent.
type MutationRequest struct {
	Kind    MutationKind
	ID      int64
	Status  models.TaskStatus
	Comment string
}

// MutationResult is the backend acknowledgement of a MutationRequest.
type MutationResult struct {
	Request MutationRequest
	Task    *models.Task
	Err     error
}

// Bridge sends status and comment mutations and patches the Store only after
// the backend acknowledged them. A failed mutation leaves the Store as it was.
type Bridge struct {
	store   *Store
	backend Backend
	now     func() time.Time
}

// NewBridge creates a bridge over s and b.
func NewBridge(s *Store, b Backend) *Bridge {
	return &Bridge{store: s, backend: b, now: time.Now}
}

// Submit validates an edit of record id and returns the request to send.
//
// A status change needs a non-blank comment. With the status unchanged, a
// comment becomes a comment-only mutation and no comment means there is
// nothing to send: ok is false and err is nil.
func (b *Bridge) Submit(id int64, pending models.TaskStatus, comment string) (req MutationRequest, ok bool, err error) {
	s := b.store
	task, found := s.Task(id)
	if !found {
		err = fmt.Errorf("%w: task %d", ErrNotFound, id)
		s.setPhase(&s.mutation, PhaseError, err)
		return MutationRequest{}, false, err
	}
	if pending == "" {
		pending = task.Status
	}
	if !pending.Valid() {
		err = fmt.Errorf("%w %q", ErrInvalidStatus, pending)
		s.setPhase(&s.mutation, PhaseError, err)
		return MutationRequest{}, false, err
	}

	blank := strings.TrimSpace(comment) == ""
	switch {
	case pending != task.Status && blank:
		s.setPhase(&s.mutation, PhaseError, ErrCommentRequired)
		return MutationRequest{}, false, ErrCommentRequired
	case pending != task.Status:
		req = MutationRequest{Kind: MutationStatus, ID: id, Status: pending, Comment: comment}
	case !blank:
		req = MutationRequest{Kind: MutationComment, ID: id, Status: task.Status, Comment: comment}
	default:
		return MutationRequest{}, false, nil
	}

	s.setPhase(&s.mutation, PhaseLoading, nil)
	return req, true, nil
}

// Send performs req against the backend.
func (b *Bridge) Send(ctx context.Context, req MutationRequest) MutationResult {
	var task *models.Task
	var err error
	switch req.Kind {
	case MutationStatus:
		task, err = b.backend.UpdateStatus(ctx, req.ID, req.Status, req.Comment)
	case MutationComment:
		task, err = b.backend.UpdateComment(ctx, req.ID, req.Comment)
	}
	return MutationResult{Request: req, Task: task, Err: err}
}

// Apply patches the Store with an acknowledged mutation. It reports whether
// per-status counts changed and should be refreshed.
func (b *Bridge) Apply(res MutationResult) (refreshCounts bool) {
	s := b.store
	if res.Err != nil {
		s.setPhase(&s.mutation, PhaseError, res.Err)
		return false
	}

	status, comment, updatedAt := res.Request.Status, res.Request.Comment, b.now().UTC()
	if res.Task != nil {
		status, comment = res.Task.Status, res.Task.Comment
		if !res.Task.UpdatedAt.IsZero() {
			updatedAt = res.Task.UpdatedAt
		}
	}
	s.patchTask(res.Request.ID, status, comment, updatedAt)
	s.setPhase(&s.mutation, PhaseSuccess, nil)
	return res.Request.Kind == MutationStatus
}
