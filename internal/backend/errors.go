package backend

import "errors"

// Sentinel errors for backend operations.
var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrCommentRequired = errors.New("comment is required")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrInvalidPriority = errors.New("invalid priority")
	ErrNameRequired    = errors.New("name is required")
)
