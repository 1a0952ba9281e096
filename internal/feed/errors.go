package feed

import (
	"errors"
	"fmt"
)

// Error taxonomy of the feed. Concrete errors wrap one of these so callers can
// branch with errors.Is.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrTransport  = errors.New("transport error")
)

var (
	ErrCommentRequired = fmt.Errorf("%w: a comment is required to change status", ErrValidation)
	ErrUnknownColumn   = fmt.Errorf("%w: unknown column", ErrValidation)
	ErrInvalidStatus   = fmt.Errorf("%w: invalid status", ErrValidation)
)
