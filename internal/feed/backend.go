package feed

import (
	"context"

	"github.com/fentz26/taskboard/internal/models"
)

// Backend is the request/response contract the feed consumes. Implementations
// are called off the event loop and must return errors wrapping ErrNotFound,
// ErrValidation or ErrTransport.
type Backend interface {
	FetchPage(ctx context.Context, status models.TaskStatus, offset, pageSize int) (*models.TaskPage, error)
	FetchCounts(ctx context.Context, statuses []models.TaskStatus) ([]models.StatusCount, error)
	UpdateStatus(ctx context.Context, id int64, status models.TaskStatus, comment string) (*models.Task, error)
	UpdateComment(ctx context.Context, id int64, comment string) (*models.Task, error)
	FetchTaskDetail(ctx context.Context, id int64) (*models.Task, error)
}
