package feed

import (
	"context"
	"log"

	"github.com/fentz26/taskboard/internal/models"
)

// PageRequest is one page fetch, tagged with the partition and generation it
// was issued for.
type PageRequest struct {
	Partition  models.TaskStatus
	Generation uint64
	Offset     int
	PageSize   int
}

// PageResult is the outcome of a PageRequest.
type PageResult struct {
	Request PageRequest
	Page    *models.TaskPage
	Err     error
}

// CountsRequest asks for per-status record counts.
type CountsRequest struct {
	Statuses []models.TaskStatus
	Seq      uint64
}

// CountsResult is the outcome of a CountsRequest.
type CountsResult struct {
	Request CountsRequest
	Counts  []models.StatusCount
	Err     error
}

// DetailRequest asks for a fresh copy of the record under detail view.
type DetailRequest struct {
	ID         int64
	Generation uint64
}

// DetailResult is the outcome of a DetailRequest.
type DetailResult struct {
	Request DetailRequest
	Task    *models.Task
	Err     error
}

// Orchestrator issues page, counts and detail fetches and applies their
// results to the Store.
//
// The methods that return requests and the Apply methods must run on the
// event loop. The Fetch methods only touch the Backend.
type Orchestrator struct {
	store     *Store
	backend   Backend
	countsSeq uint64
}

// NewOrchestrator creates an orchestrator over s and b.
func NewOrchestrator(s *Store, b Backend) *Orchestrator {
	return &Orchestrator{store: s, backend: b}
}

// LoadFirstPage switches to partition, discards the accumulation and returns
// the request for its first page. Results of earlier requests are dropped.
func (o *Orchestrator) LoadFirstPage(partition models.TaskStatus) PageRequest {
	o.store.reset(partition)
	return o.beginPage()
}

// LoadNextPage returns the request for the page at the cursor. It reports
// false when a page is already in flight or there are no more pages.
func (o *Orchestrator) LoadNextPage() (PageRequest, bool) {
	s := o.store
	if s.partition == "" || s.page.Loading() || !s.cursor.HasMore {
		return PageRequest{}, false
	}
	return o.beginPage(), true
}

// Retry re-issues the page at the cursor after a failure.
func (o *Orchestrator) Retry() (PageRequest, bool) {
	if o.store.page.Phase != PhaseError {
		return PageRequest{}, false
	}
	return o.beginPage(), true
}

func (o *Orchestrator) beginPage() PageRequest {
	s := o.store
	s.setPhase(&s.page, PhaseLoading, nil)
	return PageRequest{
		Partition:  s.partition,
		Generation: s.generation,
		Offset:     s.cursor.Offset,
		PageSize:   s.cursor.PageSize,
	}
}

// FetchPage performs req against the backend.
func (o *Orchestrator) FetchPage(ctx context.Context, req PageRequest) PageResult {
	page, err := o.backend.FetchPage(ctx, req.Partition, req.Offset, req.PageSize)
	return PageResult{Request: req, Page: page, Err: err}
}

// ApplyPage merges a page result into the Store. It reports false when the
// result belongs to an abandoned partition and was dropped.
func (o *Orchestrator) ApplyPage(res PageResult) bool {
	s := o.store
	if res.Request.Partition != s.partition || res.Request.Generation != s.generation {
		log.Printf("feed: dropped stale page %s@%d (generation %d, now %s/%d)",
			res.Request.Partition, res.Request.Offset, res.Request.Generation, s.partition, s.generation)
		return false
	}
	if res.Err != nil {
		s.setPhase(&s.page, PhaseError, res.Err)
		return true
	}

	var tasks []models.Task
	hasNext := false
	pageSize := res.Request.PageSize
	if res.Page != nil {
		tasks = res.Page.Tasks
		hasNext = res.Page.Pagination.HasNext
		// The backend may serve fewer rows per page than asked for.
		if n := res.Page.Pagination.PageSize; n > 0 && n < pageSize {
			pageSize = n
		}
	}
	s.mergePage(tasks, res.Request.Offset, pageSize, hasNext)
	return true
}

// RefreshCounts returns a request for the counts of statuses. Only the most
// recent counts request is applied.
func (o *Orchestrator) RefreshCounts(statuses []models.TaskStatus) CountsRequest {
	o.countsSeq++
	s := o.store
	s.setPhase(&s.counts, PhaseLoading, nil)
	return CountsRequest{
		Statuses: append([]models.TaskStatus(nil), statuses...),
		Seq:      o.countsSeq,
	}
}

// FetchCounts performs req against the backend.
func (o *Orchestrator) FetchCounts(ctx context.Context, req CountsRequest) CountsResult {
	counts, err := o.backend.FetchCounts(ctx, req.Statuses)
	return CountsResult{Request: req, Counts: counts, Err: err}
}

// ApplyCounts stores a counts result. Previous counts survive a failure.
func (o *Orchestrator) ApplyCounts(res CountsResult) bool {
	if res.Request.Seq != o.countsSeq {
		return false
	}
	s := o.store
	if res.Err != nil {
		s.setPhase(&s.counts, PhaseError, res.Err)
		return true
	}
	s.setCounts(res.Counts)
	return true
}

// LoadDetail returns a request for a fresh copy of the record under detail
// view. It reports false when id is not under detail view.
func (o *Orchestrator) LoadDetail(id int64) (DetailRequest, bool) {
	s := o.store
	if cur, ok := s.DetailID(); !ok || cur != id {
		return DetailRequest{}, false
	}
	s.setPhase(&s.detail, PhaseLoading, nil)
	return DetailRequest{ID: id, Generation: s.generation}, true
}

// FetchDetail performs req against the backend.
func (o *Orchestrator) FetchDetail(ctx context.Context, req DetailRequest) DetailResult {
	task, err := o.backend.FetchTaskDetail(ctx, req.ID)
	return DetailResult{Request: req, Task: task, Err: err}
}

// ApplyDetail overwrites the stored copy of the record with the fetched one.
// Results for a record no longer under detail view are dropped.
func (o *Orchestrator) ApplyDetail(res DetailResult) bool {
	s := o.store
	if cur, ok := s.DetailID(); !ok || cur != res.Request.ID || res.Request.Generation != s.generation {
		return false
	}
	if res.Err != nil {
		s.setPhase(&s.detail, PhaseError, res.Err)
		return true
	}
	if res.Task != nil {
		s.refreshTask(*res.Task)
	}
	s.setPhase(&s.detail, PhaseSuccess, nil)
	return true
}
