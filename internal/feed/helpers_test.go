package feed

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/fentz26/taskboard/internal/models"
)

var baseTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func newTask(id int64, status models.TaskStatus) models.Task {
	return models.Task{
		ID:        id,
		Name:      fmt.Sprintf("Task %d", id),
		Labels:    []string{},
		Status:    status,
		Priority:  models.PriorityMedium,
		DueDate:   baseTime.Add(time.Duration(24*id) * time.Hour),
		CreatedAt: baseTime.Add(time.Duration(id) * time.Hour),
		UpdatedAt: baseTime.Add(time.Duration(id) * time.Hour),
	}
}

func ids(tasks []models.Task) []int64 {
	out := make([]int64, len(tasks))
	for i := range tasks {
		out[i] = tasks[i].ID
	}
	return out
}

type pageKey struct {
	status models.TaskStatus
	offset int
}

// fakeBackend serves pages from canned responses or, failing that, from its
// task table. Mutations update the table the way the real backend does.
type fakeBackend struct {
	tasks        map[int64]models.Task
	pages        map[pageKey]*models.TaskPage
	pageErr      error
	countsErr    error
	mutationErr  error
	pageCalls    []pageKey
	mutateCalls  int
	detailCalls  int
	countsCalled int
}

func newFakeBackend(tasks ...models.Task) *fakeBackend {
	f := &fakeBackend{
		tasks: make(map[int64]models.Task),
		pages: make(map[pageKey]*models.TaskPage),
	}
	for _, t := range tasks {
		f.tasks[t.ID] = t
	}
	return f
}

func (f *fakeBackend) FetchPage(ctx context.Context, status models.TaskStatus, offset, pageSize int) (*models.TaskPage, error) {
	f.pageCalls = append(f.pageCalls, pageKey{status, offset})
	if f.pageErr != nil {
		return nil, f.pageErr
	}
	if p, ok := f.pages[pageKey{status, offset}]; ok {
		return p, nil
	}

	var in []models.Task
	for _, t := range f.tasks {
		if t.Status == status {
			in = append(in, t)
		}
	}
	sort.Slice(in, func(i, j int) bool { return in[i].ID < in[j].ID })

	end := offset + pageSize
	if end > len(in) {
		end = len(in)
	}
	var page []models.Task
	if offset < len(in) {
		page = in[offset:end]
	}
	return &models.TaskPage{
		Tasks: page,
		Pagination: models.Pagination{
			Total:    len(in),
			HasNext:  offset+pageSize < len(in),
			PageSize: pageSize,
			Offset:   offset,
		},
	}, nil
}

func (f *fakeBackend) FetchCounts(ctx context.Context, statuses []models.TaskStatus) ([]models.StatusCount, error) {
	f.countsCalled++
	if f.countsErr != nil {
		return nil, f.countsErr
	}
	out := make([]models.StatusCount, len(statuses))
	for i, st := range statuses {
		out[i].Status = st
		for _, t := range f.tasks {
			if t.Status == st {
				out[i].Count++
			}
		}
	}
	return out, nil
}

func (f *fakeBackend) UpdateStatus(ctx context.Context, id int64, status models.TaskStatus, comment string) (*models.Task, error) {
	return f.mutate(id, comment, func(t *models.Task) { t.Status = status })
}

func (f *fakeBackend) UpdateComment(ctx context.Context, id int64, comment string) (*models.Task, error) {
	return f.mutate(id, comment, func(t *models.Task) {})
}

func (f *fakeBackend) mutate(id int64, comment string, apply func(*models.Task)) (*models.Task, error) {
	f.mutateCalls++
	if f.mutationErr != nil {
		return nil, f.mutationErr
	}
	if strings.TrimSpace(comment) == "" {
		return nil, ErrCommentRequired
	}
	t, ok := f.tasks[id]
	if !ok {
		return nil, fmt.Errorf("%w: task %d", ErrNotFound, id)
	}
	apply(&t)
	t.Comment = comment
	t.UpdatedAt = baseTime.Add(1000 * time.Hour)
	f.tasks[id] = t
	return &t, nil
}

func (f *fakeBackend) FetchTaskDetail(ctx context.Context, id int64) (*models.Task, error) {
	f.detailCalls++
	t, ok := f.tasks[id]
	if !ok {
		return nil, fmt.Errorf("%w: task %d", ErrNotFound, id)
	}
	return &t, nil
}

// harness wires a Store and all feed components to a fake backend and runs
// requests to completion in call order.
type harness struct {
	t       *testing.T
	store   *Store
	backend *fakeBackend
	orch    *Orchestrator
	bridge  *Bridge
	nav     *Navigator
}

func newHarness(t *testing.T, pageSize int, tasks ...models.Task) *harness {
	t.Helper()
	s := NewStore(pageSize)
	b := newFakeBackend(tasks...)
	return &harness{
		t:       t,
		store:   s,
		backend: b,
		orch:    NewOrchestrator(s, b),
		bridge:  NewBridge(s, b),
		nav:     NewNavigator(s),
	}
}

func (h *harness) loadFirst(partition models.TaskStatus) {
	h.t.Helper()
	req := h.orch.LoadFirstPage(partition)
	if !h.orch.ApplyPage(h.orch.FetchPage(context.Background(), req)) {
		h.t.Fatalf("first page of %s was dropped", partition)
	}
}

func (h *harness) loadNext() bool {
	h.t.Helper()
	req, ok := h.orch.LoadNextPage()
	if !ok {
		return false
	}
	h.orch.ApplyPage(h.orch.FetchPage(context.Background(), req))
	return true
}

func (h *harness) refreshCounts() {
	h.t.Helper()
	req := h.orch.RefreshCounts(models.AllStatuses)
	h.orch.ApplyCounts(h.orch.FetchCounts(context.Background(), req))
}

func (h *harness) submit(id int64, status models.TaskStatus, comment string) (bool, error) {
	h.t.Helper()
	req, ok, err := h.bridge.Submit(id, status, comment)
	if err != nil || !ok {
		return ok, err
	}
	if h.bridge.Apply(h.bridge.Send(context.Background(), req)) {
		h.refreshCounts()
	}
	return true, h.store.MutationPhase().Err
}
