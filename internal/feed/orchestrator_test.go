package feed

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/fentz26/taskboard/internal/models"
)

func TestScenario_OverlappingPages(t *testing.T) {
	h := newHarness(t, 2)
	page := func(offset int, hasNext bool, taskIDs ...int64) *models.TaskPage {
		p := &models.TaskPage{Pagination: models.Pagination{Total: 3, HasNext: hasNext, PageSize: 2, Offset: offset}}
		for _, id := range taskIDs {
			p.Tasks = append(p.Tasks, newTask(id, models.TaskStatusOpen))
		}
		return p
	}
	h.backend.pages[pageKey{models.TaskStatusOpen, 0}] = page(0, true, 1, 2)
	h.backend.pages[pageKey{models.TaskStatusOpen, 2}] = page(2, false, 2, 3)

	h.loadFirst(models.TaskStatusOpen)
	if !h.loadNext() {
		t.Fatal("Expected a second page to be requested")
	}

	if diff := cmp.Diff([]int64{1, 2, 3}, ids(h.store.Records())); diff != "" {
		t.Errorf("accumulation mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int64{1, 2, 3}, ids(h.store.Visible())); diff != "" {
		t.Errorf("visible mismatch (-want +got):\n%s", diff)
	}
	if h.loadNext() {
		t.Error("Expected no further page after has_next=false")
	}
}

func TestLoadFirstPage_ResetsCursor(t *testing.T) {
	h := newHarness(t, 2,
		newTask(1, models.TaskStatusOpen), newTask(2, models.TaskStatusOpen), newTask(3, models.TaskStatusOpen),
		newTask(4, models.TaskStatusClosed))

	h.loadFirst(models.TaskStatusOpen)
	cur := h.store.Cursor()
	if cur.Offset != 2 || !cur.HasMore {
		t.Errorf("Expected cursor at 2 with more, got %+v", cur)
	}

	h.loadFirst(models.TaskStatusClosed)
	cur = h.store.Cursor()
	if cur.Offset != 2 || cur.HasMore {
		t.Errorf("Expected cursor at 2 without more, got %+v", cur)
	}
	if diff := cmp.Diff([]int64{4}, ids(h.store.Records())); diff != "" {
		t.Errorf("partition switch should discard the accumulation (-want +got):\n%s", diff)
	}
}

func TestLoadNextPage_RejectsConcurrentCalls(t *testing.T) {
	h := newHarness(t, 1, newTask(1, models.TaskStatusOpen), newTask(2, models.TaskStatusOpen), newTask(3, models.TaskStatusOpen))
	h.loadFirst(models.TaskStatusOpen)

	req, ok := h.orch.LoadNextPage()
	if !ok {
		t.Fatal("Expected the second page to be requested")
	}
	if _, again := h.orch.LoadNextPage(); again {
		t.Error("Expected a concurrent LoadNextPage to be a no-op")
	}
	if !h.store.PagePhase().Loading() {
		t.Errorf("Expected loading phase, got %s", h.store.PagePhase().Phase)
	}

	h.orch.ApplyPage(h.orch.FetchPage(context.Background(), req))
	if _, ok := h.orch.LoadNextPage(); !ok {
		t.Error("Expected LoadNextPage to be accepted once the page resolved")
	}
}

func TestApplyPage_DropsStalePartition(t *testing.T) {
	h := newHarness(t, 10, newTask(1, models.TaskStatusOpen), newTask(2, models.TaskStatusClosed))

	openReq := h.orch.LoadFirstPage(models.TaskStatusOpen)
	closedReq := h.orch.LoadFirstPage(models.TaskStatusClosed)

	// The CLOSED page resolves first, the abandoned OPEN page arrives late.
	if !h.orch.ApplyPage(h.orch.FetchPage(context.Background(), closedReq)) {
		t.Fatal("Expected the active partition's page to be applied")
	}
	if h.orch.ApplyPage(h.orch.FetchPage(context.Background(), openReq)) {
		t.Error("Expected the late OPEN page to be dropped")
	}

	if diff := cmp.Diff([]int64{2}, ids(h.store.Records())); diff != "" {
		t.Errorf("accumulation mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyPage_DropsEarlierGenerationOfSamePartition(t *testing.T) {
	h := newHarness(t, 10, newTask(1, models.TaskStatusOpen))

	stale := h.orch.LoadFirstPage(models.TaskStatusOpen)
	fresh := h.orch.LoadFirstPage(models.TaskStatusOpen)

	if h.orch.ApplyPage(PageResult{Request: stale, Err: errors.New("boom")}) {
		t.Error("Expected the superseded request to be dropped")
	}
	if !h.store.PagePhase().Loading() {
		t.Error("A dropped result must not touch the phase of the live request")
	}
	h.orch.ApplyPage(h.orch.FetchPage(context.Background(), fresh))
	if h.store.Len() != 1 {
		t.Errorf("Expected 1 record, got %d", h.store.Len())
	}
}

func TestApplyPage_FailureKeepsCursor(t *testing.T) {
	h := newHarness(t, 1, newTask(1, models.TaskStatusOpen), newTask(2, models.TaskStatusOpen))
	h.loadFirst(models.TaskStatusOpen)

	h.backend.pageErr = fmt.Errorf("%w: connection refused", ErrTransport)
	h.loadNext()

	phase := h.store.PagePhase()
	if phase.Phase != PhaseError || !errors.Is(phase.Err, ErrTransport) {
		t.Fatalf("Expected transport error phase, got %+v", phase)
	}
	if h.store.Cursor().Offset != 1 {
		t.Errorf("Expected cursor to stay at 1, got %d", h.store.Cursor().Offset)
	}

	h.backend.pageErr = nil
	req, ok := h.orch.Retry()
	if !ok {
		t.Fatal("Expected Retry after a failure to issue a request")
	}
	if req.Offset != 1 {
		t.Errorf("Expected retry at offset 1, got %d", req.Offset)
	}
	h.orch.ApplyPage(h.orch.FetchPage(context.Background(), req))

	if diff := cmp.Diff([]int64{1, 2}, ids(h.store.Records())); diff != "" {
		t.Errorf("accumulation mismatch (-want +got):\n%s", diff)
	}
	if _, ok := h.orch.Retry(); ok {
		t.Error("Expected Retry without a failure to be a no-op")
	}
}

func TestApplyPage_AdvancesByServedPageSize(t *testing.T) {
	var tasks []models.Task
	for id := int64(1); id <= 7; id++ {
		tasks = append(tasks, newTask(id, models.TaskStatusOpen))
	}
	h := newHarness(t, 5, tasks...)
	// The backend caps the first page at 3 rows.
	h.backend.pages[pageKey{models.TaskStatusOpen, 0}] = &models.TaskPage{
		Tasks:      tasks[:3],
		Pagination: models.Pagination{Total: 7, HasNext: true, PageSize: 3},
	}
	h.loadFirst(models.TaskStatusOpen)

	if got := h.store.Cursor().Offset; got != 3 {
		t.Fatalf("Expected cursor at 3, got %d", got)
	}
	h.loadNext()

	if diff := cmp.Diff([]int64{1, 2, 3, 4, 5, 6, 7}, ids(h.store.Records())); diff != "" {
		t.Errorf("accumulation mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadNextPage_BeforeFirstPage(t *testing.T) {
	h := newHarness(t, 10)
	if _, ok := h.orch.LoadNextPage(); ok {
		t.Error("Expected LoadNextPage without a partition to be a no-op")
	}
}

func TestCounts_OnlyLatestApplied(t *testing.T) {
	h := newHarness(t, 10, newTask(1, models.TaskStatusOpen), newTask(2, models.TaskStatusClosed))

	older := h.orch.RefreshCounts(models.AllStatuses)
	newer := h.orch.RefreshCounts(models.AllStatuses)

	if h.orch.ApplyCounts(CountsResult{Request: older, Counts: []models.StatusCount{{Status: models.TaskStatusOpen, Count: 99}}}) {
		t.Error("Expected the older counts result to be dropped")
	}
	h.orch.ApplyCounts(h.orch.FetchCounts(context.Background(), newer))

	if n, _ := h.store.Count(models.TaskStatusOpen); n != 1 {
		t.Errorf("Expected OPEN count 1, got %d", n)
	}
	if n, ok := h.store.Count(models.TaskStatusInProgress); !ok || n != 0 {
		t.Errorf("Expected IN_PROGRESS count 0, got %d (%v)", n, ok)
	}
}

func TestCounts_FailureKeepsPrevious(t *testing.T) {
	h := newHarness(t, 10, newTask(1, models.TaskStatusOpen))
	h.refreshCounts()

	h.backend.countsErr = fmt.Errorf("%w: timeout", ErrTransport)
	h.refreshCounts()

	if h.store.CountsPhase().Phase != PhaseError {
		t.Errorf("Expected counts error phase, got %s", h.store.CountsPhase().Phase)
	}
	if n, _ := h.store.Count(models.TaskStatusOpen); n != 1 {
		t.Errorf("Expected previous OPEN count to survive, got %d", n)
	}
}

func TestDetail_RefreshesStoredCopy(t *testing.T) {
	h := newHarness(t, 10, newTask(1, models.TaskStatusOpen), newTask(2, models.TaskStatusOpen))
	h.loadFirst(models.TaskStatusOpen)

	// Someone else commented on the task since the page was fetched.
	remote := h.backend.tasks[1]
	remote.Comment = "from another client"
	h.backend.tasks[1] = remote

	h.nav.Down()
	id, ok := h.nav.Enter()
	if !ok || id != 1 {
		t.Fatalf("Expected to open task 1, got %d (%v)", id, ok)
	}
	req, ok := h.orch.LoadDetail(id)
	if !ok {
		t.Fatal("Expected a detail request")
	}
	h.orch.ApplyDetail(h.orch.FetchDetail(context.Background(), req))

	got, _ := h.store.Task(1)
	if got.Comment != "from another client" {
		t.Errorf("Expected detail fetch to refresh the record, got comment %q", got.Comment)
	}
	if h.store.DetailPhase().Phase != PhaseSuccess {
		t.Errorf("Expected detail success, got %s", h.store.DetailPhase().Phase)
	}
}

func TestDetail_DroppedAfterClose(t *testing.T) {
	h := newHarness(t, 10, newTask(1, models.TaskStatusOpen))
	h.loadFirst(models.TaskStatusOpen)

	h.nav.Down()
	id, _ := h.nav.Enter()
	req, _ := h.orch.LoadDetail(id)
	h.nav.Close()

	if h.orch.ApplyDetail(DetailResult{Request: req, Err: fmt.Errorf("%w: task 1", ErrNotFound)}) {
		t.Error("Expected a detail result after close to be dropped")
	}
	if _, ok := h.orch.LoadDetail(id); ok {
		t.Error("Expected LoadDetail for a closed record to be rejected")
	}
}
