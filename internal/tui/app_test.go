package tui

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fentz26/taskboard/internal/config"
	"github.com/fentz26/taskboard/internal/feed"
	"github.com/fentz26/taskboard/internal/models"
)

// memBackend is an in-memory feed.Backend.
type memBackend struct {
	tasks     map[int64]*models.Task
	pageErr   error
	pageCalls int
	mutations int
}

func newMemBackend(open int) *memBackend {
	b := &memBackend{tasks: make(map[int64]*models.Task)}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for id := int64(1); id <= int64(open); id++ {
		b.tasks[id] = &models.Task{
			ID:        id,
			Name:      fmt.Sprintf("Task %d", id),
			Status:    models.TaskStatusOpen,
			Priority:  models.PriorityMedium,
			CreatedAt: base.Add(time.Duration(id) * time.Hour),
			UpdatedAt: base.Add(time.Duration(id) * time.Hour),
		}
	}
	return b
}

func (b *memBackend) byStatus(status models.TaskStatus) []models.Task {
	var out []models.Task
	for _, t := range b.tasks {
		if t.Status == status {
			out = append(out, t.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (b *memBackend) FetchPage(ctx context.Context, status models.TaskStatus, offset, pageSize int) (*models.TaskPage, error) {
	b.pageCalls++
	if b.pageErr != nil {
		return nil, b.pageErr
	}
	all := b.byStatus(status)
	end := min(len(all), offset+pageSize)
	var tasks []models.Task
	if offset < end {
		tasks = all[offset:end]
	}
	return &models.TaskPage{
		Tasks: tasks,
		Pagination: models.Pagination{
			Total:    len(all),
			HasNext:  offset+pageSize < len(all),
			PageSize: pageSize,
			Offset:   offset,
		},
	}, nil
}

func (b *memBackend) FetchCounts(ctx context.Context, statuses []models.TaskStatus) ([]models.StatusCount, error) {
	counts := make([]models.StatusCount, len(statuses))
	for i, st := range statuses {
		counts[i] = models.StatusCount{Status: st, Count: len(b.byStatus(st))}
	}
	return counts, nil
}

func (b *memBackend) UpdateStatus(ctx context.Context, id int64, status models.TaskStatus, comment string) (*models.Task, error) {
	b.mutations++
	t, ok := b.tasks[id]
	if !ok {
		return nil, fmt.Errorf("%w: task %d", feed.ErrNotFound, id)
	}
	t.Status = status
	t.Comment = comment
	t.UpdatedAt = t.UpdatedAt.Add(time.Minute)
	c := t.Clone()
	return &c, nil
}

func (b *memBackend) UpdateComment(ctx context.Context, id int64, comment string) (*models.Task, error) {
	b.mutations++
	t, ok := b.tasks[id]
	if !ok {
		return nil, fmt.Errorf("%w: task %d", feed.ErrNotFound, id)
	}
	t.Comment = comment
	c := t.Clone()
	return &c, nil
}

func (b *memBackend) FetchTaskDetail(ctx context.Context, id int64) (*models.Task, error) {
	t, ok := b.tasks[id]
	if !ok {
		return nil, fmt.Errorf("%w: task %d", feed.ErrNotFound, id)
	}
	c := t.Clone()
	return &c, nil
}

type appHarness struct {
	t       *testing.T
	app     *App
	backend *memBackend
}

func newAppHarness(t *testing.T, open int) *appHarness {
	t.Helper()
	cfg := &config.Config{
		PageSize:     2,
		PrefetchRows: 1,
		Partitions:   append([]models.TaskStatus(nil), models.AllStatuses...),
	}
	b := newMemBackend(open)
	h := &appHarness{t: t, app: New(b, cfg, nil), backend: b}
	h.run(h.app.Init())
	return h
}

// run executes cmd and feeds the feed results back into Update until no
// work is left. Timer based commands such as cursor blinks are dropped.
func (h *appHarness) run(cmd tea.Cmd) {
	h.t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := execute(c).(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case pageLoadedMsg, countsLoadedMsg, detailLoadedMsg, mutationDoneMsg:
			_, next := h.app.Update(msg)
			queue = append(queue, next)
		}
	}
}

func execute(c tea.Cmd) tea.Msg {
	ch := make(chan tea.Msg, 1)
	go func() { ch <- c() }()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(50 * time.Millisecond):
		return nil
	}
}

func (h *appHarness) press(keys ...string) {
	h.t.Helper()
	for _, k := range keys {
		_, cmd := h.app.Update(keyMsg(k))
		h.run(cmd)
	}
}

func (h *appHarness) typeText(s string) {
	h.t.Helper()
	for _, r := range s {
		_, cmd := h.app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		h.run(cmd)
	}
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func visibleIDs(s *feed.Store) []int64 {
	var ids []int64
	for _, t := range s.Visible() {
		ids = append(ids, t.ID)
	}
	return ids
}

func TestApp_InitLoadsFirstPageAndCounts(t *testing.T) {
	h := newAppHarness(t, 5)
	s := h.app.store

	if s.Partition() != models.TaskStatusOpen {
		t.Errorf("Expected the OPEN partition, got %s", s.Partition())
	}
	if s.Len() != 2 {
		t.Errorf("Expected one page of 2 tasks, got %d", s.Len())
	}
	if n, ok := s.Count(models.TaskStatusOpen); !ok || n != 5 {
		t.Errorf("Expected OPEN count 5, got %d (%v)", n, ok)
	}
	if !strings.Contains(h.app.View(), "Open (5)") {
		t.Error("Expected the tab to show the OPEN count")
	}
}

func TestApp_ScrollingLoadsMorePages(t *testing.T) {
	h := newAppHarness(t, 5)

	h.press("down", "down", "down", "down", "down", "down")

	if h.app.store.Len() != 5 {
		t.Errorf("Expected all 5 tasks loaded, got %d", h.app.store.Len())
	}
	if h.app.nav.Index() != 4 {
		t.Errorf("Expected focus on the last row, got %d", h.app.nav.Index())
	}
	if h.app.store.Cursor().HasMore {
		t.Error("Expected the cursor to be exhausted")
	}
}

func TestApp_StatusChangeRemovesTask(t *testing.T) {
	h := newAppHarness(t, 3)

	h.press("down", "enter")
	if h.app.nav.State() != feed.DetailOpen {
		t.Fatalf("Expected the detail view, got %s", h.app.nav.State())
	}
	h.press("3", "c")
	h.typeText("done")
	h.press("ctrl+s")

	if h.backend.mutations != 1 {
		t.Fatalf("Expected one mutation, got %d", h.backend.mutations)
	}
	if h.app.nav.State() == feed.DetailOpen {
		t.Error("Expected the detail view to close after the acknowledgement")
	}
	for _, id := range visibleIDs(h.app.store) {
		if id == 1 {
			t.Error("Expected task 1 to leave the OPEN list")
		}
	}
	if n, _ := h.app.store.Count(models.TaskStatusClosed); n != 1 {
		t.Errorf("Expected CLOSED count 1 after refresh, got %d", n)
	}
	if !strings.Contains(h.app.message, "Task 1 updated") {
		t.Errorf("Expected a success message, got %q", h.app.message)
	}
}

func TestApp_StatusChangeNeedsComment(t *testing.T) {
	h := newAppHarness(t, 2)
	_, cmd := h.app.Update(tea.WindowSizeMsg{Width: 200, Height: 10})
	h.run(cmd)

	h.press("down", "enter", "2", "ctrl+s")

	if h.backend.mutations != 0 {
		t.Error("Expected nothing to be sent without a comment")
	}
	if h.app.nav.State() != feed.DetailOpen {
		t.Errorf("Expected the detail view to stay open, got %s", h.app.nav.State())
	}
	if err := h.app.store.MutationPhase().Err; !errors.Is(err, feed.ErrCommentRequired) {
		t.Errorf("Expected ErrCommentRequired, got %v", err)
	}
	if !strings.Contains(h.app.View(), "comment is required") {
		t.Error("Expected the error inline in the detail view")
	}
}

func TestApp_SubmitWithoutChangesCloses(t *testing.T) {
	h := newAppHarness(t, 2)

	h.press("down", "enter", "ctrl+s")

	if h.backend.mutations != 0 {
		t.Error("Expected nothing to be sent")
	}
	if h.app.nav.State() != feed.RowFocused {
		t.Errorf("Expected the detail view to close, got %s", h.app.nav.State())
	}
}

func TestApp_DetailNavigationWraps(t *testing.T) {
	h := newAppHarness(t, 2)

	h.press("down", "enter", "l", "l")

	if id, _ := h.app.store.DetailID(); id != 1 {
		t.Errorf("Expected Right to wrap back to task 1, got %d", id)
	}
	h.press("esc")
	if h.app.nav.State() != feed.RowFocused {
		t.Errorf("Expected esc to close the detail view, got %s", h.app.nav.State())
	}
}

func TestApp_SwitchTab(t *testing.T) {
	h := newAppHarness(t, 3)

	h.press("tab")
	if h.app.store.Partition() != models.TaskStatusInProgress {
		t.Errorf("Expected IN_PROGRESS, got %s", h.app.store.Partition())
	}
	if h.app.store.Len() != 0 {
		t.Errorf("Expected an empty partition, got %d records", h.app.store.Len())
	}

	h.press("shift+tab", "shift+tab")
	if h.app.store.Partition() != models.TaskStatusClosed {
		t.Errorf("Expected shift+tab to wrap to CLOSED, got %s", h.app.store.Partition())
	}
}

func TestApp_SearchFiltersVisibleList(t *testing.T) {
	h := newAppHarness(t, 5)

	h.press("/")
	h.typeText("task 4")
	h.press("enter")

	if got := visibleIDs(h.app.store); len(got) != 1 || got[0] != 4 {
		t.Errorf("Expected only task 4, got %v", got)
	}
	if h.app.search.Focused() {
		t.Error("Expected enter to leave the search input")
	}
	if v := h.app.store.SearchFilter().Value; v != "task 4" {
		t.Errorf("Expected the filter value to be kept, got %q", v)
	}
}

func TestApp_SearchColumnCycles(t *testing.T) {
	h := newAppHarness(t, 3)
	start := h.app.store.SearchFilter().Column

	h.press("f")
	listCol := h.app.store.SearchFilter().Column
	if listCol != feed.NextColumn(start) || h.app.search.column != listCol {
		t.Errorf("Expected f to move the search to %q, got store %q bar %q", feed.NextColumn(start), listCol, h.app.search.column)
	}

	h.press("/", "tab")
	inputCol := h.app.store.SearchFilter().Column
	if inputCol != feed.NextColumn(listCol) || h.app.search.column != inputCol {
		t.Errorf("Expected tab in the search input to move to %q, got store %q bar %q", feed.NextColumn(listCol), inputCol, h.app.search.column)
	}
}

func TestApp_UnknownSearchColumnIsReported(t *testing.T) {
	h := newAppHarness(t, 3)
	before := h.app.store.SearchFilter()

	h.run(h.app.setSearchColumn("nope"))

	if !strings.Contains(h.app.message, "nope") {
		t.Errorf("Expected an error message naming the column, got %q", h.app.message)
	}
	if got := h.app.store.SearchFilter(); got != before || h.app.search.column != before.Column {
		t.Errorf("Expected the filter to stay %+v, got store %+v bar %q", before, got, h.app.search.column)
	}
}

func TestApp_SortToggle(t *testing.T) {
	h := newAppHarness(t, 2)

	h.press("S")
	if got := visibleIDs(h.app.store); len(got) != 2 || got[0] != 2 {
		t.Errorf("Expected name desc order [2 1], got %v", got)
	}
	h.press("S")
	if h.app.store.SortConfig().Active() {
		t.Error("Expected the same sort twice to clear it")
	}
}

func TestApp_PageErrorAndRetry(t *testing.T) {
	cfg := &config.Config{PageSize: 2, PrefetchRows: 1, Partitions: models.AllStatuses}
	b := newMemBackend(3)
	b.pageErr = fmt.Errorf("%w: connection refused", feed.ErrTransport)
	h := &appHarness{t: t, app: New(b, cfg, nil), backend: b}
	h.run(h.app.Init())

	if phase := h.app.store.PagePhase(); phase.Phase != feed.PhaseError {
		t.Fatalf("Expected a page error, got %s", phase.Phase)
	}
	if !strings.Contains(h.app.View(), "r to retry") {
		t.Error("Expected an inline retry hint")
	}
	if b.pageCalls != 1 {
		t.Errorf("Expected no automatic retry, got %d calls", b.pageCalls)
	}

	b.pageErr = nil
	h.press("r")
	if h.app.store.Len() != 2 {
		t.Errorf("Expected the page after retry, got %d records", h.app.store.Len())
	}
}
