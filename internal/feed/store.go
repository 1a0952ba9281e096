// Package feed turns paginated task fetches into a de-duplicated, filterable,
// sortable and navigable collection.
//
// All types in this package are meant to be driven from a single event loop.
// Backend I/O happens in the Fetch and Send methods, which only read the
// request values they are given and may run on any goroutine.
package feed

import (
	"fmt"
	"time"

	"github.com/fentz26/taskboard/internal/models"
)

// Phase is the lifecycle of one asynchronous operation.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSuccess
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseSuccess:
		return "success"
	case PhaseError:
		return "error"
	}
	return "idle"
}

// OpState is the phase of an operation plus the error of its last failure.
type OpState struct {
	Phase Phase
	Err   error
}

// Loading reports whether the operation is in flight.
func (o OpState) Loading() bool { return o.Phase == PhaseLoading }

// Cursor is the position of the next page to fetch.
type Cursor struct {
	Offset   int
	PageSize int
	HasMore  bool
}

// SortDirection is the order of the active sort key.
type SortDirection string

const (
	SortNone SortDirection = ""
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SearchFilter keeps records whose Column contains Value, ignoring case.
type SearchFilter struct {
	Column string
	Value  string
}

// DefaultSearchFilter searches names with no query.
var DefaultSearchFilter = SearchFilter{Column: ColumnName}

// SortConfig orders the visible list by Key. The zero value means creation order.
type SortConfig struct {
	Key       string
	Direction SortDirection
}

// Active reports whether both a key and a direction are set.
func (c SortConfig) Active() bool {
	return c.Key != "" && c.Direction != SortNone
}

// Change is a bit set describing which part of the Store a mutation touched.
type Change uint

const (
	ChangeRecords Change = 1 << iota
	ChangePartition
	ChangeQuery
	ChangeDetail
	ChangePhase
	ChangeCounts
)

// projectionChanges invalidate the memoized visible list.
const projectionChanges = ChangeRecords | ChangePartition | ChangeQuery

// Observer is called after every Store mutation.
type Observer func(Change)

// Store holds the accumulated records of the active partition and the state
// every other feed component reads. It is not safe for concurrent use.
type Store struct {
	records []models.Task
	index   map[int64]int

	partition  models.TaskStatus
	generation uint64
	cursor     Cursor

	filter SearchFilter
	sort   SortConfig

	detailID  int64
	hasDetail bool

	page     OpState
	counts   OpState
	detail   OpState
	mutation OpState

	statusCounts map[models.TaskStatus]int

	version        uint64
	visible        []models.Task
	visibleVersion uint64
	visibleValid   bool

	observers []Observer
}

// NewStore creates an empty Store that fetches pageSize records per page.
func NewStore(pageSize int) *Store {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &Store{
		index:        make(map[int64]int),
		cursor:       Cursor{PageSize: pageSize},
		filter:       DefaultSearchFilter,
		statusCounts: make(map[models.TaskStatus]int),
	}
}

// Observe registers fn to be called after every mutation.
func (s *Store) Observe(fn Observer) {
	s.observers = append(s.observers, fn)
}

func (s *Store) changed(c Change) {
	if c&projectionChanges != 0 {
		s.version++
	}
	for _, fn := range s.observers {
		fn(c)
	}
}

// --- Reads ---

func (s *Store) Partition() models.TaskStatus { return s.partition }
func (s *Store) Generation() uint64 { return s.generation }
func (s *Store) Cursor() Cursor { return s.cursor }
func (s *Store) SearchFilter() SearchFilter { return s.filter }
func (s *Store) SortConfig() SortConfig { return s.sort }
func (s *Store) PagePhase() OpState { return s.page }
func (s *Store) CountsPhase() OpState { return s.counts }
func (s *Store) DetailPhase() OpState { return s.detail }
func (s *Store) MutationPhase() OpState { return s.mutation }
func (s *Store) Len() int { return len(s.records) }

// Version increases whenever an input of the visible list changes.
func (s *Store) Version() uint64 { return s.version }

// DetailID returns the record under detail view, if any.
func (s *Store) DetailID() (int64, bool) { return s.detailID, s.hasDetail }

// Count returns the last fetched number of records in status.
func (s *Store) Count(status models.TaskStatus) (int, bool) {
	n, ok := s.statusCounts[status]
	return n, ok
}

// Task returns a copy of the accumulated record with the given id.
func (s *Store) Task(id int64) (models.Task, bool) {
	i, ok := s.index[id]
	if !ok {
		return models.Task{}, false
	}
	return s.records[i].Clone(), true
}

// Records returns the accumulation in merge order.
func (s *Store) Records() []models.Task {
	out := make([]models.Task, len(s.records))
	for i := range s.records {
		out[i] = s.records[i].Clone()
	}
	return out
}

// Visible returns the filtered and sorted list for the current state. The
// result is shared between calls until the next change and must not be modified.
func (s *Store) Visible() []models.Task {
	if s.visibleValid && s.visibleVersion == s.version {
		return s.visible
	}
	s.visible = Project(Inputs{
		Records:   s.records,
		Partition: s.partition,
		Filter:    s.filter,
		Sort:      s.sort,
	})
	s.visibleVersion = s.version
	s.visibleValid = true
	return s.visible
}

// --- Search and sort ---

// SetSearchFilter replaces the search filter. The column must be displayable.
func (s *Store) SetSearchFilter(f SearchFilter) error {
	if !ValidColumn(f.Column) {
		return fmt.Errorf("%w %q", ErrUnknownColumn, f.Column)
	}
	if f == s.filter {
		return nil
	}
	s.filter = f
	s.changed(ChangeQuery)
	return nil
}

// SetSearchValue changes the query and keeps the column.
func (s *Store) SetSearchValue(value string) {
	s.SetSearchFilter(SearchFilter{Column: s.filter.Column, Value: value})
}

// ClearSearch restores the default filter.
func (s *Store) ClearSearch() {
	s.SetSearchFilter(DefaultSearchFilter)
}

// SetSortConfig replaces the sort configuration as is.
func (s *Store) SetSortConfig(c SortConfig) error {
	if c.Key != "" && !ValidColumn(c.Key) {
		return fmt.Errorf("%w %q", ErrUnknownColumn, c.Key)
	}
	if c == s.sort {
		return nil
	}
	s.sort = c
	s.changed(ChangeQuery)
	return nil
}

// ToggleSort sorts by key in dir, or clears the sort when exactly that key and
// direction are already active.
func (s *Store) ToggleSort(key string, dir SortDirection) error {
	next := SortConfig{Key: key, Direction: dir}
	if next == s.sort {
		next = SortConfig{}
	}
	return s.SetSortConfig(next)
}

// ClearSort restores creation order.
func (s *Store) ClearSort() {
	s.SetSortConfig(SortConfig{})
}

// --- Detail slot ---

// OpenDetail puts the accumulated record id under detail view.
func (s *Store) OpenDetail(id int64) bool {
	if _, ok := s.index[id]; !ok {
		return false
	}
	if s.hasDetail && s.detailID == id {
		return true
	}
	s.detailID, s.hasDetail = id, true
	s.detail = OpState{}
	s.mutation = OpState{}
	s.changed(ChangeDetail)
	return true
}

// CloseDetail empties the detail slot.
func (s *Store) CloseDetail() {
	if !s.hasDetail {
		return
	}
	s.detailID, s.hasDetail = 0, false
	s.detail = OpState{}
	s.mutation = OpState{}
	s.changed(ChangeDetail)
}

// --- Operations used by the orchestrator and the bridge ---

func (s *Store) reset(partition models.TaskStatus) {
	s.partition = partition
	s.generation++
	s.records = nil
	s.index = make(map[int64]int)
	s.cursor = Cursor{PageSize: s.cursor.PageSize, HasMore: true}
	s.page = OpState{}
	s.detailID, s.hasDetail = 0, false
	s.detail = OpState{}
	s.mutation = OpState{}
	s.changed(ChangePartition | ChangeRecords | ChangeDetail | ChangePhase)
}

func (s *Store) setPhase(op *OpState, phase Phase, err error) {
	*op = OpState{Phase: phase, Err: err}
	s.changed(ChangePhase)
}

func (s *Store) mergePage(tasks []models.Task, offset, pageSize int, hasNext bool) {
	s.records = Merge(s.records, tasks, offset)
	s.reindex()
	s.cursor.Offset = offset + pageSize
	s.cursor.HasMore = hasNext
	s.page = OpState{Phase: PhaseSuccess}
	s.changed(ChangeRecords | ChangePhase)
}

func (s *Store) reindex() {
	s.index = make(map[int64]int, len(s.records))
	for i := range s.records {
		s.index[s.records[i].ID] = i
	}
}

// patchTask overwrites the mutable fields of an accumulated record.
func (s *Store) patchTask(id int64, status models.TaskStatus, comment string, updatedAt time.Time) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.records[i].Status = status
	s.records[i].Comment = comment
	s.records[i].UpdatedAt = updatedAt
	s.changed(ChangeRecords)
	return true
}

// refreshTask replaces an accumulated record with a fresher copy.
func (s *Store) refreshTask(t models.Task) bool {
	i, ok := s.index[t.ID]
	if !ok {
		return false
	}
	s.records[i] = t.Clone()
	s.changed(ChangeRecords)
	return true
}

func (s *Store) setCounts(counts []models.StatusCount) {
	for _, c := range counts {
		s.statusCounts[c.Status] = c.Count
	}
	s.counts = OpState{Phase: PhaseSuccess}
	s.changed(ChangeCounts | ChangePhase)
}
