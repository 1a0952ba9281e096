package feed

import "github.com/fentz26/taskboard/internal/models"

// NavState is the selection state of the visible list.
type NavState int

const (
	NoSelection NavState = iota
	RowFocused
	DetailOpen
)

func (s NavState) String() string {
	switch s {
	case RowFocused:
		return "row-focused"
	case DetailOpen:
		return "detail-open"
	}
	return "no-selection"
}

// Navigator tracks the focused row and the record under detail view over the
// Store's visible list. Focus follows the focused record across recomputes
// and is clamped when that record is gone.
type Navigator struct {
	store *Store

	state   NavState
	index   int
	focusID int64
	pending models.TaskStatus

	seen uint64
}

// NewNavigator creates a navigator with nothing selected.
func NewNavigator(s *Store) *Navigator {
	return &Navigator{store: s, seen: s.Version()}
}

// State returns the current state after reconciling with the visible list.
func (n *Navigator) State() NavState {
	n.Sync()
	return n.state
}

// Index returns the focused index, or -1 with nothing selected.
func (n *Navigator) Index() int {
	n.Sync()
	if n.state == NoSelection {
		return -1
	}
	return clamp(n.index, len(n.store.Visible()))
}

// Focused returns the focused record of the visible list.
func (n *Navigator) Focused() (models.Task, bool) {
	n.Sync()
	visible := n.store.Visible()
	if n.state == NoSelection || n.index >= len(visible) {
		return models.Task{}, false
	}
	return visible[n.index], true
}

// Detail returns the Store's copy of the record under detail view. The record
// may have left the visible list, e.g. after a status change.
func (n *Navigator) Detail() (models.Task, bool) {
	n.Sync()
	if n.state != DetailOpen {
		return models.Task{}, false
	}
	return n.store.Task(n.focusID)
}

// Pending returns the status that a submit from the detail view would set.
func (n *Navigator) Pending() models.TaskStatus { return n.pending }

// SetPending sets the pending status while the detail view is open.
func (n *Navigator) SetPending(status models.TaskStatus) bool {
	if n.State() != DetailOpen || !status.Valid() {
		return false
	}
	n.pending = status
	return true
}

// Down moves the row focus one row down, stopping at the last row.
func (n *Navigator) Down() {
	n.moveRow(1)
}

// Up moves the row focus one row up, stopping at the first row.
func (n *Navigator) Up() {
	n.moveRow(-1)
}

func (n *Navigator) moveRow(delta int) {
	n.Sync()
	visible := n.store.Visible()
	if n.state == DetailOpen || len(visible) == 0 {
		return
	}
	if n.state == NoSelection {
		n.focus(visible, 0)
		return
	}
	n.focus(visible, clamp(n.index+delta, len(visible)))
}

// Enter opens the focused row in the detail view and returns its id.
func (n *Navigator) Enter() (int64, bool) {
	n.Sync()
	if n.state != RowFocused {
		return 0, false
	}
	visible := n.store.Visible()
	return n.open(visible[n.index])
}

// Open focuses and opens the visible record id.
func (n *Navigator) Open(id int64) (int64, bool) {
	n.Sync()
	visible := n.store.Visible()
	for i := range visible {
		if visible[i].ID == id {
			n.focus(visible, i)
			return n.open(visible[i])
		}
	}
	return 0, false
}

func (n *Navigator) open(t models.Task) (int64, bool) {
	if !n.store.OpenDetail(t.ID) {
		return 0, false
	}
	n.state = DetailOpen
	n.focusID = t.ID
	n.pending = t.Status
	return t.ID, true
}

// Right opens the next record of the visible list, wrapping to the first.
func (n *Navigator) Right() (int64, bool) {
	return n.step(1)
}

// Left opens the previous record of the visible list, wrapping to the last.
func (n *Navigator) Left() (int64, bool) {
	return n.step(-1)
}

func (n *Navigator) step(delta int) (int64, bool) {
	n.Sync()
	visible := n.store.Visible()
	if n.state != DetailOpen || len(visible) == 0 {
		return 0, false
	}

	var next int
	if pos := indexOf(visible, n.focusID); pos >= 0 {
		next = pos + delta
	} else if delta > 0 {
		// The open record left the list. n.index is its former position,
		// now held by its successor or past the end.
		next = n.index
	} else {
		next = n.index - 1
	}
	next = (next%len(visible) + len(visible)) % len(visible)

	n.index = next
	return n.open(visible[next])
}

// Close leaves the detail view and focuses the last focused index.
func (n *Navigator) Close() {
	n.Sync()
	if n.state != DetailOpen {
		return
	}
	n.store.CloseDetail()
	n.pending = ""
	visible := n.store.Visible()
	if len(visible) == 0 {
		n.state = NoSelection
		n.index = 0
		n.focusID = 0
		return
	}
	n.state = RowFocused
	n.focus(visible, clamp(n.index, len(visible)))
}

// Digit maps the keys 1, 2 and 3 to a pending status while the detail view is
// open. It does not change the navigation state.
func (n *Navigator) Digit(r rune) bool {
	i := int(r - '1')
	if i < 0 || i >= len(models.AllStatuses) {
		return false
	}
	return n.SetPending(models.AllStatuses[i])
}

// Reset drops any selection.
func (n *Navigator) Reset() {
	n.state = NoSelection
	n.index = 0
	n.focusID = 0
	n.pending = ""
	n.seen = n.store.Version()
}

// Sync reconciles the selection with the Store's visible list. Every other
// method calls it, so callers only need it before reading fields directly.
func (n *Navigator) Sync() {
	force := false
	if n.state == DetailOpen {
		if id, ok := n.store.DetailID(); !ok || id != n.focusID {
			// The Store dropped the detail slot, e.g. on a partition switch.
			n.state = RowFocused
			n.pending = ""
			force = true
		}
	}
	if !force && n.seen == n.store.Version() {
		return
	}
	n.seen = n.store.Version()

	visible := n.store.Visible()
	if n.state == NoSelection {
		return
	}
	pos := indexOf(visible, n.focusID)
	if n.state == DetailOpen {
		// A missing record keeps its former position, unclamped, so Left and
		// Right still step from where it was.
		if pos >= 0 {
			n.index = pos
		}
		return
	}
	switch {
	case len(visible) == 0:
		n.state = NoSelection
		n.index = 0
		n.focusID = 0
	case pos >= 0:
		n.index = pos
	default:
		n.focus(visible, clamp(n.index, len(visible)))
	}
}

func (n *Navigator) focus(visible []models.Task, i int) {
	n.state = RowFocused
	n.index = i
	n.focusID = visible[i].ID
}

func indexOf(tasks []models.Task, id int64) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func clamp(i, n int) int {
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}
