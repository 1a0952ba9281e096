package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings of the task board.
type KeyMap struct {
	// List movement and detail navigation.
	Up    key.Binding
	Down  key.Binding
	Left  key.Binding // Detail: previous record, wrapping.
	Right key.Binding // Detail: next record, wrapping.
	Open  key.Binding
	Close key.Binding

	// Partition tabs.
	NextTab key.Binding
	PrevTab key.Binding

	// Search and sort.
	Search       key.Binding
	SearchColumn key.Binding // Cycle the column searched and sorted.
	ClearSearch  key.Binding
	SortAsc      key.Binding
	SortDesc     key.Binding
	ClearSort    key.Binding

	// Detail editing.
	StatusOpen       key.Binding
	StatusInProgress key.Binding
	StatusClosed     key.Binding
	EditComment      key.Binding
	Submit           key.Binding

	Retry key.Binding
	Help  key.Binding
	Quit  key.Binding
}

// DefaultKeyMap is the built-in key binding set.
var DefaultKeyMap = KeyMap{
	Up:    key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
	Down:  key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
	Left:  key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "prev task")),
	Right: key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "next task")),
	Open:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
	Close: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),

	NextTab: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next status")),
	PrevTab: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev status")),

	Search:       key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	SearchColumn: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "cycle column")),
	ClearSearch:  key.NewBinding(key.WithKeys("ctrl+u"), key.WithHelp("ctrl+u", "clear search")),
	SortAsc:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort asc")),
	SortDesc:     key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "sort desc")),
	ClearSort:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "clear sort")),

	StatusOpen:       key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "open")),
	StatusInProgress: key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "in progress")),
	StatusClosed:     key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "closed")),
	EditComment:      key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "comment")),
	Submit:           key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),

	Retry: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry/refresh")),
	Help:  key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// ShortHelp returns the bindings shown in the mini help.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Open, k.NextTab, k.Search, k.SortAsc, k.Help, k.Quit}
}

// FullHelp returns the bindings of the expanded help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Open, k.Close},
		{k.NextTab, k.PrevTab, k.Retry},
		{k.Search, k.SearchColumn, k.ClearSearch},
		{k.SortAsc, k.SortDesc, k.ClearSort},
		{k.StatusOpen, k.StatusInProgress, k.StatusClosed},
		{k.Left, k.Right, k.EditComment, k.Submit},
		{k.Help, k.Quit},
	}
}

// detailHelp is the short help shown while the detail pane is open.
type detailHelp struct{ KeyMap }

func (k detailHelp) ShortHelp() []key.Binding {
	return []key.Binding{k.Left, k.Right, k.StatusOpen, k.StatusInProgress, k.StatusClosed, k.EditComment, k.Submit, k.Close}
}
