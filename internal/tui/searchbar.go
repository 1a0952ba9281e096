package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fentz26/taskboard/internal/feed"
)

var (
	searchBarStyle = lipgloss.NewStyle().
			Foreground(fgColor).
			Padding(0, 1)

	promptStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	columnStyle = lipgloss.NewStyle().
			Foreground(cyanColor)
)

// SearchBarModel is the search input above the task list. It edits the
// value of the search filter; the column is cycled from the outside.
type SearchBarModel struct {
	input  textinput.Model
	column string
}

// NewSearchBarModel creates a search bar showing f.
func NewSearchBarModel(f feed.SearchFilter) *SearchBarModel {
	ti := textinput.New()
	ti.Placeholder = "press / to search"
	ti.Prompt = ""
	ti.CharLimit = 256
	ti.Width = 40
	ti.SetValue(f.Value)
	return &SearchBarModel{input: ti, column: f.Column}
}

// Focus focuses the search input.
func (m *SearchBarModel) Focus() tea.Cmd {
	m.input.Placeholder = "type to filter, enter to keep"
	return m.input.Focus()
}

// Blur leaves the input, keeping its value.
func (m *SearchBarModel) Blur() {
	m.input.Placeholder = "press / to search"
	m.input.Blur()
}

// Focused reports whether keys go to the search input.
func (m *SearchBarModel) Focused() bool { return m.input.Focused() }

// Value returns the current query.
func (m *SearchBarModel) Value() string { return m.input.Value() }

// SetColumn changes the column label.
func (m *SearchBarModel) SetColumn(column string) { m.column = column }

// Reset shows f, e.g. after the search was cleared.
func (m *SearchBarModel) Reset(f feed.SearchFilter) {
	m.column = f.Column
	m.input.SetValue(f.Value)
}

// SetWidth sets the width of the input.
func (m *SearchBarModel) SetWidth(w int) {
	m.input.Width = max(10, w)
}

// Update passes msg to the input.
func (m *SearchBarModel) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

// View renders the search bar with the active sort.
func (m *SearchBarModel) View(sort feed.SortConfig) string {
	line := promptStyle.Render("/ ") + columnStyle.Render(fmt.Sprintf("[%s]", m.column)) + " " + m.input.View()
	if sort.Active() {
		line += "  " + helpStyle.Render(fmt.Sprintf("sort: %s %s", sort.Key, sortArrow(sort.Direction)))
	}
	return searchBarStyle.Render(line)
}

func sortArrow(dir feed.SortDirection) string {
	if dir == feed.SortDesc {
		return "↓"
	}
	return "↑"
}
