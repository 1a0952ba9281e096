package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fentz26/taskboard/internal/feed"
	"github.com/fentz26/taskboard/internal/models"
)

var (
	listHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(cyanColor).
			Padding(0, 1)

	priorityHigh   = lipgloss.NewStyle().Foreground(errorColor)
	priorityMedium = lipgloss.NewStyle().Foreground(warningColor)
	priorityLow    = lipgloss.NewStyle().Foreground(mutedColor)
)

// listColumn is a column of the task table.
type listColumn struct {
	name  string
	title string
	width int
}

var listColumns = []listColumn{
	{feed.ColumnID, "ID", 5},
	{feed.ColumnName, "NAME", 30},
	{feed.ColumnLabels, "LABELS", 18},
	{feed.ColumnPriority, "PRIORITY", 8},
	{feed.ColumnAssignee, "ASSIGNEE", 12},
	{feed.ColumnDueDate, "DUE", 10},
}

func (a *App) renderTaskList(height int) string {
	var b strings.Builder
	b.WriteString(a.renderListHeader() + "\n")

	visible := a.store.Visible()
	page := a.store.PagePhase()

	if len(visible) == 0 {
		switch {
		case page.Loading():
			b.WriteString("\n  " + a.spinner.View() + " Loading tasks...\n")
		case page.Err != nil:
			b.WriteString("\n  " + errorStyle.Render(errorText(page.Err)) + helpStyle.Render("  (r to retry)") + "\n")
		case a.store.SearchFilter().Value != "":
			b.WriteString("\n  No tasks match the search.\n")
		default:
			b.WriteString(fmt.Sprintf("\n  No %s tasks.\n", strings.ToLower(a.partition().Label())))
		}
		return b.String()
	}

	// Keep the focused row inside the window.
	idx := a.nav.Index()
	start := 0
	if idx >= height {
		start = idx - height + 1
	}
	end := min(len(visible), start+height)

	for i := start; i < end; i++ {
		line := a.renderRow(&visible[i])
		if i == idx {
			b.WriteString(selectedStyle.Render("▶ "+line) + "\n")
		} else {
			b.WriteString(taskItemStyle.Render("  "+line) + "\n")
		}
	}

	b.WriteString(a.renderListFooter(len(visible)))
	return b.String()
}

func (a *App) renderListHeader() string {
	sort := a.store.SortConfig()
	cells := make([]string, len(listColumns))
	for i, c := range listColumns {
		title := c.title
		if sort.Active() && sort.Key == c.name {
			title += sortArrow(sort.Direction)
		}
		cells[i] = pad(title, c.width)
	}
	return listHeaderStyle.Render("  " + strings.Join(cells, " "))
}

func (a *App) renderRow(t *models.Task) string {
	cells := make([]string, len(listColumns))
	for i, c := range listColumns {
		cells[i] = pad(feed.ColumnText(t, c.name), c.width)
	}
	return strings.Join(cells, " ")
}

func (a *App) renderListFooter(shown int) string {
	page := a.store.PagePhase()
	cursor := a.store.Cursor()

	var status string
	switch {
	case page.Loading():
		status = a.spinner.View() + " Loading more..."
	case page.Err != nil:
		return errorStyle.Render(errorText(page.Err)) + helpStyle.Render("  (r to retry)")
	case !cursor.HasMore:
		status = "End of list"
	default:
		status = "More below"
	}
	return helpStyle.Render(fmt.Sprintf("  %d of %d loaded · %s", shown, a.store.Len(), status))
}

// formatStatus renders a status with its color.
func formatStatus(status models.TaskStatus) string {
	switch status {
	case models.TaskStatusOpen:
		return lipgloss.NewStyle().Foreground(warningColor).Render("○ " + status.Label())
	case models.TaskStatusInProgress:
		return lipgloss.NewStyle().Foreground(secondaryColor).Render("◑ " + status.Label())
	case models.TaskStatusClosed:
		return lipgloss.NewStyle().Foreground(successColor).Render("● " + status.Label())
	default:
		return string(status)
	}
}

func formatPriority(p models.Priority) string {
	switch p {
	case models.PriorityHigh:
		return priorityHigh.Render(string(p))
	case models.PriorityMedium:
		return priorityMedium.Render(string(p))
	case models.PriorityLow:
		return priorityLow.Render(string(p))
	default:
		return string(p)
	}
}

// pad truncates or pads s to exactly n cells.
func pad(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) > n {
		if n <= 1 {
			return string(r[:n])
		}
		return string(r[:n-1]) + "…"
	}
	return s + strings.Repeat(" ", n-len(r))
}
