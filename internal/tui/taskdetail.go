package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fentz26/taskboard/internal/feed"
	"github.com/fentz26/taskboard/internal/models"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(mutedColor)

	labelStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Width(10)

	valueStyle = lipgloss.NewStyle().
			Foreground(fgColor)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(secondaryColor).
			MarginTop(1)
)

func (a *App) renderTaskDetail() string {
	t, ok := a.nav.Detail()
	if !ok {
		return "\n  Loading task details...\n"
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("#%d %s", t.ID, t.Name)))
	b.WriteString("\n")

	b.WriteString(renderField("Status", formatStatus(t.Status)))
	b.WriteString(renderField("Priority", formatPriority(t.Priority)))
	b.WriteString(renderField("Assignee", t.Assignee))
	b.WriteString(renderField("Labels", feed.ColumnText(&t, feed.ColumnLabels)))
	b.WriteString(renderField("Due", feed.ColumnText(&t, feed.ColumnDueDate)))
	b.WriteString(renderField("Created", t.CreatedAt.Local().Format("2006-01-02 15:04")))
	b.WriteString(renderField("Updated", t.UpdatedAt.Local().Format("2006-01-02 15:04")))
	if t.Comment != "" {
		b.WriteString(renderField("Comment", t.Comment))
	}

	switch phase := a.store.DetailPhase(); {
	case phase.Loading():
		b.WriteString(helpStyle.Render(a.spinner.View()+" refreshing...") + "\n")
	case phase.Err != nil:
		b.WriteString(errorStyle.Render(errorText(phase.Err)) + "\n")
	}

	b.WriteString(sectionStyle.Render("Update"))
	b.WriteString("\n")
	b.WriteString(renderStatusChoice(t.Status, a.nav.Pending()) + "\n")
	b.WriteString(a.comment.View() + "\n")

	switch phase := a.store.MutationPhase(); {
	case phase.Loading():
		b.WriteString(a.spinner.View() + " Saving...\n")
	case phase.Err != nil:
		b.WriteString(errorStyle.Render(errorText(phase.Err)) + "\n")
	}

	return panelStyle.Width(max(40, a.width-4)).Render(b.String())
}

// renderStatusChoice shows the statuses selectable with 1-3, marking the
// pending one and the current one.
func renderStatusChoice(current, pending models.TaskStatus) string {
	parts := make([]string, len(models.AllStatuses))
	for i, st := range models.AllStatuses {
		label := fmt.Sprintf("%d %s", i+1, st.Label())
		if st == current {
			label += " (current)"
		}
		if st == pending {
			parts[i] = activeTabStyle.Render(label)
		} else {
			parts[i] = tabStyle.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func renderField(label, value string) string {
	if value == "" {
		value = "-"
	}
	return fmt.Sprintf("%s %s\n", labelStyle.Render(label+":"), valueStyle.Render(value))
}
