// Package tui provides the interactive terminal UI for taskboard.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fentz26/taskboard/internal/config"
	"github.com/fentz26/taskboard/internal/feed"
	"github.com/fentz26/taskboard/internal/models"
	"github.com/fentz26/taskboard/internal/prefs"
)

var (
	// Colors
	primaryColor   = lipgloss.Color("#7C3AED")
	secondaryColor = lipgloss.Color("#6366F1")
	successColor   = lipgloss.Color("#10B981")
	warningColor   = lipgloss.Color("#F59E0B")
	errorColor     = lipgloss.Color("#EF4444")
	mutedColor     = lipgloss.Color("#6B7280")
	fgColor        = lipgloss.Color("#F9FAFB")
	cyanColor      = lipgloss.Color("#06B6D4")

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Background(primaryColor).
			Foreground(fgColor).
			Bold(true).
			Padding(0, 1)

	tabStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Padding(0, 1)

	taskItemStyle = lipgloss.NewStyle().
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Background(primaryColor).
			Foreground(fgColor).
			Bold(true).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(0, 1)

	errorStyle   = lipgloss.NewStyle().Foreground(errorColor)
	successStyle = lipgloss.NewStyle().Foreground(successColor)
)

// App is the main TUI application model. All feed state is touched from
// Update only; backend calls run inside commands.
type App struct {
	cfg *config.Config

	store  *feed.Store
	orch   *feed.Orchestrator
	bridge *feed.Bridge
	nav    *feed.Navigator

	keys    KeyMap
	help    help.Model
	search  *SearchBarModel
	comment textarea.Model
	spinner spinner.Model

	tab     int
	editing bool
	width   int
	height  int
	message string
}

// New creates a new TUI application over backend. Stored search and sort
// preferences are applied and kept up to date when pf is not nil.
func New(backend feed.Backend, cfg *config.Config, pf *prefs.File) *App {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	store := feed.NewStore(cfg.PageSize)
	if pf != nil {
		prefs.Bind(pf, store)
	}

	ta := textarea.New()
	ta.Placeholder = "Comment (required to change the status)"
	ta.ShowLineNumbers = false
	ta.CharLimit = 1000
	ta.SetHeight(3)
	ta.SetWidth(60)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(primaryColor)

	return &App{
		cfg:     cfg,
		store:   store,
		orch:    feed.NewOrchestrator(store, backend),
		bridge:  feed.NewBridge(store, backend),
		nav:     feed.NewNavigator(store),
		keys:    DefaultKeyMap,
		help:    help.New(),
		search:  NewSearchBarModel(store.SearchFilter()),
		comment: ta,
		spinner: sp,
	}
}

// Run starts the TUI application. The standard logger is redirected to the
// configured log file while the terminal is in use.
func (a *App) Run() error {
	if a.cfg.LogPath != "" {
		if err := os.MkdirAll(filepath.Dir(a.cfg.LogPath), 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := tea.LogToFile(a.cfg.LogPath, "taskboard")
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
	}

	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.spinner.Tick,
		a.loadFirstPage(),
		a.refreshCounts(),
	)
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a, a.handleKey(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		a.search.SetWidth(msg.Width - 30)
		a.comment.SetWidth(max(20, msg.Width-8))
		cmds = append(cmds, a.fillViewport())

	case pageLoadedMsg:
		if a.orch.ApplyPage(msg.res) {
			if msg.res.Err != nil {
				log.Printf("tui: page %s@%d failed: %v", msg.res.Request.Partition, msg.res.Request.Offset, msg.res.Err)
			}
			cmds = append(cmds, a.fillViewport())
		}

	case countsLoadedMsg:
		if a.orch.ApplyCounts(msg.res) && msg.res.Err != nil {
			log.Printf("tui: counts refresh failed: %v", msg.res.Err)
		}

	case detailLoadedMsg:
		if a.orch.ApplyDetail(msg.res) && msg.res.Err != nil {
			log.Printf("tui: task %d detail failed: %v", msg.res.Request.ID, msg.res.Err)
		}

	case mutationDoneMsg:
		cmds = append(cmds, a.applyMutation(msg.res))

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		cmds = append(cmds, cmd)

	default:
		// Cursor blinks and similar messages for the focused inputs.
		cmds = append(cmds, a.search.Update(msg))
		var cmd tea.Cmd
		a.comment, cmd = a.comment.Update(msg)
		cmds = append(cmds, cmd)
	}

	return a, tea.Batch(cmds...)
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.Type == tea.KeyCtrlC {
		return tea.Quit
	}
	if a.search.Focused() {
		return a.handleSearchKey(msg)
	}
	if a.editing {
		return a.handleCommentKey(msg)
	}

	switch {
	case key.Matches(msg, a.keys.Quit):
		return tea.Quit
	case key.Matches(msg, a.keys.Help):
		a.help.ShowAll = !a.help.ShowAll
		return nil
	}

	if a.nav.State() == feed.DetailOpen {
		return a.handleDetailKey(msg)
	}
	return a.handleListKey(msg)
}

func (a *App) handleListKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, a.keys.Down):
		a.nav.Down()
		return a.prefetch()

	case key.Matches(msg, a.keys.Up):
		a.nav.Up()

	case key.Matches(msg, a.keys.Open):
		if id, ok := a.nav.Enter(); ok {
			return a.openDetail(id)
		}

	case key.Matches(msg, a.keys.NextTab):
		return a.switchTab(a.tab + 1)

	case key.Matches(msg, a.keys.PrevTab):
		return a.switchTab(a.tab - 1)

	case key.Matches(msg, a.keys.Search):
		a.message = ""
		return a.search.Focus()

	case key.Matches(msg, a.keys.SearchColumn):
		return a.setSearchColumn(feed.NextColumn(a.store.SearchFilter().Column))

	case key.Matches(msg, a.keys.ClearSearch):
		a.store.ClearSearch()
		a.search.Reset(a.store.SearchFilter())

	case key.Matches(msg, a.keys.SortAsc):
		return a.toggleSort(feed.SortAsc)

	case key.Matches(msg, a.keys.SortDesc):
		return a.toggleSort(feed.SortDesc)

	case key.Matches(msg, a.keys.ClearSort):
		a.store.ClearSort()

	case key.Matches(msg, a.keys.Retry):
		if req, ok := a.orch.Retry(); ok {
			return a.fetchPage(req)
		}
		return tea.Batch(a.loadFirstPage(), a.refreshCounts())
	}
	return nil
}

func (a *App) handleDetailKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, a.keys.Close):
		a.closeDetail()

	case key.Matches(msg, a.keys.Right):
		if id, ok := a.nav.Right(); ok {
			return tea.Batch(a.openDetail(id), a.prefetch())
		}

	case key.Matches(msg, a.keys.Left):
		if id, ok := a.nav.Left(); ok {
			return a.openDetail(id)
		}

	case key.Matches(msg, a.keys.StatusOpen, a.keys.StatusInProgress, a.keys.StatusClosed):
		a.nav.Digit([]rune(msg.String())[0])

	case key.Matches(msg, a.keys.EditComment):
		a.editing = true
		return a.comment.Focus()

	case key.Matches(msg, a.keys.Submit):
		return a.submit()

	case key.Matches(msg, a.keys.Retry):
		if id, ok := a.store.DetailID(); ok {
			return a.loadDetail(id)
		}
	}
	return nil
}

func (a *App) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case msg.Type == tea.KeyEsc, msg.Type == tea.KeyEnter:
		a.search.Blur()
		return nil
	case key.Matches(msg, a.keys.ClearSearch):
		a.store.ClearSearch()
		a.search.Reset(a.store.SearchFilter())
		return nil
	case msg.Type == tea.KeyTab:
		return a.setSearchColumn(feed.NextColumn(a.store.SearchFilter().Column))
	}

	cmd := a.search.Update(msg)
	a.store.SetSearchValue(a.search.Value())
	return tea.Batch(cmd, a.fillViewport())
}

// setSearchColumn moves the search to column and keeps the query.
func (a *App) setSearchColumn(column string) tea.Cmd {
	f := a.store.SearchFilter()
	f.Column = column
	if err := a.store.SetSearchFilter(f); err != nil {
		a.message = "Error: " + err.Error()
		return nil
	}
	a.search.SetColumn(column)
	return a.fillViewport()
}

func (a *App) handleCommentKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, a.keys.Close):
		a.editing = false
		a.comment.Blur()
		return nil
	case key.Matches(msg, a.keys.Submit):
		return a.submit()
	}

	var cmd tea.Cmd
	a.comment, cmd = a.comment.Update(msg)
	return cmd
}

func (a *App) toggleSort(dir feed.SortDirection) tea.Cmd {
	if err := a.store.ToggleSort(a.store.SearchFilter().Column, dir); err != nil {
		a.message = "Error: " + err.Error()
	}
	return nil
}

func (a *App) partition() models.TaskStatus {
	return a.cfg.Partitions[a.tab]
}

func (a *App) switchTab(i int) tea.Cmd {
	n := len(a.cfg.Partitions)
	a.tab = ((i % n) + n) % n
	a.message = ""
	return a.loadFirstPage()
}

func (a *App) loadFirstPage() tea.Cmd {
	a.closeDetail()
	a.nav.Reset()
	return a.fetchPage(a.orch.LoadFirstPage(a.partition()))
}

// prefetch loads the next page once the focus is within PrefetchRows of the
// end of the visible list.
func (a *App) prefetch() tea.Cmd {
	idx := a.nav.Index()
	if idx < 0 || idx < len(a.store.Visible())-1-a.cfg.PrefetchRows {
		return nil
	}
	return a.loadNextPage()
}

// fillViewport loads more pages while the visible list is shorter than the
// list area, so a narrow search keeps scanning.
func (a *App) fillViewport() tea.Cmd {
	if len(a.store.Visible()) >= a.listHeight() {
		return nil
	}
	return a.loadNextPage()
}

// loadNextPage requests the page at the cursor. After a failure nothing is
// requested until the user retries.
func (a *App) loadNextPage() tea.Cmd {
	if a.store.PagePhase().Phase == feed.PhaseError {
		return nil
	}
	req, ok := a.orch.LoadNextPage()
	if !ok {
		return nil
	}
	return a.fetchPage(req)
}

func (a *App) refreshCounts() tea.Cmd {
	return a.fetchCounts(a.orch.RefreshCounts(a.cfg.Partitions))
}

func (a *App) openDetail(id int64) tea.Cmd {
	a.editing = false
	a.comment.Blur()
	a.comment.Reset()
	a.message = ""
	return a.loadDetail(id)
}

func (a *App) loadDetail(id int64) tea.Cmd {
	req, ok := a.orch.LoadDetail(id)
	if !ok {
		return nil
	}
	return a.fetchDetail(req)
}

func (a *App) closeDetail() {
	a.editing = false
	a.comment.Blur()
	a.comment.Reset()
	a.nav.Close()
}

func (a *App) submit() tea.Cmd {
	id, ok := a.store.DetailID()
	if !ok || a.store.MutationPhase().Loading() {
		return nil
	}

	req, send, err := a.bridge.Submit(id, a.nav.Pending(), a.comment.Value())
	if err != nil {
		log.Printf("tui: task %d not submitted: %v", id, err)
		return nil
	}
	if !send {
		a.closeDetail()
		return nil
	}
	return a.sendMutation(req)
}

func (a *App) applyMutation(res feed.MutationResult) tea.Cmd {
	refresh := a.bridge.Apply(res)
	if res.Err != nil {
		log.Printf("tui: task %d mutation failed: %v", res.Request.ID, res.Err)
		return nil
	}

	a.message = fmt.Sprintf("✓ Task %d updated", res.Request.ID)
	if id, ok := a.store.DetailID(); ok && id == res.Request.ID {
		a.closeDetail()
	}

	var cmds []tea.Cmd
	if refresh {
		cmds = append(cmds, a.refreshCounts())
	}
	cmds = append(cmds, a.fillViewport())
	return tea.Batch(cmds...)
}

// View implements tea.Model
func (a *App) View() string {
	var b strings.Builder

	b.WriteString(a.renderHeader() + "\n")
	b.WriteString(a.search.View(a.store.SortConfig()) + "\n")
	b.WriteString(strings.Repeat("─", max(a.width, 20)) + "\n")

	if a.nav.State() == feed.DetailOpen {
		b.WriteString(a.renderTaskDetail())
	} else {
		b.WriteString(a.renderTaskList(a.listHeight()))
	}

	if a.message != "" {
		style := successStyle
		if strings.HasPrefix(a.message, "Error") {
			style = errorStyle
		}
		b.WriteString("\n" + style.Render(a.message))
	}
	b.WriteString("\n")

	if a.nav.State() == feed.DetailOpen && !a.help.ShowAll {
		b.WriteString(a.help.View(detailHelp{a.keys}))
	} else {
		b.WriteString(a.help.View(a.keys))
	}
	return b.String()
}

func (a *App) renderHeader() string {
	tabs := make([]string, 0, len(a.cfg.Partitions))
	for i, st := range a.cfg.Partitions {
		label := st.Label()
		if n, ok := a.store.Count(st); ok {
			label = fmt.Sprintf("%s (%d)", label, n)
		}
		if i == a.tab {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}

	header := titleStyle.Render("Taskboard") + " " + lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	if phase := a.store.CountsPhase(); phase.Loading() {
		header += " " + a.spinner.View()
	} else if phase.Err != nil {
		header += " " + errorStyle.Render("counts unavailable")
	}
	return header
}

// listHeight is the number of task rows that fit the list area.
func (a *App) listHeight() int {
	if a.height == 0 {
		return a.cfg.PageSize
	}
	return max(3, a.height-8)
}

// errorText renders an operation error for inline display.
func errorText(err error) string {
	switch {
	case errors.Is(err, feed.ErrTransport):
		return "Error: backend unreachable (" + err.Error() + ")"
	default:
		return "Error: " + err.Error()
	}
}

type pageLoadedMsg struct {
	res feed.PageResult
}

type countsLoadedMsg struct {
	res feed.CountsResult
}

type detailLoadedMsg struct {
	res feed.DetailResult
}

type mutationDoneMsg struct {
	res feed.MutationResult
}

func (a *App) fetchPage(req feed.PageRequest) tea.Cmd {
	return func() tea.Msg {
		return pageLoadedMsg{a.orch.FetchPage(context.Background(), req)}
	}
}

func (a *App) fetchCounts(req feed.CountsRequest) tea.Cmd {
	return func() tea.Msg {
		return countsLoadedMsg{a.orch.FetchCounts(context.Background(), req)}
	}
}

func (a *App) fetchDetail(req feed.DetailRequest) tea.Cmd {
	return func() tea.Msg {
		return detailLoadedMsg{a.orch.FetchDetail(context.Background(), req)}
	}
}

func (a *App) sendMutation(req feed.MutationRequest) tea.Cmd {
	return func() tea.Msg {
		return mutationDoneMsg{a.bridge.Send(context.Background(), req)}
	}
}
