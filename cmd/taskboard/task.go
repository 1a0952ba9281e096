package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/fentz26/taskboard/internal/feed"
	"github.com/fentz26/taskboard/internal/models"
	"github.com/fentz26/taskboard/internal/tui"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
}

var taskAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new task",
	RunE:  runTaskAdd,
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List one page of tasks in a status",
	RunE:  runTaskList,
}

var taskShowCmd = &cobra.Command{
	Use:   "show [task-id]",
	Short: "Show task details",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskShow,
}

var taskStatusCmd = &cobra.Command{
	Use:   "status [task-id] [status]",
	Short: "Move a task to another status",
	Args:  cobra.ExactArgs(2),
	RunE:  runTaskStatus,
}

var taskCommentCmd = &cobra.Command{
	Use:   "comment [task-id] [comment]",
	Short: "Replace the comment of a task",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runTaskComment,
}

var (
	taskName     string
	taskLabels   []string
	taskPriority string
	taskAssignee string
	taskDue      string
	taskStatus   string
	taskComment  string
	listOffset   int
	listPageSize int
)

var (
	statusColors = map[models.TaskStatus]*color.Color{
		models.TaskStatusOpen:       color.New(color.FgYellow),
		models.TaskStatusInProgress: color.New(color.FgCyan),
		models.TaskStatusClosed:     color.New(color.FgGreen),
	}
	bold = color.New(color.Bold).SprintFunc()
	dim  = color.New(color.Faint).SprintFunc()
)

func init() {
	taskCmd.AddCommand(taskAddCmd, taskListCmd, taskShowCmd, taskStatusCmd, taskCommentCmd)

	taskAddCmd.Flags().StringVar(&taskName, "name", "", "Task name (required)")
	taskAddCmd.Flags().StringSliceVar(&taskLabels, "labels", nil, "Comma separated labels")
	taskAddCmd.Flags().StringVar(&taskPriority, "priority", string(models.PriorityMedium), "Priority (HIGH, MEDIUM, LOW)")
	taskAddCmd.Flags().StringVar(&taskAssignee, "assignee", "", "Assignee")
	taskAddCmd.Flags().StringVar(&taskDue, "due", "", "Due date (YYYY-MM-DD)")
	taskAddCmd.Flags().StringVar(&taskStatus, "status", string(models.TaskStatusOpen), "Initial status")
	taskAddCmd.MarkFlagRequired("name")

	taskListCmd.Flags().StringVar(&taskStatus, "status", string(models.TaskStatusOpen), "Status to list (OPEN, IN_PROGRESS, CLOSED)")
	taskListCmd.Flags().IntVar(&listOffset, "offset", 0, "Offset of the first task")
	taskListCmd.Flags().IntVar(&listPageSize, "page-size", 10, "Number of tasks to list")

	taskStatusCmd.Flags().StringVar(&taskComment, "comment", "", "Comment explaining the change (required)")
	taskStatusCmd.MarkFlagRequired("comment")
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	status, ok := models.ParseStatus(taskStatus)
	if !ok {
		return fmt.Errorf("invalid status %q", taskStatus)
	}
	req := models.CreateTaskRequest{
		Name:     taskName,
		Labels:   taskLabels,
		Status:   status,
		Priority: models.Priority(strings.ToUpper(taskPriority)),
		Assignee: taskAssignee,
	}
	if taskDue != "" {
		due, err := time.Parse(feed.DateLayout, taskDue)
		if err != nil {
			return fmt.Errorf("invalid due date %q: %w", taskDue, err)
		}
		req.DueDate = due
	}

	task, err := tui.NewClient(apiAddr).CreateTask(cmd.Context(), req)
	if err != nil {
		return err
	}

	fmt.Printf("Created task: %d\n", task.ID)
	return nil
}

func runTaskList(cmd *cobra.Command, args []string) error {
	status, ok := models.ParseStatus(taskStatus)
	if !ok {
		return fmt.Errorf("invalid status %q", taskStatus)
	}

	page, err := tui.NewClient(apiAddr).FetchPage(cmd.Context(), status, listOffset, listPageSize)
	if err != nil {
		return err
	}

	if len(page.Tasks) == 0 {
		fmt.Println("No tasks found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATUS\tPRIORITY\tASSIGNEE\tDUE")
	for i := range page.Tasks {
		t := &page.Tasks[i]
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			t.ID,
			truncate(t.Name, 40),
			colorStatus(t.Status),
			t.Priority,
			t.Assignee,
			feed.ColumnText(t, feed.ColumnDueDate),
		)
	}
	w.Flush()

	p := page.Pagination
	footer := fmt.Sprintf("Showing %d-%d of %d", p.Offset+1, p.Offset+len(page.Tasks), p.Total)
	if p.HasNext {
		footer += fmt.Sprintf(" (next: --offset %d)", p.Offset+p.PageSize)
	}
	fmt.Println(dim(footer))
	return nil
}

func runTaskShow(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	task, err := tui.NewClient(apiAddr).FetchTaskDetail(cmd.Context(), id)
	if err != nil {
		return err
	}
	printTask(task)
	return nil
}

func runTaskStatus(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	status, ok := models.ParseStatus(args[1])
	if !ok {
		return fmt.Errorf("invalid status %q", args[1])
	}

	task, err := tui.NewClient(apiAddr).UpdateStatus(cmd.Context(), id, status, taskComment)
	if err != nil {
		return err
	}

	fmt.Printf("Task %d is now %s\n", task.ID, colorStatus(task.Status))
	return nil
}

func runTaskComment(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	task, err := tui.NewClient(apiAddr).UpdateComment(cmd.Context(), id, strings.Join(args[1:], " "))
	if err != nil {
		return err
	}

	fmt.Printf("Updated comment of task %d\n", task.ID)
	return nil
}

// --- Helpers ---

func printTask(t *models.Task) {
	fmt.Printf("%s %s\n", bold(fmt.Sprintf("#%d", t.ID)), bold(t.Name))
	fmt.Printf("Status:    %s\n", colorStatus(t.Status))
	fmt.Printf("Priority:  %s\n", t.Priority)
	fmt.Printf("Assignee:  %s\n", t.Assignee)
	fmt.Printf("Labels:    %s\n", feed.ColumnText(t, feed.ColumnLabels))
	fmt.Printf("Due:       %s\n", feed.ColumnText(t, feed.ColumnDueDate))
	fmt.Printf("Created:   %s\n", t.CreatedAt.Format(time.RFC3339))
	fmt.Printf("Updated:   %s\n", t.UpdatedAt.Format(time.RFC3339))
	if t.Comment != "" {
		fmt.Printf("Comment:   %s\n", t.Comment)
	}
}

func colorStatus(s models.TaskStatus) string {
	if c, ok := statusColors[s]; ok {
		return c.Sprint(s.Label())
	}
	return string(s)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", raw)
	}
	return id, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
