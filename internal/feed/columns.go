package feed

import (
	"strconv"
	"strings"
	"time"

	"github.com/fentz26/taskboard/internal/models"
)

// Displayable columns. They double as search and sort keys.
const (
	ColumnID        = "id"
	ColumnName      = "name"
	ColumnLabels    = "labels"
	ColumnStatus    = "status"
	ColumnPriority  = "priority"
	ColumnAssignee  = "assignee"
	ColumnDueDate   = "due_date"
	ColumnCreatedAt = "created_at"
	ColumnUpdatedAt = "updated_at"
	ColumnComment   = "comment"
)

// Columns lists the displayable columns in display order.
var Columns = []string{
	ColumnID, ColumnName, ColumnLabels, ColumnStatus, ColumnPriority,
	ColumnAssignee, ColumnDueDate, ColumnCreatedAt, ColumnUpdatedAt, ColumnComment,
}

// DateLayout is how due dates are displayed and searched.
const DateLayout = "2006-01-02"

type columnKind int

const (
	kindString columnKind = iota
	kindInt
	kindDate
	kindList
)

var columnKinds = map[string]columnKind{
	ColumnID:        kindInt,
	ColumnName:      kindString,
	ColumnLabels:    kindList,
	ColumnStatus:    kindString,
	ColumnPriority:  kindString,
	ColumnAssignee:  kindString,
	ColumnDueDate:   kindDate,
	ColumnCreatedAt: kindDate,
	ColumnUpdatedAt: kindDate,
	ColumnComment:   kindString,
}

// ValidColumn reports whether name is a displayable column.
func ValidColumn(name string) bool {
	_, ok := columnKinds[name]
	return ok
}

// NextColumn returns the column after name in display order, wrapping.
func NextColumn(name string) string {
	for i, c := range Columns {
		if c == name {
			return Columns[(i+1)%len(Columns)]
		}
	}
	return ColumnName
}

// ColumnValues returns the searchable text of a column. List columns yield
// one element per entry; every other column yields exactly one.
func ColumnValues(t *models.Task, column string) []string {
	switch column {
	case ColumnID:
		return []string{strconv.FormatInt(t.ID, 10)}
	case ColumnName:
		return []string{t.Name}
	case ColumnLabels:
		return t.Labels
	case ColumnStatus:
		return []string{string(t.Status)}
	case ColumnPriority:
		return []string{string(t.Priority)}
	case ColumnAssignee:
		return []string{t.Assignee}
	case ColumnDueDate:
		return []string{formatDate(t.DueDate, DateLayout)}
	case ColumnCreatedAt:
		return []string{formatDate(t.CreatedAt, time.RFC3339)}
	case ColumnUpdatedAt:
		return []string{formatDate(t.UpdatedAt, time.RFC3339)}
	case ColumnComment:
		return []string{t.Comment}
	}
	return nil
}

// ColumnText renders a column as a single string, joining lists with commas.
func ColumnText(t *models.Task, column string) string {
	return strings.Join(ColumnValues(t, column), ",")
}

func formatDate(ts time.Time, layout string) string {
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(layout)
}

func dateValue(t *models.Task, column string) time.Time {
	switch column {
	case ColumnDueDate:
		return t.DueDate
	case ColumnCreatedAt:
		return t.CreatedAt
	case ColumnUpdatedAt:
		return t.UpdatedAt
	}
	return time.Time{}
}

// compareColumn orders a and b by column: dates by instant, ids numerically,
// lists by their comma-joined text and strings byte-wise.
func compareColumn(a, b *models.Task, column string) int {
	switch columnKinds[column] {
	case kindInt:
		return compareInt64(a.ID, b.ID)
	case kindDate:
		return dateValue(a, column).Compare(dateValue(b, column))
	default:
		return strings.Compare(ColumnText(a, column), ColumnText(b, column))
	}
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
