package feed

import (
	"sort"
	"strings"

	"github.com/fentz26/taskboard/internal/models"
)

// Inputs are everything the visible list depends on.
type Inputs struct {
	Records   []models.Task
	Partition models.TaskStatus
	Filter    SearchFilter
	Sort      SortConfig
}

// Project derives the visible list. It never modifies in.Records.
//
// Records are put in creation order, records outside the active partition are
// dropped, then the search filter and the sort are applied. The sort is
// stable, so ties keep creation order.
func Project(in Inputs) []models.Task {
	out := make([]models.Task, len(in.Records))
	copy(out, in.Records)

	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].CreatedAt.Compare(out[j].CreatedAt); c != 0 {
			return c < 0
		}
		return out[i].ID < out[j].ID
	})

	out = filterInPlace(out, func(t *models.Task) bool {
		if in.Partition == "" {
			return true
		}
		// A task moved to another status, including the one under detail
		// view, no longer belongs here.
		return t.Status == in.Partition
	})

	if query := strings.ToLower(in.Filter.Value); query != "" {
		out = filterInPlace(out, func(t *models.Task) bool {
			for _, v := range ColumnValues(t, in.Filter.Column) {
				if strings.Contains(strings.ToLower(v), query) {
					return true
				}
			}
			return false
		})
	}

	if in.Sort.Active() {
		key := in.Sort.Key
		desc := in.Sort.Direction == SortDesc
		sort.SliceStable(out, func(i, j int) bool {
			c := compareColumn(&out[i], &out[j], key)
			if desc {
				return c > 0
			}
			return c < 0
		})
	}

	return out
}

func filterInPlace(tasks []models.Task, keep func(*models.Task) bool) []models.Task {
	n := 0
	for i := range tasks {
		if keep(&tasks[i]) {
			tasks[n] = tasks[i]
			n++
		}
	}
	return tasks[:n]
}
