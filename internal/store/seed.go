package store

import (
	"fmt"
	"time"

	"github.com/fentz26/taskboard/internal/models"
)

var (
	seedNames = []string{
		"Fix login redirect", "Write release notes", "Upgrade database driver",
		"Review onboarding flow", "Add audit export", "Triage flaky tests",
		"Rotate API keys", "Design empty states", "Profile search latency",
		"Document backup restore",
	}
	seedLabels = [][]string{
		{"bug", "auth"}, {"docs"}, {"infra", "db"}, {"ux"}, {"feature", "audit"},
		{"ci", "bug"}, {"security"}, {"ux", "design"}, {"perf", "search"}, {"docs", "ops"},
	}
	seedAssignees  = []string{"alice", "bob", "carol", "dave"}
	seedPriorities = []models.Priority{models.PriorityHigh, models.PriorityMedium, models.PriorityLow}
)

// Seed inserts n demo tasks spread over all statuses when the tasks table is
// empty. It returns the number of inserted tasks.
func (s *Store) Seed(n int) (int, error) {
	var existing int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM tasks`).Scan(&existing); err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	if existing > 0 || n <= 0 {
		return 0, nil
	}

	base := time.Now().UTC().Add(-time.Duration(n) * time.Hour).Truncate(time.Second)
	for i := 0; i < n; i++ {
		k := i % len(seedNames)
		req := models.CreateTaskRequest{
			Name:     fmt.Sprintf("%s #%d", seedNames[k], i+1),
			Labels:   seedLabels[k],
			Status:   models.AllStatuses[i%len(models.AllStatuses)],
			Priority: seedPriorities[i%len(seedPriorities)],
			Assignee: seedAssignees[i%len(seedAssignees)],
			DueDate:  base.Add(time.Duration(7*24+i) * time.Hour),
		}
		if _, err := s.insertTask(req, base.Add(time.Duration(i)*time.Hour)); err != nil {
			return i, err
		}
	}
	return n, nil
}
