package feed

import "github.com/fentz26/taskboard/internal/models"

// Merge folds a page fetched at offset into the existing accumulation.
//
// The first page replaces the accumulation so records removed on the server
// disappear. Later pages keep the existing order and append only unseen ids;
// an id that is already present keeps its position and takes the fresher
// fields. Merging the same page twice is a no-op.
func Merge(existing, page []models.Task, offset int) []models.Task {
	if offset == 0 {
		existing = nil
	}

	out := make([]models.Task, 0, len(existing)+len(page))
	pos := make(map[int64]int, len(existing)+len(page))
	for _, t := range existing {
		if _, dup := pos[t.ID]; dup {
			continue
		}
		pos[t.ID] = len(out)
		out = append(out, t.Clone())
	}
	for _, t := range page {
		if i, ok := pos[t.ID]; ok {
			out[i] = t.Clone()
			continue
		}
		pos[t.ID] = len(out)
		out = append(out, t.Clone())
	}
	return out
}
