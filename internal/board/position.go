package board

import "taskboard/internal/model"

const (
	// PositionStep is the gap left between neighbouring tasks.
	PositionStep = 1000
	// MaxPosition caps positions. Columns longer than MaxPosition/PositionStep
	// collapse onto this value and fall back to the id tie-break.
	MaxPosition = 1_000_000
)

// PositionAt returns the position for the task at a zero-based list index.
func PositionAt(index int) int {
	if index < 0 {
		index = 0
	}
	if index >= MaxPosition/PositionStep {
		return MaxPosition
	}
	return (index + 1) * PositionStep
}

// allocate renumbers bucket in place for the given status and returns an
// update for every task whose position or status changed. before holds the
// state of each task prior to the move, keyed by id.
//
// The whole bucket is renumbered on every move. That is fine for boards of a
// few hundred tasks per column.
func allocate(bucket []model.Task, status model.TaskStatus, before map[string]model.Task) Batch {
	var batch Batch
	for i := range bucket {
		t := &bucket[i]
		t.Status = status
		t.Position = PositionAt(i)

		prev, ok := before[t.ID.String()]
		if ok && prev.Status == t.Status && prev.Position == t.Position {
			continue
		}
		batch = append(batch, Update{ID: t.ID, Status: t.Status, Position: t.Position})
	}
	return batch
}
