package board

import (
	"errors"
	"fmt"

	"taskboard/internal/model"
)

var (
	// ErrInvalidMove is wrapped by every error Move returns. The input
	// partition is left untouched whenever it is returned.
	ErrInvalidMove = errors.New("invalid move")

	ErrNoDestination = fmt.Errorf("%w: no destination", ErrInvalidMove)
	ErrUnknownColumn = fmt.Errorf("%w: unknown column", ErrInvalidMove)
	ErrSourceRange   = fmt.Errorf("%w: source index out of range", ErrInvalidMove)
	ErrDestRange     = fmt.Errorf("%w: destination index out of range", ErrInvalidMove)
)

// Slot addresses a place on the board: a column and a zero-based index in it.
// It carries no binding rules; Move is what decides whether a slot is usable.
type Slot struct {
	Status model.TaskStatus `json:"status"`
	Index  int              `json:"index"`
}

// Move applies a drag gesture that ends at dst. A nil dst means the task was
// dropped outside any column.
//
// It returns the new partition together with the updates that bring the store
// in line with it; callers apply both or neither. On error the original
// partition is returned with an empty batch.
func Move(p Partition, src Slot, dst *Slot) (Partition, Batch, error) {
	if dst == nil {
		return p, nil, ErrNoDestination
	}
	if !src.Status.Valid() || !dst.Status.Valid() {
		return p, nil, ErrUnknownColumn
	}

	from := p[src.Status]
	if src.Index < 0 || src.Index >= len(from) {
		return p, nil, ErrSourceRange
	}

	sameColumn := src.Status == dst.Status
	limit := len(p[dst.Status])
	if sameColumn {
		limit = len(from) - 1
	}
	if dst.Index < 0 || dst.Index > limit {
		return p, nil, ErrDestRange
	}

	if sameColumn && src.Index == dst.Index {
		return p, nil, nil
	}

	before := make(map[string]model.Task, len(from)+limit)
	for _, t := range from {
		before[t.ID.String()] = t
	}
	for _, t := range p[dst.Status] {
		before[t.ID.String()] = t
	}

	next := p.Clone()

	source := next[src.Status]
	moved := source[src.Index]
	source = append(source[:src.Index:src.Index], source[src.Index+1:]...)
	next[src.Status] = source

	target := next[dst.Status]
	target = append(target[:dst.Index:dst.Index], append([]model.Task{moved}, target[dst.Index:]...)...)
	next[dst.Status] = target

	batch := allocate(target, dst.Status, before)
	if !sameColumn {
		batch = append(batch, allocate(source, src.Status, before)...)
	}
	return next, batch, nil
}
