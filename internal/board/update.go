package board

import (
	"github.com/google/uuid"

	"taskboard/internal/model"
)

// Update is one write needed to persist a move.
type Update struct {
	ID       uuid.UUID        `json:"id" binding:"required"`
	Status   model.TaskStatus `json:"status" binding:"required,taskstatus"`
	Position int              `json:"position" binding:"required,min=1000,max=1000000"`
}

// Batch is the ordered list of updates produced by one move.
type Batch []Update

// IDs returns the task ids in batch order.
func (b Batch) IDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(b))
	for i, u := range b {
		ids[i] = u.ID
	}
	return ids
}
