// Package board keeps tasks ordered inside their status columns and turns a
// drag gesture into the smallest set of writes needed to persist it.
package board

import (
	"sort"

	"taskboard/internal/model"

	log "github.com/sirupsen/logrus"
)

// Partition groups tasks by status. Each bucket is sorted by position, ties
// broken by id. A Partition is treated as an immutable value: operations in
// this package return a new Partition instead of editing one in place.
type Partition map[model.TaskStatus][]model.Task

// Build partitions an unordered task list. Every known status gets a bucket,
// even when it is empty. Tasks with an unknown status are skipped.
func Build(tasks []model.Task) Partition {
	p := make(Partition, len(model.Statuses))
	for _, s := range model.Statuses {
		p[s] = []model.Task{}
	}

	for _, t := range tasks {
		if !t.Status.Valid() {
			log.WithFields(log.Fields{
				"task_id": t.ID,
				"status":  t.Status,
			}).Warn("board: ignoring task with unknown status")
			continue
		}
		p[t.Status] = append(p[t.Status], t)
	}

	for _, s := range model.Statuses {
		sortBucket(p[s])
	}
	return p
}

func sortBucket(bucket []model.Task) {
	sort.SliceStable(bucket, func(i, j int) bool {
		if bucket[i].Position != bucket[j].Position {
			return bucket[i].Position < bucket[j].Position
		}
		return bucket[i].ID.String() < bucket[j].ID.String()
	})
}

// Clone returns a copy whose buckets do not share backing arrays with p.
func (p Partition) Clone() Partition {
	out := make(Partition, len(p))
	for s, bucket := range p {
		out[s] = append([]model.Task{}, bucket...)
	}
	return out
}

// Tasks flattens the partition in column order.
func (p Partition) Tasks() []model.Task {
	var out []model.Task
	for _, s := range model.Statuses {
		out = append(out, p[s]...)
	}
	return out
}

// Len returns the number of tasks across all buckets.
func (p Partition) Len() int {
	n := 0
	for _, bucket := range p {
		n += len(bucket)
	}
	return n
}

// Locate finds the slot currently holding the task with the given id.
func (p Partition) Locate(id string) (Slot, bool) {
	for _, s := range model.Statuses {
		for i, t := range p[s] {
			if t.ID.String() == id {
				return Slot{Status: s, Index: i}, true
			}
		}
	}
	return Slot{}, false
}
