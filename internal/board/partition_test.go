package board_test

import (
	"fmt"
	"testing"

	"taskboard/internal/board"
	"taskboard/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func taskID(n int) uuid.UUID {
	return uuid.MustParse(fmt.Sprintf("00000000-0000-0000-0000-%012d", n))
}

func newTask(n int, status model.TaskStatus, position int) model.Task {
	return model.Task{
		ID:       taskID(n),
		Name:     fmt.Sprintf("task %d", n),
		Status:   status,
		Position: position,
	}
}

func TestBuild_EveryStatusPresent(t *testing.T) {
	p := board.Build(nil)

	require.Len(t, p, len(model.Statuses))
	for _, s := range model.Statuses {
		bucket, ok := p[s]
		assert.True(t, ok, s)
		assert.Empty(t, bucket, s)
	}
}

func TestBuild_Completeness(t *testing.T) {
	tasks := []model.Task{
		newTask(1, model.StatusDone, 3000),
		newTask(2, model.StatusTodo, 2000),
		newTask(3, model.StatusTodo, 1000),
		newTask(4, model.StatusBacklog, 1000),
		newTask(5, model.StatusDone, 1000),
		newTask(6, model.StatusInReview, 5000),
	}

	p := board.Build(tasks)

	assert.Equal(t, len(tasks), p.Len())
	seen := map[uuid.UUID]int{}
	for status, bucket := range p {
		for _, task := range bucket {
			assert.Equal(t, status, task.Status)
			seen[task.ID]++
		}
	}
	for _, task := range tasks {
		assert.Equal(t, 1, seen[task.ID], task.ID)
	}

	assert.Equal(t, []uuid.UUID{taskID(3), taskID(2)}, ids(p[model.StatusTodo]))
	assert.Equal(t, []uuid.UUID{taskID(5), taskID(1)}, ids(p[model.StatusDone]))
	assert.Empty(t, p[model.StatusInProgress])
}

func TestBuild_IgnoresUnknownStatus(t *testing.T) {
	tasks := []model.Task{
		newTask(1, model.StatusTodo, 1000),
		newTask(2, model.TaskStatus("ARCHIVED"), 1000),
	}

	p := board.Build(tasks)

	assert.Equal(t, 1, p.Len())
	_, ok := p[model.TaskStatus("ARCHIVED")]
	assert.False(t, ok)
}

func TestBuild_DuplicatePositionsBreakTiesByID(t *testing.T) {
	tasks := []model.Task{
		newTask(9, model.StatusTodo, 1000),
		newTask(3, model.StatusTodo, 1000),
		newTask(7, model.StatusTodo, 1000),
	}

	first := board.Build(tasks)
	reversed := []model.Task{tasks[2], tasks[1], tasks[0]}
	second := board.Build(reversed)

	want := []uuid.UUID{taskID(3), taskID(7), taskID(9)}
	assert.Equal(t, want, ids(first[model.StatusTodo]))
	assert.Equal(t, first, second)
}

func TestBuild_DoesNotReorderInput(t *testing.T) {
	tasks := []model.Task{
		newTask(2, model.StatusTodo, 2000),
		newTask(1, model.StatusTodo, 1000),
	}

	board.Build(tasks)

	assert.Equal(t, taskID(2), tasks[0].ID)
}

func TestPartition_Locate(t *testing.T) {
	p := board.Build([]model.Task{
		newTask(1, model.StatusTodo, 1000),
		newTask(2, model.StatusTodo, 2000),
		newTask(3, model.StatusDone, 1000),
	})

	slot, ok := p.Locate(taskID(2).String())
	require.True(t, ok)
	assert.Equal(t, board.Slot{Status: model.StatusTodo, Index: 1}, slot)

	_, ok = p.Locate(taskID(42).String())
	assert.False(t, ok)
}

func TestPositionAt(t *testing.T) {
	assert.Equal(t, 1000, board.PositionAt(0))
	assert.Equal(t, 5000, board.PositionAt(4))
	assert.Equal(t, board.MaxPosition, board.PositionAt(999))
	assert.Equal(t, board.MaxPosition, board.PositionAt(1000))
	assert.Equal(t, board.MaxPosition, board.PositionAt(250_000))
	assert.Equal(t, 1000, board.PositionAt(-3))
}

func ids(bucket []model.Task) []uuid.UUID {
	out := make([]uuid.UUID, len(bucket))
	for i, task := range bucket {
		out[i] = task.ID
	}
	return out
}
