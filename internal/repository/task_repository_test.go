package repository_test

import (
	"context"
	"testing"

	"taskboard/internal/board"
	"taskboard/internal/model"
	"taskboard/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskRepository_GetByID_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewTaskRepository(gormDB)

	mock.ExpectQuery(`SELECT .* FROM "tasks" WHERE id = `).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	task, err := repo.GetByID(context.Background(), uuid.New())

	assert.ErrorIs(t, err, repository.ErrTaskNotFound)
	assert.Nil(t, task)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_HighestPosition(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewTaskRepository(gormDB)
	workspaceID := uuid.New()

	mock.ExpectQuery(`SELECT COALESCE\(MAX\(position\), 0\) as max FROM "tasks" WHERE workspace_id = .* AND status = `).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(4000))

	highest, err := repo.HighestPosition(context.Background(), workspaceID, model.StatusTodo)

	assert.NoError(t, err)
	assert.Equal(t, 4000, highest)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_WorkspaceOf(t *testing.T) {
	workspaceID := uuid.New()
	otherWorkspace := uuid.New()
	a, b := uuid.New(), uuid.New()

	t.Run("single workspace", func(t *testing.T) {
		gormDB, mock := setupMockDB(t)
		repo := repository.NewTaskRepository(gormDB)

		mock.ExpectQuery(`SELECT .* FROM "tasks" WHERE id IN`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "workspace_id"}).
				AddRow(a.String(), workspaceID.String()).
				AddRow(b.String(), workspaceID.String()))

		got, err := repo.WorkspaceOf(context.Background(), []uuid.UUID{a, b})

		require.NoError(t, err)
		assert.Equal(t, workspaceID, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("mixed workspaces", func(t *testing.T) {
		gormDB, mock := setupMockDB(t)
		repo := repository.NewTaskRepository(gormDB)

		mock.ExpectQuery(`SELECT .* FROM "tasks" WHERE id IN`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "workspace_id"}).
				AddRow(a.String(), workspaceID.String()).
				AddRow(b.String(), otherWorkspace.String()))

		_, err := repo.WorkspaceOf(context.Background(), []uuid.UUID{a, b})

		assert.ErrorIs(t, err, repository.ErrMixedWorkspaces)
	})

	t.Run("unknown task", func(t *testing.T) {
		gormDB, mock := setupMockDB(t)
		repo := repository.NewTaskRepository(gormDB)

		mock.ExpectQuery(`SELECT .* FROM "tasks" WHERE id IN`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "workspace_id"}).
				AddRow(a.String(), workspaceID.String()))

		_, err := repo.WorkspaceOf(context.Background(), []uuid.UUID{a, b})

		assert.ErrorIs(t, err, repository.ErrTaskNotFound)
	})

	t.Run("empty batch", func(t *testing.T) {
		gormDB, _ := setupMockDB(t)
		repo := repository.NewTaskRepository(gormDB)

		_, err := repo.WorkspaceOf(context.Background(), nil)

		assert.ErrorIs(t, err, repository.ErrTaskNotFound)
	})
}

func TestTaskRepository_BulkUpdate(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewTaskRepository(gormDB)

	workspaceID := uuid.New()
	a, b := uuid.New(), uuid.New()
	batch := board.Batch{
		{ID: a, Status: model.StatusDone, Position: 2000},
		{ID: b, Status: model.StatusTodo, Position: 1000},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "tasks" SET .* WHERE id = .* AND workspace_id = `).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "tasks" SET .* WHERE id = .* AND workspace_id = `).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT .* FROM "tasks" WHERE id IN`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "workspace_id", "status", "position"}).
			AddRow(a.String(), workspaceID.String(), "DONE", 2000).
			AddRow(b.String(), workspaceID.String(), "TODO", 1000))

	updated, err := repo.BulkUpdate(context.Background(), workspaceID, batch)

	require.NoError(t, err)
	require.Len(t, updated, 2)
	assert.Equal(t, model.StatusDone, updated[0].Status)
	assert.Equal(t, 2000, updated[0].Position)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_BulkUpdate_RollsBackForeignTask(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewTaskRepository(gormDB)

	batch := board.Batch{
		{ID: uuid.New(), Status: model.StatusDone, Position: 2000},
		{ID: uuid.New(), Status: model.StatusTodo, Position: 1000},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "tasks" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "tasks" SET`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	updated, err := repo.BulkUpdate(context.Background(), uuid.New(), batch)

	assert.ErrorIs(t, err, repository.ErrMixedWorkspaces)
	assert.Nil(t, updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_BulkUpdate_DatabaseError(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewTaskRepository(gormDB)

	batch := board.Batch{{ID: uuid.New(), Status: model.StatusDone, Position: 2000}}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "tasks" SET`).WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err := repo.BulkUpdate(context.Background(), uuid.New(), batch)

	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}
