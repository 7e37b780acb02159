package repository_test

import (
	"context"
	"testing"

	"taskboard/internal/model"
	"taskboard/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestWorkspaceRepository_CreateAddsAdmin(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewWorkspaceRepository(gormDB)

	workspaceID := uuid.New()
	workspace := &model.Workspace{
		Name:       "Acme",
		OwnerID:    uuid.New(),
		InviteCode: "abcdefghij",
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "workspaces"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(workspaceID.String()))
	mock.ExpectQuery(`INSERT INTO "members"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectCommit()

	err := repo.Create(context.Background(), workspace)

	assert.NoError(t, err)
	assert.Equal(t, workspaceID, workspace.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkspaceRepository_CreateRollsBack(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewWorkspaceRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "workspaces"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectQuery(`INSERT INTO "members"`).WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &model.Workspace{Name: "Acme", OwnerID: uuid.New()})

	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkspaceRepository_GetByID_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewWorkspaceRepository(gormDB)

	mock.ExpectQuery(`SELECT .* FROM "workspaces" WHERE id = `).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), uuid.New())

	assert.ErrorIs(t, err, repository.ErrWorkspaceNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberRepository_Get_NotMember(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewMemberRepository(gormDB)

	mock.ExpectQuery(`SELECT .* FROM "members" WHERE workspace_id = .* AND user_id = `).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	member, err := repo.Get(context.Background(), uuid.New(), uuid.New())

	assert.NoError(t, err)
	assert.Nil(t, member)
	assert.NoError(t, mock.ExpectationsWereMet())
}
