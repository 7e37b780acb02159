package handler_test

import (
	"context"

	"taskboard/internal/board"
	"taskboard/internal/middleware"
	"taskboard/internal/model"
	"taskboard/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockTaskStore struct {
	mock.Mock
}

func (m *MockTaskStore) Create(ctx context.Context, task *model.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	args := m.Called(ctx, id)
	task := args.Get(0)
	if task == nil {
		return nil, args.Error(1)
	}
	return task.(*model.Task), args.Error(1)
}

func (m *MockTaskStore) List(ctx context.Context, filter repository.TaskFilter) ([]model.Task, error) {
	args := m.Called(ctx, filter)
	tasks, _ := args.Get(0).([]model.Task)
	return tasks, args.Error(1)
}

func (m *MockTaskStore) HighestPosition(ctx context.Context, workspaceID uuid.UUID, status model.TaskStatus) (int, error) {
	args := m.Called(ctx, workspaceID, status)
	return args.Int(0), args.Error(1)
}

func (m *MockTaskStore) Update(ctx context.Context, task *model.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTaskStore) WorkspaceOf(ctx context.Context, ids []uuid.UUID) (uuid.UUID, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockTaskStore) BulkUpdate(ctx context.Context, workspaceID uuid.UUID, batch board.Batch) ([]model.Task, error) {
	args := m.Called(ctx, workspaceID, batch)
	tasks, _ := args.Get(0).([]model.Task)
	return tasks, args.Error(1)
}

type MockMemberStore struct {
	mock.Mock
}

func (m *MockMemberStore) Get(ctx context.Context, workspaceID, userID uuid.UUID) (*model.Member, error) {
	args := m.Called(ctx, workspaceID, userID)
	member := args.Get(0)
	if member == nil {
		return nil, args.Error(1)
	}
	return member.(*model.Member), args.Error(1)
}

func (m *MockMemberStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Member, error) {
	args := m.Called(ctx, id)
	member := args.Get(0)
	if member == nil {
		return nil, args.Error(1)
	}
	return member.(*model.Member), args.Error(1)
}

func (m *MockMemberStore) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Member, error) {
	args := m.Called(ctx, ids)
	members, _ := args.Get(0).(map[uuid.UUID]model.Member)
	return members, args.Error(1)
}

func (m *MockMemberStore) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]model.Member, error) {
	args := m.Called(ctx, workspaceID)
	members, _ := args.Get(0).([]model.Member)
	return members, args.Error(1)
}

func (m *MockMemberStore) CountByWorkspace(ctx context.Context, workspaceID uuid.UUID) (int64, error) {
	args := m.Called(ctx, workspaceID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMemberStore) UpdateRole(ctx context.Context, id uuid.UUID, role string) error {
	args := m.Called(ctx, id, role)
	return args.Error(0)
}

func (m *MockMemberStore) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockProjectStore struct {
	mock.Mock
}

func (m *MockProjectStore) Create(ctx context.Context, project *model.Project) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

func (m *MockProjectStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	args := m.Called(ctx, id)
	project := args.Get(0)
	if project == nil {
		return nil, args.Error(1)
	}
	return project.(*model.Project), args.Error(1)
}

func (m *MockProjectStore) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Project, error) {
	args := m.Called(ctx, ids)
	projects, _ := args.Get(0).(map[uuid.UUID]model.Project)
	return projects, args.Error(1)
}

func (m *MockProjectStore) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]model.Project, error) {
	args := m.Called(ctx, workspaceID)
	projects, _ := args.Get(0).([]model.Project)
	return projects, args.Error(1)
}

func (m *MockProjectStore) Update(ctx context.Context, project *model.Project) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

func (m *MockProjectStore) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockWorkspaceStore struct {
	mock.Mock
}

func (m *MockWorkspaceStore) Create(ctx context.Context, workspace *model.Workspace) error {
	args := m.Called(ctx, workspace)
	return args.Error(0)
}

func (m *MockWorkspaceStore) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Workspace, error) {
	args := m.Called(ctx, userID)
	workspaces, _ := args.Get(0).([]model.Workspace)
	return workspaces, args.Error(1)
}

func (m *MockWorkspaceStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Workspace, error) {
	args := m.Called(ctx, id)
	workspace := args.Get(0)
	if workspace == nil {
		return nil, args.Error(1)
	}
	return workspace.(*model.Workspace), args.Error(1)
}

func (m *MockWorkspaceStore) Update(ctx context.Context, workspace *model.Workspace) error {
	args := m.Called(ctx, workspace)
	return args.Error(0)
}

func (m *MockWorkspaceStore) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockWorkspaceStore) Join(ctx context.Context, workspaceID, userID uuid.UUID) (*model.Member, error) {
	args := m.Called(ctx, workspaceID, userID)
	member := args.Get(0)
	if member == nil {
		return nil, args.Error(1)
	}
	return member.(*model.Member), args.Error(1)
}

type MockTaskCache struct {
	mock.Mock
}

func (m *MockTaskCache) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]model.Task, error) {
	args := m.Called(ctx, workspaceID)
	tasks, _ := args.Get(0).([]model.Task)
	return tasks, args.Error(1)
}

func (m *MockTaskCache) Evict(ctx context.Context, workspaceID uuid.UUID) {
	m.Called(ctx, workspaceID)
}

// authenticatedAs stands in for the JWT middleware.
func authenticatedAs(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
		c.Next()
	}
}
