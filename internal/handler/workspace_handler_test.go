package handler_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"taskboard/internal/handler"
	"taskboard/internal/model"
	"taskboard/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type workspaceFixture struct {
	router     *gin.Engine
	workspaces *MockWorkspaceStore
	members    *MockMemberStore
	cache      *MockTaskCache
	userID     uuid.UUID
}

func setupWorkspaceTest() *workspaceFixture {
	gin.SetMode(gin.TestMode)
	f := &workspaceFixture{
		router:     gin.New(),
		workspaces: new(MockWorkspaceStore),
		members:    new(MockMemberStore),
		cache:      new(MockTaskCache),
		userID:     uuid.New(),
	}

	h := handler.NewWorkspaceHandler(f.workspaces, f.members, f.cache)
	mh := handler.NewMemberHandler(f.members, f.cache)

	r := f.router
	r.Use(authenticatedAs(f.userID))
	r.POST("/workspaces", h.Create)
	r.PATCH("/workspaces/:id", h.Update)
	r.POST("/workspaces/:id/join", h.Join)
	r.POST("/workspaces/:id/reset-invite-code", h.ResetInviteCode)
	r.GET("/workspaces/:id/members", mh.GetAll)
	r.DELETE("/members/:id", mh.Delete)
	r.PATCH("/members/:id", mh.Update)
	return f
}

func TestCreateWorkspace_GeneratesInviteCode(t *testing.T) {
	f := setupWorkspaceTest()
	f.workspaces.On("Create", mock.Anything, mock.MatchedBy(func(w *model.Workspace) bool {
		return w.OwnerID == f.userID && w.Name == "Acme"
	})).Return(nil)

	resp := doJSON(f.router, "POST", "/workspaces", handler.WorkspaceRequest{Name: "Acme"})

	assert.Equal(t, http.StatusCreated, resp.Code)
	var got handler.WorkspaceResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
	assert.Len(t, got.InviteCode, model.InviteCodeLength)
	assert.Equal(t, f.userID.String(), got.OwnerID)
	f.workspaces.AssertExpectations(t)
}

func TestUpdateWorkspace_RequiresAdmin(t *testing.T) {
	f := setupWorkspaceTest()
	workspaceID := uuid.New()
	f.members.On("Get", mock.Anything, workspaceID, f.userID).
		Return(&model.Member{ID: uuid.New(), WorkspaceID: workspaceID, UserID: f.userID, Role: model.RoleMember}, nil)

	resp := doJSON(f.router, "PATCH", "/workspaces/"+workspaceID.String(), handler.WorkspaceRequest{Name: "Renamed"})

	assert.Equal(t, http.StatusForbidden, resp.Code)
	f.workspaces.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestResetInviteCode_ChangesCode(t *testing.T) {
	f := setupWorkspaceTest()
	workspace := &model.Workspace{ID: uuid.New(), Name: "Acme", OwnerID: f.userID, InviteCode: "AAAAAAAAAA"}
	f.members.On("Get", mock.Anything, workspace.ID, f.userID).
		Return(&model.Member{ID: uuid.New(), WorkspaceID: workspace.ID, UserID: f.userID, Role: model.RoleAdmin}, nil)
	f.workspaces.On("GetByID", mock.Anything, workspace.ID).Return(workspace, nil)
	f.workspaces.On("Update", mock.Anything, workspace).Return(nil)

	resp := doJSON(f.router, "POST", "/workspaces/"+workspace.ID.String()+"/reset-invite-code", nil)

	assert.Equal(t, http.StatusOK, resp.Code)
	var got handler.WorkspaceResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
	assert.Len(t, got.InviteCode, model.InviteCodeLength)
	assert.NotEqual(t, "AAAAAAAAAA", got.InviteCode)
}

func TestJoinWorkspace(t *testing.T) {
	cases := []struct {
		name     string
		code     string
		joinErr  error
		expected int
	}{
		{"valid code", "Invite1234", nil, http.StatusOK},
		{"wrong code", "nope", nil, http.StatusBadRequest},
		{"already a member", "Invite1234", repository.ErrAlreadyMember, http.StatusConflict},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := setupWorkspaceTest()
			workspace := &model.Workspace{ID: uuid.New(), Name: "Acme", InviteCode: "Invite1234"}
			f.workspaces.On("GetByID", mock.Anything, workspace.ID).Return(workspace, nil)
			if tc.joinErr != nil {
				f.workspaces.On("Join", mock.Anything, workspace.ID, f.userID).Return(nil, tc.joinErr)
			} else {
				f.workspaces.On("Join", mock.Anything, workspace.ID, f.userID).
					Return(&model.Member{ID: uuid.New(), WorkspaceID: workspace.ID, UserID: f.userID, Role: model.RoleMember}, nil)
			}

			resp := doJSON(f.router, "POST", "/workspaces/"+workspace.ID.String()+"/join", handler.JoinWorkspaceRequest{Code: tc.code})

			assert.Equal(t, tc.expected, resp.Code)
			if tc.code != workspace.InviteCode {
				f.workspaces.AssertNotCalled(t, "Join", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestJoinWorkspace_UnknownWorkspace(t *testing.T) {
	f := setupWorkspaceTest()
	workspaceID := uuid.New()
	f.workspaces.On("GetByID", mock.Anything, workspaceID).Return(nil, repository.ErrWorkspaceNotFound)

	resp := doJSON(f.router, "POST", "/workspaces/"+workspaceID.String()+"/join", handler.JoinWorkspaceRequest{Code: "x"})

	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestListMembers_FallsBackToEmailName(t *testing.T) {
	f := setupWorkspaceTest()
	workspaceID := uuid.New()
	f.members.On("Get", mock.Anything, workspaceID, f.userID).
		Return(&model.Member{ID: uuid.New(), WorkspaceID: workspaceID, UserID: f.userID, Role: model.RoleMember}, nil)
	f.members.On("ListByWorkspace", mock.Anything, workspaceID).Return([]model.Member{
		{ID: uuid.New(), WorkspaceID: workspaceID, Role: model.RoleAdmin, User: model.User{Name: "Ada", Email: "ada@example.com"}},
		{ID: uuid.New(), WorkspaceID: workspaceID, Role: model.RoleMember, User: model.User{Email: "grace@example.com"}},
	}, nil)

	resp := doJSON(f.router, "GET", "/workspaces/"+workspaceID.String()+"/members", nil)

	assert.Equal(t, http.StatusOK, resp.Code)
	var got []handler.MemberResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "Ada", got[0].Name)
	assert.Equal(t, "grace", got[1].Name)
}

func TestListMembers_NotAMember(t *testing.T) {
	f := setupWorkspaceTest()
	workspaceID := uuid.New()
	f.members.On("Get", mock.Anything, workspaceID, f.userID).Return(nil, nil)

	resp := doJSON(f.router, "GET", "/workspaces/"+workspaceID.String()+"/members", nil)

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestDeleteMember(t *testing.T) {
	workspaceID := uuid.New()

	cases := []struct {
		name       string
		callerRole string
		self       bool
		count      int64
		expected   int
	}{
		{"admin removes member", model.RoleAdmin, false, 3, http.StatusOK},
		{"member leaves", model.RoleMember, true, 2, http.StatusOK},
		{"member removes someone else", model.RoleMember, false, 3, http.StatusForbidden},
		{"only member", model.RoleAdmin, true, 1, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := setupWorkspaceTest()
			caller := &model.Member{ID: uuid.New(), WorkspaceID: workspaceID, UserID: f.userID, Role: tc.callerRole}
			target := &model.Member{ID: uuid.New(), WorkspaceID: workspaceID, UserID: uuid.New(), Role: model.RoleMember}
			if tc.self {
				target = caller
			}

			f.members.On("GetByID", mock.Anything, target.ID).Return(target, nil)
			f.members.On("Get", mock.Anything, workspaceID, f.userID).Return(caller, nil)
			f.members.On("CountByWorkspace", mock.Anything, workspaceID).Return(tc.count, nil)
			f.members.On("Delete", mock.Anything, target.ID).Return(nil)
			f.cache.On("Evict", mock.Anything, workspaceID).Return()

			resp := doJSON(f.router, "DELETE", "/members/"+target.ID.String(), nil)

			assert.Equal(t, tc.expected, resp.Code)
			if tc.expected != http.StatusOK {
				f.members.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestUpdateMember_ChangesRole(t *testing.T) {
	f := setupWorkspaceTest()
	workspaceID := uuid.New()
	caller := &model.Member{ID: uuid.New(), WorkspaceID: workspaceID, UserID: f.userID, Role: model.RoleAdmin}
	target := &model.Member{ID: uuid.New(), WorkspaceID: workspaceID, UserID: uuid.New(), Role: model.RoleMember}

	f.members.On("GetByID", mock.Anything, target.ID).Return(target, nil)
	f.members.On("Get", mock.Anything, workspaceID, f.userID).Return(caller, nil)
	f.members.On("CountByWorkspace", mock.Anything, workspaceID).Return(int64(2), nil)
	f.members.On("UpdateRole", mock.Anything, target.ID, model.RoleAdmin).Return(nil)

	resp := doJSON(f.router, "PATCH", "/members/"+target.ID.String(), handler.UpdateMemberRequest{Role: model.RoleAdmin})

	assert.Equal(t, http.StatusOK, resp.Code)
	var got handler.MemberResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
	assert.Equal(t, model.RoleAdmin, got.Role)
	f.members.AssertExpectations(t)
}

func TestUpdateMember_InvalidRole(t *testing.T) {
	f := setupWorkspaceTest()

	resp := doJSON(f.router, "PATCH", "/members/"+uuid.New().String(), handler.UpdateMemberRequest{Role: "OWNER"})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
