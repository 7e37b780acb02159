package handler

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"net/http"
	"time"

	"taskboard/internal/model"
	"taskboard/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type workspaceStore interface {
	Create(ctx context.Context, workspace *model.Workspace) error
	ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Workspace, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Workspace, error)
	Update(ctx context.Context, workspace *model.Workspace) error
	Delete(ctx context.Context, id uuid.UUID) error
	Join(ctx context.Context, workspaceID, userID uuid.UUID) (*model.Member, error)
}

type WorkspaceHandler struct {
	workspaces workspaceStore
	members    memberLookup
	cache      taskCache
}

func NewWorkspaceHandler(workspaces workspaceStore, members memberLookup, cache taskCache) *WorkspaceHandler {
	RegisterValidators()
	return &WorkspaceHandler{
		workspaces: workspaces,
		members:    members,
		cache:      cache,
	}
}

type WorkspaceRequest struct {
	Name string `json:"name" binding:"required,min=1,max=256"`
}

type JoinWorkspaceRequest struct {
	Code string `json:"code" binding:"required"`
}

type WorkspaceResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	OwnerID    string    `json:"owner_id"`
	InviteCode string    `json:"invite_code"`
	CreatedAt  time.Time `json:"created_at"`
}

func toWorkspaceResponse(w *model.Workspace) WorkspaceResponse {
	return WorkspaceResponse{
		ID:         w.ID.String(),
		Name:       w.Name,
		OwnerID:    w.OwnerID.String(),
		InviteCode: w.InviteCode,
		CreatedAt:  w.CreatedAt,
	}
}

const inviteAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

func generateInviteCode(length int) (string, error) {
	code := make([]byte, length)
	limit := big.NewInt(int64(len(inviteAlphabet)))
	for i := range code {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		code[i] = inviteAlphabet[n.Int64()]
	}
	return string(code), nil
}

// loadWorkspace answers 404 for unknown workspaces.
func (h *WorkspaceHandler) loadWorkspace(c *gin.Context, id uuid.UUID) (*model.Workspace, bool) {
	workspace, err := h.workspaces.GetByID(c.Request.Context(), id)
	if errors.Is(err, repository.ErrWorkspaceNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Workspace not found"})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve workspace"})
		return nil, false
	}
	return workspace, true
}

// Create godoc
// @Summary      Create a workspace
// @Tags         Workspaces
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      WorkspaceRequest  true  "Workspace"
// @Success      201      {object}  WorkspaceResponse
// @Router       /workspaces [post]
func (h *WorkspaceHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req WorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	code, err := generateInviteCode(model.InviteCodeLength)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate invite code"})
		return
	}

	workspace := &model.Workspace{
		Name:       req.Name,
		OwnerID:    userID,
		InviteCode: code,
	}
	if err := h.workspaces.Create(c.Request.Context(), workspace); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create workspace"})
		return
	}

	c.JSON(http.StatusCreated, toWorkspaceResponse(workspace))
}

// GetAll godoc
// @Summary      List the caller's workspaces
// @Tags         Workspaces
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  WorkspaceResponse
// @Router       /workspaces [get]
func (h *WorkspaceHandler) GetAll(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	workspaces, err := h.workspaces.ListForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve workspaces"})
		return
	}

	response := make([]WorkspaceResponse, len(workspaces))
	for i := range workspaces {
		response[i] = toWorkspaceResponse(&workspaces[i])
	}
	c.JSON(http.StatusOK, response)
}

// GetByID godoc
// @Summary      Get a workspace
// @Tags         Workspaces
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Workspace ID"
// @Success      200  {object}  WorkspaceResponse
// @Router       /workspaces/{id} [get]
func (h *WorkspaceHandler) GetByID(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	workspaceID, ok := parseIDParam(c, "id", "workspace")
	if !ok {
		return
	}

	if _, ok := requireMember(c, h.members, workspaceID, userID); !ok {
		return
	}

	workspace, ok := h.loadWorkspace(c, workspaceID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toWorkspaceResponse(workspace))
}

// Update godoc
// @Summary      Rename a workspace
// @Tags         Workspaces
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string            true  "Workspace ID"
// @Param        request  body      WorkspaceRequest  true  "Workspace"
// @Success      200      {object}  WorkspaceResponse
// @Router       /workspaces/{id} [patch]
func (h *WorkspaceHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	workspaceID, ok := parseIDParam(c, "id", "workspace")
	if !ok {
		return
	}

	var req WorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if _, ok := requireAdmin(c, h.members, workspaceID, userID); !ok {
		return
	}

	workspace, ok := h.loadWorkspace(c, workspaceID)
	if !ok {
		return
	}

	workspace.Name = req.Name
	if err := h.workspaces.Update(c.Request.Context(), workspace); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update workspace"})
		return
	}
	c.JSON(http.StatusOK, toWorkspaceResponse(workspace))
}

// Delete godoc
// @Summary      Delete a workspace with its projects, tasks and members
// @Tags         Workspaces
// @Security     BearerAuth
// @Param        id  path  string  true  "Workspace ID"
// @Success      200
// @Router       /workspaces/{id} [delete]
func (h *WorkspaceHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	workspaceID, ok := parseIDParam(c, "id", "workspace")
	if !ok {
		return
	}

	if _, ok := requireAdmin(c, h.members, workspaceID, userID); !ok {
		return
	}

	err := h.workspaces.Delete(c.Request.Context(), workspaceID)
	if errors.Is(err, repository.ErrWorkspaceNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Workspace not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete workspace"})
		return
	}

	h.cache.Evict(c.Request.Context(), workspaceID)
	c.JSON(http.StatusOK, gin.H{"id": workspaceID.String()})
}

// ResetInviteCode godoc
// @Summary      Issue a new invite code
// @Tags         Workspaces
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Workspace ID"
// @Success      200  {object}  WorkspaceResponse
// @Router       /workspaces/{id}/reset-invite-code [post]
func (h *WorkspaceHandler) ResetInviteCode(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	workspaceID, ok := parseIDParam(c, "id", "workspace")
	if !ok {
		return
	}

	if _, ok := requireAdmin(c, h.members, workspaceID, userID); !ok {
		return
	}

	workspace, ok := h.loadWorkspace(c, workspaceID)
	if !ok {
		return
	}

	code, err := generateInviteCode(model.InviteCodeLength)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate invite code"})
		return
	}
	workspace.InviteCode = code

	if err := h.workspaces.Update(c.Request.Context(), workspace); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update workspace"})
		return
	}
	c.JSON(http.StatusOK, toWorkspaceResponse(workspace))
}

// Join godoc
// @Summary      Join a workspace with its invite code
// @Tags         Workspaces
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                true  "Workspace ID"
// @Param        request  body      JoinWorkspaceRequest  true  "Invite code"
// @Success      200      {object}  WorkspaceResponse
// @Failure      400      {object}  map[string]string
// @Failure      409      {object}  map[string]string
// @Router       /workspaces/{id}/join [post]
func (h *WorkspaceHandler) Join(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	workspaceID, ok := parseIDParam(c, "id", "workspace")
	if !ok {
		return
	}

	var req JoinWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	workspace, ok := h.loadWorkspace(c, workspaceID)
	if !ok {
		return
	}
	if workspace.InviteCode != req.Code {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invite code"})
		return
	}

	_, err := h.workspaces.Join(c.Request.Context(), workspaceID, userID)
	if errors.Is(err, repository.ErrAlreadyMember) {
		c.JSON(http.StatusConflict, gin.H{"error": "Already a member"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to join workspace"})
		return
	}

	c.JSON(http.StatusOK, toWorkspaceResponse(workspace))
}
