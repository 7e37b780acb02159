package handler

import (
	"context"
	"errors"
	"net/http"

	"taskboard/internal/model"
	"taskboard/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type memberStore interface {
	memberLookup
	GetByID(ctx context.Context, id uuid.UUID) (*model.Member, error)
	ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]model.Member, error)
	CountByWorkspace(ctx context.Context, workspaceID uuid.UUID) (int64, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type MemberHandler struct {
	members memberStore
	cache   taskCache
}

func NewMemberHandler(members memberStore, cache taskCache) *MemberHandler {
	RegisterValidators()
	return &MemberHandler{members: members, cache: cache}
}

type UpdateMemberRequest struct {
	Role string `json:"role" binding:"required,oneof=ADMIN MEMBER"`
}

type MemberResponse struct {
	ID          string `json:"id"`
	WorkspaceID string `json:"workspace_id"`
	UserID      string `json:"user_id"`
	Role        string `json:"role"`
	Name        string `json:"name"`
	Email       string `json:"email"`
}

func toMemberResponse(m *model.Member) MemberResponse {
	return MemberResponse{
		ID:          m.ID.String(),
		WorkspaceID: m.WorkspaceID.String(),
		UserID:      m.UserID.String(),
		Role:        m.Role,
		Name:        displayName(m.User),
		Email:       m.User.Email,
	}
}

// loadTarget resolves the :id member and the caller's own membership in the
// same workspace.
func (h *MemberHandler) loadTarget(c *gin.Context) (target, caller *model.Member, ok bool) {
	userID, ok := currentUserID(c)
	if !ok {
		return nil, nil, false
	}
	memberID, ok := parseIDParam(c, "id", "member")
	if !ok {
		return nil, nil, false
	}

	target, err := h.members.GetByID(c.Request.Context(), memberID)
	if errors.Is(err, repository.ErrMemberNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
		return nil, nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve member"})
		return nil, nil, false
	}

	caller, ok = requireMember(c, h.members, target.WorkspaceID, userID)
	if !ok {
		return nil, nil, false
	}
	return target, caller, true
}

func (h *MemberHandler) lastMember(c *gin.Context, workspaceID uuid.UUID) (bool, bool) {
	count, err := h.members.CountByWorkspace(c.Request.Context(), workspaceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count members"})
		return false, false
	}
	return count <= 1, true
}

// GetAll godoc
// @Summary      List workspace members
// @Tags         Members
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     string  true  "Workspace ID"
// @Success      200  {array}  MemberResponse
// @Router       /workspaces/{id}/members [get]
func (h *MemberHandler) GetAll(c *gin.Context) {
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

	members, err := h.members.ListByWorkspace(c.Request.Context(), workspaceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve members"})
		return
	}

	response := make([]MemberResponse, len(members))
	for i := range members {
		response[i] = toMemberResponse(&members[i])
	}
	c.JSON(http.StatusOK, response)
}

// Delete godoc
// @Summary      Remove a member (admins, or the member themselves)
// @Tags         Members
// @Security     BearerAuth
// @Param        id  path  string  true  "Member ID"
// @Success      200
// @Router       /members/{id} [delete]
func (h *MemberHandler) Delete(c *gin.Context) {
	target, caller, ok := h.loadTarget(c)
	if !ok {
		return
	}

	if caller.ID != target.ID && caller.Role != model.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only workspace admins can remove other members"})
		return
	}

	last, ok := h.lastMember(c, target.WorkspaceID)
	if !ok {
		return
	}
	if last {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot delete the only member"})
		return
	}

	if err := h.members.Delete(c.Request.Context(), target.ID); err != nil {
		if errors.Is(err, repository.ErrMemberNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete member"})
		return
	}

	// Tasks assigned to the member were unassigned.
	h.cache.Evict(c.Request.Context(), target.WorkspaceID)
	c.JSON(http.StatusOK, gin.H{"id": target.ID.String()})
}

// Update godoc
// @Summary      Change a member's role
// @Tags         Members
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string               true  "Member ID"
// @Param        request  body      UpdateMemberRequest  true  "Role"
// @Success      200      {object}  MemberResponse
// @Router       /members/{id} [patch]
func (h *MemberHandler) Update(c *gin.Context) {
	var req UpdateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	target, caller, ok := h.loadTarget(c)
	if !ok {
		return
	}

	if caller.Role != model.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only workspace admins can do this"})
		return
	}

	last, ok := h.lastMember(c, target.WorkspaceID)
	if !ok {
		return
	}
	if last {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot change the role of the only member"})
		return
	}

	if err := h.members.UpdateRole(c.Request.Context(), target.ID, req.Role); err != nil {
		if errors.Is(err, repository.ErrMemberNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update member"})
		return
	}

	target.Role = req.Role
	c.JSON(http.StatusOK, toMemberResponse(target))
}
