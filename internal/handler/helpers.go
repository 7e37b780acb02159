package handler

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"taskboard/internal/middleware"
	"taskboard/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var registerOnce sync.Once

// RegisterValidators installs the custom binding tags used by the request
// types of this package. It is safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("taskstatus", func(fl validator.FieldLevel) bool {
			return model.TaskStatus(fl.Field().String()).Valid()
		})
	})
}

type memberLookup interface {
	Get(ctx context.Context, workspaceID, userID uuid.UUID) (*model.Member, error)
}

// taskCache is the read-through workspace task list cache.
type taskCache interface {
	ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]model.Task, error)
	Evict(ctx context.Context, workspaceID uuid.UUID)
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(middleware.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return uuid.Nil, false
	}

	userID, ok := value.(uuid.UUID)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user ID format"})
		return uuid.Nil, false
	}
	return userID, true
}

func parseIDParam(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + label + " ID format"})
		return uuid.Nil, false
	}
	return id, true
}

// requireMember answers 401 when the user does not belong to the workspace.
func requireMember(c *gin.Context, members memberLookup, workspaceID, userID uuid.UUID) (*model.Member, bool) {
	member, err := members.Get(c.Request.Context(), workspaceID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check membership"})
		return nil, false
	}
	if member == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return nil, false
	}
	return member, true
}

// requireAdmin is requireMember plus a 403 for non-admin members.
func requireAdmin(c *gin.Context, members memberLookup, workspaceID, userID uuid.UUID) (*model.Member, bool) {
	member, ok := requireMember(c, members, workspaceID, userID)
	if !ok {
		return nil, false
	}
	if member.Role != model.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only workspace admins can do this"})
		return nil, false
	}
	return member, true
}

// displayName falls back to the local part of the email for users without a name.
func displayName(user model.User) string {
	if strings.TrimSpace(user.Name) != "" {
		return user.Name
	}
	local, _, _ := strings.Cut(user.Email, "@")
	return local
}
