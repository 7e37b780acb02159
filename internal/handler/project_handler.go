package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"taskboard/internal/model"
	"taskboard/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type projectStore interface {
	Create(ctx context.Context, project *model.Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Project, error)
	ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]model.Project, error)
	Update(ctx context.Context, project *model.Project) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type ProjectHandler struct {
	projects projectStore
	members  memberLookup
	cache    taskCache
}

func NewProjectHandler(projects projectStore, members memberLookup, cache taskCache) *ProjectHandler {
	RegisterValidators()
	return &ProjectHandler{projects: projects, members: members, cache: cache}
}

type CreateProjectRequest struct {
	WorkspaceID uuid.UUID `json:"workspace_id" binding:"required"`
	Name        string    `json:"name" binding:"required,min=1,max=256"`
	ImageURL    string    `json:"image_url" binding:"omitempty,url"`
}

type UpdateProjectRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=1,max=256"`
	ImageURL *string `json:"image_url" binding:"omitempty"`
}

type ProjectResponse struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	Name        string    `json:"name"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func toProjectResponse(p *model.Project) ProjectResponse {
	return ProjectResponse{
		ID:          p.ID.String(),
		WorkspaceID: p.WorkspaceID.String(),
		Name:        p.Name,
		ImageURL:    p.ImageURL,
		CreatedAt:   p.CreatedAt,
	}
}

// loadProject resolves the :id project and checks the caller belongs to its
// workspace.
func (h *ProjectHandler) loadProject(c *gin.Context) (*model.Project, bool) {
	userID, ok := currentUserID(c)
	if !ok {
		return nil, false
	}
	projectID, ok := parseIDParam(c, "id", "project")
	if !ok {
		return nil, false
	}

	project, err := h.projects.GetByID(c.Request.Context(), projectID)
	if errors.Is(err, repository.ErrProjectNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		return nil, false
	}

	if _, ok := requireMember(c, h.members, project.WorkspaceID, userID); !ok {
		return nil, false
	}
	return project, true
}

// Create godoc
// @Summary      Create a project
// @Tags         Projects
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      CreateProjectRequest  true  "Project"
// @Success      201      {object}  ProjectResponse
// @Router       /projects [post]
func (h *ProjectHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if _, ok := requireMember(c, h.members, req.WorkspaceID, userID); !ok {
		return
	}

	project := &model.Project{
		WorkspaceID: req.WorkspaceID,
		Name:        req.Name,
		ImageURL:    req.ImageURL,
	}
	if err := h.projects.Create(c.Request.Context(), project); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project"})
		return
	}

	c.JSON(http.StatusCreated, toProjectResponse(project))
}

// GetAll godoc
// @Summary      List workspace projects
// @Tags         Projects
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     string  true  "Workspace ID"
// @Success      200  {array}  ProjectResponse
// @Router       /workspaces/{id}/projects [get]
func (h *ProjectHandler) GetAll(c *gin.Context) {
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

	projects, err := h.projects.ListByWorkspace(c.Request.Context(), workspaceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve projects"})
		return
	}

	response := make([]ProjectResponse, len(projects))
	for i := range projects {
		response[i] = toProjectResponse(&projects[i])
	}
	c.JSON(http.StatusOK, response)
}

// GetByID godoc
// @Summary      Get a project
// @Tags         Projects
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Project ID"
// @Success      200  {object}  ProjectResponse
// @Router       /projects/{id} [get]
func (h *ProjectHandler) GetByID(c *gin.Context) {
	project, ok := h.loadProject(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toProjectResponse(project))
}

// Update godoc
// @Summary      Update a project
// @Tags         Projects
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                true  "Project ID"
// @Param        request  body      UpdateProjectRequest  true  "Fields to change"
// @Success      200      {object}  ProjectResponse
// @Router       /projects/{id} [patch]
func (h *ProjectHandler) Update(c *gin.Context) {
	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	project, ok := h.loadProject(c)
	if !ok {
		return
	}

	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.ImageURL != nil {
		project.ImageURL = *req.ImageURL
	}

	if err := h.projects.Update(c.Request.Context(), project); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update project"})
		return
	}
	c.JSON(http.StatusOK, toProjectResponse(project))
}

// Delete godoc
// @Summary      Delete a project and its tasks
// @Tags         Projects
// @Security     BearerAuth
// @Param        id  path  string  true  "Project ID"
// @Success      200
// @Router       /projects/{id} [delete]
func (h *ProjectHandler) Delete(c *gin.Context) {
	project, ok := h.loadProject(c)
	if !ok {
		return
	}

	if err := h.projects.Delete(c.Request.Context(), project.ID); err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete project"})
		return
	}

	h.cache.Evict(c.Request.Context(), project.WorkspaceID)
	c.JSON(http.StatusOK, gin.H{"id": project.ID.String()})
}
