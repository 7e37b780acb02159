package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"taskboard/internal/board"
	"taskboard/internal/model"
	"taskboard/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type taskStore interface {
	Create(ctx context.Context, task *model.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error)
	List(ctx context.Context, filter repository.TaskFilter) ([]model.Task, error)
	HighestPosition(ctx context.Context, workspaceID uuid.UUID, status model.TaskStatus) (int, error)
	Update(ctx context.Context, task *model.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
	WorkspaceOf(ctx context.Context, ids []uuid.UUID) (uuid.UUID, error)
	BulkUpdate(ctx context.Context, workspaceID uuid.UUID, batch board.Batch) ([]model.Task, error)
}

type projectLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Project, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Project, error)
}

type assigneeLookup interface {
	memberLookup
	GetByID(ctx context.Context, id uuid.UUID) (*model.Member, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Member, error)
}

type TaskHandler struct {
	tasks    taskStore
	projects projectLookup
	members  assigneeLookup
	cache    taskCache
	logger   *log.Logger
}

func NewTaskHandler(
	tasks taskStore,
	projects projectLookup,
	members assigneeLookup,
	cache taskCache,
	logger *log.Logger,
) *TaskHandler {
	RegisterValidators()
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &TaskHandler{
		tasks:    tasks,
		projects: projects,
		members:  members,
		cache:    cache,
		logger:   logger,
	}
}

type CreateTaskRequest struct {
	WorkspaceID uuid.UUID        `json:"workspace_id" binding:"required"`
	ProjectID   uuid.UUID        `json:"project_id" binding:"required"`
	AssigneeID  *uuid.UUID       `json:"assignee_id"`
	Name        string           `json:"name" binding:"required,min=1"`
	Description string           `json:"description"`
	DueDate     *time.Time       `json:"due_date"`
	Status      model.TaskStatus `json:"status" binding:"required,taskstatus"`
}

type UpdateTaskRequest struct {
	Name        *string           `json:"name" binding:"omitempty,min=1"`
	Description *string           `json:"description"`
	DueDate     *time.Time        `json:"due_date"`
	ProjectID   *uuid.UUID        `json:"project_id"`
	AssigneeID  *uuid.UUID        `json:"assignee_id"`
	Status      *model.TaskStatus `json:"status" binding:"omitempty,taskstatus"`
	Position    *int              `json:"position" binding:"omitempty,min=1000,max=1000000"`
}

// BulkUpdateRequest is the body of the bulk update call.
type BulkUpdateRequest struct {
	Tasks []board.Update `json:"tasks" binding:"required,min=1,dive"`
}

// MoveRequest describes a drag gesture. A null destination means the task
// was dropped outside any column.
type MoveRequest struct {
	Source      board.Slot  `json:"source"`
	Destination *board.Slot `json:"destination"`
}

// TaskResponse is a task populated with its project and assignee names.
type TaskResponse struct {
	model.Task
	ProjectName  string `json:"project_name,omitempty"`
	AssigneeName string `json:"assignee_name,omitempty"`
}

type BoardColumn struct {
	Status model.TaskStatus `json:"status"`
	Tasks  []model.Task     `json:"tasks"`
}

type BoardResponse struct {
	WorkspaceID string        `json:"workspace_id"`
	Columns     []BoardColumn `json:"columns"`
}

type MoveResponse struct {
	Board   []BoardColumn `json:"board"`
	Updates board.Batch   `json:"updates"`
}

func toColumns(p board.Partition) []BoardColumn {
	columns := make([]BoardColumn, 0, len(model.Statuses))
	for _, status := range model.Statuses {
		tasks := p[status]
		if tasks == nil {
			tasks = []model.Task{}
		}
		columns = append(columns, BoardColumn{Status: status, Tasks: tasks})
	}
	return columns
}

// nextPosition places a new task after the last one in its column.
func nextPosition(highest int) int {
	if highest <= 0 {
		return board.PositionStep
	}
	return min(highest+board.PositionStep, board.MaxPosition)
}

// listTasks serves whole-workspace fetches from the cache.
func (h *TaskHandler) listTasks(ctx context.Context, filter repository.TaskFilter) ([]model.Task, error) {
	if filter.WorkspaceOnly() {
		return h.cache.ListByWorkspace(ctx, filter.WorkspaceID)
	}
	return h.tasks.List(ctx, filter)
}

func (h *TaskHandler) populate(ctx context.Context, tasks []model.Task) ([]TaskResponse, error) {
	var projectIDs, assigneeIDs []uuid.UUID
	for _, t := range tasks {
		projectIDs = append(projectIDs, t.ProjectID)
		if t.AssigneeID != nil {
			assigneeIDs = append(assigneeIDs, *t.AssigneeID)
		}
	}

	projects, err := h.projects.GetByIDs(ctx, projectIDs)
	if err != nil {
		return nil, err
	}
	assignees, err := h.members.GetByIDs(ctx, assigneeIDs)
	if err != nil {
		return nil, err
	}

	response := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		response[i] = TaskResponse{Task: t}
		if p, ok := projects[t.ProjectID]; ok {
			response[i].ProjectName = p.Name
		}
		if t.AssigneeID != nil {
			if m, ok := assignees[*t.AssigneeID]; ok {
				response[i].AssigneeName = displayName(m.User)
			}
		}
	}
	return response, nil
}

// checkProject answers 400 unless the project exists in the workspace.
func (h *TaskHandler) checkProject(c *gin.Context, workspaceID, projectID uuid.UUID) bool {
	project, err := h.projects.GetByID(c.Request.Context(), projectID)
	if errors.Is(err, repository.ErrProjectNotFound) || (err == nil && project.WorkspaceID != workspaceID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Project does not belong to this workspace"})
		return false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		return false
	}
	return true
}

// checkAssignee answers 400 unless the member exists in the workspace.
func (h *TaskHandler) checkAssignee(c *gin.Context, workspaceID, memberID uuid.UUID) bool {
	member, err := h.members.GetByID(c.Request.Context(), memberID)
	if errors.Is(err, repository.ErrMemberNotFound) || (err == nil && member.WorkspaceID != workspaceID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Assignee is not a member of this workspace"})
		return false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve assignee"})
		return false
	}
	return true
}

// loadTask resolves the :id task and checks the caller belongs to its workspace.
func (h *TaskHandler) loadTask(c *gin.Context) (*model.Task, bool) {
	userID, ok := currentUserID(c)
	if !ok {
		return nil, false
	}
	taskID, ok := parseIDParam(c, "id", "task")
	if !ok {
		return nil, false
	}

	task, err := h.tasks.GetByID(c.Request.Context(), taskID)
	if errors.Is(err, repository.ErrTaskNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		return nil, false
	}

	if _, ok := requireMember(c, h.members, task.WorkspaceID, userID); !ok {
		return nil, false
	}
	return task, true
}

// Create godoc
// @Summary      Create a task at the end of its column
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      CreateTaskRequest  true  "Task"
// @Success      201      {object}  model.Task
// @Router       /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if _, ok := requireMember(c, h.members, req.WorkspaceID, userID); !ok {
		return
	}
	if !h.checkProject(c, req.WorkspaceID, req.ProjectID) {
		return
	}
	if req.AssigneeID != nil && !h.checkAssignee(c, req.WorkspaceID, *req.AssigneeID) {
		return
	}

	highest, err := h.tasks.HighestPosition(c.Request.Context(), req.WorkspaceID, req.Status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute position"})
		return
	}

	task := &model.Task{
		WorkspaceID: req.WorkspaceID,
		ProjectID:   req.ProjectID,
		AssigneeID:  req.AssigneeID,
		Name:        req.Name,
		Description: req.Description,
		DueDate:     req.DueDate,
		Status:      req.Status,
		Position:    nextPosition(highest),
	}
	if err := h.tasks.Create(c.Request.Context(), task); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
		return
	}

	h.cache.Evict(c.Request.Context(), task.WorkspaceID)
	c.JSON(http.StatusCreated, task)
}

// GetAll godoc
// @Summary      List tasks of a workspace
// @Tags         Tasks
// @Produce      json
// @Security     BearerAuth
// @Param        workspace_id  query     string  true   "Workspace ID"
// @Param        project_id    query     string  false  "Project ID"
// @Param        assignee_id   query     string  false  "Assignee member ID"
// @Param        status        query     string  false  "Status"
// @Param        search        query     string  false  "Name search"
// @Param        due_date      query     string  false  "Due date (YYYY-MM-DD)"
// @Success      200           {array}   TaskResponse
// @Router       /tasks [get]
func (h *TaskHandler) GetAll(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	filter, ok := parseTaskFilter(c)
	if !ok {
		return
	}

	if _, ok := requireMember(c, h.members, filter.WorkspaceID, userID); !ok {
		return
	}

	tasks, err := h.listTasks(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}

	response, err := h.populate(c.Request.Context(), tasks)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to populate tasks"})
		return
	}
	c.JSON(http.StatusOK, response)
}

func parseTaskFilter(c *gin.Context) (repository.TaskFilter, bool) {
	var filter repository.TaskFilter

	workspaceID, err := uuid.Parse(c.Query("workspace_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "workspace_id is required"})
		return filter, false
	}
	filter.WorkspaceID = workspaceID

	if raw := c.Query("project_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID format"})
			return filter, false
		}
		filter.ProjectID = &id
	}
	if raw := c.Query("assignee_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assignee ID format"})
			return filter, false
		}
		filter.AssigneeID = &id
	}
	if raw := c.Query("status"); raw != "" {
		status, ok := model.ParseStatus(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
			return filter, false
		}
		filter.Status = &status
	}
	if raw := c.Query("due_date"); raw != "" {
		due, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			due, err = time.Parse(time.RFC3339, raw)
		}
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid due date"})
			return filter, false
		}
		filter.DueDate = &due
	}
	filter.Search = c.Query("search")

	return filter, true
}

// GetByID godoc
// @Summary      Get a task
// @Tags         Tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task ID"
// @Success      200  {object}  TaskResponse
// @Router       /tasks/{id} [get]
func (h *TaskHandler) GetByID(c *gin.Context) {
	task, ok := h.loadTask(c)
	if !ok {
		return
	}

	response, err := h.populate(c.Request.Context(), []model.Task{*task})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to populate task"})
		return
	}
	c.JSON(http.StatusOK, response[0])
}

// Update godoc
// @Summary      Update a task
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string             true  "Task ID"
// @Param        request  body      UpdateTaskRequest  true  "Fields to change"
// @Success      200      {object}  model.Task
// @Router       /tasks/{id} [patch]
func (h *TaskHandler) Update(c *gin.Context) {
	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	task, ok := h.loadTask(c)
	if !ok {
		return
	}

	if req.ProjectID != nil && *req.ProjectID != task.ProjectID {
		if !h.checkProject(c, task.WorkspaceID, *req.ProjectID) {
			return
		}
		task.ProjectID = *req.ProjectID
	}
	if req.AssigneeID != nil {
		if !h.checkAssignee(c, task.WorkspaceID, *req.AssigneeID) {
			return
		}
		task.AssigneeID = req.AssigneeID
	}
	if req.Name != nil {
		task.Name = *req.Name
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}

	// A status change without an explicit position appends to the new column.
	if req.Status != nil && *req.Status != task.Status && req.Position == nil {
		highest, err := h.tasks.HighestPosition(c.Request.Context(), task.WorkspaceID, *req.Status)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute position"})
			return
		}
		task.Position = nextPosition(highest)
	}
	if req.Status != nil {
		task.Status = *req.Status
	}
	if req.Position != nil {
		task.Position = *req.Position
	}

	if err := h.tasks.Update(c.Request.Context(), task); err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task"})
		return
	}

	h.cache.Evict(c.Request.Context(), task.WorkspaceID)
	c.JSON(http.StatusOK, task)
}

// Delete godoc
// @Summary      Delete a task
// @Tags         Tasks
// @Security     BearerAuth
// @Param        id  path  string  true  "Task ID"
// @Success      200
// @Router       /tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	task, ok := h.loadTask(c)
	if !ok {
		return
	}

	if err := h.tasks.Delete(c.Request.Context(), task.ID); err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete task"})
		return
	}

	h.cache.Evict(c.Request.Context(), task.WorkspaceID)
	c.JSON(http.StatusOK, gin.H{"id": task.ID.String()})
}

// BulkUpdate godoc
// @Summary      Persist status and position changes of several tasks at once
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      BulkUpdateRequest  true  "Updates"
// @Success      200      {array}   model.Task
// @Failure      400      {object}  map[string]string
// @Failure      401      {object}  map[string]string
// @Failure      404      {object}  map[string]string
// @Router       /tasks/bulk-update [post]
func (h *TaskHandler) BulkUpdate(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req BulkUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	batch := board.Batch(req.Tasks)
	seen := make(map[uuid.UUID]struct{}, len(batch))
	for _, u := range batch {
		if _, dup := seen[u.ID]; dup {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Duplicate task in batch"})
			return
		}
		seen[u.ID] = struct{}{}
	}

	workspaceID, err := h.tasks.WorkspaceOf(c.Request.Context(), batch.IDs())
	switch {
	case errors.Is(err, repository.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	case errors.Is(err, repository.ErrMixedWorkspaces):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Tasks must belong to the same workspace"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}

	if _, ok := requireMember(c, h.members, workspaceID, userID); !ok {
		return
	}

	updated, ok := h.applyBatch(c, workspaceID, batch)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *TaskHandler) applyBatch(c *gin.Context, workspaceID uuid.UUID, batch board.Batch) ([]model.Task, bool) {
	updated, err := h.tasks.BulkUpdate(c.Request.Context(), workspaceID, batch)
	if errors.Is(err, repository.ErrMixedWorkspaces) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Tasks must belong to the same workspace"})
		return nil, false
	}
	if err != nil {
		h.logger.WithError(err).WithField("workspace_id", workspaceID).Error("bulk update failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update tasks"})
		return nil, false
	}

	h.cache.Evict(c.Request.Context(), workspaceID)
	return updated, true
}

// Board godoc
// @Summary      Tasks of a workspace grouped into status columns
// @Tags         Board
// @Produce      json
// @Security     BearerAuth
// @Param        id           path      string  true   "Workspace ID"
// @Param        project_id   query     string  false  "Project ID"
// @Param        assignee_id  query     string  false  "Assignee member ID"
// @Success      200          {object}  BoardResponse
// @Router       /workspaces/{id}/board [get]
func (h *TaskHandler) Board(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	workspaceID, ok := parseIDParam(c, "id", "workspace")
	if !ok {
		return
	}

	filter := repository.TaskFilter{WorkspaceID: workspaceID}
	if raw := c.Query("project_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID format"})
			return
		}
		filter.ProjectID = &id
	}
	if raw := c.Query("assignee_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assignee ID format"})
			return
		}
		filter.AssigneeID = &id
	}

	if _, ok := requireMember(c, h.members, workspaceID, userID); !ok {
		return
	}

	tasks, err := h.listTasks(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}

	c.JSON(http.StatusOK, BoardResponse{
		WorkspaceID: workspaceID.String(),
		Columns:     toColumns(board.Build(tasks)),
	})
}

// Move godoc
// @Summary      Apply a drag gesture on the workspace board
// @Description  Invalid gestures are ignored: the board is returned unchanged with no updates.
// @Tags         Board
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string       true  "Workspace ID"
// @Param        request  body      MoveRequest  true  "Gesture"
// @Success      200      {object}  MoveResponse
// @Router       /workspaces/{id}/board/move [post]
func (h *TaskHandler) Move(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	workspaceID, ok := parseIDParam(c, "id", "workspace")
	if !ok {
		return
	}

	var req MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if _, ok := requireMember(c, h.members, workspaceID, userID); !ok {
		return
	}

	tasks, err := h.cache.ListByWorkspace(c.Request.Context(), workspaceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}

	current := board.Build(tasks)
	next, batch, err := board.Move(current, req.Source, req.Destination)
	if err != nil {
		h.logger.WithError(err).WithField("workspace_id", workspaceID).Debug("move ignored")
		c.JSON(http.StatusOK, MoveResponse{Board: toColumns(current), Updates: board.Batch{}})
		return
	}
	if len(batch) == 0 {
		c.JSON(http.StatusOK, MoveResponse{Board: toColumns(next), Updates: board.Batch{}})
		return
	}

	if _, ok := h.applyBatch(c, workspaceID, batch); !ok {
		return
	}
	c.JSON(http.StatusOK, MoveResponse{Board: toColumns(next), Updates: batch})
}
