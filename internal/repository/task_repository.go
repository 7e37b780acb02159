package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskboard/internal/board"
	"taskboard/internal/model"
)

// TaskFilter narrows a task list fetch. WorkspaceID is required.
type TaskFilter struct {
	WorkspaceID uuid.UUID
	ProjectID   *uuid.UUID
	AssigneeID  *uuid.UUID
	Status      *model.TaskStatus
	Search      string
	DueDate     *time.Time
}

// WorkspaceOnly reports whether the filter selects a whole workspace.
func (f TaskFilter) WorkspaceOnly() bool {
	return f.ProjectID == nil && f.AssigneeID == nil && f.Status == nil && f.Search == "" && f.DueDate == nil
}

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create adds a new task to the database
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// GetByID retrieves a task by its ID
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	result := r.db.WithContext(ctx).First(&task, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, result.Error
	}
	return &task, nil
}

// List returns the tasks matching the filter, newest first.
func (r *TaskRepository) List(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	query := r.db.WithContext(ctx).Where("workspace_id = ?", filter.WorkspaceID)

	if filter.ProjectID != nil {
		query = query.Where("project_id = ?", *filter.ProjectID)
	}
	if filter.AssigneeID != nil {
		query = query.Where("assignee_id = ?", *filter.AssigneeID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Search != "" {
		query = query.Where("name ILIKE ?", "%"+filter.Search+"%")
	}
	if filter.DueDate != nil {
		query = query.Where("DATE(due_date) = ?", filter.DueDate.Format("2006-01-02"))
	}

	var tasks []model.Task
	if err := query.Order("created_at DESC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListByWorkspace is List without optional filters.
func (r *TaskRepository) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]model.Task, error) {
	return r.List(ctx, TaskFilter{WorkspaceID: workspaceID})
}

// HighestPosition returns the largest position in a workspace column, or 0
// when the column is empty.
func (r *TaskRepository) HighestPosition(ctx context.Context, workspaceID uuid.UUID, status model.TaskStatus) (int, error) {
	var highest struct {
		Max int
	}
	err := r.db.WithContext(ctx).Model(&model.Task{}).
		Select("COALESCE(MAX(position), 0) as max").
		Where("workspace_id = ? AND status = ?", workspaceID, status).
		Scan(&highest).Error

	return highest.Max, err
}

// Update updates an existing task
func (r *TaskRepository) Update(ctx context.Context, task *model.Task) error {
	result := r.db.WithContext(ctx).Save(task)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// Delete removes a task by its ID
func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Task{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// WorkspaceOf resolves the single workspace that owns every listed task.
// It fails with ErrTaskNotFound if any id is unknown and with
// ErrMixedWorkspaces if the tasks span several workspaces.
func (r *TaskRepository) WorkspaceOf(ctx context.Context, ids []uuid.UUID) (uuid.UUID, error) {
	if len(ids) == 0 {
		return uuid.Nil, ErrTaskNotFound
	}

	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Select("id", "workspace_id").
		Where("id IN ?", ids).
		Find(&tasks).Error
	if err != nil {
		return uuid.Nil, err
	}

	unique := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		unique[id] = struct{}{}
	}
	if len(tasks) != len(unique) {
		return uuid.Nil, ErrTaskNotFound
	}

	workspaceID := tasks[0].WorkspaceID
	for _, t := range tasks[1:] {
		if t.WorkspaceID != workspaceID {
			return uuid.Nil, ErrMixedWorkspaces
		}
	}
	return workspaceID, nil
}

// BulkUpdate writes the status and position of every task in the batch in a
// single transaction. Every row must belong to workspaceID; if one does not,
// the transaction is rolled back and ErrMixedWorkspaces is returned.
func (r *TaskRepository) BulkUpdate(ctx context.Context, workspaceID uuid.UUID, batch board.Batch) ([]model.Task, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range batch {
			result := tx.Model(&model.Task{}).
				Where("id = ? AND workspace_id = ?", u.ID, workspaceID).
				Updates(map[string]interface{}{
					"status":   u.Status,
					"position": u.Position,
				})
			if result.Error != nil {
				return fmt.Errorf("update task %s: %w", u.ID, result.Error)
			}
			if result.RowsAffected == 0 {
				return ErrMixedWorkspaces
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var updated []model.Task
	if err := r.db.WithContext(ctx).Where("id IN ?", batch.IDs()).Find(&updated).Error; err != nil {
		return nil, err
	}
	return updated, nil
}
