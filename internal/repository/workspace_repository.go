package repository

import (
	"context"
	"errors"

	"taskboard/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WorkspaceRepository struct {
	db *gorm.DB
}

func NewWorkspaceRepository(db *gorm.DB) *WorkspaceRepository {
	return &WorkspaceRepository{db: db}
}

// Create stores the workspace and makes its owner the first ADMIN member.
func (r *WorkspaceRepository) Create(ctx context.Context, workspace *model.Workspace) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(workspace).Error; err != nil {
			return err
		}
		admin := &model.Member{
			WorkspaceID: workspace.ID,
			UserID:      workspace.OwnerID,
			Role:        model.RoleAdmin,
		}
		return tx.Create(admin).Error
	})
}

// ListForUser returns the workspaces the user is a member of, newest first.
func (r *WorkspaceRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Workspace, error) {
	var workspaces []model.Workspace
	err := r.db.WithContext(ctx).
		Joins("JOIN members ON members.workspace_id = workspaces.id").
		Where("members.user_id = ?", userID).
		Order("workspaces.created_at DESC").
		Find(&workspaces).Error
	return workspaces, err
}

func (r *WorkspaceRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Workspace, error) {
	var workspace model.Workspace
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&workspace).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, err
	}
	return &workspace, nil
}

func (r *WorkspaceRepository) Update(ctx context.Context, workspace *model.Workspace) error {
	return r.db.WithContext(ctx).Save(workspace).Error
}

// Delete removes the workspace together with its tasks, projects and members.
func (r *WorkspaceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("workspace_id = ?", id).Delete(&model.Task{}).Error; err != nil {
			return err
		}
		if err := tx.Where("workspace_id = ?", id).Delete(&model.Project{}).Error; err != nil {
			return err
		}
		if err := tx.Where("workspace_id = ?", id).Delete(&model.Member{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&model.Workspace{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrWorkspaceNotFound
		}
		return nil
	})
}

// Join adds the user to the workspace with the MEMBER role.
func (r *WorkspaceRepository) Join(ctx context.Context, workspaceID, userID uuid.UUID) (*model.Member, error) {
	member := &model.Member{
		WorkspaceID: workspaceID,
		UserID:      userID,
		Role:        model.RoleMember,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Member
		err := tx.Where("workspace_id = ? AND user_id = ?", workspaceID, userID).First(&existing).Error
		if err == nil {
			return ErrAlreadyMember
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Create(member).Error
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}
