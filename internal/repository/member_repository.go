package repository

import (
	"context"
	"errors"

	"taskboard/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MemberRepository struct {
	db *gorm.DB
}

func NewMemberRepository(db *gorm.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

// Get returns the membership of userID in workspaceID, or nil when the user
// is not a member.
func (r *MemberRepository) Get(ctx context.Context, workspaceID, userID uuid.UUID) (*model.Member, error) {
	var member model.Member
	err := r.db.WithContext(ctx).
		Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *MemberRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Member, error) {
	var member model.Member
	err := r.db.WithContext(ctx).Preload("User").Where("id = ?", id).First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// ListByWorkspace returns the workspace members with their users preloaded.
func (r *MemberRepository) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]model.Member, error) {
	var members []model.Member
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("workspace_id = ?", workspaceID).
		Order("created_at").
		Find(&members).Error
	return members, err
}

// GetByIDs loads members with their users, keyed by member id.
func (r *MemberRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Member, error) {
	out := make(map[uuid.UUID]model.Member, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var members []model.Member
	if err := r.db.WithContext(ctx).Preload("User").Where("id IN ?", ids).Find(&members).Error; err != nil {
		return nil, err
	}
	for _, m := range members {
		out[m.ID] = m
	}
	return out, nil
}

func (r *MemberRepository) CountByWorkspace(ctx context.Context, workspaceID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Member{}).Where("workspace_id = ?", workspaceID).Count(&count).Error
	return count, err
}

func (r *MemberRepository) UpdateRole(ctx context.Context, id uuid.UUID, role string) error {
	result := r.db.WithContext(ctx).Model(&model.Member{}).Where("id = ?", id).Update("role", role)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// Delete removes the membership and clears it from any assigned tasks.
func (r *MemberRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Task{}).Where("assignee_id = ?", id).Update("assignee_id", nil).Error; err != nil {
			return err
		}
		result := tx.Delete(&model.Member{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrMemberNotFound
		}
		return nil
	})
}
