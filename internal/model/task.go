package model

import (
	"time"

	"github.com/google/uuid"
)

type Task struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	WorkspaceID uuid.UUID  `gorm:"type:uuid;not null;index:idx_task_workspace_status" json:"workspace_id"`
	ProjectID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"project_id"`
	AssigneeID  *uuid.UUID `gorm:"type:uuid" json:"assignee_id,omitempty"`
	Name        string     `gorm:"not null" json:"name"`
	Description string     `json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Status      TaskStatus `gorm:"type:varchar(16);not null;index:idx_task_workspace_status" json:"status"`
	Position    int        `gorm:"not null" json:"position"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Project  Project `gorm:"foreignKey:ProjectID" json:"-"`
	Assignee *Member `gorm:"foreignKey:AssigneeID" json:"-"`
}
