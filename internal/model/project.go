package model

import (
	"time"

	"github.com/google/uuid"
)

type Project struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	WorkspaceID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name        string    `gorm:"not null"`
	ImageURL    string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Workspace Workspace `gorm:"foreignKey:WorkspaceID"`
}
