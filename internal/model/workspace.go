package model

import (
	"time"

	"github.com/google/uuid"
)

// InviteCodeLength is the length of a generated workspace invite code.
const InviteCodeLength = 10

type Workspace struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Name       string    `gorm:"not null"`
	OwnerID    uuid.UUID `gorm:"type:uuid;not null"`
	InviteCode string    `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Owner User `gorm:"foreignKey:OwnerID"`
}
