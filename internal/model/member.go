package model

import (
	"time"

	"github.com/google/uuid"
)

// Member links a user to a workspace with a role.
type Member struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	WorkspaceID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_member_workspace_user"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_member_workspace_user"`
	Role        string    `gorm:"not null;check:role IN ('ADMIN', 'MEMBER')"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`

	Workspace Workspace `gorm:"foreignKey:WorkspaceID"`
	User      User      `gorm:"foreignKey:UserID"`
}

const (
	RoleAdmin  = "ADMIN"  // manages workspace settings and members
	RoleMember = "MEMBER" // works with projects and tasks
)

// ValidRole reports whether role is one of the member roles.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleMember
}
