package repository

import "errors"

// Common repository errors
var (
	ErrWorkspaceNotFound = errors.New("workspace not found")
	ErrMemberNotFound    = errors.New("member not found")
	ErrProjectNotFound   = errors.New("project not found")
	ErrTaskNotFound      = errors.New("task not found")

	// ErrMixedWorkspaces is returned when a bulk update references tasks
	// from more than one workspace. Nothing is written in that case.
	ErrMixedWorkspaces = errors.New("tasks must belong to the same workspace")

	// ErrAlreadyMember is returned when a user joins a workspace twice.
	ErrAlreadyMember = errors.New("user is already a member")
)
