package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is an account managed from the users screen.
type User struct {
	ID              uuid.UUID  `json:"id"`
	Email           string     `json:"email"`
	DisplayName     string     `json:"displayName"`
	Role            Role       `json:"role"`
	Active          bool       `json:"active"`
	ProfileImageRef string     `json:"profileImageRef,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	LastLoginAt     *time.Time `json:"lastLoginAt,omitempty"`
}

// RoleInfo is a role definition with the permissions it grants.
type RoleInfo struct {
	ID          uuid.UUID    `json:"id"`
	Name        Role         `json:"name"`
	Description string       `json:"description,omitempty"`
	Permissions []Permission `json:"permissions"`
	UserCount   int          `json:"userCount"`
}
