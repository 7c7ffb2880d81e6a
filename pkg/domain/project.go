package domain

import (
	"time"

	"github.com/google/uuid"
)

// Project is an operations project that consumes inventory.
type Project struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Status    string     `json:"status"`
	OwnerID   uuid.UUID  `json:"ownerId"`
	OwnerName string     `json:"ownerName,omitempty"`
	DueAt     *time.Time `json:"dueAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}
