package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditEntry records one change made through the API.
type AuditEntry struct {
	ID         uuid.UUID `json:"id"`
	ActorID    string    `json:"actorId"`
	ActorEmail string    `json:"actorEmail"`
	Action     string    `json:"action"`
	Entity     string    `json:"entity"`
	EntityID   string    `json:"entityId,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
