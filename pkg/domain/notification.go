package domain

import (
	"time"

	"github.com/google/uuid"
)

// Notification is a message addressed to the signed-in user.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Body      string    `json:"body,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}
