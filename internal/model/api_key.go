package model

import (
	"time"

	"github.com/google/uuid"
)

// APIKey is an issued public-API credential. The raw key is never stored.
type APIKey struct {
	ID         uuid.UUID  `json:"id"`
	OwnerID    string     `json:"owner_id"`
	Name       string     `json:"name"`
	KeyPrefix  string     `json:"key_prefix"`
	KeyHash    string     `json:"-"`
	DailyLimit int        `json:"daily_limit"`
	Active     bool       `json:"active"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// KeyGrant is what a verified key yields to the request boundary.
type KeyGrant struct {
	KeyID      uuid.UUID
	OwnerID    string
	DailyLimit int
}

// UsageEvent records one successful public API call.
type UsageEvent struct {
	KeyID    string    `json:"key_id"`
	OwnerID  string    `json:"owner_id"`
	Endpoint string    `json:"endpoint"`
	UsedAt   time.Time `json:"used_at"`
	// Attempts counts failed single-row inserts of this event.
	Attempts int `json:"attempts,omitempty"`
}

// IssueAPIKeyRequest is the payload for issuing a key.
type IssueAPIKeyRequest struct {
	OwnerID    string `json:"owner_id" binding:"required,min=1,max=255"`
	Name       string `json:"name" binding:"required,min=2,max=100"`
	DailyLimit int    `json:"daily_limit" binding:"omitempty,min=1,max=1000000"`
}

// IssuedAPIKey carries the raw key back exactly once.
type IssuedAPIKey struct {
	APIKey
	Key string `json:"key"`
}
