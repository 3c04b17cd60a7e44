package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	ActionDeckCreated     = "deck_created"
	ActionTokensProcessed = "tokens_processed"
)

// UsageEvent is a write-only audit record. Nothing in the request path
// reads it back.
type UsageEvent struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User       *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	ActionType string         `gorm:"column:action_type;not null;index" json:"action_type"`
	Metadata   datatypes.JSON `gorm:"type:jsonb;column:metadata" json:"metadata"`
	CreatedAt  time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (UsageEvent) TableName() string { return "usage_event" }
