package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusKnown   = "known"
	StatusUnknown = "unknown"
)

// StudySession is one review outcome for one card. Append-only: a card
// reviewed twice produces two rows.
type StudySession struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	User      *User      `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	DeckID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"deck_id"`
	Deck      *Deck      `gorm:"constraint:OnDelete:CASCADE;foreignKey:DeckID;references:ID" json:"deck,omitempty"`
	CardID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"card_id"`
	Card      *Flashcard `gorm:"constraint:OnDelete:CASCADE;foreignKey:CardID;references:ID" json:"card,omitempty"`
	Status    string     `gorm:"not null;column:status" json:"status"`
	CreatedAt time.Time  `gorm:"not null;default:now();index" json:"created_at"`
}

func (StudySession) TableName() string { return "study_session" }

func ValidStudyStatus(status string) bool {
	return status == StatusKnown || status == StatusUnknown
}
