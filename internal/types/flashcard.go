package types

import (
	"time"

	"github.com/google/uuid"
)

type Flashcard struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	DeckID    uuid.UUID `gorm:"type:uuid;not null;index" json:"deck_id"`
	Deck      *Deck     `gorm:"constraint:OnDelete:CASCADE;foreignKey:DeckID;references:ID" json:"deck,omitempty"`
	Question  string    `gorm:"not null;column:question" json:"question"`
	Answer    string    `gorm:"not null;column:answer" json:"answer"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Flashcard) TableName() string { return "flashcard" }
