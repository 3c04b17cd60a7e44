package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyforge/studyforge-backend/internal/logger"
	"github.com/studyforge/studyforge-backend/internal/types"
)

type DeckRepo interface {
	Create(ctx context.Context, tx *gorm.DB, decks []*types.Deck) ([]*types.Deck, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Deck, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Deck, error)
	DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type deckRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDeckRepo(db *gorm.DB, baseLog *logger.Logger) DeckRepo {
	repoLog := baseLog.With("repo", "DeckRepo")
	return &deckRepo{db: db, log: repoLog}
}

func (r *deckRepo) Create(ctx context.Context, tx *gorm.DB, decks []*types.Deck) ([]*types.Deck, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(decks) == 0 {
		return []*types.Deck{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&decks).Error; err != nil {
		return nil, err
	}
	return decks, nil
}

func (r *deckRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Deck, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Deck
	if len(ids) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *deckRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Deck, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Deck
	if userID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *deckRepo) DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(ids) == 0 {
		return nil
	}

	// The store cascades to flashcards and study sessions.
	return transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&types.Deck{}).Error
}
