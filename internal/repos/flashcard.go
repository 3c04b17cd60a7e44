package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyforge/studyforge-backend/internal/logger"
	"github.com/studyforge/studyforge-backend/internal/types"
)

type FlashcardRepo interface {
	// CreateBatch inserts all cards or none. Partial failure is
	// whole-batch failure.
	CreateBatch(ctx context.Context, tx *gorm.DB, cards []*types.Flashcard) ([]*types.Flashcard, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Flashcard, error)
	GetByDeckID(ctx context.Context, tx *gorm.DB, deckID uuid.UUID) ([]*types.Flashcard, error)
	CountByDeckID(ctx context.Context, tx *gorm.DB, deckID uuid.UUID) (int64, error)
}

type flashcardRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFlashcardRepo(db *gorm.DB, baseLog *logger.Logger) FlashcardRepo {
	repoLog := baseLog.With("repo", "FlashcardRepo")
	return &flashcardRepo{db: db, log: repoLog}
}

func (r *flashcardRepo) CreateBatch(ctx context.Context, tx *gorm.DB, cards []*types.Flashcard) ([]*types.Flashcard, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(cards) == 0 {
		return []*types.Flashcard{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&cards).Error; err != nil {
		return nil, err
	}
	return cards, nil
}

func (r *flashcardRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Flashcard, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Flashcard
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

func (r *flashcardRepo) GetByDeckID(ctx context.Context, tx *gorm.DB, deckID uuid.UUID) ([]*types.Flashcard, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Flashcard
	if deckID == uuid.Nil {
		return results, nil
	}

	// Newest first. The study UI resolves card indexes against this
	// ordering, so it must stay stable.
	if err := transaction.WithContext(ctx).
		Where("deck_id = ?", deckID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *flashcardRepo) CountByDeckID(ctx context.Context, tx *gorm.DB, deckID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Flashcard{}).
		Where("deck_id = ?", deckID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
