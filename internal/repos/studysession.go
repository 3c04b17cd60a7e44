package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyforge/studyforge-backend/internal/logger"
	"github.com/studyforge/studyforge-backend/internal/types"
)

// StudySessionRepo is append-only: sessions are never updated or deleted
// outside of store cascades.
type StudySessionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, sessions []*types.StudySession) ([]*types.StudySession, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.StudySession, error)
	GetByDeckID(ctx context.Context, tx *gorm.DB, deckID uuid.UUID) ([]*types.StudySession, error)
}

type studySessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStudySessionRepo(db *gorm.DB, baseLog *logger.Logger) StudySessionRepo {
	repoLog := baseLog.With("repo", "StudySessionRepo")
	return &studySessionRepo{db: db, log: repoLog}
}

func (r *studySessionRepo) Create(ctx context.Context, tx *gorm.DB, sessions []*types.StudySession) ([]*types.StudySession, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(sessions) == 0 {
		return []*types.StudySession{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *studySessionRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.StudySession, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.StudySession
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

func (r *studySessionRepo) GetByDeckID(ctx context.Context, tx *gorm.DB, deckID uuid.UUID) ([]*types.StudySession, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.StudySession
	if deckID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("deck_id = ?", deckID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
