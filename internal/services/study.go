package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyforge/studyforge-backend/internal/apperr"
	"github.com/studyforge/studyforge-backend/internal/logger"
	"github.com/studyforge/studyforge-backend/internal/repos"
	"github.com/studyforge/studyforge-backend/internal/types"
)

type StudyService interface {
	// RecordOutcome resolves cardIndex against the deck's newest-first
	// card ordering and appends one immutable session row. An index that
	// no longer resolves (deck edited underneath the study view) is a
	// RecordingFailed error, not a silent drop.
	RecordOutcome(ctx context.Context, userID, deckID uuid.UUID, cardIndex int, status string) error

	// RecordOutcomeByCard is the direct variant for callers that already
	// hold a card id.
	RecordOutcomeByCard(ctx context.Context, userID, deckID, cardID uuid.UUID, status string) error
}

type studyService struct {
	db               *gorm.DB
	log              *logger.Logger
	deckRepo         repos.DeckRepo
	flashcardRepo    repos.FlashcardRepo
	studySessionRepo repos.StudySessionRepo
	progress         ProgressService
}

func NewStudyService(
	db *gorm.DB,
	log *logger.Logger,
	deckRepo repos.DeckRepo,
	flashcardRepo repos.FlashcardRepo,
	studySessionRepo repos.StudySessionRepo,
	progress ProgressService,
) StudyService {
	serviceLog := log.With("service", "StudyService")
	return &studyService{
		db:               db,
		log:              serviceLog,
		deckRepo:         deckRepo,
		flashcardRepo:    flashcardRepo,
		studySessionRepo: studySessionRepo,
		progress:         progress,
	}
}

func (ss *studyService) RecordOutcome(ctx context.Context, userID, deckID uuid.UUID, cardIndex int, status string) error {
	if !types.ValidStudyStatus(status) {
		return apperr.Validation("status must be %q or %q", types.StatusKnown, types.StatusUnknown)
	}
	if err := ss.checkDeckOwnership(ctx, userID, deckID); err != nil {
		return err
	}

	cards, err := ss.flashcardRepo.GetByDeckID(ctx, nil, deckID)
	if err != nil {
		return apperr.PersistenceFailed(fmt.Errorf("error fetching flashcards: %w", err))
	}
	if cardIndex < 0 || cardIndex >= len(cards) {
		return apperr.RecordingFailed("card index %d does not resolve against deck of %d cards", cardIndex, len(cards))
	}

	return ss.appendSession(ctx, userID, deckID, cards[cardIndex].ID, status)
}

func (ss *studyService) RecordOutcomeByCard(ctx context.Context, userID, deckID, cardID uuid.UUID, status string) error {
	if !types.ValidStudyStatus(status) {
		return apperr.Validation("status must be %q or %q", types.StatusKnown, types.StatusUnknown)
	}
	if err := ss.checkDeckOwnership(ctx, userID, deckID); err != nil {
		return err
	}

	cards, err := ss.flashcardRepo.GetByIDs(ctx, nil, []uuid.UUID{cardID})
	if err != nil {
		return apperr.PersistenceFailed(fmt.Errorf("error fetching flashcard: %w", err))
	}
	if len(cards) == 0 || cards[0].DeckID != deckID {
		return apperr.RecordingFailed("card %s does not belong to deck %s", cardID, deckID)
	}

	return ss.appendSession(ctx, userID, deckID, cardID, status)
}

func (ss *studyService) appendSession(ctx context.Context, userID, deckID, cardID uuid.UUID, status string) error {
	session := &types.StudySession{
		UserID: userID,
		DeckID: deckID,
		CardID: cardID,
		Status: status,
	}
	if _, err := ss.studySessionRepo.Create(ctx, nil, []*types.StudySession{session}); err != nil {
		return apperr.PersistenceFailed(fmt.Errorf("failed to record study session: %w", err))
	}
	if ss.progress != nil {
		ss.progress.InvalidateDeck(ctx, deckID)
	}
	return nil
}

func (ss *studyService) checkDeckOwnership(ctx context.Context, userID, deckID uuid.UUID) error {
	decks, err := ss.deckRepo.GetByIDs(ctx, nil, []uuid.UUID{deckID})
	if err != nil {
		return apperr.PersistenceFailed(fmt.Errorf("error fetching deck: %w", err))
	}
	if len(decks) == 0 || decks[0].UserID != userID {
		return apperr.NotFound("deck not found")
	}
	return nil
}
