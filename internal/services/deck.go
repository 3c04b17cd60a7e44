package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyforge/studyforge-backend/internal/apperr"
	"github.com/studyforge/studyforge-backend/internal/logger"
	"github.com/studyforge/studyforge-backend/internal/repos"
	"github.com/studyforge/studyforge-backend/internal/types"
)

type DeckService interface {
	// CreateDeck is gated by the quota ledger and bumps the deck counter
	// exactly once, in the same transaction as the insert.
	CreateDeck(ctx context.Context, userID uuid.UUID, title, description string) (*types.Deck, error)
	ListDecks(ctx context.Context, userID uuid.UUID) ([]*types.Deck, error)
	GetDeck(ctx context.Context, userID, deckID uuid.UUID) (*types.Deck, error)
	DeleteDeck(ctx context.Context, userID, deckID uuid.UUID) error
	AddFlashcard(ctx context.Context, userID, deckID uuid.UUID, question, answer string) (*types.Flashcard, error)
	ListFlashcards(ctx context.Context, userID, deckID uuid.UUID) ([]*types.Flashcard, error)
}

type deckService struct {
	db            *gorm.DB
	log           *logger.Logger
	deckRepo      repos.DeckRepo
	flashcardRepo repos.FlashcardRepo
	usageService  UsageService
	progress      ProgressService
}

func NewDeckService(
	db *gorm.DB,
	log *logger.Logger,
	deckRepo repos.DeckRepo,
	flashcardRepo repos.FlashcardRepo,
	usageService UsageService,
	progress ProgressService,
) DeckService {
	serviceLog := log.With("service", "DeckService")
	return &deckService{
		db:            db,
		log:           serviceLog,
		deckRepo:      deckRepo,
		flashcardRepo: flashcardRepo,
		usageService:  usageService,
		progress:      progress,
	}
}

func (ds *deckService) CreateDeck(ctx context.Context, userID uuid.UUID, title, description string) (*types.Deck, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperr.Validation("title is required")
	}

	limits := ds.usageService.CheckLimits(ctx, userID)
	if !limits.CanCreateDeck {
		return nil, apperr.QuotaExceeded("deck limit reached for this month: %d remaining on the %s plan", limits.DecksRemaining, limits.SubscriptionPlan)
	}

	deck := &types.Deck{
		UserID:      userID,
		Title:       title,
		Description: strings.TrimSpace(description),
	}
	if err := ds.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ds.deckRepo.Create(ctx, tx, []*types.Deck{deck}); err != nil {
			return apperr.PersistenceFailed(fmt.Errorf("failed to create deck: %w", err))
		}
		return ds.usageService.RecordDeckCreated(ctx, tx, userID)
	}); err != nil {
		return nil, err
	}
	return deck, nil
}

func (ds *deckService) ListDecks(ctx context.Context, userID uuid.UUID) ([]*types.Deck, error) {
	decks, err := ds.deckRepo.GetByUserID(ctx, nil, userID)
	if err != nil {
		return nil, apperr.PersistenceFailed(fmt.Errorf("error fetching decks: %w", err))
	}
	return decks, nil
}

func (ds *deckService) GetDeck(ctx context.Context, userID, deckID uuid.UUID) (*types.Deck, error) {
	decks, err := ds.deckRepo.GetByIDs(ctx, nil, []uuid.UUID{deckID})
	if err != nil {
		return nil, apperr.PersistenceFailed(fmt.Errorf("error fetching deck: %w", err))
	}
	if len(decks) == 0 || decks[0].UserID != userID {
		return nil, apperr.NotFound("deck not found")
	}
	return decks[0], nil
}

func (ds *deckService) DeleteDeck(ctx context.Context, userID, deckID uuid.UUID) error {
	if _, err := ds.GetDeck(ctx, userID, deckID); err != nil {
		return err
	}
	if err := ds.deckRepo.DeleteByIDs(ctx, nil, []uuid.UUID{deckID}); err != nil {
		return apperr.PersistenceFailed(fmt.Errorf("failed to delete deck: %w", err))
	}
	if ds.progress != nil {
		ds.progress.InvalidateDeck(ctx, deckID)
	}
	return nil
}

func (ds *deckService) AddFlashcard(ctx context.Context, userID, deckID uuid.UUID, question, answer string) (*types.Flashcard, error) {
	question = strings.TrimSpace(question)
	answer = strings.TrimSpace(answer)
	if question == "" || answer == "" {
		return nil, apperr.Validation("question and answer are required")
	}
	if _, err := ds.GetDeck(ctx, userID, deckID); err != nil {
		return nil, err
	}

	card := &types.Flashcard{
		DeckID:   deckID,
		Question: question,
		Answer:   answer,
	}
	if _, err := ds.flashcardRepo.CreateBatch(ctx, nil, []*types.Flashcard{card}); err != nil {
		return nil, apperr.PersistenceFailed(fmt.Errorf("failed to create flashcard: %w", err))
	}
	if ds.progress != nil {
		ds.progress.InvalidateDeck(ctx, deckID)
	}
	return card, nil
}

func (ds *deckService) ListFlashcards(ctx context.Context, userID, deckID uuid.UUID) ([]*types.Flashcard, error) {
	if _, err := ds.GetDeck(ctx, userID, deckID); err != nil {
		return nil, err
	}
	cards, err := ds.flashcardRepo.GetByDeckID(ctx, nil, deckID)
	if err != nil {
		return nil, apperr.PersistenceFailed(fmt.Errorf("error fetching flashcards: %w", err))
	}
	return cards, nil
}
