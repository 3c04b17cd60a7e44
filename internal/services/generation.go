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

// maxAcceptedCards is a defensive cap on provider output, enforced
// immediately downstream of the gateway.
const maxAcceptedCards = 1000

type GenerationResult struct {
	Flashcards []GeneratedCard `json:"flashcards"`
	Count      int             `json:"count"`
	TokensUsed int64           `json:"tokensUsed"`
}

type GenerationService interface {
	// GenerateForDeck runs the full pipeline: quota gate on the combined
	// pre-generation estimate, provider call, card cap, batch insert,
	// then actual-usage accounting. Steps are sequential with no
	// cross-step atomicity; a failure after insert leaves the cards
	// persisted and usage under-counted.
	GenerateForDeck(ctx context.Context, userID, deckID uuid.UUID, content string) (*GenerationResult, error)
}

type generationService struct {
	db            *gorm.DB
	log           *logger.Logger
	deckRepo      repos.DeckRepo
	flashcardRepo repos.FlashcardRepo
	userRepo      repos.UserRepo
	usageService  UsageService
	openaiClient  OpenAIClient
	progress      ProgressService
}

func NewGenerationService(
	db *gorm.DB,
	log *logger.Logger,
	deckRepo repos.DeckRepo,
	flashcardRepo repos.FlashcardRepo,
	userRepo repos.UserRepo,
	usageService UsageService,
	openaiClient OpenAIClient,
	progress ProgressService,
) GenerationService {
	serviceLog := log.With("service", "GenerationService")
	return &generationService{
		db:            db,
		log:           serviceLog,
		deckRepo:      deckRepo,
		flashcardRepo: flashcardRepo,
		userRepo:      userRepo,
		usageService:  usageService,
		openaiClient:  openaiClient,
		progress:      progress,
	}
}

func (gs *generationService) GenerateForDeck(ctx context.Context, userID, deckID uuid.UUID, content string) (*GenerationResult, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperr.Validation("content is required")
	}
	if deckID == uuid.Nil {
		return nil, apperr.Validation("deckId is required")
	}

	decks, err := gs.deckRepo.GetByIDs(ctx, nil, []uuid.UUID{deckID})
	if err != nil {
		return nil, apperr.PersistenceFailed(fmt.Errorf("error fetching deck: %w", err))
	}
	if len(decks) == 0 || decks[0].UserID != userID {
		return nil, apperr.NotFound("deck not found")
	}

	users, err := gs.userRepo.GetByIDs(ctx, nil, []uuid.UUID{userID})
	if err != nil {
		return nil, apperr.PersistenceFailed(fmt.Errorf("error fetching user: %w", err))
	}
	if len(users) == 0 || users[0] == nil {
		return nil, apperr.NotFound("user profile not found")
	}
	user := users[0]

	// The gate uses the combined pre-generation estimate, not just
	// current usage: input tokens plus the expected-card allowance.
	inputTokens := EstimateTokens(content)
	totalEstimate := int64(CombinedEstimate(content))
	maxTokens := TokenLimitForPlan(user.SubscriptionPlan)
	if user.TokensProcessedThisMonth+totalEstimate > maxTokens {
		return nil, apperr.QuotaExceeded(
			"token usage limit reached for this month: %d used, %d estimated, %d allowed",
			user.TokensProcessedThisMonth, totalEstimate, maxTokens,
		)
	}

	cards, err := gs.openaiClient.GenerateFlashcards(ctx, content)
	if err != nil {
		return nil, err
	}
	if len(cards) > maxAcceptedCards {
		gs.log.Warn("Provider returned more cards than the cap, truncating",
			"returned", len(cards), "cap", maxAcceptedCards)
		cards = cards[:maxAcceptedCards]
	}

	if len(cards) > 0 {
		rows := make([]*types.Flashcard, 0, len(cards))
		for _, card := range cards {
			rows = append(rows, &types.Flashcard{
				DeckID:   deckID,
				Question: card.Question,
				Answer:   card.Answer,
			})
		}
		if _, err := gs.flashcardRepo.CreateBatch(ctx, nil, rows); err != nil {
			return nil, apperr.PersistenceFailed(fmt.Errorf("failed to save flashcards: %w", err))
		}
	}

	actualTokensUsed := int64(inputTokens + EstimateCardTokens(len(cards)))
	if err := gs.usageService.RecordTokensProcessed(ctx, nil, userID, actualTokensUsed, map[string]interface{}{
		"source":  "text_content",
		"deck_id": deckID.String(),
	}); err != nil {
		// Cards are already persisted; losing the accounting write
		// under-counts usage but must not fail the request.
		gs.log.Warn("Failed to record token usage after generation",
			"user_id", userID, "deck_id", deckID, "error", err)
	}

	if gs.progress != nil {
		gs.progress.InvalidateDeck(ctx, deckID)
	}

	return &GenerationResult{
		Flashcards: cards,
		Count:      len(cards),
		TokensUsed: actualTokensUsed,
	}, nil
}
