package services

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyforge/studyforge-backend/internal/apperr"
	"github.com/studyforge/studyforge-backend/internal/logger"
	"github.com/studyforge/studyforge-backend/internal/types"
)

type fakeUserRepo struct {
	users map[uuid.UUID]*types.User
}

func (f *fakeUserRepo) Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error) {
	for _, u := range users {
		f.users[u.ID] = u
	}
	return users, nil
}

func (f *fakeUserRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.User, error) {
	var out []*types.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) GetByEmails(ctx context.Context, tx *gorm.DB, emails []string) ([]*types.User, error) {
	return nil, nil
}

func (f *fakeUserRepo) EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
	return false, nil
}

func (f *fakeUserRepo) IncrementDecksCreated(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	if u, ok := f.users[userID]; ok {
		u.DecksCreatedThisMonth++
	}
	return nil
}

func (f *fakeUserRepo) IncrementTokensProcessed(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount int64) error {
	if u, ok := f.users[userID]; ok {
		u.TokensProcessedThisMonth += amount
	}
	return nil
}

func (f *fakeUserRepo) ResetMonthlyCounters(ctx context.Context, tx *gorm.DB) (int64, error) {
	return 0, nil
}

func (f *fakeUserRepo) ActivateSubscription(ctx context.Context, tx *gorm.DB, userID uuid.UUID, subscriptionID string) error {
	return nil
}

func (f *fakeUserRepo) SetPlanBySubscriptionID(ctx context.Context, tx *gorm.DB, subscriptionID, plan string) error {
	return nil
}

func (f *fakeUserRepo) ClearSubscription(ctx context.Context, tx *gorm.DB, subscriptionID string) error {
	return nil
}

func (f *fakeUserRepo) SetStripeCustomerID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, customerID string) error {
	return nil
}

type fakeOpenAIClient struct {
	cards  []GeneratedCard
	err    error
	called bool
}

func (f *fakeOpenAIClient) GenerateFlashcards(ctx context.Context, content string) ([]GeneratedCard, error) {
	f.called = true
	return f.cards, f.err
}

type fakeUsageService struct {
	userRepo *fakeUserRepo
	recorded int64
}

func (f *fakeUsageService) CheckLimits(ctx context.Context, userID uuid.UUID) UsageLimits {
	users, _ := f.userRepo.GetByIDs(ctx, nil, []uuid.UUID{userID})
	if len(users) == 0 {
		return LimitsForUser(nil)
	}
	return LimitsForUser(users[0])
}

func (f *fakeUsageService) GetStats(ctx context.Context, userID uuid.UUID) (*UsageStats, error) {
	return &UsageStats{}, nil
}

func (f *fakeUsageService) RecordDeckCreated(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	return f.userRepo.IncrementDecksCreated(ctx, tx, userID)
}

func (f *fakeUsageService) RecordTokensProcessed(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount int64, metadata map[string]interface{}) error {
	f.recorded += amount
	return f.userRepo.IncrementTokensProcessed(ctx, tx, userID, amount)
}

func (f *fakeUsageService) ResetMonthlyCounters(ctx context.Context) (int64, error) {
	return 0, nil
}

func newGenerationFixture(t *testing.T, used int64) (GenerationService, *fakeOpenAIClient, *fakeUsageService, uuid.UUID, uuid.UUID) {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger init: %v", err)
	}

	userID := uuid.New()
	deckID := uuid.New()
	userRepo := &fakeUserRepo{users: map[uuid.UUID]*types.User{
		userID: {
			ID:                       userID,
			SubscriptionPlan:         types.PlanFree,
			TokensProcessedThisMonth: used,
		},
	}}
	deckRepo := &fakeDeckRepo{decks: map[uuid.UUID]*types.Deck{
		deckID: {ID: deckID, UserID: userID, Title: "History"},
	}}
	cardRepo := &fakeFlashcardRepo{byDeck: map[uuid.UUID][]*types.Flashcard{}}
	openai := &fakeOpenAIClient{cards: []GeneratedCard{
		{Question: "Q1", Answer: "A1"},
		{Question: "Q2", Answer: "A2"},
	}}
	usage := &fakeUsageService{userRepo: userRepo}

	svc := NewGenerationService(nil, log, deckRepo, cardRepo, userRepo, usage, openai, nil)
	return svc, openai, usage, userID, deckID
}

func TestGenerateForDeckQuotaGateRejects(t *testing.T) {
	// 10 words, 60 chars: 15 input tokens. With the 250-token card
	// allowance, 49990 used + 265 estimated exceeds the 50000 free limit,
	// so the provider must never be called.
	content := strings.Repeat("abcde ", 10)
	if got := EstimateTokens(content); got != 15 {
		t.Fatalf("fixture estimate = %d, want 15", got)
	}

	svc, openai, _, userID, deckID := newGenerationFixture(t, 49990)
	_, err := svc.GenerateForDeck(context.Background(), userID, deckID, content)
	if err == nil {
		t.Fatalf("expected quota rejection")
	}
	if !apperr.IsCode(err, apperr.CodeQuotaExceeded) {
		t.Fatalf("expected quota_exceeded, got %v", err)
	}
	if openai.called {
		t.Fatalf("provider must not be called when the gate rejects")
	}
}

func TestGenerateForDeckRecordsActualUsage(t *testing.T) {
	content := strings.Repeat("lorem ipsum dolor sit amet ", 5)
	svc, _, usage, userID, deckID := newGenerationFixture(t, 0)

	result, err := svc.GenerateForDeck(context.Background(), userID, deckID, content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Count != 2 {
		t.Fatalf("expected 2 cards, got %d", result.Count)
	}

	// Actual accounting uses the real card count (2), not the expected 10.
	want := int64(EstimateTokens(content) + EstimateCardTokens(2))
	if result.TokensUsed != want {
		t.Fatalf("tokensUsed = %d, want %d", result.TokensUsed, want)
	}
	if usage.recorded != want {
		t.Fatalf("recorded usage = %d, want %d", usage.recorded, want)
	}
}

func TestGenerateForDeckForeignDeck(t *testing.T) {
	svc, openai, _, _, deckID := newGenerationFixture(t, 0)

	_, err := svc.GenerateForDeck(context.Background(), uuid.New(), deckID, "some notes to study")
	if err == nil {
		t.Fatalf("expected error for foreign deck")
	}
	if !apperr.IsCode(err, apperr.CodeNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
	if openai.called {
		t.Fatalf("provider must not be called for a foreign deck")
	}
}

func TestGenerateForDeckEmptyContent(t *testing.T) {
	svc, _, _, userID, deckID := newGenerationFixture(t, 0)

	_, err := svc.GenerateForDeck(context.Background(), userID, deckID, "   ")
	if err == nil {
		t.Fatalf("expected validation error for empty content")
	}
	if !apperr.IsCode(err, apperr.CodeValidation) {
		t.Fatalf("expected validation_error, got %v", err)
	}
}
