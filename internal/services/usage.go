package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/studyforge/studyforge-backend/internal/apperr"
	"github.com/studyforge/studyforge-backend/internal/logger"
	"github.com/studyforge/studyforge-backend/internal/repos"
	"github.com/studyforge/studyforge-backend/internal/types"
)

// Unlimited marks a remaining value with no cap (pro plan).
const Unlimited int64 = -1

type UsageLimits struct {
	CanCreateDeck    bool   `json:"can_create_deck"`
	CanProcessTokens bool   `json:"can_process_tokens"`
	DecksRemaining   int64  `json:"decks_remaining"`
	TokensRemaining  int64  `json:"tokens_remaining"`
	SubscriptionPlan string `json:"subscription_plan"`
}

type UsageStats struct {
	DecksCreatedThisMonth    int    `json:"decks_created_this_month"`
	TokensProcessedThisMonth int64  `json:"tokens_processed_this_month"`
	SubscriptionPlan         string `json:"subscription_plan"`
}

type UsageService interface {
	// CheckLimits is fail-closed: if the user row cannot be read, every
	// flag is false and every remaining value is 0.
	CheckLimits(ctx context.Context, userID uuid.UUID) UsageLimits
	GetStats(ctx context.Context, userID uuid.UUID) (*UsageStats, error)

	// RecordDeckCreated must be called exactly once per successful deck
	// creation; duplicate calls double-count.
	RecordDeckCreated(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
	RecordTokensProcessed(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount int64, metadata map[string]interface{}) error

	ResetMonthlyCounters(ctx context.Context) (int64, error)
}

type usageService struct {
	db             *gorm.DB
	log            *logger.Logger
	userRepo       repos.UserRepo
	usageEventRepo repos.UsageEventRepo
}

func NewUsageService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, usageEventRepo repos.UsageEventRepo) UsageService {
	serviceLog := log.With("service", "UsageService")
	return &usageService{
		db:             db,
		log:            serviceLog,
		userRepo:       userRepo,
		usageEventRepo: usageEventRepo,
	}
}

// LimitsForUser derives plan limits from a user row. A nil user is the
// fail-closed case.
func LimitsForUser(user *types.User) UsageLimits {
	if user == nil {
		return UsageLimits{SubscriptionPlan: types.PlanFree}
	}

	if user.IsPro() {
		return UsageLimits{
			CanCreateDeck:    true,
			CanProcessTokens: true,
			DecksRemaining:   Unlimited,
			TokensRemaining:  Unlimited,
			SubscriptionPlan: user.SubscriptionPlan,
		}
	}

	decksRemaining := int64(FreeDeckLimit - user.DecksCreatedThisMonth)
	if decksRemaining < 0 {
		decksRemaining = 0
	}
	tokensRemaining := int64(FreeTokenLimit) - user.TokensProcessedThisMonth
	if tokensRemaining < 0 {
		tokensRemaining = 0
	}

	return UsageLimits{
		CanCreateDeck:    user.DecksCreatedThisMonth < FreeDeckLimit,
		CanProcessTokens: user.TokensProcessedThisMonth < FreeTokenLimit,
		DecksRemaining:   decksRemaining,
		TokensRemaining:  tokensRemaining,
		SubscriptionPlan: user.SubscriptionPlan,
	}
}

func (us *usageService) CheckLimits(ctx context.Context, userID uuid.UUID) UsageLimits {
	user, err := us.loadUser(ctx, userID)
	if err != nil {
		us.log.Warn("Failed to load user for limit check, failing closed", "user_id", userID, "error", err)
		return LimitsForUser(nil)
	}
	return LimitsForUser(user)
}

func (us *usageService) GetStats(ctx context.Context, userID uuid.UUID) (*UsageStats, error) {
	user, err := us.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &UsageStats{
		DecksCreatedThisMonth:    user.DecksCreatedThisMonth,
		TokensProcessedThisMonth: user.TokensProcessedThisMonth,
		SubscriptionPlan:         user.SubscriptionPlan,
	}, nil
}

func (us *usageService) RecordDeckCreated(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	if err := us.userRepo.IncrementDecksCreated(ctx, tx, userID); err != nil {
		return apperr.PersistenceFailed(fmt.Errorf("failed to increment deck counter: %w", err))
	}
	us.emitEvent(ctx, tx, userID, types.ActionDeckCreated, map[string]interface{}{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
	return nil
}

func (us *usageService) RecordTokensProcessed(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount int64, metadata map[string]interface{}) error {
	if amount < 0 {
		return apperr.Validation("token amount must be non-negative, got %d", amount)
	}
	if err := us.userRepo.IncrementTokensProcessed(ctx, tx, userID, amount); err != nil {
		return apperr.PersistenceFailed(fmt.Errorf("failed to increment token counter: %w", err))
	}

	meta := map[string]interface{}{
		"token_count": amount,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range metadata {
		meta[k] = v
	}
	us.emitEvent(ctx, tx, userID, types.ActionTokensProcessed, meta)
	return nil
}

// emitEvent writes the audit record. Failures are logged, not surfaced:
// the event stream is a sink and must never fail the operation it trails.
func (us *usageService) emitEvent(ctx context.Context, tx *gorm.DB, userID uuid.UUID, actionType string, metadata map[string]interface{}) {
	raw, err := json.Marshal(metadata)
	if err != nil {
		us.log.Warn("Failed to marshal usage event metadata", "action_type", actionType, "error", err)
		return
	}
	event := &types.UsageEvent{
		UserID:     userID,
		ActionType: actionType,
		Metadata:   datatypes.JSON(raw),
	}
	if _, err := us.usageEventRepo.Create(ctx, tx, []*types.UsageEvent{event}); err != nil {
		us.log.Warn("Failed to write usage event", "action_type", actionType, "user_id", userID, "error", err)
	}
}

func (us *usageService) ResetMonthlyCounters(ctx context.Context) (int64, error) {
	affected, err := us.userRepo.ResetMonthlyCounters(ctx, nil)
	if err != nil {
		return 0, apperr.PersistenceFailed(fmt.Errorf("failed to reset monthly counters: %w", err))
	}
	us.log.Info("Monthly usage counters reset", "users_affected", affected)
	return affected, nil
}

func (us *usageService) loadUser(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	if userID == uuid.Nil {
		return nil, apperr.NotFound("user profile not found")
	}
	found, err := us.userRepo.GetByIDs(ctx, nil, []uuid.UUID{userID})
	if err != nil {
		return nil, apperr.PersistenceFailed(fmt.Errorf("error fetching user: %w", err))
	}
	if len(found) == 0 || found[0] == nil {
		return nil, apperr.NotFound("user profile not found")
	}
	return found[0], nil
}
