package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyforge/studyforge-backend/internal/apperr"
	redisclient "github.com/studyforge/studyforge-backend/internal/clients/redis"
	"github.com/studyforge/studyforge-backend/internal/logger"
	"github.com/studyforge/studyforge-backend/internal/repos"
	"github.com/studyforge/studyforge-backend/internal/types"
)

type DeckStats struct {
	CardCount         int64 `json:"card_count"`
	MasteryPercentage int   `json:"mastery_percentage"`
}

type UserStats struct {
	StudyStreak       int `json:"study_streak"`
	TotalSessions     int `json:"total_sessions"`
	MasteryPercentage int `json:"mastery_percentage"`
}

type ProgressService interface {
	DeckStats(ctx context.Context, userID, deckID uuid.UUID) (*DeckStats, error)
	UserStats(ctx context.Context, userID uuid.UUID) (*UserStats, error)
	InvalidateDeck(ctx context.Context, deckID uuid.UUID)
}

type progressService struct {
	db               *gorm.DB
	log              *logger.Logger
	deckRepo         repos.DeckRepo
	flashcardRepo    repos.FlashcardRepo
	studySessionRepo repos.StudySessionRepo
	cache            redisclient.StatsCache
}

// NewProgressService builds the aggregator. cache may be nil, in which
// case every read recomputes from the session stream.
func NewProgressService(
	db *gorm.DB,
	log *logger.Logger,
	deckRepo repos.DeckRepo,
	flashcardRepo repos.FlashcardRepo,
	studySessionRepo repos.StudySessionRepo,
	cache redisclient.StatsCache,
) ProgressService {
	serviceLog := log.With("service", "ProgressService")
	return &progressService{
		db:               db,
		log:              serviceLog,
		deckRepo:         deckRepo,
		flashcardRepo:    flashcardRepo,
		studySessionRepo: studySessionRepo,
		cache:            cache,
	}
}

// MasteryPercentage is the rounded share of "known" outcomes over all
// recorded outcomes in the scope. Order-independent; 0 for no sessions.
func MasteryPercentage(sessions []*types.StudySession) int {
	if len(sessions) == 0 {
		return 0
	}
	known := 0
	for _, s := range sessions {
		if s != nil && s.Status == types.StatusKnown {
			known++
		}
	}
	return int(math.Round(float64(known) / float64(len(sessions)) * 100))
}

// StudyStreak counts consecutive calendar days with at least one session,
// walking backward from today. The walk is literal: if today has no
// session the streak is 0, even when yesterday does. Multiple sessions
// on one day count once. Days are calendar days in today's location.
func StudyStreak(sessions []*types.StudySession, today time.Time) int {
	if len(sessions) == 0 {
		return 0
	}

	ordered := make([]*types.StudySession, 0, len(sessions))
	for _, s := range sessions {
		if s != nil {
			ordered = append(ordered, s)
		}
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.After(ordered[j].CreatedAt)
	})

	loc := today.Location()
	current := truncateToDay(today, loc)
	consecutive := 0

	for _, s := range ordered {
		day := truncateToDay(s.CreatedAt, loc)
		if day.Equal(current) {
			consecutive++
			current = current.AddDate(0, 0, -1)
		} else if day.Before(current) {
			break
		}
		// A repeat of an already-counted day falls after current and is
		// skipped without breaking the chain.
	}
	return consecutive
}

func truncateToDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func (ps *progressService) DeckStats(ctx context.Context, userID, deckID uuid.UUID) (*DeckStats, error) {
	if err := ps.checkDeckOwnership(ctx, userID, deckID); err != nil {
		return nil, err
	}

	if ps.cache != nil {
		var cached DeckStats
		if ps.cache.GetDeckStats(ctx, deckID, &cached) {
			return &cached, nil
		}
	}

	cardCount, err := ps.flashcardRepo.CountByDeckID(ctx, nil, deckID)
	if err != nil {
		return nil, apperr.PersistenceFailed(fmt.Errorf("error counting flashcards: %w", err))
	}
	sessions, err := ps.studySessionRepo.GetByDeckID(ctx, nil, deckID)
	if err != nil {
		return nil, apperr.PersistenceFailed(fmt.Errorf("error fetching study sessions: %w", err))
	}

	stats := &DeckStats{
		CardCount:         cardCount,
		MasteryPercentage: MasteryPercentage(sessions),
	}
	if ps.cache != nil {
		ps.cache.SetDeckStats(ctx, deckID, stats)
	}
	return stats, nil
}

func (ps *progressService) UserStats(ctx context.Context, userID uuid.UUID) (*UserStats, error) {
	sessions, err := ps.studySessionRepo.GetByUserID(ctx, nil, userID)
	if err != nil {
		return nil, apperr.PersistenceFailed(fmt.Errorf("error fetching study sessions: %w", err))
	}

	return &UserStats{
		StudyStreak:       StudyStreak(sessions, time.Now()),
		TotalSessions:     len(sessions),
		MasteryPercentage: MasteryPercentage(sessions),
	}, nil
}

func (ps *progressService) InvalidateDeck(ctx context.Context, deckID uuid.UUID) {
	if ps.cache != nil {
		ps.cache.InvalidateDeck(ctx, deckID)
	}
}

func (ps *progressService) checkDeckOwnership(ctx context.Context, userID, deckID uuid.UUID) error {
	decks, err := ps.deckRepo.GetByIDs(ctx, nil, []uuid.UUID{deckID})
	if err != nil {
		return apperr.PersistenceFailed(fmt.Errorf("error fetching deck: %w", err))
	}
	if len(decks) == 0 || decks[0].UserID != userID {
		return apperr.NotFound("deck not found")
	}
	return nil
}
