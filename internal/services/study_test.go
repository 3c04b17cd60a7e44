package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyforge/studyforge-backend/internal/apperr"
	"github.com/studyforge/studyforge-backend/internal/logger"
	"github.com/studyforge/studyforge-backend/internal/types"
)

type fakeDeckRepo struct {
	decks map[uuid.UUID]*types.Deck
}

func (f *fakeDeckRepo) Create(ctx context.Context, tx *gorm.DB, decks []*types.Deck) ([]*types.Deck, error) {
	for _, d := range decks {
		f.decks[d.ID] = d
	}
	return decks, nil
}

func (f *fakeDeckRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Deck, error) {
	var out []*types.Deck
	for _, id := range ids {
		if d, ok := f.decks[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDeckRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Deck, error) {
	var out []*types.Deck
	for _, d := range f.decks {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDeckRepo) DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	for _, id := range ids {
		delete(f.decks, id)
	}
	return nil
}

type fakeFlashcardRepo struct {
	// byDeck holds cards newest first, matching the accessor contract.
	byDeck map[uuid.UUID][]*types.Flashcard
}

func (f *fakeFlashcardRepo) CreateBatch(ctx context.Context, tx *gorm.DB, cards []*types.Flashcard) ([]*types.Flashcard, error) {
	for _, c := range cards {
		f.byDeck[c.DeckID] = append([]*types.Flashcard{c}, f.byDeck[c.DeckID]...)
	}
	return cards, nil
}

func (f *fakeFlashcardRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Flashcard, error) {
	var out []*types.Flashcard
	for _, cards := range f.byDeck {
		for _, c := range cards {
			for _, id := range ids {
				if c.ID == id {
					out = append(out, c)
				}
			}
		}
	}
	return out, nil
}

func (f *fakeFlashcardRepo) GetByDeckID(ctx context.Context, tx *gorm.DB, deckID uuid.UUID) ([]*types.Flashcard, error) {
	return f.byDeck[deckID], nil
}

func (f *fakeFlashcardRepo) CountByDeckID(ctx context.Context, tx *gorm.DB, deckID uuid.UUID) (int64, error) {
	return int64(len(f.byDeck[deckID])), nil
}

type fakeStudySessionRepo struct {
	sessions []*types.StudySession
}

func (f *fakeStudySessionRepo) Create(ctx context.Context, tx *gorm.DB, sessions []*types.StudySession) ([]*types.StudySession, error) {
	for _, s := range sessions {
		if s.CreatedAt.IsZero() {
			s.CreatedAt = time.Now()
		}
		f.sessions = append(f.sessions, s)
	}
	return sessions, nil
}

func (f *fakeStudySessionRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.StudySession, error) {
	var out []*types.StudySession
	for _, s := range f.sessions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStudySessionRepo) GetByDeckID(ctx context.Context, tx *gorm.DB, deckID uuid.UUID) ([]*types.StudySession, error) {
	var out []*types.StudySession
	for _, s := range f.sessions {
		if s.DeckID == deckID {
			out = append(out, s)
		}
	}
	return out, nil
}

func newStudyFixture(t *testing.T) (StudyService, *fakeStudySessionRepo, uuid.UUID, uuid.UUID, []*types.Flashcard) {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger init: %v", err)
	}

	userID := uuid.New()
	deckID := uuid.New()
	deckRepo := &fakeDeckRepo{decks: map[uuid.UUID]*types.Deck{
		deckID: {ID: deckID, UserID: userID, Title: "Biology"},
	}}

	cards := []*types.Flashcard{
		{ID: uuid.New(), DeckID: deckID, Question: "Q newest", Answer: "A"},
		{ID: uuid.New(), DeckID: deckID, Question: "Q older", Answer: "B"},
	}
	cardRepo := &fakeFlashcardRepo{byDeck: map[uuid.UUID][]*types.Flashcard{deckID: cards}}
	sessionRepo := &fakeStudySessionRepo{}

	svc := NewStudyService(nil, log, deckRepo, cardRepo, sessionRepo, nil)
	return svc, sessionRepo, userID, deckID, cards
}

func TestRecordOutcomeByIndex(t *testing.T) {
	svc, sessions, userID, deckID, cards := newStudyFixture(t)

	if err := svc.RecordOutcome(context.Background(), userID, deckID, 1, types.StatusKnown); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sessions.sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions.sessions))
	}
	got := sessions.sessions[0]
	if got.CardID != cards[1].ID {
		t.Fatalf("index 1 must resolve to the second newest card")
	}
	if got.Status != types.StatusKnown {
		t.Fatalf("status = %q, want %q", got.Status, types.StatusKnown)
	}
}

func TestRecordOutcomeIndexOutOfRange(t *testing.T) {
	svc, sessions, userID, deckID, _ := newStudyFixture(t)

	err := svc.RecordOutcome(context.Background(), userID, deckID, 5, types.StatusUnknown)
	if err == nil {
		t.Fatalf("expected error for out-of-range index")
	}
	if !apperr.IsCode(err, apperr.CodeRecordingFailed) {
		t.Fatalf("expected recording_failed, got %v", err)
	}
	if len(sessions.sessions) != 0 {
		t.Fatalf("no session must be written on failure")
	}

	if err := svc.RecordOutcome(context.Background(), userID, deckID, -1, types.StatusKnown); err == nil {
		t.Fatalf("expected error for negative index")
	}
}

func TestRecordOutcomeInvalidStatus(t *testing.T) {
	svc, _, userID, deckID, _ := newStudyFixture(t)

	err := svc.RecordOutcome(context.Background(), userID, deckID, 0, "mastered")
	if err == nil {
		t.Fatalf("expected error for invalid status")
	}
	if !apperr.IsCode(err, apperr.CodeValidation) {
		t.Fatalf("expected validation_error, got %v", err)
	}
}

func TestRecordOutcomeWrongOwner(t *testing.T) {
	svc, _, _, deckID, _ := newStudyFixture(t)

	err := svc.RecordOutcome(context.Background(), uuid.New(), deckID, 0, types.StatusKnown)
	if err == nil {
		t.Fatalf("expected error for foreign deck")
	}
	if !apperr.IsCode(err, apperr.CodeNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestRecordOutcomeByCardWrongDeck(t *testing.T) {
	svc, _, userID, deckID, _ := newStudyFixture(t)

	err := svc.RecordOutcomeByCard(context.Background(), userID, deckID, uuid.New(), types.StatusKnown)
	if err == nil {
		t.Fatalf("expected error for card outside the deck")
	}
	if !apperr.IsCode(err, apperr.CodeRecordingFailed) {
		t.Fatalf("expected recording_failed, got %v", err)
	}
}

func TestRecordOutcomeByCard(t *testing.T) {
	svc, sessions, userID, deckID, cards := newStudyFixture(t)

	if err := svc.RecordOutcomeByCard(context.Background(), userID, deckID, cards[0].ID, types.StatusUnknown); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sessions.sessions) != 1 || sessions.sessions[0].CardID != cards[0].ID {
		t.Fatalf("session not recorded for the requested card")
	}
}
