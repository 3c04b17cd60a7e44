package services

import (
	"testing"
	"time"

	"github.com/studyforge/studyforge-backend/internal/types"
)

func sessionAt(t time.Time, status string) *types.StudySession {
	return &types.StudySession{Status: status, CreatedAt: t}
}

func TestMasteryPercentageEmpty(t *testing.T) {
	if got := MasteryPercentage(nil); got != 0 {
		t.Fatalf("expected 0 for no sessions, got %d", got)
	}
}

func TestMasteryPercentageRounds(t *testing.T) {
	now := time.Now()
	sessions := []*types.StudySession{
		sessionAt(now, types.StatusKnown),
		sessionAt(now, types.StatusUnknown),
	}
	if got := MasteryPercentage(sessions); got != 50 {
		t.Fatalf("expected 50, got %d", got)
	}

	// 2 of 3 known rounds to 67, not 66.
	sessions = append(sessions, sessionAt(now, types.StatusKnown))
	if got := MasteryPercentage(sessions); got != 67 {
		t.Fatalf("expected 67, got %d", got)
	}
}

func TestMasteryPercentageOrderIndependent(t *testing.T) {
	now := time.Now()
	a := []*types.StudySession{
		sessionAt(now, types.StatusKnown),
		sessionAt(now.Add(-time.Hour), types.StatusUnknown),
		sessionAt(now.Add(-2*time.Hour), types.StatusKnown),
	}
	b := []*types.StudySession{a[2], a[0], a[1]}
	if MasteryPercentage(a) != MasteryPercentage(b) {
		t.Fatalf("mastery changed with ordering")
	}
}

func TestStudyStreakEmpty(t *testing.T) {
	if got := StudyStreak(nil, time.Now()); got != 0 {
		t.Fatalf("expected 0 for no sessions, got %d", got)
	}
}

func TestStudyStreakConsecutiveDays(t *testing.T) {
	today := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	sessions := []*types.StudySession{
		sessionAt(today.Add(-2*time.Hour), types.StatusKnown),
		sessionAt(today.AddDate(0, 0, -1), types.StatusUnknown),
		sessionAt(today.AddDate(0, 0, -2), types.StatusKnown),
	}
	if got := StudyStreak(sessions, today); got != 3 {
		t.Fatalf("expected streak of 3, got %d", got)
	}
}

func TestStudyStreakBreaksWithoutToday(t *testing.T) {
	// Sessions yesterday and the day before, but none today: the walk
	// starts at today and the first gap ends it immediately.
	today := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	sessions := []*types.StudySession{
		sessionAt(today.AddDate(0, 0, -1), types.StatusKnown),
		sessionAt(today.AddDate(0, 0, -2), types.StatusKnown),
	}
	if got := StudyStreak(sessions, today); got != 0 {
		t.Fatalf("expected streak of 0 with no session today, got %d", got)
	}
}

func TestStudyStreakBreaksOnGap(t *testing.T) {
	today := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	sessions := []*types.StudySession{
		sessionAt(today, types.StatusKnown),
		sessionAt(today.AddDate(0, 0, -1), types.StatusKnown),
		// Gap on day -2.
		sessionAt(today.AddDate(0, 0, -3), types.StatusKnown),
		sessionAt(today.AddDate(0, 0, -4), types.StatusKnown),
	}
	if got := StudyStreak(sessions, today); got != 2 {
		t.Fatalf("expected streak of 2 before the gap, got %d", got)
	}
}

func TestStudyStreakSameDayCountsOnce(t *testing.T) {
	today := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)
	sessions := []*types.StudySession{
		sessionAt(today, types.StatusKnown),
		sessionAt(today.Add(-1*time.Hour), types.StatusUnknown),
		sessionAt(today.Add(-5*time.Hour), types.StatusKnown),
		sessionAt(today.AddDate(0, 0, -1), types.StatusKnown),
	}
	if got := StudyStreak(sessions, today); got != 2 {
		t.Fatalf("expected streak of 2 with same-day repeats, got %d", got)
	}
}

func TestStudyStreakUnsortedInput(t *testing.T) {
	today := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	sessions := []*types.StudySession{
		sessionAt(today.AddDate(0, 0, -2), types.StatusKnown),
		sessionAt(today, types.StatusKnown),
		sessionAt(today.AddDate(0, 0, -1), types.StatusKnown),
	}
	if got := StudyStreak(sessions, today); got != 3 {
		t.Fatalf("expected streak of 3 from unsorted input, got %d", got)
	}
}
