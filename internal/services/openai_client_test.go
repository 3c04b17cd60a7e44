package services

import (
	"testing"
)

func TestStripJSONFence(t *testing.T) {
	raw := "```json\n[{\"question\":\"Q\",\"answer\":\"A\"}]\n```"
	got := stripJSONFence(raw)
	want := `[{"question":"Q","answer":"A"}]`
	if got != want {
		t.Fatalf("stripJSONFence = %q, want %q", got, want)
	}
}

func TestStripJSONFenceNoFence(t *testing.T) {
	raw := `[{"question":"Q","answer":"A"}]`
	if got := stripJSONFence(raw); got != raw {
		t.Fatalf("unfenced input must pass through, got %q", got)
	}
}

func TestStripJSONFenceWithSurroundingProse(t *testing.T) {
	raw := "Here are your flashcards:\n```json\n[{\"question\":\"Q\",\"answer\":\"A\"}]\n```\nEnjoy!"
	want := `[{"question":"Q","answer":"A"}]`
	if got := stripJSONFence(raw); got != want {
		t.Fatalf("stripJSONFence = %q, want %q", got, want)
	}
}

func TestParseFlashcardResponse(t *testing.T) {
	raw := "```json\n[{\"question\":\"What is Go?\",\"answer\":\"A language\"},{\"question\":\"Year?\",\"answer\":\"2009\"}]\n```"
	cards, err := parseFlashcardResponse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(cards))
	}
	if cards[0].Question != "What is Go?" || cards[0].Answer != "A language" {
		t.Fatalf("unexpected first card: %+v", cards[0])
	}
}

func TestParseFlashcardResponseDropsIncompleteCards(t *testing.T) {
	raw := `[
		{"question":"Keep me","answer":"yes"},
		{"question":"","answer":"no question"},
		{"question":"no answer","answer":""},
		{"answer":"missing question key"},
		{"question":"missing answer key"}
	]`
	cards, err := parseFlashcardResponse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cards) != 1 {
		t.Fatalf("expected only the complete card to survive, got %d", len(cards))
	}
	if cards[0].Question != "Keep me" {
		t.Fatalf("wrong card survived: %+v", cards[0])
	}
}

func TestParseFlashcardResponseMalformed(t *testing.T) {
	if _, err := parseFlashcardResponse("not json at all"); err == nil {
		t.Fatalf("expected error for malformed payload")
	}
	if _, err := parseFlashcardResponse(`{"question":"Q","answer":"A"}`); err == nil {
		t.Fatalf("expected error for non-array payload")
	}
}

func TestParseFlashcardResponseCoercesNonStringFields(t *testing.T) {
	raw := `[{"question":"Count?","answer":42}]`
	cards, err := parseFlashcardResponse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cards) != 1 || cards[0].Answer == "" {
		t.Fatalf("numeric answer should coerce to a string, got %+v", cards)
	}
}
