package services

import (
	"strings"
	"testing"
)

func TestEstimateTokensEmpty(t *testing.T) {
	if got := EstimateTokens(""); got != 0 {
		t.Fatalf("expected 0 tokens for empty input, got %d", got)
	}
	if got := EstimateTokens("   \n\t  "); got != 0 {
		t.Fatalf("expected 0 tokens for whitespace input, got %d", got)
	}
}

func TestEstimateTokensShortInput(t *testing.T) {
	// Under 10 words the word-based path applies: ceil(words / 0.75).
	cases := []struct {
		text string
		want int
	}{
		{"hello", 2},
		{"one two three", 4},
		{"a b c d e f", 8},
		{"a b c d e f g h i", 12},
	}
	for _, tc := range cases {
		if got := EstimateTokens(tc.text); got != tc.want {
			t.Fatalf("EstimateTokens(%q) = %d, want %d", tc.text, got, tc.want)
		}
	}
}

func TestEstimateTokensLongInput(t *testing.T) {
	// At 10 words and above the char-based path applies: ceil(len/4).
	text := "one two three four five six seven eight nine ten"
	want := (len(text) + 3) / 4
	if got := EstimateTokens(text); got != want {
		t.Fatalf("EstimateTokens(long) = %d, want %d", got, want)
	}
}

func TestEstimateTokensDeterministic(t *testing.T) {
	text := strings.Repeat("lorem ipsum dolor sit amet ", 20)
	first := EstimateTokens(text)
	for i := 0; i < 5; i++ {
		if got := EstimateTokens(text); got != first {
			t.Fatalf("estimate changed between calls: %d vs %d", first, got)
		}
	}
}

func TestEstimateCardTokens(t *testing.T) {
	if got := EstimateCardTokens(0); got != 0 {
		t.Fatalf("expected 0 for zero cards, got %d", got)
	}
	if got := EstimateCardTokens(-3); got != 0 {
		t.Fatalf("expected 0 for negative cards, got %d", got)
	}
	if got := EstimateCardTokens(10); got != 250 {
		t.Fatalf("expected 250 for 10 cards, got %d", got)
	}
}

func TestCombinedEstimate(t *testing.T) {
	text := "short note"
	want := EstimateTokens(text) + EstimateCardTokens(10)
	if got := CombinedEstimate(text); got != want {
		t.Fatalf("CombinedEstimate = %d, want %d", got, want)
	}
}

func TestEstimatePDFTokensClamped(t *testing.T) {
	if got := EstimatePDFTokens(0); got != 1000 {
		t.Fatalf("expected floor of 1000 for empty pdf, got %d", got)
	}
	if got := EstimatePDFTokens(100); got != 1000 {
		t.Fatalf("expected floor of 1000 for tiny pdf, got %d", got)
	}
	if got := EstimatePDFTokens(10_000_000); got != 50000 {
		t.Fatalf("expected ceiling of 50000 for huge pdf, got %d", got)
	}
	if got := EstimatePDFTokens(100_000); got != 10000 {
		t.Fatalf("expected 10000 for 100KB pdf, got %d", got)
	}
}

func TestTokenLimitForPlan(t *testing.T) {
	if got := TokenLimitForPlan("pro"); got != ProTokenLimit {
		t.Fatalf("pro limit = %d, want %d", got, int64(ProTokenLimit))
	}
	if got := TokenLimitForPlan("free"); got != FreeTokenLimit {
		t.Fatalf("free limit = %d, want %d", got, int64(FreeTokenLimit))
	}
	if got := TokenLimitForPlan("cancelled"); got != FreeTokenLimit {
		t.Fatalf("cancelled limit = %d, want %d", got, int64(FreeTokenLimit))
	}
}
