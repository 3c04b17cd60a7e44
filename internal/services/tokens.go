package services

import (
	"math"
	"strings"

	"github.com/studyforge/studyforge-backend/internal/types"
)

// Monthly plan limits.
const (
	FreeDeckLimit  = 5
	FreeTokenLimit = 50000
	ProTokenLimit  = 1000000
)

// tokensPerCard is a flat allowance covering question, answer, and JSON
// structural overhead.
const tokensPerCard = 25

// expectedGeneratedCards is the card count assumed by the pre-generation
// quota estimate, before the provider tells us how many it produced.
const expectedGeneratedCards = 10

// EstimateTokens approximates the token count of text. English prose runs
// about 4 characters per token; that ratio is unreliable for very short
// strings, so below 10 words the estimate switches to ~0.75 words per
// token. Deterministic, never fails, empty input yields 0.
func EstimateTokens(text string) int {
	words := strings.Fields(text)
	if len(words) < 10 {
		return int(math.Ceil(float64(len(words)) / 0.75))
	}
	return int(math.Ceil(float64(len(text)) / 4))
}

// EstimateCardTokens sizes the output side of a generation: a flat 25
// tokens per card.
func EstimateCardTokens(cardCount int) int {
	if cardCount <= 0 {
		return 0
	}
	return cardCount * tokensPerCard
}

// EstimatePDFTokens sizes an uploaded PDF from its byte length, clamped
// to a sane range. Roughly 1KB of PDF costs 100 tokens once processed.
func EstimatePDFTokens(sizeBytes int64) int {
	if sizeBytes <= 0 {
		return 1000
	}
	estimated := int(math.Ceil(float64(sizeBytes) / 10))
	if estimated < 1000 {
		return 1000
	}
	if estimated > 50000 {
		return 50000
	}
	return estimated
}

// CombinedEstimate is the pre-generation quota figure: input tokens plus
// the allowance for the cards we expect back. Quota gating must use this,
// not current usage alone.
func CombinedEstimate(text string) int {
	return EstimateTokens(text) + EstimateCardTokens(expectedGeneratedCards)
}

// TokenLimitForPlan returns the monthly budget a plan is checked against.
func TokenLimitForPlan(plan string) int64 {
	if plan == types.PlanPro {
		return ProTokenLimit
	}
	return FreeTokenLimit
}
