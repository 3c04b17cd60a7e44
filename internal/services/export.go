package services

import (
	"fmt"
	"strings"

	"github.com/studyforge/studyforge-backend/internal/types"
)

// ExportCSV renders cards as delimited text with a Question,Answer header
// row. Every field is wrapped in double quotes; embedded quotes are NOT
// escaped. That matches the shipped export format byte for byte, and
// consumers already depend on it, so encoding/csv must not be swapped in.
func ExportCSV(cards []*types.Flashcard) string {
	rows := make([]string, 0, len(cards)+1)
	rows = append(rows, `"Question","Answer"`)
	for _, card := range cards {
		rows = append(rows, fmt.Sprintf(`"%s","%s"`, card.Question, card.Answer))
	}
	return strings.Join(rows, "\n")
}

// ExportTXT renders cards as numbered plain-text blocks.
func ExportTXT(cards []*types.Flashcard) string {
	var b strings.Builder
	for i, card := range cards {
		fmt.Fprintf(&b, "Card %d:\nQ: %s\nA: %s\n\n", i+1, card.Question, card.Answer)
	}
	return b.String()
}
