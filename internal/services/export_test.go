package services

import (
	"strings"
	"testing"

	"github.com/studyforge/studyforge-backend/internal/types"
)

func TestExportCSVHeaderOnly(t *testing.T) {
	got := ExportCSV(nil)
	if got != `"Question","Answer"` {
		t.Fatalf("empty deck export = %q", got)
	}
}

func TestExportCSVLiteralQuoting(t *testing.T) {
	cards := []*types.Flashcard{
		{Question: "A,B", Answer: "C"},
	}
	got := ExportCSV(cards)
	want := "\"Question\",\"Answer\"\n\"A,B\",\"C\""
	if got != want {
		t.Fatalf("ExportCSV = %q, want %q", got, want)
	}
}

func TestExportCSVDoesNotEscapeEmbeddedQuotes(t *testing.T) {
	// Embedded double quotes pass through untouched. The format is
	// quote-wrapped but not RFC 4180; consumers rely on the raw bytes.
	cards := []*types.Flashcard{
		{Question: `He said "hi"`, Answer: "ok"},
	}
	got := ExportCSV(cards)
	want := "\"Question\",\"Answer\"\n\"He said \"hi\"\",\"ok\""
	if got != want {
		t.Fatalf("ExportCSV = %q, want %q", got, want)
	}
}

func TestExportCSVNoTrailingNewline(t *testing.T) {
	cards := []*types.Flashcard{
		{Question: "Q1", Answer: "A1"},
		{Question: "Q2", Answer: "A2"},
	}
	got := ExportCSV(cards)
	if strings.HasSuffix(got, "\n") {
		t.Fatalf("export must not end with a newline: %q", got)
	}
	if strings.Count(got, "\n") != 2 {
		t.Fatalf("expected 2 row separators, got %d in %q", strings.Count(got, "\n"), got)
	}
}

func TestExportTXTEmpty(t *testing.T) {
	if got := ExportTXT(nil); got != "" {
		t.Fatalf("empty deck txt export = %q", got)
	}
}

func TestExportTXTFormat(t *testing.T) {
	cards := []*types.Flashcard{
		{Question: "What is Go?", Answer: "A language"},
		{Question: "Year?", Answer: "2009"},
	}
	got := ExportTXT(cards)
	want := "Card 1:\nQ: What is Go?\nA: A language\n\nCard 2:\nQ: Year?\nA: 2009\n\n"
	if got != want {
		t.Fatalf("ExportTXT = %q, want %q", got, want)
	}
}
