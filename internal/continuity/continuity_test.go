package continuity

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/jackzampolin/folio/internal/types"
)

func TestAppendAndContext(t *testing.T) {
	m := NewManager()

	if m.Context() != "" {
		t.Error("expected empty context before any appends")
	}

	if err := m.Append(1, "The reader meets their calendar."); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := m.Append(2, "A time audit reveals the gaps."); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	ctx := m.Context()
	if !strings.Contains(ctx, "Chapter 1: The reader meets their calendar.") {
		t.Errorf("context missing chapter 1: %q", ctx)
	}
	if !strings.Contains(ctx, "Chapter 2: A time audit reveals the gaps.") {
		t.Errorf("context missing chapter 2: %q", ctx)
	}
	if strings.Index(ctx, "Chapter 1") > strings.Index(ctx, "Chapter 2") {
		t.Error("context out of order")
	}
}

func TestAppendOutOfOrder(t *testing.T) {
	m := NewManager()
	if err := m.Append(2, "skipped ahead"); err == nil {
		t.Error("expected error for out-of-order append")
	}
	if err := m.Append(1, "first"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := m.Append(1, "duplicate"); err == nil {
		t.Error("expected error for duplicate append")
	}
}

func TestContextBounded(t *testing.T) {
	m := NewManager()
	long := strings.Repeat("This chapter covers a great many things. ", 40)
	for i := 1; i <= types.ChapterCount; i++ {
		if err := m.Append(i, long); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	ctx := m.Context()
	if len(ctx) > maxContextChars {
		t.Errorf("context exceeds bound: %d > %d", len(ctx), maxContextChars)
	}
	// The most recent chapter stays present.
	if !strings.Contains(ctx, fmt.Sprintf("Chapter %d:", types.ChapterCount)) {
		t.Error("most recent chapter missing from bounded context")
	}
}

func TestNewFromChapters(t *testing.T) {
	chapters := []types.ChapterResult{
		{ChapterNumber: 1, Summary: "Opening."},
		{ChapterNumber: 2, Summary: "Middle."},
	}
	m, err := NewFromChapters(chapters)
	if err != nil {
		t.Fatalf("NewFromChapters failed: %v", err)
	}
	if m.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", m.Len())
	}
	if !strings.Contains(m.Context(), "Chapter 2: Middle.") {
		t.Errorf("unexpected context %q", m.Context())
	}
}

func TestNewFromChapters_GapRejected(t *testing.T) {
	chapters := []types.ChapterResult{
		{ChapterNumber: 1, Summary: "Opening."},
		{ChapterNumber: 3, Summary: "Skipped one."},
	}
	if _, err := NewFromChapters(chapters); err == nil {
		t.Error("expected error for gap in chapter sequence")
	}
}

func TestTruncatePreservesRuneBoundary(t *testing.T) {
	// One ASCII byte up front so the byte cap lands mid-rune.
	s := "x" + strings.Repeat("é", maxSummaryChars)

	m := NewManager()
	if err := m.Append(1, s); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	got := m.entries[0].summary
	if len(got) > maxSummaryChars {
		t.Errorf("summary length = %d, want <= %d", len(got), maxSummaryChars)
	}
	if !utf8.ValidString(got) {
		t.Errorf("truncated summary is not valid UTF-8: %q", got[len(got)-4:])
	}
}
