package outline

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackzampolin/folio/internal/types"
)

func validPayload() map[string]any {
	titles := make([]string, types.ChapterCount)
	summaries := make([]string, types.ChapterCount)
	for i := range titles {
		titles[i] = fmt.Sprintf("Chapter %d Title", i+1)
		summaries[i] = fmt.Sprintf("Summary of chapter %d.", i+1)
	}
	titles[0] = "Understanding Your Relationship with Time"
	return map[string]any{
		"title":             "Mastering Time Management",
		"author":            "A. Writer",
		"genre":             "self-help",
		"plotSummary":       "A practical guide to reclaiming your hours.",
		"writingStyleGuide": "Direct, warm, example-driven.",
		"chapterTitles":     titles,
		"chapterSummaries":  summaries,
		"targetWordCount":   15000,
	}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestExtractRoundTrip(t *testing.T) {
	raw := mustJSON(t, validPayload())

	o, err := Extract(raw)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if o.Title != "Mastering Time Management" {
		t.Errorf("unexpected title %q", o.Title)
	}
	if o.Author != "A. Writer" {
		t.Errorf("unexpected author %q", o.Author)
	}
	if len(o.ChapterTitles) != types.ChapterCount {
		t.Errorf("expected %d titles, got %d", types.ChapterCount, len(o.ChapterTitles))
	}
	if o.ChapterTitles[0] != "Understanding Your Relationship with Time" {
		t.Errorf("unexpected first title %q", o.ChapterTitles[0])
	}
	if o.TargetWordCount != 15000 {
		t.Errorf("unexpected target word count %d", o.TargetWordCount)
	}
}

func TestExtractStrayProse(t *testing.T) {
	raw := "Here is the outline you asked for:\n\n" + mustJSON(t, validPayload()) + "\n\nLet me know if you need changes."

	o, err := Extract(raw)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(o.ChapterSummaries) != types.ChapterCount {
		t.Errorf("expected %d summaries, got %d", types.ChapterCount, len(o.ChapterSummaries))
	}
}

func TestExtractCodeFences(t *testing.T) {
	raw := "```json\n" + mustJSON(t, validPayload()) + "\n```"

	if _, err := Extract(raw); err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
}

func TestExtractControlChars(t *testing.T) {
	raw := mustJSON(t, validPayload())
	// Inject a raw control character of the kind models sometimes leak.
	raw = strings.Replace(raw, "reclaiming", "reclaim\x07ing", 1)

	o, err := Extract(raw)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if !strings.Contains(o.PlotSummary, "reclaiming") {
		t.Errorf("control character not stripped: %q", o.PlotSummary)
	}
}

func TestExtractFallback(t *testing.T) {
	// Trailing comma makes the object invalid JSON, forcing the
	// field-level fallback.
	raw := mustJSON(t, validPayload())
	raw = strings.TrimSuffix(raw, "}") + ",}"

	o, err := Extract(raw)
	if err != nil {
		t.Fatalf("Extract fallback failed: %v", err)
	}
	if o.Title != "Mastering Time Management" {
		t.Errorf("unexpected title %q", o.Title)
	}
	if len(o.ChapterTitles) != types.ChapterCount {
		t.Errorf("expected %d titles, got %d", types.ChapterCount, len(o.ChapterTitles))
	}
}

func TestExtractMissingFieldIsInvalid(t *testing.T) {
	p := validPayload()
	delete(p, "plotSummary")
	raw := mustJSON(t, p)

	_, err := Extract(raw)
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestExtractWrongChapterCountIsInvalid(t *testing.T) {
	p := validPayload()
	titles := p["chapterTitles"].([]string)
	p["chapterTitles"] = titles[:14]
	raw := mustJSON(t, p)

	_, err := Extract(raw)
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestExtractGarbageIsParseError(t *testing.T) {
	_, err := Extract("I could not produce an outline today, sorry.")
	if !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestExtractEscapedStringsInFallback(t *testing.T) {
	p := validPayload()
	p["plotSummary"] = `A guide with "quoted" advice.`
	raw := mustJSON(t, p)
	raw = strings.TrimSuffix(raw, "}") + ",}"

	o, err := Extract(raw)
	if err != nil {
		t.Fatalf("Extract fallback failed: %v", err)
	}
	if o.PlotSummary != `A guide with "quoted" advice.` {
		t.Errorf("escapes not handled: %q", o.PlotSummary)
	}
}
