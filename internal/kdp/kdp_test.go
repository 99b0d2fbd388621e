package kdp

import (
	"strings"
	"testing"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/jackzampolin/folio/internal/types"
)

func testBook() *types.CanonicalBook {
	outline := types.Outline{
		Title:       "The Quiet Hours",
		Author:      "Dana Reed",
		Genre:       "self-help",
		PlotSummary: "A practical guide to reclaiming unstructured time. Each chapter builds a single habit.",
	}
	for i := 0; i < types.ChapterCount; i++ {
		outline.ChapterTitles = append(outline.ChapterTitles, "Habit "+string(rune('A'+i)))
		outline.ChapterSummaries = append(outline.ChapterSummaries, "summary")
	}
	book := &types.CanonicalBook{
		Spec: types.BookSpec{
			Title:    "The Quiet Hours",
			Author:   "Dana Reed",
			BookType: types.BookTypeNonFiction,
		},
		Outline:        outline,
		TotalWordCount: 15000,
		ChapterTotal:   types.ChapterCount,
	}
	for i := 1; i <= types.ChapterCount; i++ {
		book.Chapters = append(book.Chapters, types.ChapterResult{ChapterNumber: i, WordCount: 1000})
	}
	return book
}

func TestDerive(t *testing.T) {
	meta := Derive(testBook())

	if meta.Title != "The Quiet Hours" {
		t.Errorf("title = %q", meta.Title)
	}
	if meta.Subtitle != "A practical guide to reclaiming unstructured time." {
		t.Errorf("subtitle = %q", meta.Subtitle)
	}
	if len(meta.Categories) != 3 {
		t.Fatalf("categories = %d, want 3", len(meta.Categories))
	}
	if meta.Categories[0] != "Nonfiction / Self-help" {
		t.Errorf("lead category = %q", meta.Categories[0])
	}
	if len(meta.Keywords) != 7 {
		t.Fatalf("keywords = %d, want 7", len(meta.Keywords))
	}
	for _, k := range meta.Keywords {
		if k != strings.ToLower(k) {
			t.Errorf("keyword %q not lowercased", k)
		}
	}
	if meta.PriceTier != "standard" {
		t.Errorf("price tier = %q, want standard", meta.PriceTier)
	}
	if meta.ChapterCount != types.ChapterCount {
		t.Errorf("chapter count = %d", meta.ChapterCount)
	}
}

func TestDerive_IgnoresChapterText(t *testing.T) {
	book := testBook()
	withText := Derive(book)

	for i := range book.Chapters {
		book.Chapters[i].Content = "entirely different chapter text"
	}
	withoutText := Derive(book)

	if withText.Description != withoutText.Description ||
		withText.BackCoverCopy != withoutText.BackCoverCopy ||
		withText.Subtitle != withoutText.Subtitle {
		t.Error("metadata depends on chapter text")
	}
}

func TestPriceTier(t *testing.T) {
	tests := []struct {
		words int
		want  string
	}{
		{16000, "standard"},
		{14000, "standard"},
		{12000, "budget"},
		{9000, "entry"},
		{0, "entry"},
	}
	for _, tt := range tests {
		if got := priceTier(tt.words); got != tt.want {
			t.Errorf("priceTier(%d) = %q, want %q", tt.words, got, tt.want)
		}
	}
}

func TestCompile_YAML(t *testing.T) {
	data, err := Compile(testBook())
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	var meta Metadata
	if err := yaml.Unmarshal(data, &meta); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}
	if meta.Author != "Dana Reed" {
		t.Errorf("author = %q", meta.Author)
	}
	if !strings.Contains(meta.BackCoverCopy, "Inside you will find:") {
		t.Errorf("back cover copy missing teaser: %q", meta.BackCoverCopy)
	}
}

func TestCompile_NilBook(t *testing.T) {
	if _, err := Compile(nil); err == nil {
		t.Error("Compile(nil) succeeded, want error")
	}
}

func TestTruncatePreservesRuneBoundary(t *testing.T) {
	s := strings.Repeat("é", 150) // 2 bytes per rune, 300 bytes total

	got := truncate(s, 201)
	if len(got) > 201 {
		t.Errorf("truncated length = %d, want <= 201", len(got))
	}
	if !utf8.ValidString(got) {
		t.Errorf("truncated string is not valid UTF-8: %q", got[len(got)-4:])
	}
	if got != strings.Repeat("é", 100) {
		t.Errorf("cut landed mid-rune: %d bytes", len(got))
	}
}
