package printpdf

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/jackzampolin/folio/internal/types"
)

func testBook(t *testing.T) *types.CanonicalBook {
	t.Helper()
	book := &types.CanonicalBook{
		Spec: types.BookSpec{
			Title:    "The Quiet Hours",
			Author:   "Dana Reed",
			BookType: types.BookTypeNonFiction,
		},
		ChapterTotal: types.ChapterCount,
	}
	para := strings.Repeat("Steady words fill the page without hurry. ", 20)
	for i := 1; i <= types.ChapterCount; i++ {
		book.Chapters = append(book.Chapters, types.ChapterResult{
			ChapterNumber: i,
			Title:         fmt.Sprintf("Topic %d", i),
			Content:       para + "\n\n" + para,
			WordCount:     types.CountWords(para) * 2,
		})
	}
	return book
}

func TestBuildDescription(t *testing.T) {
	desc, err := buildDescription(testBook(t))
	if err != nil {
		t.Fatalf("buildDescription() error = %v", err)
	}

	var doc struct {
		Paper string `json:"paper"`
		Pages map[string]struct {
			Content struct {
				Text []struct {
					Value string `json:"value"`
					Font  struct {
						Name string `json:"name"`
						Size int    `json:"size"`
					} `json:"font"`
				} `json:"text"`
			} `json:"content"`
		} `json:"pages"`
	}
	if err := json.Unmarshal(desc, &doc); err != nil {
		t.Fatalf("description is not valid JSON: %v", err)
	}

	if doc.Paper != "A5" {
		t.Errorf("paper = %q, want A5", doc.Paper)
	}
	// Title page plus at least one page per chapter.
	if len(doc.Pages) < types.ChapterCount+1 {
		t.Errorf("pages = %d, want at least %d", len(doc.Pages), types.ChapterCount+1)
	}

	title := doc.Pages["1"]
	if len(title.Content.Text) < 2 {
		t.Fatalf("title page has %d text entries, want at least 2", len(title.Content.Text))
	}
	if title.Content.Text[0].Value != "The Quiet Hours" {
		t.Errorf("title page value = %q", title.Content.Text[0].Value)
	}
	if title.Content.Text[1].Value != "by Dana Reed" {
		t.Errorf("author value = %q", title.Content.Text[1].Value)
	}

	// Chapter 1 opens on page 2 with heading, title, then body.
	ch1 := doc.Pages["2"]
	if len(ch1.Content.Text) != 3 {
		t.Fatalf("chapter opening page has %d entries, want 3", len(ch1.Content.Text))
	}
	if ch1.Content.Text[0].Value != "Chapter 1" {
		t.Errorf("heading = %q", ch1.Content.Text[0].Value)
	}
	if ch1.Content.Text[1].Value != "Topic 1" {
		t.Errorf("chapter title = %q", ch1.Content.Text[1].Value)
	}
	if ch1.Content.Text[2].Font.Name != "Times-Roman" {
		t.Errorf("body font = %q", ch1.Content.Text[2].Font.Name)
	}
}

func TestBuildDescription_RejectsEmptyBook(t *testing.T) {
	if _, err := Compile(nil); err == nil {
		t.Error("Compile(nil) succeeded, want error")
	}
	if _, err := Compile(&types.CanonicalBook{}); err == nil {
		t.Error("Compile() with no chapters succeeded, want error")
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("alpha beta gamma delta epsilon", 11)
	want := []string{"alpha beta", "gamma delta", "epsilon"}
	if len(lines) != len(want) {
		t.Fatalf("lines = %v, want %v", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
	for _, l := range lines {
		if len(l) > 11 {
			t.Errorf("line %q exceeds width", l)
		}
	}
}

func TestWrapText_ParagraphBoundary(t *testing.T) {
	lines := wrapText("first paragraph.\n\nsecond paragraph.", 40)
	found := false
	for _, l := range lines {
		if l == "" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected blank separator line between paragraphs: %v", lines)
	}
}

func TestPaginate(t *testing.T) {
	lines := make([]string, 100)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d", i)
	}
	chunks := paginate(lines, 38)
	if len(chunks) != 3 {
		t.Fatalf("chunks = %d, want 3", len(chunks))
	}
	if len(chunks[0]) != 38 || len(chunks[1]) != 38 || len(chunks[2]) != 24 {
		t.Errorf("chunk sizes = %d/%d/%d", len(chunks[0]), len(chunks[1]), len(chunks[2]))
	}
}

func TestPaginate_Empty(t *testing.T) {
	chunks := paginate(nil, 38)
	if len(chunks) != 1 {
		t.Fatalf("chunks = %d, want 1 placeholder page", len(chunks))
	}
}
