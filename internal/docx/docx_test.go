package docx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
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
	for i := 1; i <= types.ChapterCount; i++ {
		book.Chapters = append(book.Chapters, types.ChapterResult{
			ChapterNumber: i,
			Title:         fmt.Sprintf("Topic %d", i),
			Content:       fmt.Sprintf("First paragraph of chapter %d.\n\nSecond paragraph.", i),
			WordCount:     900,
		})
	}
	return book
}

func extractEntry(t *testing.T, data []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("failed to open docx zip: %v", err)
	}
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("failed to open %s: %v", name, err)
		}
		defer rc.Close()
		content, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("failed to read %s: %v", name, err)
		}
		return string(content)
	}
	t.Fatalf("entry %s not found", name)
	return ""
}

func TestCompile_PackageParts(t *testing.T) {
	data, err := Compile(testBook(t))
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("failed to open docx zip: %v", err)
	}
	got := make(map[string]bool)
	for _, f := range zr.File {
		got[f.Name] = true
	}
	for _, want := range []string{
		"[Content_Types].xml",
		"_rels/.rels",
		"word/_rels/document.xml.rels",
		"word/styles.xml",
		"word/document.xml",
	} {
		if !got[want] {
			t.Errorf("missing package part %s", want)
		}
	}
}

func TestCompile_Document(t *testing.T) {
	data, err := Compile(testBook(t))
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	doc := extractEntry(t, data, "word/document.xml")

	for _, want := range []string{
		`<w:pStyle w:val="Title"/>`,
		">The Quiet Hours</w:t>",
		">by Dana Reed</w:t>",
		`<w:pStyle w:val="Heading1"/>`,
		">Chapter 1: Topic 1</w:t>",
		">Chapter 15: Topic 15</w:t>",
		">First paragraph of chapter 7.</w:t>",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document.xml missing %q", want)
		}
	}

	// One page break before each chapter.
	if got := strings.Count(doc, `<w:br w:type="page"/>`); got != types.ChapterCount {
		t.Errorf("page breaks = %d, want %d", got, types.ChapterCount)
	}
}

func TestCompile_EscapesContent(t *testing.T) {
	book := testBook(t)
	book.Chapters[0].Content = `Fish & chips <cost> "less" now.`

	data, err := Compile(book)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	doc := extractEntry(t, data, "word/document.xml")
	if !strings.Contains(doc, "Fish &amp; chips &lt;cost&gt; &quot;less&quot; now.") {
		t.Error("content not XML-escaped")
	}
}

func TestCompile_RejectsEmptyBook(t *testing.T) {
	if _, err := Compile(nil); err == nil {
		t.Error("Compile(nil) succeeded, want error")
	}
	if _, err := Compile(&types.CanonicalBook{}); err == nil {
		t.Error("Compile() with no chapters succeeded, want error")
	}
}
