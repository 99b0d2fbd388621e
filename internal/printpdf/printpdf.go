// Package printpdf generates a print-ready PDF from a compiled book
// using pdfcpu's create-from-JSON pipeline: a title page followed by
// chapters, each starting on a fresh page at a small trim size.
package printpdf

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/jackzampolin/folio/internal/types"
)

// Compile renders the book as a print-ready PDF and validates the
// resulting file before returning it.
func Compile(book *types.CanonicalBook) ([]byte, error) {
	if book == nil {
		return nil, fmt.Errorf("book is nil")
	}
	if len(book.Chapters) == 0 {
		return nil, fmt.Errorf("book has no chapters")
	}

	desc, err := buildDescription(book)
	if err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	if err := api.Create(nil, bytes.NewReader(desc), buf, nil); err != nil {
		return nil, fmt.Errorf("pdf create failed: %w", err)
	}

	out := buf.Bytes()
	if err := api.Validate(bytes.NewReader(out), nil); err != nil {
		return nil, fmt.Errorf("pdf validation failed: %w", err)
	}
	return out, nil
}

// Filename returns the artifact filename for the print PDF output.
func Filename() string { return "book-print.pdf" }

// Layout constants for the A5 trim. Text metrics are approximations for
// a 11pt serif face; they only drive pagination, not rendering.
const (
	paperSize    = "A5"
	bodyFont     = "Times-Roman"
	headingFont  = "Helvetica-Bold"
	bodyFontSize = 11
	maxLineChars = 62
	linesPerPage = 38
)

// textEntry is one text element in pdfcpu's create JSON.
type textEntry struct {
	Value    string   `json:"value"`
	Anchor   string   `json:"anchor,omitempty"`
	Position []int    `json:"position,omitempty"`
	Font     fontSpec `json:"font"`
}

type fontSpec struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

type pageContent struct {
	Text []textEntry `json:"text"`
}

type page struct {
	Content pageContent `json:"content"`
}

type description struct {
	Paper  string          `json:"paper"`
	Origin string          `json:"origin"`
	Pages  map[string]page `json:"pages"`
}

// buildDescription produces the pdfcpu create JSON for the whole book.
func buildDescription(book *types.CanonicalBook) ([]byte, error) {
	desc := description{
		Paper:  paperSize,
		Origin: "upperLeft",
		Pages:  make(map[string]page),
	}

	pageNum := 1
	desc.Pages[fmt.Sprint(pageNum)] = titlePage(book)
	pageNum++

	for _, ch := range book.Chapters {
		heading := fmt.Sprintf("Chapter %d", ch.ChapterNumber)
		lines := wrapText(ch.Content, maxLineChars)
		chunks := paginate(lines, linesPerPage)

		for i, chunk := range chunks {
			p := page{}
			if i == 0 {
				p.Content.Text = append(p.Content.Text,
					textEntry{
						Value:    heading,
						Position: []int{50, 60},
						Font:     fontSpec{Name: headingFont, Size: 10},
					},
					textEntry{
						Value:    ch.Title,
						Position: []int{50, 85},
						Font:     fontSpec{Name: headingFont, Size: 16},
					},
				)
			}
			p.Content.Text = append(p.Content.Text, textEntry{
				Value:    joinLines(chunk),
				Position: []int{50, bodyTop(i == 0)},
				Font:     fontSpec{Name: bodyFont, Size: bodyFontSize},
			})
			desc.Pages[fmt.Sprint(pageNum)] = p
			pageNum++
		}
	}

	return json.Marshal(desc)
}

func titlePage(book *types.CanonicalBook) page {
	return page{Content: pageContent{Text: []textEntry{
		{
			Value:  book.Spec.Title,
			Anchor: "center",
			Font:   fontSpec{Name: headingFont, Size: 24},
		},
		{
			Value:    "by " + book.Spec.Author,
			Anchor:   "center",
			Position: []int{0, 60},
			Font:     fontSpec{Name: bodyFont, Size: 14},
		},
	}}}
}

// bodyTop returns the y position of the body text block. Chapter opening
// pages leave room for the heading.
func bodyTop(opening bool) int {
	if opening {
		return 130
	}
	return 60
}

// wrapText breaks prose into lines of at most width characters, keeping
// paragraph boundaries as blank lines.
func wrapText(text string, width int) []string {
	var lines []string
	for _, para := range splitParagraphs(text) {
		var line string
		for _, word := range splitWords(para) {
			switch {
			case line == "":
				line = word
			case len(line)+1+len(word) <= width:
				line += " " + word
			default:
				lines = append(lines, line)
				line = word
			}
		}
		if line != "" {
			lines = append(lines, line)
		}
		lines = append(lines, "")
	}
	// Drop the trailing paragraph separator.
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

// paginate chunks wrapped lines into page-sized groups, trimming blank
// lines at chunk boundaries.
func paginate(lines []string, perPage int) [][]string {
	var chunks [][]string
	for len(lines) > 0 {
		n := perPage
		if n > len(lines) {
			n = len(lines)
		}
		chunk := lines[:n]
		lines = lines[n:]
		for len(lines) > 0 && lines[0] == "" {
			lines = lines[1:]
		}
		chunks = append(chunks, chunk)
	}
	if len(chunks) == 0 {
		chunks = [][]string{{""}}
	}
	return chunks
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}

func splitParagraphs(text string) []string {
	var paras []string
	for _, p := range strings.Split(text, "\n\n") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			paras = append(paras, trimmed)
		}
	}
	return paras
}

func splitWords(s string) []string {
	return strings.Fields(s)
}
