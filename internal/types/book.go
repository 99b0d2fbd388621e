// Package types provides shared types used across multiple packages.
// This package has no dependencies on other folio packages to avoid import cycles.
package types

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// ChapterCount is the number of chapters every generated book contains.
const ChapterCount = 15

// Target word range for a single chapter.
const (
	ChapterMinWords = 800
	ChapterMaxWords = 1200
)

// Input length limits for a BookSpec.
const (
	MaxTitleLen  = 200
	MaxAuthorLen = 100
)

// BookType identifies the kind of book to generate.
type BookType string

const (
	// BookTypeNonFiction is currently the only supported book type.
	BookTypeNonFiction BookType = "non-fiction"
)

// ParseBookType converts a string to a BookType.
func ParseBookType(s string) (BookType, error) {
	switch BookType(strings.TrimSpace(strings.ToLower(s))) {
	case BookTypeNonFiction:
		return BookTypeNonFiction, nil
	default:
		return "", fmt.Errorf("unsupported book type: %q", s)
	}
}

// BookSpec is the immutable user request that seeds a generation job.
type BookSpec struct {
	Title        string   `json:"title"`
	Author       string   `json:"author"`
	BookType     BookType `json:"book_type"`
	WritingStyle string   `json:"writing_style,omitempty"`
}

// Validate checks the spec against input limits.
func (s BookSpec) Validate() error {
	title := strings.TrimSpace(s.Title)
	if title == "" {
		return fmt.Errorf("title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLen {
		return fmt.Errorf("title exceeds %d characters", MaxTitleLen)
	}
	author := strings.TrimSpace(s.Author)
	if author == "" {
		return fmt.Errorf("author is required")
	}
	if utf8.RuneCountInString(author) > MaxAuthorLen {
		return fmt.Errorf("author exceeds %d characters", MaxAuthorLen)
	}
	if _, err := ParseBookType(string(s.BookType)); err != nil {
		return err
	}
	return nil
}

// Outline is the structured plan produced before full-text generation.
// Owned by the job once produced; immutable thereafter.
type Outline struct {
	Title             string   `json:"title"`
	Author            string   `json:"author"`
	Genre             string   `json:"genre"`
	PlotSummary       string   `json:"plot_summary"`
	WritingStyleGuide string   `json:"writing_style_guide"`
	ChapterTitles     []string `json:"chapter_titles"`
	ChapterSummaries  []string `json:"chapter_summaries"`
	TargetWordCount   int      `json:"target_word_count"`
}

// Validate enforces the outline invariants: exactly ChapterCount titles and
// summaries, index aligned, with non-empty summary and style guide.
func (o *Outline) Validate() error {
	if o == nil {
		return fmt.Errorf("outline is nil")
	}
	if len(o.ChapterTitles) != ChapterCount {
		return fmt.Errorf("expected %d chapter titles, got %d", ChapterCount, len(o.ChapterTitles))
	}
	if len(o.ChapterSummaries) != ChapterCount {
		return fmt.Errorf("expected %d chapter summaries, got %d", ChapterCount, len(o.ChapterSummaries))
	}
	if strings.TrimSpace(o.PlotSummary) == "" {
		return fmt.Errorf("plot summary is empty")
	}
	if strings.TrimSpace(o.WritingStyleGuide) == "" {
		return fmt.Errorf("writing style guide is empty")
	}
	for i, t := range o.ChapterTitles {
		if strings.TrimSpace(t) == "" {
			return fmt.Errorf("chapter title %d is empty", i+1)
		}
	}
	return nil
}

// ChapterResult is one generated chapter plus its metadata.
// Chapters are produced sequentially; chapter i depends only on the outline
// and chapters 1..i-1.
type ChapterResult struct {
	ChapterNumber int    `json:"chapter_number"`
	Title         string `json:"title"`
	Content       string `json:"content"`
	WordCount     int    `json:"word_count"`
	Summary       string `json:"summary"`
}

// CountWords returns the whitespace-delimited word count of s.
func CountWords(s string) int {
	return len(strings.Fields(s))
}

// CanonicalBook is the fully assembled manuscript handed to every format
// compiler. Built once after all chapters exist; immutable.
type CanonicalBook struct {
	Spec           BookSpec        `json:"spec"`
	Outline        Outline         `json:"outline"`
	Chapters       []ChapterResult `json:"chapters"`
	TotalWordCount int             `json:"total_word_count"`
	ChapterTotal   int             `json:"chapter_total"`
	GeneratedAt    time.Time       `json:"generated_at"`
}
