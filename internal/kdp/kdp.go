// Package kdp derives a Kindle Direct Publishing metadata sheet from a
// compiled book. The derivation is pure: everything comes from the book
// spec and outline, nothing from chapter text, so the sheet can be
// produced even when other format compilers fail.
package kdp

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/jackzampolin/folio/internal/types"
)

// Metadata is the KDP listing sheet.
type Metadata struct {
	Title         string   `yaml:"title"`
	Subtitle      string   `yaml:"subtitle"`
	Author        string   `yaml:"author"`
	Description   string   `yaml:"description"`
	BackCoverCopy string   `yaml:"back_cover_copy"`
	Categories    []string `yaml:"categories"`
	Keywords      []string `yaml:"keywords"`
	Audience      string   `yaml:"audience"`
	PriceTier     string   `yaml:"price_tier"`
	WordCount     int      `yaml:"word_count"`
	ChapterCount  int      `yaml:"chapter_count"`
}

// Compile renders the metadata sheet as YAML.
func Compile(book *types.CanonicalBook) ([]byte, error) {
	if book == nil {
		return nil, fmt.Errorf("book is nil")
	}
	meta := Derive(book)
	return yaml.Marshal(meta)
}

// Filename returns the artifact filename for the KDP metadata output.
func Filename() string { return "kdp-metadata.yaml" }

const (
	categoryCount = 3
	keywordCount  = 7
)

// Derive builds the metadata sheet from the spec and outline.
func Derive(book *types.CanonicalBook) Metadata {
	outline := book.Outline
	return Metadata{
		Title:         book.Spec.Title,
		Subtitle:      subtitle(outline),
		Author:        book.Spec.Author,
		Description:   description(outline),
		BackCoverCopy: backCoverCopy(book),
		Categories:    categories(book.Spec, outline),
		Keywords:      keywords(book.Spec, outline),
		Audience:      "General adult",
		PriceTier:     priceTier(book.TotalWordCount),
		WordCount:     book.TotalWordCount,
		ChapterCount:  len(book.Chapters),
	}
}

// subtitle uses the first sentence of the plot summary, capped for the
// KDP subtitle field.
func subtitle(o types.Outline) string {
	s := firstSentence(o.PlotSummary)
	return truncate(s, 200)
}

func description(o types.Outline) string {
	return truncate(strings.TrimSpace(o.PlotSummary), 4000)
}

// backCoverCopy pairs the summary opening with a chapter teaser.
func backCoverCopy(book *types.CanonicalBook) string {
	var sb strings.Builder
	sb.WriteString(firstSentence(book.Outline.PlotSummary))
	if len(book.Outline.ChapterTitles) > 0 {
		sb.WriteString("\n\nInside you will find:\n")
		n := 3
		if len(book.Outline.ChapterTitles) < n {
			n = len(book.Outline.ChapterTitles)
		}
		for _, title := range book.Outline.ChapterTitles[:n] {
			sb.WriteString(fmt.Sprintf("- %s\n", title))
		}
	}
	return sb.String()
}

// categories picks exactly three browse categories. The genre leads when
// present; the rest are stable non-fiction defaults.
func categories(spec types.BookSpec, o types.Outline) []string {
	cats := []string{}
	if g := strings.TrimSpace(o.Genre); g != "" {
		cats = append(cats, fmt.Sprintf("Nonfiction / %s", titleCase(g)))
	}
	for _, c := range []string{
		"Nonfiction / General",
		"Nonfiction / Self-Help / Personal Growth",
		"Nonfiction / Reference",
	} {
		if len(cats) == categoryCount {
			break
		}
		if !contains(cats, c) {
			cats = append(cats, c)
		}
	}
	return cats[:categoryCount]
}

// keywords picks exactly seven search keywords from the title, genre,
// and chapter titles, deduplicated and padded with defaults.
func keywords(spec types.BookSpec, o types.Outline) []string {
	seen := make(map[string]bool)
	var kws []string
	add := func(k string) {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || seen[k] || len(kws) >= keywordCount {
			return
		}
		seen[k] = true
		kws = append(kws, k)
	}

	add(spec.Title)
	add(o.Genre)

	// Prefer short chapter titles; they read like search phrases.
	titles := append([]string{}, o.ChapterTitles...)
	sort.SliceStable(titles, func(i, j int) bool { return len(titles[i]) < len(titles[j]) })
	for _, t := range titles {
		add(t)
	}

	for _, fallback := range []string{"non-fiction", "practical guide", "beginner friendly", "step by step", "how to", "self improvement", "essential handbook"} {
		add(fallback)
	}
	return kws
}

// priceTier maps manuscript length to a list price band.
func priceTier(totalWords int) string {
	switch {
	case totalWords >= 14000:
		return "standard"
	case totalWords >= 10000:
		return "budget"
	default:
		return "entry"
	}
}

func firstSentence(s string) string {
	s = strings.TrimSpace(s)
	for i, r := range s {
		if r == '.' || r == '!' || r == '?' {
			return s[:i+1]
		}
	}
	return s
}

// truncate cuts s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return strings.TrimSpace(s[:max])
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
