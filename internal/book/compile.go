// Package book assembles completed chapters plus the outline into one
// canonical document model consumed by the format compilers.
package book

import (
	"fmt"
	"time"

	"github.com/jackzampolin/folio/internal/types"
)

// Compile builds the CanonicalBook from a completed generation run. All
// chapters must be present, in ascending order with no gaps; anything
// else is a programming error upstream, reported as an error here rather
// than compiled into a broken book.
func Compile(spec types.BookSpec, outline types.Outline, chapters []types.ChapterResult, generatedAt time.Time) (*types.CanonicalBook, error) {
	if len(chapters) != types.ChapterCount {
		return nil, fmt.Errorf("expected %d chapters, got %d", types.ChapterCount, len(chapters))
	}

	total := 0
	for i, ch := range chapters {
		if ch.ChapterNumber != i+1 {
			return nil, fmt.Errorf("chapter sequence broken at index %d: got chapter %d", i, ch.ChapterNumber)
		}
		if ch.Content == "" {
			return nil, fmt.Errorf("chapter %d has no content", ch.ChapterNumber)
		}
		total += ch.WordCount
	}

	out := make([]types.ChapterResult, len(chapters))
	copy(out, chapters)

	return &types.CanonicalBook{
		Spec:           spec,
		Outline:        outline,
		Chapters:       out,
		TotalWordCount: total,
		ChapterTotal:   len(out),
		GeneratedAt:    generatedAt,
	}, nil
}
