// Package continuity maintains a bounded running summary of previously
// generated chapters, supplied to each subsequent chapter prompt.
package continuity

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jackzampolin/folio/internal/types"
)

const (
	// maxSummaryChars caps a single chapter summary's contribution.
	maxSummaryChars = 400

	// maxContextChars caps the whole assembled context. When exceeded,
	// older entries are compressed to their first sentence.
	maxContextChars = 6000
)

type entry struct {
	chapter int
	summary string
}

// Manager accumulates chapter summaries in order. It is rebuilt per job,
// never shared across jobs, and updated exactly once per committed
// chapter. Not safe for concurrent use; each job has a single writer.
type Manager struct {
	entries []entry
}

// NewManager creates an empty continuity manager.
func NewManager() *Manager {
	return &Manager{}
}

// NewFromChapters rebuilds a manager from already-committed chapters,
// used when resuming a job from its checkpoints. A gap or reordering in
// the committed sequence is an error: continuity built from it would not
// match the chapters the reader actually gets.
func NewFromChapters(chapters []types.ChapterResult) (*Manager, error) {
	m := NewManager()
	for _, ch := range chapters {
		if err := m.Append(ch.ChapterNumber, ch.Summary); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Append records the summary for a committed chapter. Appends must arrive
// in ascending chapter order; out-of-order appends are rejected.
func (m *Manager) Append(chapterNumber int, summary string) error {
	if chapterNumber != len(m.entries)+1 {
		return fmt.Errorf("out-of-order continuity append: chapter %d after %d entries", chapterNumber, len(m.entries))
	}
	m.entries = append(m.entries, entry{
		chapter: chapterNumber,
		summary: truncate(strings.TrimSpace(summary), maxSummaryChars),
	})
	return nil
}

// Len returns the number of recorded chapters.
func (m *Manager) Len() int {
	return len(m.entries)
}

// Context assembles the condensed prior-chapter context for the next
// chapter's prompt. Empty when no chapters have been recorded.
func (m *Manager) Context() string {
	if len(m.entries) == 0 {
		return ""
	}

	lines := make([]string, len(m.entries))
	for i, e := range m.entries {
		lines[i] = fmt.Sprintf("Chapter %d: %s", e.chapter, e.summary)
	}

	ctx := strings.Join(lines, "\n")
	if len(ctx) <= maxContextChars {
		return ctx
	}

	// Over budget: compress all but the most recent entries to their
	// first sentence.
	const keepFull = 3
	for i := 0; i < len(m.entries)-keepFull && len(ctx) > maxContextChars; i++ {
		lines[i] = fmt.Sprintf("Chapter %d: %s", m.entries[i].chapter, firstSentence(m.entries[i].summary))
		ctx = strings.Join(lines, "\n")
	}
	if len(ctx) > maxContextChars {
		ctx = truncate(ctx, maxContextChars)
	}
	return ctx
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

func firstSentence(s string) string {
	for _, sep := range []string{". ", "! ", "? "} {
		if idx := strings.Index(s, sep); idx >= 0 {
			return s[:idx+1]
		}
	}
	return s
}
