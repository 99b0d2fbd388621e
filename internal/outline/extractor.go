// Package outline parses a structured book outline out of a raw model
// response. Parsing is two-tier: a strict JSON parse with lightweight
// recovery for code fences and surrounding prose, then a field-level
// pattern fallback for responses that are not well-formed JSON at all.
package outline

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	outlineprompt "github.com/jackzampolin/folio/internal/prompts/outline"
	"github.com/jackzampolin/folio/internal/types"
)

// ErrParse indicates the response could not be parsed by either strategy.
var ErrParse = errors.New("outline parse failed")

// ErrInvalid indicates a parsed outline that fails post-conditions
// (wrong chapter count, empty summary or style guide).
var ErrInvalid = errors.New("invalid outline")

// payload mirrors the JSON shape the model is asked to produce.
type payload struct {
	Title             string   `json:"title"`
	Author            string   `json:"author"`
	Genre             string   `json:"genre"`
	PlotSummary       string   `json:"plotSummary"`
	WritingStyleGuide string   `json:"writingStyleGuide"`
	ChapterTitles     []string `json:"chapterTitles"`
	ChapterSummaries  []string `json:"chapterSummaries"`
	TargetWordCount   int      `json:"targetWordCount"`
}

// Extract parses a raw model response into an Outline. It first attempts
// a strict JSON parse (with code fence and surrounding-prose recovery),
// then falls back to field-level pattern extraction. The post-condition
// check runs regardless of which strategy succeeded.
func Extract(content string) (*types.Outline, error) {
	p, strictErr := strictParse(content)
	if strictErr != nil {
		var fallbackErr error
		p, fallbackErr = fallbackParse(content)
		if fallbackErr != nil {
			return nil, fmt.Errorf("%w: strict: %v; fallback: %v", ErrParse, strictErr, fallbackErr)
		}
	}

	o := &types.Outline{
		Title:             strings.TrimSpace(p.Title),
		Author:            strings.TrimSpace(p.Author),
		Genre:             strings.TrimSpace(p.Genre),
		PlotSummary:       strings.TrimSpace(p.PlotSummary),
		WritingStyleGuide: strings.TrimSpace(p.WritingStyleGuide),
		ChapterTitles:     p.ChapterTitles,
		ChapterSummaries:  p.ChapterSummaries,
		TargetWordCount:   p.TargetWordCount,
	}
	if o.TargetWordCount <= 0 {
		o.TargetWordCount = types.ChapterCount * (types.ChapterMinWords + types.ChapterMaxWords) / 2
	}

	// Post-condition checks run regardless of which strategy produced the
	// payload: the normalized payload must match the response schema and
	// the outline's own invariants.
	if err := validatePayload(p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := o.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return o, nil
}

// validatePayload checks the payload, re-serialized to drop any extra
// keys the model added, against the outline response schema.
func validatePayload(p *payload) error {
	normalized, err := json.Marshal(p)
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(normalized, &doc); err != nil {
		return err
	}
	return validateAgainstSchema(doc)
}

// strictParse attempts to parse the content as a single JSON object,
// trying the raw text, a code-fence-stripped variant, and a first-brace
// to-last-brace candidate, all with control characters removed.
func strictParse(content string) (*payload, error) {
	content = stripControlChars(strings.TrimSpace(content))
	if content == "" {
		return nil, fmt.Errorf("empty response")
	}

	candidates := []string{content}
	if stripped := stripCodeFences(content); stripped != "" && stripped != content {
		candidates = append(candidates, stripped)
	}
	if extracted := extractJSONCandidate(content); extracted != "" && extracted != content {
		candidates = append(candidates, extracted)
	}

	seen := make(map[string]struct{}, len(candidates))
	var lastErr error
	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		if _, ok := seen[candidate]; ok {
			continue
		}
		seen[candidate] = struct{}{}

		var doc any
		if err := json.Unmarshal([]byte(candidate), &doc); err != nil {
			lastErr = err
			continue
		}
		if _, ok := doc.(map[string]any); !ok {
			lastErr = fmt.Errorf("response is not a JSON object")
			continue
		}

		var p payload
		if err := json.Unmarshal([]byte(candidate), &p); err != nil {
			lastErr = err
			continue
		}
		return &p, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no JSON candidate found")
	}
	return nil, lastErr
}

func stripCodeFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return ""
	}

	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return ""
	}

	// Drop first fence line.
	lines = lines[1:]
	// Drop trailing fence if present.
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func extractJSONCandidate(content string) string {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	if start < 0 {
		return ""
	}
	end := strings.LastIndex(trimmed, "}")
	if end < start {
		return ""
	}
	return strings.TrimSpace(trimmed[start : end+1])
}

// stripControlChars removes ASCII control characters that models sometimes
// emit unescaped inside JSON strings, keeping whitespace.
func stripControlChars(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 && r != '\n' && r != '\r' && r != '\t' {
			return -1
		}
		return r
	}, s)
}

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

// validateAgainstSchema checks a parsed document against the outline
// response schema.
func validateAgainstSchema(doc any) error {
	schemaOnce.Do(func() {
		inner, ok := outlineprompt.ResponseSchema["json_schema"].(map[string]any)
		if !ok {
			schemaErr = fmt.Errorf("malformed outline schema wrapper")
			return
		}
		raw, err := json.Marshal(inner["schema"])
		if err != nil {
			schemaErr = err
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("outline.json", bytes.NewReader(raw)); err != nil {
			schemaErr = err
			return
		}
		compiledSchema, schemaErr = compiler.Compile("outline.json")
	})
	if schemaErr != nil {
		return schemaErr
	}
	return compiledSchema.Validate(doc)
}

// Field-level fallback extraction.

var (
	titlePattern       = fieldPattern("title")
	authorPattern      = fieldPattern("author")
	genrePattern       = fieldPattern("genre")
	plotPattern        = fieldPattern("plotSummary")
	stylePattern       = fieldPattern("writingStyleGuide")
	titlesPattern      = arrayPattern("chapterTitles")
	summariesPattern   = arrayPattern("chapterSummaries")
	wordCountPattern   = regexp.MustCompile(`"targetWordCount"\s*:\s*(\d+)`)
	quotedItemPattern  = regexp.MustCompile(`"((?:[^"\\]|\\.)*)"`)
)

func fieldPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`"` + name + `"\s*:\s*"((?:[^"\\]|\\.)*)"`)
}

func arrayPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?s)"` + name + `"\s*:\s*\[(.*?)\]`)
}

// fallbackParse independently recovers every required field via pattern
// matches. It only succeeds if all of them are present.
func fallbackParse(content string) (*payload, error) {
	content = stripControlChars(content)

	p := &payload{}
	fields := []struct {
		name    string
		pattern *regexp.Regexp
		dst     *string
	}{
		{"title", titlePattern, &p.Title},
		{"author", authorPattern, &p.Author},
		{"genre", genrePattern, &p.Genre},
		{"plotSummary", plotPattern, &p.PlotSummary},
		{"writingStyleGuide", stylePattern, &p.WritingStyleGuide},
	}
	for _, f := range fields {
		m := f.pattern.FindStringSubmatch(content)
		if m == nil {
			return nil, fmt.Errorf("field %q not recoverable", f.name)
		}
		*f.dst = unescapeJSONString(m[1])
	}

	var err error
	p.ChapterTitles, err = recoverStringArray(titlesPattern, content, "chapterTitles")
	if err != nil {
		return nil, err
	}
	p.ChapterSummaries, err = recoverStringArray(summariesPattern, content, "chapterSummaries")
	if err != nil {
		return nil, err
	}

	if m := wordCountPattern.FindStringSubmatch(content); m != nil {
		p.TargetWordCount, _ = strconv.Atoi(m[1])
	}

	return p, nil
}

func recoverStringArray(pattern *regexp.Regexp, content, name string) ([]string, error) {
	m := pattern.FindStringSubmatch(content)
	if m == nil {
		return nil, fmt.Errorf("field %q not recoverable", name)
	}
	items := quotedItemPattern.FindAllStringSubmatch(m[1], -1)
	if len(items) == 0 {
		return nil, fmt.Errorf("field %q is empty", name)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, unescapeJSONString(item[1]))
	}
	return out, nil
}

// unescapeJSONString interprets backslash escapes in a recovered string
// fragment. Falls back to the raw fragment when it is not valid as a
// JSON string body.
func unescapeJSONString(s string) string {
	var out string
	if err := json.Unmarshal([]byte(`"`+s+`"`), &out); err != nil {
		return s
	}
	return out
}
