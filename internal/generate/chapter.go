package generate

import (
	"encoding/json"
	"fmt"
	"strings"

	chapterprompt "github.com/jackzampolin/folio/internal/prompts/chapter"
)

// parseChapterResponse extracts the chapter payload from raw model
// output. Structured output is requested but not guaranteed; stray
// prose and code fences around the JSON object are tolerated.
func parseChapterResponse(content string) (*chapterprompt.Result, error) {
	for _, candidate := range []string{
		content,
		stripCodeFences(content),
		extractJSONObject(content),
	} {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		var result chapterprompt.Result
		if err := json.Unmarshal([]byte(candidate), &result); err != nil {
			continue
		}
		if strings.TrimSpace(result.Content) == "" {
			return nil, fmt.Errorf("chapter response has empty content")
		}
		if strings.TrimSpace(result.Summary) == "" {
			return nil, fmt.Errorf("chapter response has empty summary")
		}
		return &result, nil
	}
	return nil, fmt.Errorf("chapter response is not valid JSON")
}

// stripCodeFences removes a surrounding markdown code fence if present.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// extractJSONObject returns the span from the first '{' to the last '}'.
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end <= start {
		return ""
	}
	return s[start : end+1]
}
