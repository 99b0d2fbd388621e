package chapter

import "encoding/json"

// ResponseSchema is the JSON schema for chapter generation output.
var ResponseSchema = map[string]any{
	"type": "json_schema",
	"json_schema": map[string]any{
		"name":   "book_chapter",
		"strict": true,
		"schema": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"content": map[string]any{
					"type":        "string",
					"description": "The full chapter text",
				},
				"summary": map[string]any{
					"type":        "string",
					"description": "2-3 sentence summary of this chapter for continuity",
				},
			},
			"required":             []string{"content", "summary"},
			"additionalProperties": false,
		},
	},
}

// Result represents the parsed result from chapter generation.
type Result struct {
	Content string `json:"content"`
	Summary string `json:"summary"`
}

// ParseResult parses the LLM response into a Result.
func ParseResult(parsedJSON any) (*Result, error) {
	jsonBytes, err := json.Marshal(parsedJSON)
	if err != nil {
		return nil, err
	}
	var result Result
	if err := json.Unmarshal(jsonBytes, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
