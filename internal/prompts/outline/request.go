package outline

import (
	"encoding/json"

	"github.com/jackzampolin/folio/internal/providers"
	"github.com/jackzampolin/folio/internal/types"
)

// BuildRequest builds the chat request for outline generation. Pure: no
// I/O, no retries. The caller sets Model and Timeout.
func BuildRequest(spec types.BookSpec) *providers.ChatRequest {
	data := UserPromptData{
		Title:        spec.Title,
		Author:       spec.Author,
		BookType:     string(spec.BookType),
		WritingStyle: spec.WritingStyle,
		ChapterCount: types.ChapterCount,
		MinWords:     types.ChapterMinWords,
		MaxWords:     types.ChapterMaxWords,
	}

	return &providers.ChatRequest{
		Messages: []providers.Message{
			{Role: "system", Content: SystemPrompt()},
			{Role: "user", Content: UserPrompt(data)},
		},
		ResponseFormat: buildResponseFormat(),
		Temperature:    0.7,
		MaxTokens:      4096,
	}
}

func buildResponseFormat() *providers.ResponseFormat {
	jsonSchema, _ := json.Marshal(ResponseSchema["json_schema"])
	return &providers.ResponseFormat{
		Type:       "json_schema",
		JSONSchema: jsonSchema,
	}
}
