package chapter

import (
	"encoding/json"

	"github.com/jackzampolin/folio/internal/providers"
	"github.com/jackzampolin/folio/internal/types"
)

// Input contains the data needed for a chapter generation request.
type Input struct {
	Spec    types.BookSpec
	Outline types.Outline

	// ChapterNumber is 1-based.
	ChapterNumber int

	// Continuity is the condensed summary of chapters 1..ChapterNumber-1.
	// Empty for the first chapter.
	Continuity string
}

// BuildRequest builds the chat request for one chapter. Pure: no I/O,
// no retries. The caller sets Model and Timeout.
func BuildRequest(input Input) *providers.ChatRequest {
	idx := input.ChapterNumber - 1

	data := UserPromptData{
		Title:             input.Outline.Title,
		Author:            input.Outline.Author,
		ChapterNumber:     input.ChapterNumber,
		ChapterCount:      types.ChapterCount,
		ChapterTitle:      input.Outline.ChapterTitles[idx],
		ChapterSummary:    input.Outline.ChapterSummaries[idx],
		PlotSummary:       input.Outline.PlotSummary,
		WritingStyleGuide: input.Outline.WritingStyleGuide,
		Continuity:        input.Continuity,
		MinWords:          types.ChapterMinWords,
		MaxWords:          types.ChapterMaxWords,
	}

	return &providers.ChatRequest{
		Messages: []providers.Message{
			{Role: "system", Content: SystemPrompt()},
			{Role: "user", Content: UserPrompt(data)},
		},
		ResponseFormat: buildResponseFormat(),
		Temperature:    0.8,
		MaxTokens:      8192,
	}
}

func buildResponseFormat() *providers.ResponseFormat {
	jsonSchema, _ := json.Marshal(ResponseSchema["json_schema"])
	return &providers.ResponseFormat{
		Type:       "json_schema",
		JSONSchema: jsonSchema,
	}
}
