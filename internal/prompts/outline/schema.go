package outline

import "github.com/jackzampolin/folio/internal/types"

// ResponseSchema is the JSON schema for outline generation output.
var ResponseSchema = map[string]any{
	"type": "json_schema",
	"json_schema": map[string]any{
		"name":   "book_outline",
		"strict": true,
		"schema": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title": map[string]any{
					"type":        "string",
					"description": "Book title, copied from the request",
				},
				"author": map[string]any{
					"type":        "string",
					"description": "Author name, copied from the request",
				},
				"genre": map[string]any{
					"type":        "string",
					"description": "Genre label for the book",
				},
				"plotSummary": map[string]any{
					"type":        "string",
					"description": "150-250 word overview of the whole book",
				},
				"writingStyleGuide": map[string]any{
					"type":        "string",
					"description": "Voice, tone, and conventions for the chapter writer",
				},
				"chapterTitles": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"minItems":    types.ChapterCount,
					"maxItems":    types.ChapterCount,
					"description": "Ordered chapter titles",
				},
				"chapterSummaries": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"minItems":    types.ChapterCount,
					"maxItems":    types.ChapterCount,
					"description": "Ordered chapter summaries, index-aligned with chapterTitles",
				},
				"targetWordCount": map[string]any{
					"type":        "integer",
					"description": "Total word count target across all chapters",
				},
			},
			"required": []string{
				"title", "author", "genre", "plotSummary",
				"writingStyleGuide", "chapterTitles", "chapterSummaries",
				"targetWordCount",
			},
			"additionalProperties": false,
		},
	},
}
