package chapter

import (
	"bytes"
	_ "embed"
	"text/template"
)

//go:embed system.tmpl
var systemPrompt string

//go:embed user.tmpl
var userPromptTmpl string

var userTemplate = template.Must(template.New("user").Parse(userPromptTmpl))

// UserPromptData carries the fields rendered into the user prompt.
type UserPromptData struct {
	Title             string
	Author            string
	ChapterNumber     int
	ChapterCount      int
	ChapterTitle      string
	ChapterSummary    string
	PlotSummary       string
	WritingStyleGuide string
	Continuity        string
	MinWords          int
	MaxWords          int
}

// SystemPrompt returns the system prompt for chapter generation.
func SystemPrompt() string {
	return systemPrompt
}

// UserPrompt builds the user prompt for chapter generation.
func UserPrompt(data UserPromptData) string {
	var buf bytes.Buffer
	if err := userTemplate.Execute(&buf, data); err != nil {
		return userPromptTmpl
	}
	return buf.String()
}
