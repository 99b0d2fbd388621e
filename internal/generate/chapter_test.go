package generate

import (
	"strings"
	"testing"
)

func TestParseChapterResponse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{
			name:  "clean_json",
			input: `{"content": "The chapter text.", "summary": "What happened."}`,
		},
		{
			name:  "code_fenced",
			input: "```json\n{\"content\": \"The chapter text.\", \"summary\": \"What happened.\"}\n```",
		},
		{
			name:  "surrounding_prose",
			input: "Here is the chapter:\n{\"content\": \"The chapter text.\", \"summary\": \"What happened.\"}\nHope that helps!",
		},
		{
			name:    "empty_content",
			input:   `{"content": "", "summary": "What happened."}`,
			wantErr: true,
		},
		{
			name:    "missing_summary",
			input:   `{"content": "The chapter text."}`,
			wantErr: true,
		},
		{
			name:    "not_json",
			input:   "I wrote a lovely chapter for you today.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseChapterResponse(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseChapterResponse() error = %v", err)
			}
			if result.Content != "The chapter text." {
				t.Errorf("content = %q", result.Content)
			}
			if result.Summary != "What happened." {
				t.Errorf("summary = %q", result.Summary)
			}
		})
	}
}

func TestParseChapterResponse_EscapedNewlines(t *testing.T) {
	input := `{"content": "First paragraph.\n\nSecond paragraph.", "summary": "Two paragraphs."}`
	result, err := parseChapterResponse(input)
	if err != nil {
		t.Fatalf("parseChapterResponse() error = %v", err)
	}
	if !strings.Contains(result.Content, "\n\n") {
		t.Error("paragraph break not preserved")
	}
}
