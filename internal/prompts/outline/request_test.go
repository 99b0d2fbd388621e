package outline

import (
	"strings"
	"testing"

	"github.com/jackzampolin/folio/internal/types"
)

func TestBuildRequest(t *testing.T) {
	spec := types.BookSpec{
		Title:    "Mastering Time Management",
		Author:   "A. Writer",
		BookType: types.BookTypeNonFiction,
	}

	req := BuildRequest(spec)

	if len(req.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(req.Messages))
	}
	if req.Messages[0].Role != "system" {
		t.Errorf("expected system message first, got %q", req.Messages[0].Role)
	}

	user := req.Messages[1].Content
	if !strings.Contains(user, "Mastering Time Management") {
		t.Error("user prompt missing title")
	}
	if !strings.Contains(user, "A. Writer") {
		t.Error("user prompt missing author")
	}
	if !strings.Contains(user, "exactly 15 chapters") {
		t.Error("user prompt missing chapter count constraint")
	}
	if !strings.Contains(user, "800-1200 words") {
		t.Error("user prompt missing word range constraint")
	}
	if strings.Contains(user, "Requested writing style") {
		t.Error("style section should be omitted when no style given")
	}

	if req.ResponseFormat == nil || req.ResponseFormat.Type != "json_schema" {
		t.Error("expected json_schema response format")
	}
}

func TestBuildRequestWithStyle(t *testing.T) {
	spec := types.BookSpec{
		Title:        "Mastering Time Management",
		Author:       "A. Writer",
		BookType:     types.BookTypeNonFiction,
		WritingStyle: "conversational, second person",
	}

	req := BuildRequest(spec)
	user := req.Messages[1].Content
	if !strings.Contains(user, "conversational, second person") {
		t.Error("user prompt missing requested style")
	}
}
