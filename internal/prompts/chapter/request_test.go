package chapter

import (
	"fmt"
	"strings"
	"testing"

	"github.com/jackzampolin/folio/internal/types"
)

func testOutline() types.Outline {
	titles := make([]string, types.ChapterCount)
	summaries := make([]string, types.ChapterCount)
	for i := range titles {
		titles[i] = fmt.Sprintf("Chapter Title %d", i+1)
		summaries[i] = fmt.Sprintf("Plan for chapter %d.", i+1)
	}
	return types.Outline{
		Title:             "Mastering Time Management",
		Author:            "A. Writer",
		Genre:             "self-help",
		PlotSummary:       "A practical guide to reclaiming your hours.",
		WritingStyleGuide: "Direct, warm, example-driven.",
		ChapterTitles:     titles,
		ChapterSummaries:  summaries,
		TargetWordCount:   15000,
	}
}

func TestBuildRequestFirstChapter(t *testing.T) {
	req := BuildRequest(Input{
		Spec:          types.BookSpec{Title: "Mastering Time Management", Author: "A. Writer"},
		Outline:       testOutline(),
		ChapterNumber: 1,
	})

	if len(req.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(req.Messages))
	}
	user := req.Messages[1].Content
	if !strings.Contains(user, "chapter 1 of 15") {
		t.Error("user prompt missing chapter position")
	}
	if !strings.Contains(user, "Chapter Title 1") {
		t.Error("user prompt missing chapter title")
	}
	if strings.Contains(user, "chapters so far") {
		t.Error("first chapter should have no continuity section")
	}
	if req.ResponseFormat == nil || req.ResponseFormat.Type != "json_schema" {
		t.Error("expected json_schema response format")
	}
}

func TestBuildRequestWithContinuity(t *testing.T) {
	req := BuildRequest(Input{
		Spec:          types.BookSpec{Title: "Mastering Time Management", Author: "A. Writer"},
		Outline:       testOutline(),
		ChapterNumber: 7,
		Continuity:    "Chapter 1: intro. Chapter 2: audits.",
	})

	user := req.Messages[1].Content
	if !strings.Contains(user, "chapter 7 of 15") {
		t.Error("user prompt missing chapter position")
	}
	if !strings.Contains(user, "Chapter 2: audits.") {
		t.Error("user prompt missing continuity context")
	}
	if !strings.Contains(user, "Plan for chapter 7.") {
		t.Error("user prompt missing chapter summary")
	}
}

func TestParseResult(t *testing.T) {
	parsed := map[string]any{
		"content": "The chapter body.",
		"summary": "What happened.",
	}
	result, err := ParseResult(parsed)
	if err != nil {
		t.Fatalf("ParseResult failed: %v", err)
	}
	if result.Content != "The chapter body." {
		t.Errorf("unexpected content %q", result.Content)
	}
	if result.Summary != "What happened." {
		t.Errorf("unexpected summary %q", result.Summary)
	}
}
