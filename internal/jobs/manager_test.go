package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/jackzampolin/folio/internal/defra"
	"github.com/jackzampolin/folio/internal/types"
)

// fakeDefra is an httptest-backed DefraDB that dispatches on mutation and
// query shape and records every GraphQL request it sees.
type fakeDefra struct {
	mu       sync.Mutex
	requests []string
	server   *httptest.Server

	jobDoc   map[string]any
	chapters []map[string]any
}

func newFakeDefra(t *testing.T) *fakeDefra {
	t.Helper()
	f := &fakeDefra{}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query string `json:"query"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.requests = append(f.requests, req.Query)
		f.mu.Unlock()

		data := map[string]any{}
		switch {
		case strings.Contains(req.Query, "create_GenerationJob"):
			data["create_GenerationJob"] = []any{map[string]any{"_docID": "bae-job-1"}}
		case strings.Contains(req.Query, "update_GenerationJob"):
			data["update_GenerationJob"] = []any{map[string]any{"_docID": "bae-job-1"}}
		case strings.Contains(req.Query, "upsert_Chapter"):
			data["upsert_Chapter"] = []any{map[string]any{"_docID": "bae-ch-1"}}
		case strings.Contains(req.Query, "create_JobEvent"):
			data["create_JobEvent"] = []any{map[string]any{"_docID": "bae-ev-1"}}
		case strings.Contains(req.Query, "delete_"):
			data["delete_GenerationJob"] = []any{map[string]any{"_docID": "bae-job-1"}}
		case strings.Contains(req.Query, "Chapter("):
			f.mu.Lock()
			docs := make([]any, 0, len(f.chapters))
			for _, ch := range f.chapters {
				docs = append(docs, ch)
			}
			f.mu.Unlock()
			data["Chapter"] = docs
		case strings.Contains(req.Query, "Artifact("):
			data["Artifact"] = []any{}
		case strings.Contains(req.Query, "GenerationJob("):
			f.mu.Lock()
			if f.jobDoc != nil {
				data["GenerationJob"] = []any{f.jobDoc}
			} else {
				data["GenerationJob"] = []any{}
			}
			f.mu.Unlock()
		}

		json.NewEncoder(w).Encode(map[string]any{"data": data})
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeDefra) manager() *Manager {
	return NewManager(defra.NewClient(f.server.URL), nil, nil)
}

func (f *fakeDefra) countRequests(substr string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, q := range f.requests {
		if strings.Contains(q, substr) {
			n++
		}
	}
	return n
}

func (f *fakeDefra) lastRequest(substr string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.requests) - 1; i >= 0; i-- {
		if strings.Contains(f.requests[i], substr) {
			return f.requests[i]
		}
	}
	return ""
}

func testSpec() types.BookSpec {
	return types.BookSpec{
		Title:        "The Quiet Hours",
		Author:       "Dana Reed",
		BookType:     types.BookTypeNonFiction,
		WritingStyle: "conversational",
	}
}

func TestManager_Create(t *testing.T) {
	f := newFakeDefra(t)
	m := f.manager()

	job, err := m.Create(context.Background(), testSpec())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if job.ID == "" {
		t.Error("expected non-empty job id")
	}
	if job.Status != types.StatusPending {
		t.Errorf("status = %q, want %q", job.Status, types.StatusPending)
	}
	if job.Progress != 0 {
		t.Errorf("progress = %d, want 0", job.Progress)
	}

	mutation := f.lastRequest("create_GenerationJob")
	if !strings.Contains(mutation, "The Quiet Hours") {
		t.Errorf("create mutation missing title: %s", mutation)
	}
	if !strings.Contains(mutation, job.ID) {
		t.Errorf("create mutation missing job_id: %s", mutation)
	}
}

func TestManager_Get(t *testing.T) {
	f := newFakeDefra(t)
	f.jobDoc = map[string]any{
		"_docID":    "bae-job-1",
		"job_id":    "job-abc",
		"title":     "The Quiet Hours",
		"author":    "Dana Reed",
		"book_type": "non-fiction",
		"status":    "chapters_in_progress",
		"progress":  float64(24),
	}
	f.chapters = []map[string]any{
		{"chapter_number": float64(1), "title": "One", "content": "text one", "word_count": float64(900), "summary": "s1"},
		{"chapter_number": float64(2), "title": "Two", "content": "text two", "word_count": float64(950), "summary": "s2"},
	}
	m := f.manager()

	job, err := m.Get(context.Background(), "job-abc")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if job.Status != types.StatusChaptersInProgress {
		t.Errorf("status = %q", job.Status)
	}
	if job.Progress != 24 {
		t.Errorf("progress = %d, want 24", job.Progress)
	}
	if len(job.Chapters) != 2 {
		t.Fatalf("chapters = %d, want 2", len(job.Chapters))
	}
	if job.Chapters[0].ChapterNumber != 1 || job.Chapters[1].ChapterNumber != 2 {
		t.Errorf("chapters out of order: %+v", job.Chapters)
	}
}

func TestManager_GetNotFound(t *testing.T) {
	f := newFakeDefra(t)
	m := f.manager()

	_, err := m.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestManager_AppendChapterUsesUpsert(t *testing.T) {
	f := newFakeDefra(t)
	m := f.manager()

	ch := types.ChapterResult{
		ChapterNumber: 7,
		Title:         "Seven",
		Content:       "chapter body",
		WordCount:     1000,
		Summary:       "what happened",
	}

	if err := m.AppendChapter(context.Background(), "job-abc", ch); err != nil {
		t.Fatalf("AppendChapter() error = %v", err)
	}
	// A retried commit issues another upsert keyed by the same
	// (job_id, chapter_number) pair, so no duplicate row can appear.
	if err := m.AppendChapter(context.Background(), "job-abc", ch); err != nil {
		t.Fatalf("AppendChapter() retry error = %v", err)
	}

	if got := f.countRequests("upsert_Chapter"); got != 2 {
		t.Errorf("upsert count = %d, want 2", got)
	}
	mutation := f.lastRequest("upsert_Chapter")
	if !strings.Contains(mutation, "chapter_number") || !strings.Contains(mutation, "job-abc") {
		t.Errorf("upsert not keyed by job and chapter: %s", mutation)
	}
}

func TestManager_SetFailed(t *testing.T) {
	f := newFakeDefra(t)
	f.jobDoc = map[string]any{
		"_docID": "bae-job-1",
		"job_id": "job-abc",
		"status": "chapters_in_progress",
	}
	m := f.manager()

	if err := m.SetFailed(context.Background(), "job-abc", 52, "chapter 10 generation failed"); err != nil {
		t.Fatalf("SetFailed() error = %v", err)
	}

	mutation := f.lastRequest("update_GenerationJob")
	for _, want := range []string{"failed", "52", "chapter 10 generation failed", "completed_at"} {
		if !strings.Contains(mutation, want) {
			t.Errorf("update mutation missing %q: %s", want, mutation)
		}
	}
}

func TestManager_SetOutline(t *testing.T) {
	f := newFakeDefra(t)
	f.jobDoc = map[string]any{"_docID": "bae-job-1", "job_id": "job-abc", "status": "pending"}
	m := f.manager()

	outline := &types.Outline{Title: "The Quiet Hours", PlotSummary: "about time"}
	if err := m.SetOutline(context.Background(), "job-abc", outline); err != nil {
		t.Fatalf("SetOutline() error = %v", err)
	}

	mutation := f.lastRequest("update_GenerationJob")
	if !strings.Contains(mutation, "outline_json") {
		t.Errorf("update mutation missing outline_json: %s", mutation)
	}
}

func TestManager_StoreWriteError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"errors": []map[string]any{{"message": "disk full"}},
		})
	}))
	defer server.Close()

	m := NewManager(defra.NewClient(server.URL), nil, nil)
	_, err := m.Create(context.Background(), testSpec())
	if !errors.Is(err, ErrStoreWrite) {
		t.Errorf("error = %v, want ErrStoreWrite", err)
	}
}

func TestParseJob_Roundtrip(t *testing.T) {
	outline := types.Outline{Title: "T", PlotSummary: "p"}
	raw, _ := json.Marshal(outline)
	doc := map[string]any{
		"job_id":        "job-1",
		"title":         "T",
		"author":        "A",
		"book_type":     "non-fiction",
		"status":        "completed",
		"progress":      float64(100),
		"outline_json":  string(raw),
		"created_at":    "2026-01-02T15:04:05Z",
		"completed_at":  "2026-01-02T16:04:05Z",
		"error_message": "",
	}

	job, err := parseJob(doc)
	if err != nil {
		t.Fatalf("parseJob() error = %v", err)
	}
	if job.Outline == nil || job.Outline.Title != "T" {
		t.Errorf("outline not parsed: %+v", job.Outline)
	}
	if job.CompletedAt == nil {
		t.Error("completed_at not parsed")
	}
	if !job.Status.Terminal() {
		t.Errorf("expected terminal status, got %q", job.Status)
	}
}

func TestParseJob_MissingID(t *testing.T) {
	if _, err := parseJob(map[string]any{"title": "T"}); err == nil {
		t.Error("expected error for document without job_id")
	}
}
