// Package jobs persists generation jobs, their chapter checkpoints, and
// their artifact records in DefraDB, and runs one worker goroutine per
// active job.
package jobs

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackzampolin/folio/internal/types"
)

// Collection names in DefraDB.
const (
	CollectionJob      = "GenerationJob"
	CollectionChapter  = "Chapter"
	CollectionArtifact = "Artifact"
	CollectionEvent    = "JobEvent"
)

// ErrNotFound is returned when a job id has no record.
var ErrNotFound = errors.New("job not found")

// ErrStoreWrite marks a failed persistence write. Writes to the job store
// are checkpoints; a failed one is fatal for the running job.
var ErrStoreWrite = errors.New("job store write failed")

// storeWriteErr wraps an error as a store write failure.
func storeWriteErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreWrite, err)
}

// parseJob converts a GenerationJob document into the domain type.
// Chapters are loaded separately.
func parseJob(data map[string]any) (*types.GenerationJob, error) {
	job := &types.GenerationJob{}

	id, _ := data["job_id"].(string)
	if id == "" {
		return nil, fmt.Errorf("job document missing job_id")
	}
	job.ID = id

	if v, ok := data["title"].(string); ok {
		job.Spec.Title = v
	}
	if v, ok := data["author"].(string); ok {
		job.Spec.Author = v
	}
	if v, ok := data["book_type"].(string); ok {
		job.Spec.BookType = types.BookType(v)
	}
	if v, ok := data["writing_style"].(string); ok {
		job.Spec.WritingStyle = v
	}
	if v, ok := data["status"].(string); ok {
		job.Status = types.JobStatus(v)
	}
	if v, ok := data["progress"].(float64); ok {
		job.Progress = int(v)
	}
	if v, ok := data["error_message"].(string); ok {
		job.ErrorMessage = v
	}
	if v, ok := data["outline_json"].(string); ok && v != "" {
		var outline types.Outline
		if err := json.Unmarshal([]byte(v), &outline); err == nil {
			job.Outline = &outline
		}
	}
	if v, ok := data["created_at"].(string); ok && v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			job.CreatedAt = t
		}
	}
	if v, ok := data["completed_at"].(string); ok && v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			job.CompletedAt = &t
		}
	}

	return job, nil
}

// parseChapter converts a Chapter document into the domain type.
func parseChapter(data map[string]any) types.ChapterResult {
	ch := types.ChapterResult{}
	if v, ok := data["chapter_number"].(float64); ok {
		ch.ChapterNumber = int(v)
	}
	if v, ok := data["title"].(string); ok {
		ch.Title = v
	}
	if v, ok := data["content"].(string); ok {
		ch.Content = v
	}
	if v, ok := data["word_count"].(float64); ok {
		ch.WordCount = int(v)
	}
	if v, ok := data["summary"].(string); ok {
		ch.Summary = v
	}
	return ch
}

// parseArtifact converts an Artifact document into the domain type.
func parseArtifact(data map[string]any) types.Artifact {
	a := types.Artifact{}
	if v, ok := data["job_id"].(string); ok {
		a.JobID = v
	}
	if v, ok := data["kind"].(string); ok {
		a.Kind = types.ArtifactKind(v)
	}
	if v, ok := data["path"].(string); ok {
		a.Path = v
	}
	if v, ok := data["size_bytes"].(float64); ok {
		a.SizeBytes = int64(v)
	}
	if v, ok := data["created_at"].(string); ok && v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			a.CreatedAt = t
		}
	}
	return a
}
