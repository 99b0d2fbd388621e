package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/folio/internal/defra"
	"github.com/jackzampolin/folio/internal/types"
)

// Manager handles job, chapter, and artifact record persistence in
// DefraDB. It does not execute jobs; the orchestrator drives execution
// and records state through the manager. Status and checkpoint writes go
// straight to the store; audit events go through the async sink.
type Manager struct {
	defra  *defra.Client
	sink   *defra.Sink
	logger *slog.Logger

	// docIDs caches job_id -> DefraDB _docID to avoid a lookup per update.
	docIDs sync.Map
}

// NewManager creates a new job manager. The sink is optional; without it
// audit events are skipped.
func NewManager(client *defra.Client, sink *defra.Sink, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		defra:  client,
		sink:   sink,
		logger: logger,
	}
}

const jobFields = "_docID job_id title author book_type writing_style status progress outline_json error_message total_word_count created_at completed_at"

// Create creates a new pending job for the given spec and returns it.
func (m *Manager) Create(ctx context.Context, spec types.BookSpec) (*types.GenerationJob, error) {
	now := time.Now().UTC()
	jobID := uuid.New().String()

	input := map[string]any{
		"job_id":     jobID,
		"title":      spec.Title,
		"author":     spec.Author,
		"book_type":  string(spec.BookType),
		"status":     string(types.StatusPending),
		"progress":   types.ProgressPending,
		"created_at": now.Format(time.RFC3339),
	}
	if spec.WritingStyle != "" {
		input["writing_style"] = spec.WritingStyle
	}

	docID, err := m.defra.Create(ctx, CollectionJob, input)
	if err != nil {
		return nil, storeWriteErr(err)
	}
	m.docIDs.Store(jobID, docID)
	m.emitEvent(jobID, "created", string(types.StatusPending), types.ProgressPending, "")

	m.logger.Info("job created", "job_id", jobID, "title", spec.Title)
	return &types.GenerationJob{
		ID:        jobID,
		Spec:      spec,
		Status:    types.StatusPending,
		Progress:  types.ProgressPending,
		CreatedAt: now,
	}, nil
}

// Get returns a job with its committed chapters, ordered by number.
func (m *Manager) Get(ctx context.Context, jobID string) (*types.GenerationJob, error) {
	doc, err := m.jobDoc(ctx, jobID)
	if err != nil {
		return nil, err
	}
	job, err := parseJob(doc)
	if err != nil {
		return nil, err
	}

	chapters, err := m.Chapters(ctx, jobID)
	if err != nil {
		return nil, err
	}
	job.Chapters = chapters
	return job, nil
}

// ListFilter specifies criteria for listing jobs.
type ListFilter struct {
	Status types.JobStatus // Filter by status (empty = all)
	Limit  int             // Max results (0 = default 100)
}

// List returns jobs matching the filter, without chapter bodies.
func (m *Manager) List(ctx context.Context, filter ListFilter) ([]*types.GenerationJob, error) {
	qb := defra.NewQuery(CollectionJob).Fields(strings.Fields(jobFields)...)
	if filter.Status != "" {
		qb.Filter("status", string(filter.Status))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	qb.Limit(limit).OrderBy("created_at", "DESC")

	resp, err := qb.Execute(ctx, m.defra)
	if err != nil {
		return nil, err
	}
	if errMsg := resp.Error(); errMsg != "" {
		return nil, fmt.Errorf("list jobs: %s", errMsg)
	}

	docs, ok := resp.Data[CollectionJob].([]any)
	if !ok {
		return []*types.GenerationJob{}, nil
	}
	jobs := make([]*types.GenerationJob, 0, len(docs))
	for _, d := range docs {
		doc, ok := d.(map[string]any)
		if !ok {
			continue
		}
		job, err := parseJob(doc)
		if err != nil {
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// UpdateStatus writes a status/progress checkpoint.
func (m *Manager) UpdateStatus(ctx context.Context, jobID string, status types.JobStatus, progress int) error {
	input := map[string]any{
		"status":   string(status),
		"progress": progress,
	}
	if status == types.StatusCompleted {
		input["completed_at"] = time.Now().UTC().Format(time.RFC3339)
	}
	if err := m.updateJob(ctx, jobID, input); err != nil {
		return err
	}
	m.emitEvent(jobID, "status", string(status), progress, "")
	return nil
}

// SetOutline stores the parsed outline checkpoint.
func (m *Manager) SetOutline(ctx context.Context, jobID string, outline *types.Outline) error {
	raw, err := json.Marshal(outline)
	if err != nil {
		return storeWriteErr(err)
	}
	return m.updateJob(ctx, jobID, map[string]any{
		"outline_json": string(raw),
	})
}

// SetFailed marks the job failed with a frozen progress value and an
// error message, and stamps completion time.
func (m *Manager) SetFailed(ctx context.Context, jobID string, progress int, errMsg string) error {
	input := map[string]any{
		"status":        string(types.StatusFailed),
		"progress":      progress,
		"error_message": errMsg,
		"completed_at":  time.Now().UTC().Format(time.RFC3339),
	}
	if err := m.updateJob(ctx, jobID, input); err != nil {
		return err
	}
	m.emitEvent(jobID, "failed", string(types.StatusFailed), progress, errMsg)
	return nil
}

// SetTotalWordCount records the compiled book's derived total.
func (m *Manager) SetTotalWordCount(ctx context.Context, jobID string, total int) error {
	return m.updateJob(ctx, jobID, map[string]any{"total_word_count": total})
}

// AppendChapter commits one chapter checkpoint. The upsert on
// (job_id, chapter_number) makes a retried commit idempotent: a chapter
// is never stored twice.
func (m *Manager) AppendChapter(ctx context.Context, jobID string, ch types.ChapterResult) error {
	filter := map[string]any{
		"job_id":         jobID,
		"chapter_number": ch.ChapterNumber,
	}
	doc := map[string]any{
		"job_id":         jobID,
		"chapter_number": ch.ChapterNumber,
		"title":          ch.Title,
		"content":        ch.Content,
		"word_count":     ch.WordCount,
		"summary":        ch.Summary,
		"created_at":     time.Now().UTC().Format(time.RFC3339),
	}
	if _, err := m.defra.Upsert(ctx, CollectionChapter, filter, doc, doc); err != nil {
		return storeWriteErr(err)
	}
	m.emitEvent(jobID, "chapter", string(types.StatusChaptersInProgress), types.ProgressAfterChapter(ch.ChapterNumber), fmt.Sprintf("chapter %d committed", ch.ChapterNumber))
	return nil
}

// Chapters returns all committed chapters for a job in ascending order.
func (m *Manager) Chapters(ctx context.Context, jobID string) ([]types.ChapterResult, error) {
	resp, err := defra.NewQuery(CollectionChapter).
		Filter("job_id", jobID).
		Fields("chapter_number", "title", "content", "word_count", "summary").
		OrderBy("chapter_number", "ASC").
		Execute(ctx, m.defra)
	if err != nil {
		return nil, err
	}
	if errMsg := resp.Error(); errMsg != "" {
		return nil, fmt.Errorf("list chapters: %s", errMsg)
	}

	docs, _ := resp.Data[CollectionChapter].([]any)
	chapters := make([]types.ChapterResult, 0, len(docs))
	for _, d := range docs {
		if doc, ok := d.(map[string]any); ok {
			chapters = append(chapters, parseChapter(doc))
		}
	}
	sort.Slice(chapters, func(i, j int) bool {
		return chapters[i].ChapterNumber < chapters[j].ChapterNumber
	})
	return chapters, nil
}

// RecordArtifact stores one produced artifact record.
func (m *Manager) RecordArtifact(ctx context.Context, a types.Artifact) error {
	input := map[string]any{
		"job_id":     a.JobID,
		"kind":       string(a.Kind),
		"path":       a.Path,
		"size_bytes": a.SizeBytes,
		"created_at": a.CreatedAt.UTC().Format(time.RFC3339),
	}
	if _, err := m.defra.Create(ctx, CollectionArtifact, input); err != nil {
		return storeWriteErr(err)
	}
	return nil
}

// Artifacts returns all artifact records for a job.
func (m *Manager) Artifacts(ctx context.Context, jobID string) ([]types.Artifact, error) {
	resp, err := defra.NewQuery(CollectionArtifact).
		Filter("job_id", jobID).
		Fields("_docID", "job_id", "kind", "path", "size_bytes", "created_at").
		Execute(ctx, m.defra)
	if err != nil {
		return nil, err
	}
	if errMsg := resp.Error(); errMsg != "" {
		return nil, fmt.Errorf("list artifacts: %s", errMsg)
	}

	docs, _ := resp.Data[CollectionArtifact].([]any)
	artifacts := make([]types.Artifact, 0, len(docs))
	for _, d := range docs {
		if doc, ok := d.(map[string]any); ok {
			artifacts = append(artifacts, parseArtifact(doc))
		}
	}
	return artifacts, nil
}

// DeleteArtifacts removes all artifact records for a job, used when a
// failed job's partial outputs are cleaned up.
func (m *Manager) DeleteArtifacts(ctx context.Context, jobID string) error {
	resp, err := defra.NewQuery(CollectionArtifact).
		Filter("job_id", jobID).
		Fields("_docID").
		Execute(ctx, m.defra)
	if err != nil {
		return err
	}
	docs, _ := resp.Data[CollectionArtifact].([]any)
	for _, d := range docs {
		doc, ok := d.(map[string]any)
		if !ok {
			continue
		}
		docID, _ := doc["_docID"].(string)
		if docID == "" {
			continue
		}
		if err := m.defra.Delete(ctx, CollectionArtifact, docID); err != nil {
			return storeWriteErr(err)
		}
	}
	return nil
}

// Delete removes a job and all of its chapters and artifact records.
// Only terminal jobs should be deleted; the caller enforces that.
func (m *Manager) Delete(ctx context.Context, jobID string) error {
	doc, err := m.jobDoc(ctx, jobID)
	if err != nil {
		return err
	}
	docID, _ := doc["_docID"].(string)

	if err := m.DeleteArtifacts(ctx, jobID); err != nil {
		return err
	}

	chResp, err := defra.NewQuery(CollectionChapter).
		Filter("job_id", jobID).
		Fields("_docID").
		Execute(ctx, m.defra)
	if err != nil {
		return err
	}
	chDocs, _ := chResp.Data[CollectionChapter].([]any)
	for _, d := range chDocs {
		if chDoc, ok := d.(map[string]any); ok {
			if chID, _ := chDoc["_docID"].(string); chID != "" {
				if err := m.defra.Delete(ctx, CollectionChapter, chID); err != nil {
					return storeWriteErr(err)
				}
			}
		}
	}

	if docID != "" {
		if err := m.defra.Delete(ctx, CollectionJob, docID); err != nil {
			return storeWriteErr(err)
		}
	}
	m.docIDs.Delete(jobID)
	m.logger.Info("job deleted", "job_id", jobID)
	return nil
}

// jobDoc fetches the raw GenerationJob document by job_id.
func (m *Manager) jobDoc(ctx context.Context, jobID string) (map[string]any, error) {
	resp, err := defra.SafeQuery(ctx, m.defra, CollectionJob, "job_id", jobID, strings.Fields(jobFields)...)
	if err != nil {
		return nil, err
	}
	if errMsg := resp.Error(); errMsg != "" {
		return nil, fmt.Errorf("get job: %s", errMsg)
	}

	docs, ok := resp.Data[CollectionJob].([]any)
	if !ok || len(docs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, jobID)
	}
	doc, ok := docs[0].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected job document format")
	}
	if docID, _ := doc["_docID"].(string); docID != "" {
		m.docIDs.Store(jobID, docID)
	}
	return doc, nil
}

// updateJob applies a partial update to the job document.
func (m *Manager) updateJob(ctx context.Context, jobID string, input map[string]any) error {
	docID, err := m.resolveDocID(ctx, jobID)
	if err != nil {
		return err
	}
	if err := m.defra.Update(ctx, CollectionJob, docID, input); err != nil {
		return storeWriteErr(err)
	}
	return nil
}

// resolveDocID maps a job_id to its DefraDB _docID, consulting the cache
// first.
func (m *Manager) resolveDocID(ctx context.Context, jobID string) (string, error) {
	if v, ok := m.docIDs.Load(jobID); ok {
		return v.(string), nil
	}
	doc, err := m.jobDoc(ctx, jobID)
	if err != nil {
		return "", err
	}
	docID, _ := doc["_docID"].(string)
	if docID == "" {
		return "", fmt.Errorf("job %s has no document id", jobID)
	}
	return docID, nil
}

// emitEvent records an audit event through the async sink.
func (m *Manager) emitEvent(jobID, event, status string, progress int, detail string) {
	if m.sink == nil {
		return
	}
	doc := map[string]any{
		"job_id":     jobID,
		"event":      event,
		"status":     status,
		"progress":   progress,
		"created_at": time.Now().UTC().Format(time.RFC3339),
	}
	if detail != "" {
		doc["detail"] = detail
	}
	m.sink.Send(defra.WriteOp{
		Collection: CollectionEvent,
		Document:   doc,
		Op:         defra.OpCreate,
	})
}
