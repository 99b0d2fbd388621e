// Package generate runs the book generation pipeline for one job: the
// outline phase, the sequential chapter loop, manuscript assembly, and
// the concurrent format compilers. Progress is checkpointed to the job
// store after every committed step, so a poller only ever observes
// durable state.
package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/jackzampolin/folio/internal/book"
	"github.com/jackzampolin/folio/internal/config"
	"github.com/jackzampolin/folio/internal/continuity"
	"github.com/jackzampolin/folio/internal/docx"
	"github.com/jackzampolin/folio/internal/epub"
	"github.com/jackzampolin/folio/internal/kdp"
	"github.com/jackzampolin/folio/internal/metrics"
	"github.com/jackzampolin/folio/internal/outline"
	"github.com/jackzampolin/folio/internal/printpdf"
	chapterprompt "github.com/jackzampolin/folio/internal/prompts/chapter"
	outlineprompt "github.com/jackzampolin/folio/internal/prompts/outline"
	"github.com/jackzampolin/folio/internal/providers"
	"github.com/jackzampolin/folio/internal/types"
)

// JobStore is the subset of the job manager the orchestrator writes
// through. Every write is a checkpoint; a failed write is fatal for the
// running job.
type JobStore interface {
	UpdateStatus(ctx context.Context, jobID string, status types.JobStatus, progress int) error
	SetOutline(ctx context.Context, jobID string, outline *types.Outline) error
	AppendChapter(ctx context.Context, jobID string, ch types.ChapterResult) error
	SetFailed(ctx context.Context, jobID string, progress int, errMsg string) error
	SetTotalWordCount(ctx context.Context, jobID string, total int) error
	RecordArtifact(ctx context.Context, a types.Artifact) error
	DeleteArtifacts(ctx context.Context, jobID string) error
}

// ArtifactSink stores and removes compiled output files.
type ArtifactSink interface {
	Put(jobID string, kind types.ArtifactKind, filename string, data []byte) (types.Artifact, error)
	Delete(jobID string) error
}

// Options selects the provider and models for a run.
type Options struct {
	Provider     string
	OutlineModel string
	ChapterModel string
}

// Orchestrator drives generation jobs. One orchestrator serves all
// jobs; per-job execution state lives on the stack of Run.
type Orchestrator struct {
	store    JobStore
	files    ArtifactSink
	registry *providers.Registry
	cfg      config.GenerationCfg
	opts     Options
	metrics  *metrics.Recorder
	logger   *slog.Logger
}

// New creates an orchestrator.
func New(store JobStore, files ArtifactSink, registry *providers.Registry, cfg config.GenerationCfg, opts Options, rec *metrics.Recorder, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		store:    store,
		files:    files,
		registry: registry,
		cfg:      cfg,
		opts:     opts,
		metrics:  rec,
		logger:   logger,
	}
}

// Run executes the pipeline for one job until a terminal state. The
// caller guarantees it is the job's only writer. A job that already has
// an outline or committed chapters resumes after its last checkpoint.
func (o *Orchestrator) Run(ctx context.Context, job *types.GenerationJob) error {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.JobTimeout())
	defer cancel()

	o.metrics.JobStarted()
	defer o.metrics.JobFinished()
	start := time.Now()
	logger := o.logger.With("job_id", job.ID)

	client, err := o.registry.Get(o.opts.Provider)
	if err != nil {
		return o.fail(job.ID, types.ProgressPending, fmt.Errorf("provider %q unavailable: %w", o.opts.Provider, err), logger)
	}
	limiter, err := o.registry.Limiter(o.opts.Provider)
	if err != nil {
		return o.fail(job.ID, types.ProgressPending, err, logger)
	}

	// Outline phase
	bookOutline := job.Outline
	if bookOutline == nil {
		if err := o.checkpoint(ctx, job.ID, types.StatusOutlineInProgress, types.ProgressPending, logger); err != nil {
			return err
		}
		bookOutline, err = o.generateOutline(ctx, client, limiter, job.Spec, logger)
		if err != nil {
			return o.fail(job.ID, types.ProgressPending, err, logger)
		}
		if err := o.store.SetOutline(ctx, job.ID, bookOutline); err != nil {
			return o.fail(job.ID, types.ProgressPending, err, logger)
		}
	}
	// On resume the job's durable progress already reflects committed
	// chapters; re-writing the outline checkpoint would regress it.
	if len(job.Chapters) == 0 {
		if err := o.checkpoint(ctx, job.ID, types.StatusOutlineComplete, types.ProgressOutlineComplete, logger); err != nil {
			return err
		}
	}

	// Chapter loop. Chapters are committed one at a time; each commit is
	// idempotent, so a crash between commit and checkpoint re-runs at
	// most one chapter.
	chapters := append([]types.ChapterResult{}, job.Chapters...)
	progress := types.ProgressAfterChapter(len(chapters))
	cont, err := continuity.NewFromChapters(chapters)
	if err != nil {
		return o.fail(job.ID, progress, err, logger)
	}

	for n := len(chapters) + 1; n <= types.ChapterCount; n++ {
		if err := o.checkpoint(ctx, job.ID, types.StatusChaptersInProgress, progress, logger); err != nil {
			return err
		}

		ch, err := o.generateChapter(ctx, client, limiter, job.Spec, *bookOutline, n, cont.Context(), logger)
		if err != nil {
			o.metrics.IncChapterResult(false)
			return o.fail(job.ID, progress, fmt.Errorf("chapter %d: %w", n, err), logger)
		}
		if err := o.store.AppendChapter(ctx, job.ID, *ch); err != nil {
			o.metrics.IncChapterResult(false)
			return o.fail(job.ID, progress, err, logger)
		}
		o.metrics.IncChapterResult(true)
		chapters = append(chapters, *ch)
		if err := cont.Append(n, ch.Summary); err != nil {
			return o.fail(job.ID, progress, err, logger)
		}
		progress = types.ProgressAfterChapter(n)
		logger.Info("chapter committed", "chapter", n, "words", ch.WordCount, "progress", progress)
	}
	if err := o.checkpoint(ctx, job.ID, types.StatusChaptersComplete, types.ProgressChaptersComplete, logger); err != nil {
		return err
	}

	// Manuscript assembly
	compileStart := time.Now()
	manuscript, err := book.Compile(job.Spec, *bookOutline, chapters, time.Now().UTC())
	if err != nil {
		return o.fail(job.ID, types.ProgressChaptersComplete, err, logger)
	}
	if err := o.store.SetTotalWordCount(ctx, job.ID, manuscript.TotalWordCount); err != nil {
		return o.fail(job.ID, types.ProgressChaptersComplete, err, logger)
	}
	if err := o.checkpoint(ctx, job.ID, types.StatusCompiling, types.ProgressCompiling, logger); err != nil {
		return err
	}
	o.metrics.ObservePhaseDuration(metrics.PhaseCompile, time.Since(compileStart))

	// Format fan-out. Compilers run concurrently and fail independently:
	// a failed format is logged and skipped while the surviving artifacts
	// stay in place. The job itself fails only when no format produced an
	// artifact or a store write made the artifact records untrustworthy.
	if err := o.compileFormats(ctx, job.ID, manuscript, logger); err != nil {
		return o.fail(job.ID, types.ProgressCompiling, err, logger)
	}

	if err := o.checkpoint(ctx, job.ID, types.StatusCompleted, types.ProgressCompleted, logger); err != nil {
		return err
	}
	o.metrics.IncJobOutcome(string(types.StatusCompleted))
	o.metrics.ObserveJobDuration(time.Since(start))
	logger.Info("job completed", "total_words", manuscript.TotalWordCount, "duration", time.Since(start))
	return nil
}

// generateOutline calls the model and parses the response, retrying
// transient call failures and malformed responses up to the attempt
// budget.
func (o *Orchestrator) generateOutline(ctx context.Context, client providers.LLMClient, limiter *providers.RateLimiter, spec types.BookSpec, logger *slog.Logger) (*types.Outline, error) {
	phaseStart := time.Now()
	defer func() { o.metrics.ObservePhaseDuration(metrics.PhaseOutline, time.Since(phaseStart)) }()

	req := outlineprompt.BuildRequest(spec)
	req.Model = o.opts.OutlineModel
	req.Timeout = o.cfg.OutlineTimeout()

	var result *types.Outline
	err := retry.Do(
		func() error {
			res, err := o.chat(ctx, client, limiter, req, o.cfg.OutlineTimeout())
			if err != nil {
				return err
			}
			parsed, err := outline.Extract(res.Content)
			if err != nil {
				// A malformed response may come back clean on regeneration.
				return providers.Transient(err)
			}
			result = parsed
			return nil
		},
		o.retryOpts(ctx, metrics.PhaseOutline, logger)...,
	)
	if err != nil {
		o.metrics.IncRetryExhausted(metrics.PhaseOutline)
		return nil, fmt.Errorf("outline generation failed: %w", err)
	}
	return result, nil
}

// generateChapter produces one committed-ready chapter, retrying
// transient failures, malformed responses, and word counts outside the
// target range.
func (o *Orchestrator) generateChapter(ctx context.Context, client providers.LLMClient, limiter *providers.RateLimiter, spec types.BookSpec, bookOutline types.Outline, number int, contText string, logger *slog.Logger) (*types.ChapterResult, error) {
	phaseStart := time.Now()
	defer func() { o.metrics.ObservePhaseDuration(metrics.PhaseChapter, time.Since(phaseStart)) }()

	req := chapterprompt.BuildRequest(chapterprompt.Input{
		Spec:          spec,
		Outline:       bookOutline,
		ChapterNumber: number,
		Continuity:    contText,
	})
	req.Model = o.opts.ChapterModel
	req.Timeout = o.cfg.ChapterTimeout()

	var result *types.ChapterResult
	err := retry.Do(
		func() error {
			res, err := o.chat(ctx, client, limiter, req, o.cfg.ChapterTimeout())
			if err != nil {
				return err
			}
			parsed, err := parseChapterResponse(res.Content)
			if err != nil {
				return providers.Transient(err)
			}
			words := types.CountWords(parsed.Content)
			if words < types.ChapterMinWords || words > types.ChapterMaxWords {
				return providers.Transient(fmt.Errorf("chapter length %d words outside %d-%d", words, types.ChapterMinWords, types.ChapterMaxWords))
			}
			result = &types.ChapterResult{
				ChapterNumber: number,
				Title:         bookOutline.ChapterTitles[number-1],
				Content:       parsed.Content,
				WordCount:     words,
				Summary:       parsed.Summary,
			}
			return nil
		},
		o.retryOpts(ctx, metrics.PhaseChapter, logger)...,
	)
	if err != nil {
		o.metrics.IncRetryExhausted(metrics.PhaseChapter)
		return nil, err
	}
	return result, nil
}

// chat performs one rate-limited model call with a per-call timeout.
// Fatal classifications abort the surrounding retry loop.
func (o *Orchestrator) chat(ctx context.Context, client providers.LLMClient, limiter *providers.RateLimiter, req *providers.ChatRequest, timeout time.Duration) (*providers.ChatResult, error) {
	if err := limiter.Wait(ctx); err != nil {
		return nil, retry.Unrecoverable(err)
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := client.Chat(callCtx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, retry.Unrecoverable(ctx.Err())
		}
		if providers.IsFatal(err) {
			return nil, retry.Unrecoverable(err)
		}
		return nil, err
	}
	return res, nil
}

func (o *Orchestrator) retryOpts(ctx context.Context, phase string, logger *slog.Logger) []retry.Option {
	attempts := o.cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	return []retry.Option{
		retry.Context(ctx),
		retry.Attempts(uint(attempts)),
		retry.Delay(time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.MaxDelay(30 * time.Second),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			o.metrics.IncRetry(phase)
			logger.Warn("retrying after transient failure", "phase", phase, "attempt", n+1, "error", err)
		}),
	}
}

// formatCompiler is one independent output projection of the manuscript.
type formatCompiler struct {
	kind     types.ArtifactKind
	filename string
	compile  func(*types.CanonicalBook) ([]byte, error)
}

func compilers() []formatCompiler {
	return []formatCompiler{
		{types.ArtifactEPUB, epub.Filename(), epub.Compile},
		{types.ArtifactDOCX, docx.Filename(), docx.Compile},
		{types.ArtifactPrintPDF, printpdf.Filename(), printpdf.Compile},
		{types.ArtifactKDP, kdp.Filename(), kdp.Compile},
	}
}

// storeWriteError marks a compiler failure caused by the job store
// rather than the format itself. It poisons the whole job: artifact
// records can no longer be trusted to match the files on disk.
type storeWriteError struct{ err error }

func (e *storeWriteError) Error() string { return e.err.Error() }
func (e *storeWriteError) Unwrap() error { return e.err }

// compileFormats runs all format compilers concurrently against the
// immutable manuscript. Each compiler succeeds or fails on its own: a
// per-format failure is logged and the job completes with whichever
// formats succeeded. The returned error is non-nil only when the job
// must fail, on a store write failure or when every format failed.
func (o *Orchestrator) compileFormats(ctx context.Context, jobID string, manuscript *types.CanonicalBook, logger *slog.Logger) error {
	phaseStart := time.Now()
	defer func() { o.metrics.ObservePhaseDuration(metrics.PhaseFormats, time.Since(phaseStart)) }()

	var wg sync.WaitGroup
	errs := make([]error, len(compilers()))

	for i, fc := range compilers() {
		wg.Add(1)
		go func(i int, fc formatCompiler) {
			defer wg.Done()
			errs[i] = o.runCompiler(ctx, jobID, fc, manuscript, logger)
		}(i, fc)
	}
	wg.Wait()

	var available []string
	var failed []error
	for i, err := range errs {
		if err == nil {
			available = append(available, string(compilers()[i].kind))
			continue
		}
		var sw *storeWriteError
		if errors.As(err, &sw) {
			return err
		}
		failed = append(failed, err)
	}
	if len(available) == 0 {
		return fmt.Errorf("all format compilers failed: %v", failed[0])
	}
	if len(failed) > 0 {
		logger.Warn("completing with partial formats",
			"available", available, "failed", len(failed), "first_error", failed[0])
	}
	return nil
}

// runCompiler executes one compiler, stores its output, and records the
// artifact. A panic inside a compiler is contained to its own format.
func (o *Orchestrator) runCompiler(ctx context.Context, jobID string, fc formatCompiler, manuscript *types.CanonicalBook, logger *slog.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s compiler panicked: %v", fc.kind, r)
		}
		o.metrics.IncArtifactResult(string(fc.kind), err == nil)
	}()

	data, err := fc.compile(manuscript)
	if err != nil {
		logger.Error("format compiler failed", "kind", fc.kind, "error", err)
		return fmt.Errorf("%s: %w", fc.kind, err)
	}
	artifact, err := o.files.Put(jobID, fc.kind, fc.filename, data)
	if err != nil {
		return fmt.Errorf("%s: %w", fc.kind, err)
	}
	if err := o.store.RecordArtifact(ctx, artifact); err != nil {
		return &storeWriteError{fmt.Errorf("%s: record artifact: %w", fc.kind, err)}
	}
	logger.Info("artifact compiled", "kind", fc.kind, "bytes", artifact.SizeBytes)
	return nil
}

// checkpoint writes a status/progress pair. Write failures terminate
// the job with the last durable progress value.
func (o *Orchestrator) checkpoint(ctx context.Context, jobID string, status types.JobStatus, progress int, logger *slog.Logger) error {
	if err := o.store.UpdateStatus(ctx, jobID, status, progress); err != nil {
		return o.fail(jobID, progress, err, logger)
	}
	return nil
}

// fail transitions the job to its absorbing failed state, freezing the
// progress value at the last committed checkpoint and removing partial
// output files. The write uses a fresh context so a cancelled or
// timed-out job can still record its failure.
func (o *Orchestrator) fail(jobID string, progress int, cause error, logger *slog.Logger) error {
	logger.Error("job failed", "progress", progress, "error", cause)
	o.metrics.IncJobOutcome(string(types.StatusFailed))
	o.cleanupArtifacts(jobID, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := o.store.SetFailed(ctx, jobID, progress, cause.Error()); err != nil {
		logger.Error("failed to record job failure", "error", err)
	}
	return cause
}

// cleanupArtifacts removes output files and artifact records so a
// failed job leaves nothing orphaned behind.
func (o *Orchestrator) cleanupArtifacts(jobID string, logger *slog.Logger) {
	if err := o.files.Delete(jobID); err != nil {
		logger.Error("artifact file cleanup failed", "error", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := o.store.DeleteArtifacts(ctx, jobID); err != nil {
		logger.Error("artifact record cleanup failed", "error", err)
	}
}
