// Package metrics exposes Prometheus instrumentation for the generation
// pipeline: phase durations, job outcomes, chapter results, retries, and
// format compiler results.
package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// Phase labels for duration and retry metrics.
const (
	PhaseOutline = "outline"
	PhaseChapter = "chapter"
	PhaseCompile = "compile"
	PhaseFormats = "formats"
)

// Recorder registers and updates the pipeline's Prometheus metrics. All
// methods are safe on a nil receiver so instrumentation can be optional.
type Recorder struct {
	registry *prom.Registry

	phaseDuration   *prom.HistogramVec
	jobDuration     prom.Histogram
	jobOutcomes     *prom.CounterVec
	chapterResults  *prom.CounterVec
	llmRetries      *prom.CounterVec
	retryExhausted  *prom.CounterVec
	artifactResults *prom.CounterVec
	activeJobs      prom.Gauge
}

// NewRecorder constructs and registers the folio metrics on reg. A nil
// registry gets a private one.
func NewRecorder(reg *prom.Registry) *Recorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	r := &Recorder{registry: reg}

	r.phaseDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: "folio",
		Name:      "phase_duration_seconds",
		Help:      "Duration of generation phases",
		Buckets:   prom.ExponentialBuckets(0.5, 2, 12),
	}, []string{"phase"})
	r.jobDuration = prom.NewHistogram(prom.HistogramOpts{
		Namespace: "folio",
		Name:      "job_duration_seconds",
		Help:      "Total generation job duration",
		Buckets:   prom.ExponentialBuckets(10, 2, 10),
	})
	r.jobOutcomes = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "folio",
		Name:      "job_outcomes_total",
		Help:      "Job outcomes by terminal status",
	}, []string{"outcome"})
	r.chapterResults = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "folio",
		Name:      "chapter_results_total",
		Help:      "Chapter generation results",
	}, []string{"result"})
	r.llmRetries = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "folio",
		Name:      "llm_retries_total",
		Help:      "LLM call retries after transient failures",
	}, []string{"phase"})
	r.retryExhausted = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "folio",
		Name:      "llm_retry_exhausted_total",
		Help:      "LLM calls that exhausted their retry budget",
	}, []string{"phase"})
	r.artifactResults = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "folio",
		Name:      "artifact_results_total",
		Help:      "Format compiler results by artifact kind",
	}, []string{"kind", "result"})
	r.activeJobs = prom.NewGauge(prom.GaugeOpts{
		Namespace: "folio",
		Name:      "active_jobs",
		Help:      "Jobs currently generating",
	})

	reg.MustRegister(r.phaseDuration, r.jobDuration, r.jobOutcomes,
		r.chapterResults, r.llmRetries, r.retryExhausted,
		r.artifactResults, r.activeJobs)
	return r
}

// Registry returns the registry the recorder registered on.
func (r *Recorder) Registry() *prom.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Recorder) ObservePhaseDuration(phase string, d time.Duration) {
	if r == nil {
		return
	}
	r.phaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}

func (r *Recorder) ObserveJobDuration(d time.Duration) {
	if r == nil {
		return
	}
	r.jobDuration.Observe(d.Seconds())
}

func (r *Recorder) IncJobOutcome(outcome string) {
	if r == nil {
		return
	}
	r.jobOutcomes.WithLabelValues(outcome).Inc()
}

func (r *Recorder) IncChapterResult(success bool) {
	if r == nil {
		return
	}
	result := "failed"
	if success {
		result = "success"
	}
	r.chapterResults.WithLabelValues(result).Inc()
}

func (r *Recorder) IncRetry(phase string) {
	if r == nil {
		return
	}
	r.llmRetries.WithLabelValues(phase).Inc()
}

func (r *Recorder) IncRetryExhausted(phase string) {
	if r == nil {
		return
	}
	r.retryExhausted.WithLabelValues(phase).Inc()
}

func (r *Recorder) IncArtifactResult(kind string, success bool) {
	if r == nil {
		return
	}
	result := "failed"
	if success {
		result = "success"
	}
	r.artifactResults.WithLabelValues(kind, result).Inc()
}

func (r *Recorder) JobStarted() {
	if r == nil {
		return
	}
	r.activeJobs.Inc()
}

func (r *Recorder) JobFinished() {
	if r == nil {
		return
	}
	r.activeJobs.Dec()
}
