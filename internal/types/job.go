package types

import "time"

// JobStatus is the orchestrator state machine's externally visible state.
type JobStatus string

const (
	StatusPending            JobStatus = "pending"
	StatusOutlineInProgress  JobStatus = "outline_in_progress"
	StatusOutlineComplete    JobStatus = "outline_complete"
	StatusChaptersInProgress JobStatus = "chapters_in_progress"
	StatusChaptersComplete   JobStatus = "chapters_complete"
	StatusCompiling          JobStatus = "compiling"
	StatusCompleted          JobStatus = "completed"
	StatusFailed             JobStatus = "failed"
)

// Terminal reports whether no further transitions can occur.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Progress checkpoints for the non-chapter phases.
const (
	ProgressPending          = 0
	ProgressOutlineComplete  = 10
	ProgressChaptersComplete = 80
	ProgressCompiling        = 85
	ProgressCompleted        = 100
)

// ProgressAfterChapter maps a committed chapter number (1..ChapterCount) to
// the job progress value. The chapter loop spans 10..80.
func ProgressAfterChapter(chapter int) int {
	if chapter <= 0 {
		return ProgressOutlineComplete
	}
	if chapter >= ChapterCount {
		return ProgressChaptersComplete
	}
	return ProgressOutlineComplete + (ProgressChaptersComplete-ProgressOutlineComplete)*chapter/ChapterCount
}

// GenerationJob is the aggregate root for one book generation request.
// The orchestrator owns it exclusively while running; after a terminal state
// it is read-only.
type GenerationJob struct {
	ID           string          `json:"id"`
	Spec         BookSpec        `json:"spec"`
	Status       JobStatus       `json:"status"`
	Progress     int             `json:"progress"`
	Outline      *Outline        `json:"outline,omitempty"`
	Chapters     []ChapterResult `json:"chapters,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
}

// ArtifactKind identifies one output projection of a CanonicalBook.
type ArtifactKind string

const (
	ArtifactEPUB     ArtifactKind = "epub"
	ArtifactDOCX     ArtifactKind = "docx"
	ArtifactPrintPDF ArtifactKind = "print_pdf"
	ArtifactKDP      ArtifactKind = "kdp_metadata"
)

// AllArtifactKinds lists every format compiler output, in emission order.
func AllArtifactKinds() []ArtifactKind {
	return []ArtifactKind{ArtifactEPUB, ArtifactDOCX, ArtifactPrintPDF, ArtifactKDP}
}

// Artifact records one produced output file for a job.
type Artifact struct {
	JobID     string       `json:"job_id"`
	Kind      ArtifactKind `json:"kind"`
	Path      string       `json:"path"`
	SizeBytes int64        `json:"size_bytes"`
	CreatedAt time.Time    `json:"created_at"`
}
