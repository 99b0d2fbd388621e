package endpoints

import (
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/jobs"
	"github.com/jackzampolin/folio/internal/svcctx"
	"github.com/jackzampolin/folio/internal/types"
)

// BookSummary describes one completed book.
type BookSummary struct {
	JobID          string         `json:"job_id"`
	Title          string         `json:"title"`
	Author         string         `json:"author"`
	BookType       types.BookType `json:"book_type"`
	Genre          string         `json:"genre,omitempty"`
	ChapterTotal   int            `json:"chapter_total"`
	TotalWordCount int            `json:"total_word_count"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
}

// ListBooksResponse is the response for listing completed books.
type ListBooksResponse struct {
	Books []BookSummary `json:"books"`
}

// ListBooksEndpoint handles GET /api/books.
type ListBooksEndpoint struct{}

func (e *ListBooksEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/books", e.handler
}

func (e *ListBooksEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		List books
//	@Description	List completed books with chapter and word totals
//	@Tags			books
//	@Produce		json
//	@Success		200	{object}	ListBooksResponse
//	@Failure		500	{object}	ErrorResponse
//	@Failure		503	{object}	ErrorResponse
//	@Router			/api/books [get]
func (e *ListBooksEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	jm := svcctx.JobManagerFrom(r.Context())
	if jm == nil {
		writeError(w, http.StatusServiceUnavailable, "job manager not initialized")
		return
	}

	completed, err := jm.List(r.Context(), jobs.ListFilter{Status: types.StatusCompleted})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	books := make([]BookSummary, 0, len(completed))
	for _, job := range completed {
		books = append(books, summarizeBook(job))
	}

	writeJSON(w, http.StatusOK, ListBooksResponse{Books: books})
}

// summarizeBook derives the listing row from a completed job's committed
// chapters.
func summarizeBook(job *types.GenerationJob) BookSummary {
	s := BookSummary{
		JobID:        job.ID,
		Title:        job.Spec.Title,
		Author:       job.Spec.Author,
		BookType:     job.Spec.BookType,
		ChapterTotal: len(job.Chapters),
		CompletedAt:  job.CompletedAt,
	}
	if job.Outline != nil {
		s.Genre = job.Outline.Genre
		if job.Outline.Title != "" {
			s.Title = job.Outline.Title
		}
	}
	for _, ch := range job.Chapters {
		s.TotalWordCount += ch.WordCount
	}
	return s
}

func (e *ListBooksEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List completed books",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client := api.NewClient(getServerURL())

			var resp ListBooksResponse
			if err := client.Get(ctx, "/api/books", &resp); err != nil {
				return err
			}

			return api.Output(resp)
		},
	}
}
