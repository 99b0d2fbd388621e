package endpoints

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/svcctx"
	"github.com/jackzampolin/folio/internal/types"
)

// CreateBookRequest is the request body for starting a book generation job.
type CreateBookRequest struct {
	Title        string `json:"title"`
	Author       string `json:"author"`
	BookType     string `json:"book_type"`
	WritingStyle string `json:"writing_style,omitempty"`
}

// CreateBookResponse is the response for a successfully submitted job.
type CreateBookResponse struct {
	JobID    string `json:"job_id"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
}

// CreateBookEndpoint handles POST /api/books.
type CreateBookEndpoint struct{}

func (e *CreateBookEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/books", e.handler
}

func (e *CreateBookEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Generate a book
//	@Description	Create a generation job from a book spec and start it
//	@Tags			books
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateBookRequest	true	"Book spec"
//	@Success		202		{object}	CreateBookResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/api/books [post]
func (e *CreateBookEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req CreateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	spec := types.BookSpec{
		Title:        req.Title,
		Author:       req.Author,
		BookType:     types.BookType(req.BookType),
		WritingStyle: req.WritingStyle,
	}
	if spec.BookType == "" {
		spec.BookType = types.BookTypeNonFiction
	}
	if err := spec.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	jm := svcctx.JobManagerFrom(r.Context())
	runner := svcctx.RunnerFrom(r.Context())
	orch := svcctx.OrchestratorFrom(r.Context())
	if jm == nil || runner == nil || orch == nil {
		writeError(w, http.StatusServiceUnavailable, "generation services not initialized")
		return
	}

	job, err := jm.Create(r.Context(), spec)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := runner.Start(job.ID, func(ctx context.Context) {
		_ = orch.Run(ctx, job)
	}); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, CreateBookResponse{
		JobID:    job.ID,
		Title:    job.Spec.Title,
		Author:   job.Spec.Author,
		Status:   string(job.Status),
		Progress: job.Progress,
	})
}

func (e *CreateBookEndpoint) Command(getServerURL func() string) *cobra.Command {
	var author, bookType, style string
	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Start a book generation job",
		Long: `Create a generation job from a book spec and start it.

The job runs asynchronously; this command returns the job ID immediately.
Use 'folio api jobs get <job-id>' to check progress and
'folio api jobs artifacts <job-id>' to list outputs once completed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client := api.NewClient(getServerURL())
			var resp CreateBookResponse
			if err := client.Post(ctx, "/api/books", CreateBookRequest{
				Title:        args[0],
				Author:       author,
				BookType:     bookType,
				WritingStyle: style,
			}, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&author, "author", "", "Author name (required)")
	cmd.Flags().StringVar(&bookType, "type", "non-fiction", "Book type")
	cmd.Flags().StringVar(&style, "style", "", "Writing style hint")
	cmd.MarkFlagRequired("author")
	return cmd
}
