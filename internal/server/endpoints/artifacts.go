package endpoints

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/jobs"
	"github.com/jackzampolin/folio/internal/svcctx"
	"github.com/jackzampolin/folio/internal/types"
)

// ListArtifactsResponse is the response for listing a job's artifacts.
type ListArtifactsResponse struct {
	JobID     string           `json:"job_id"`
	Artifacts []types.Artifact `json:"artifacts"`
}

// ListArtifactsEndpoint handles GET /api/jobs/{id}/artifacts.
type ListArtifactsEndpoint struct{}

func (e *ListArtifactsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/jobs/{id}/artifacts", e.handler
}

func (e *ListArtifactsEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		List job artifacts
//	@Description	List the output files produced for a completed job
//	@Tags			artifacts
//	@Produce		json
//	@Param			id	path		string	true	"Job ID"
//	@Success		200	{object}	ListArtifactsResponse
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Failure		503	{object}	ErrorResponse
//	@Router			/api/jobs/{id}/artifacts [get]
func (e *ListArtifactsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "job id is required")
		return
	}

	jm := svcctx.JobManagerFrom(r.Context())
	if jm == nil {
		writeError(w, http.StatusServiceUnavailable, "job manager not initialized")
		return
	}

	if _, err := jm.Get(r.Context(), id); err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	records, err := jm.Artifacts(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ListArtifactsResponse{JobID: id, Artifacts: records})
}

func (e *ListArtifactsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "artifacts <id>",
		Short: "List a job's output artifacts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client := api.NewClient(getServerURL())
			var resp ListArtifactsResponse
			if err := client.Get(ctx, "/api/jobs/"+args[0]+"/artifacts", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// artifactContentTypes maps artifact kinds to download content types.
var artifactContentTypes = map[types.ArtifactKind]string{
	types.ArtifactEPUB:     "application/epub+zip",
	types.ArtifactDOCX:     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	types.ArtifactPrintPDF: "application/pdf",
	types.ArtifactKDP:      "application/yaml",
}

// DownloadArtifactEndpoint handles GET /api/jobs/{id}/artifacts/{kind}.
type DownloadArtifactEndpoint struct{}

func (e *DownloadArtifactEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/jobs/{id}/artifacts/{kind}", e.handler
}

func (e *DownloadArtifactEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Download an artifact
//	@Description	Download one output file (epub, docx, print_pdf, kdp_metadata)
//	@Tags			artifacts
//	@Produce		octet-stream
//	@Param			id		path	string	true	"Job ID"
//	@Param			kind	path	string	true	"Artifact kind"
//	@Success		200		{file}	binary
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/api/jobs/{id}/artifacts/{kind} [get]
func (e *DownloadArtifactEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	kind := types.ArtifactKind(r.PathValue("kind"))
	if id == "" || kind == "" {
		writeError(w, http.StatusBadRequest, "job id and artifact kind are required")
		return
	}

	jm := svcctx.JobManagerFrom(r.Context())
	files := svcctx.ArtifactsFrom(r.Context())
	if jm == nil || files == nil {
		writeError(w, http.StatusServiceUnavailable, "artifact services not initialized")
		return
	}

	records, err := jm.Artifacts(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	for _, rec := range records {
		if rec.Kind != kind {
			continue
		}
		f, err := files.Open(rec)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		defer f.Close()

		ct := artifactContentTypes[kind]
		if ct == "" {
			ct = "application/octet-stream"
		}
		w.Header().Set("Content-Type", ct)
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", filepath.Base(rec.Path)))
		io.Copy(w, f)
		return
	}

	writeError(w, http.StatusNotFound, "artifact not found")
}

func (e *DownloadArtifactEndpoint) Command(getServerURL func() string) *cobra.Command {
	var outputFile string
	cmd := &cobra.Command{
		Use:   "download <id> <kind>",
		Short: "Download a job artifact",
		Long: `Download one output file for a completed job.

Kinds: epub, docx, print_pdf, kdp_metadata`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			url := getServerURL() + "/api/jobs/" + args[0] + "/artifacts/" + args[1]

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return err
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				body, _ := io.ReadAll(resp.Body)
				return fmt.Errorf("server error (%d): %s", resp.StatusCode, string(body))
			}

			dest := outputFile
			if dest == "" {
				dest = defaultArtifactFilename(args[1])
			}
			out, err := os.Create(dest)
			if err != nil {
				return err
			}
			defer out.Close()

			if _, err := io.Copy(out, resp.Body); err != nil {
				return err
			}
			fmt.Printf("Saved %s\n", dest)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path")
	return cmd
}

// defaultArtifactFilename picks a download filename for a kind.
func defaultArtifactFilename(kind string) string {
	switch types.ArtifactKind(kind) {
	case types.ArtifactEPUB:
		return "book.epub"
	case types.ArtifactDOCX:
		return "book.docx"
	case types.ArtifactPrintPDF:
		return "book-print.pdf"
	case types.ArtifactKDP:
		return "kdp-metadata.yaml"
	default:
		return "artifact.bin"
	}
}
