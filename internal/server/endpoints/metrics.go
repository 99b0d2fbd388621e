package endpoints

import (
	"fmt"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/metrics"
)

// MetricsEndpoint serves Prometheus metrics at GET /metrics.
type MetricsEndpoint struct {
	// Recorder is set by the server; nil serves an empty registry.
	Recorder *metrics.Recorder
}

func (e *MetricsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/metrics", e.handler
}

func (e *MetricsEndpoint) RequiresInit() bool { return false }

func (e *MetricsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	rec := e.Recorder
	if rec == nil {
		rec = metrics.NewRecorder(nil)
	}
	promhttp.HandlerFor(rec.Registry(), promhttp.HandlerOpts{}).ServeHTTP(w, r)
}

func (e *MetricsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Fetch Prometheus metrics from the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, getServerURL()+"/metrics", nil)
			if err != nil {
				return err
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("server error (%d)", resp.StatusCode)
			}
			_, err = io.Copy(cmd.OutOrStdout(), resp.Body)
			return err
		},
	}
}
