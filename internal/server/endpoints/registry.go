package endpoints

import (
	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/defra"
	"github.com/jackzampolin/folio/internal/metrics"
)

// Config holds dependencies needed by some endpoints.
type Config struct {
	DefraManager    *defra.DockerManager
	Metrics         *metrics.Recorder
	SwaggerSpecPath string
}

// All returns all endpoint instances.
func All(cfg Config) []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&ReadyEndpoint{},
		&StatusEndpoint{DefraManager: cfg.DefraManager},

		// Book generation
		&CreateBookEndpoint{},
		&ListBooksEndpoint{},

		// Job endpoints
		&ListJobsEndpoint{},
		&GetJobEndpoint{},
		&CancelJobEndpoint{},
		&DeleteJobEndpoint{},

		// Artifact endpoints
		&ListArtifactsEndpoint{},
		&DownloadArtifactEndpoint{},

		// Observability
		&MetricsEndpoint{Recorder: cfg.Metrics},

		// Swagger/OpenAPI endpoints
		&SwaggerEndpoint{SpecPath: cfg.SwaggerSpecPath},
		&SwaggerUIEndpoint{},
	}
}
