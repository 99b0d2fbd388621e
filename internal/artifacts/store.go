// Package artifacts stores compiled book outputs on disk under the home
// directory's exports tree, one directory per job.
package artifacts

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jackzampolin/folio/internal/home"
	"github.com/jackzampolin/folio/internal/types"
)

// Store writes and removes artifact files for jobs.
type Store struct {
	home   *home.Dir
	logger *slog.Logger
}

// NewStore creates an artifact store rooted at the home exports dir.
func NewStore(h *home.Dir, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{home: h, logger: logger}
}

// Put writes one artifact file for a job and returns its record. The
// job's exports directory is created on first write.
func (s *Store) Put(jobID string, kind types.ArtifactKind, filename string, data []byte) (types.Artifact, error) {
	if filepath.Base(filename) != filename {
		return types.Artifact{}, fmt.Errorf("invalid artifact filename: %s", filename)
	}
	if err := s.home.EnsureJobExportsDir(jobID); err != nil {
		return types.Artifact{}, fmt.Errorf("failed to create exports dir: %w", err)
	}

	path := filepath.Join(s.home.JobExportsDir(jobID), filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return types.Artifact{}, fmt.Errorf("failed to write artifact: %w", err)
	}

	s.logger.Info("artifact written", "job_id", jobID, "kind", kind, "path", path, "bytes", len(data))
	return types.Artifact{
		JobID:     jobID,
		Kind:      kind,
		Path:      path,
		SizeBytes: int64(len(data)),
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Open returns a reader for a stored artifact file. The caller closes it.
func (s *Store) Open(a types.Artifact) (*os.File, error) {
	dir := s.home.JobExportsDir(a.JobID)
	rel, err := filepath.Rel(dir, a.Path)
	if err != nil || rel != filepath.Base(a.Path) {
		return nil, fmt.Errorf("artifact path outside job exports dir: %s", a.Path)
	}
	return os.Open(a.Path)
}

// List returns the artifact filenames currently on disk for a job.
func (s *Store) List(jobID string) ([]string, error) {
	entries, err := os.ReadDir(s.home.JobExportsDir(jobID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// Delete removes every artifact file for a job. Used when a failed job's
// partial outputs are cleaned up, and when a job is deleted.
func (s *Store) Delete(jobID string) error {
	dir := s.home.JobExportsDir(jobID)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove artifacts: %w", err)
	}
	s.logger.Info("artifacts removed", "job_id", jobID, "dir", dir)
	return nil
}
