package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/Vicoder007/Vekta/internal/observe"
)

// ArtifactStore writes generated .zwo files into a directory. Files are
// write-once: names carry a nanosecond timestamp plus a process-local
// sequence number, and the file is opened with O_EXCL so an existing
// artifact is never overwritten.
type ArtifactStore struct {
	dir     string
	seq     atomic.Uint64
	metrics *observe.Metrics
}

// NewArtifactStore creates the directory if needed and returns the store.
func NewArtifactStore(dir string, metrics *observe.Metrics) (*ArtifactStore, error) {
	if dir == "" {
		dir = "./generated_workouts"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("artifacts: create dir %q: %w", dir, err)
	}
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	return &ArtifactStore{dir: dir, metrics: metrics}, nil
}

// Dir returns the artifact directory.
func (s *ArtifactStore) Dir() string { return s.dir }

// Write persists one workout file and returns its path.
func (s *ArtifactStore) Write(ctx context.Context, data []byte) (string, error) {
	name := fmt.Sprintf("vekta_workout_%d_%d.zwo", time.Now().UnixNano(), s.seq.Add(1))
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("artifacts: create %q: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return "", fmt.Errorf("artifacts: write %q: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("artifacts: close %q: %w", path, err)
	}

	s.metrics.FilesWritten.Add(ctx, 1)
	return path, nil
}
