package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	"github.com/couchcryptid/soil-temp-model/internal/domain"
	"github.com/couchcryptid/soil-temp-model/internal/model"
)

const ext = ".json"

// Store keeps one artifact file per station under a directory.
type Store struct {
	dir    string
	logger *slog.Logger
}

// New creates a Store rooted at dir. The directory is created on first Save.
func New(dir string, logger *slog.Logger) *Store {
	return &Store{dir: dir, logger: logger}
}

// Path returns the file an artifact for stationID is stored in.
func (s *Store) Path(stationID string) (string, error) {
	if stationID == "" || stationID == "." || stationID == ".." {
		return "", fmt.Errorf("invalid station id %q", stationID)
	}
	return filepath.Join(s.dir, url.PathEscape(stationID)+ext), nil
}

// Save writes the artifact atomically: a temp file in the same directory is
// synced and renamed over any previous artifact for the station.
func (s *Store) Save(ctx context.Context, a *model.Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.Path(a.StationID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w: %w", domain.ErrStorage, err)
	}

	tmp, err := os.CreateTemp(s.dir, ".artifact-*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w: %w", domain.ErrStorage, err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // already renamed on success

	if err := model.Encode(tmp, a); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync artifact: %w: %w", domain.ErrStorage, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close artifact: %w: %w", domain.ErrStorage, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename artifact: %w: %w", domain.ErrStorage, err)
	}

	s.logger.Info("artifact saved", "station", a.StationID, "artifact_id", a.ID, "path", path)
	return nil
}

// Load reads the artifact for stationID. A missing file wraps both
// domain.ErrStorage and domain.ErrNotFound; other I/O failures wrap
// domain.ErrStorage; format problems wrap domain.ErrIncompatibleArtifact.
func (s *Store) Load(ctx context.Context, stationID string) (*model.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.Path(stationID)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("artifact for station %q: %w: %w", stationID, domain.ErrStorage, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w: %w", domain.ErrStorage, err)
	}
	defer f.Close()

	a, err := model.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if a.StationID != stationID {
		return nil, fmt.Errorf("%s holds station %q, want %q: %w", path, a.StationID, stationID, domain.ErrIncompatibleArtifact)
	}
	return a, nil
}

// Delete removes the artifact for stationID. Deleting a missing artifact is not an error.
func (s *Store) Delete(_ context.Context, stationID string) error {
	path, err := s.Path(stationID)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete artifact: %w: %w", domain.ErrStorage, err)
	}
	return nil
}
