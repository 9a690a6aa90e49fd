package files

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Store owns the export directory. Artifacts are replaced atomically so a
// reader never observes a partially written file, and the directory can be
// enumerated for health reporting.
type Store struct {
	dir    string
	logger *slog.Logger

	// mu serializes replacements; builds for distinct inputs may finish
	// concurrently and target the same artifact name.
	mu sync.Mutex
}

// NewStore creates a store rooted at dir. A nil logger falls back to the
// default logger.
func NewStore(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		dir:    dir,
		logger: logger.With(slog.String("component", "artifact_store")),
	}
}

// Dir returns the export directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the absolute location of the named artifact.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Exists reports whether the named artifact is present.
func (s *Store) Exists(name string) bool {
	info, err := os.Stat(s.Path(name))
	return err == nil && !info.IsDir()
}

// Replace streams the named artifact through write into a temporary file
// and moves it into place in one step. The temporary file lives in the
// export directory itself so the rename never crosses filesystems.
func (s *Store) Replace(name string, write func(io.Writer) error) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temporary artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write artifact %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("sync artifact %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close artifact %s: %w", name, err)
	}

	final := s.Path(name)
	if err := os.Rename(tmp.Name(), final); err != nil {
		return "", fmt.Errorf("replace artifact %s: %w", name, err)
	}

	s.logger.Info("replaced artifact", slog.String("path", final))
	return final, nil
}

// Remove deletes the named artifact. Removing an artifact that does not
// exist is not an error.
func (s *Store) Remove(name string) error {
	err := os.Remove(s.Path(name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove artifact %s: %w", name, err)
	}
	return nil
}

// Artifact describes one exported file.
type Artifact struct {
	Name    string
	Path    string
	Size    int64
	ModTime time.Time
}

// List returns the artifacts currently exported, newest first. A missing
// export directory lists as empty. Leftover temporary files from an
// interrupted replacement are skipped.
func (s *Store) List() ([]Artifact, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read export directory: %w", err)
	}

	var artifacts []Artifact
	for _, entry := range entries {
		if entry.IsDir() || strings.Contains(entry.Name(), ".tmp-") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		artifacts = append(artifacts, Artifact{
			Name:    entry.Name(),
			Path:    filepath.Join(s.dir, entry.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(artifacts, func(i, j int) bool {
		return artifacts[i].ModTime.After(artifacts[j].ModTime)
	})
	return artifacts, nil
}
