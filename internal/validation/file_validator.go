package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// FileValidator runs the filesystem preflight shared by both
// executables: the source dataset must be a readable table in a
// supported format and the export directory must accept writes before
// a build starts.
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a file validator.
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{logger: logger}
}

// ValidateSourceFile checks that path names a readable CSV or XLSX
// file. Failed checks are returned, not logged; the caller decides
// whether one is fatal (the batch CLI) or a warning (the server).
func (v *FileValidator) ValidateSourceFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("source file %s does not exist", path)
	}
	if err != nil {
		return fmt.Errorf("failed to stat source file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".csv" && ext != ".xlsx" {
		return fmt.Errorf("source file %s has unsupported format %q (want .csv or .xlsx)", path, ext)
	}
	// Workbooks left open in a spreadsheet editor leave ~$ lock files
	// beside the real file.
	if strings.HasPrefix(filepath.Base(path), "~$") {
		return fmt.Errorf("source file %s is an editor lock file", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("source file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("Source file validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateOutputDirectory ensures dir exists and accepts writes.
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	probe := filepath.Join(dir, ".write_test")
	file, err := os.Create(probe)
	if err != nil {
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	file.Close()
	os.Remove(probe)

	v.logger.Debug("Output directory validated", slog.String("directory", dir))
	return nil
}
