package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths resolves the directories the application reads and writes.
type Paths struct {
	// SourceFile is the raw dataset the pipeline ingests.
	SourceFile string
	// ExportDir receives the processed CSV and the summary workbook.
	ExportDir string
	// LogsDir receives the application log file.
	LogsDir string
}

// NewPaths derives the filesystem layout from the configuration.
func NewPaths(cfg *Config) *Paths {
	logsDir := DefaultLogsDir
	if cfg.Logging.FilePath != "" {
		if dir := filepath.Dir(cfg.Logging.FilePath); dir != "." {
			logsDir = dir
		}
	}
	return &Paths{
		SourceFile: cfg.Dataset.SourceFile,
		ExportDir:  cfg.Dataset.ExportDir,
		LogsDir:    logsDir,
	}
}

// ProcessedCSVPath returns the destination for the enriched CSV artifact.
func (p *Paths) ProcessedCSVPath() string {
	return filepath.Join(p.ExportDir, ProcessedCSVName)
}

// SummaryWorkbookPath returns the destination for the XLSX summary.
func (p *Paths) SummaryWorkbookPath() string {
	return filepath.Join(p.ExportDir, SummaryWorkbookName)
}

// EnsureDirectories creates the writable directories if they do not exist.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.ExportDir, p.LogsDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}
