package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPaths(t *testing.T) {
	cfg := Default()
	cfg.Dataset.SourceFile = "data/in.csv"
	cfg.Dataset.ExportDir = "out"
	cfg.Logging.FilePath = "var/log/app.log"

	p := NewPaths(&cfg)

	assert.Equal(t, "data/in.csv", p.SourceFile)
	assert.Equal(t, "out", p.ExportDir)
	assert.Equal(t, "var/log", p.LogsDir)

	assert.Equal(t, filepath.Join("out", ProcessedCSVName), p.ProcessedCSVPath())
	assert.Equal(t, filepath.Join("out", SummaryWorkbookName), p.SummaryWorkbookPath())
}

func TestNewPathsBareLogFile(t *testing.T) {
	cfg := Default()
	cfg.Logging.FilePath = "app.log"

	p := NewPaths(&cfg)
	assert.Equal(t, DefaultLogsDir, p.LogsDir)
}

func TestEnsureDirectories(t *testing.T) {
	root := t.TempDir()
	p := &Paths{
		ExportDir: filepath.Join(root, "exports", "nested"),
		LogsDir:   filepath.Join(root, "logs"),
	}

	require.NoError(t, p.EnsureDirectories())

	for _, dir := range []string{p.ExportDir, p.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}

	// Idempotent.
	assert.NoError(t, p.EnsureDirectories())
}
