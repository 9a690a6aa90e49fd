package validation

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileValidator_ValidateSourceFile(t *testing.T) {
	tests := []struct {
		name          string
		setupFunc     func(t *testing.T) string
		wantErr       bool
		errorContains string
	}{
		{
			name: "valid CSV file",
			setupFunc: func(t *testing.T) string {
				dir := t.TempDir()
				file := filepath.Join(dir, "water.csv")
				require.NoError(t, os.WriteFile(file, []byte("station,state\nA,GOA\n"), 0o644))
				return file
			},
			wantErr: false,
		},
		{
			name: "valid XLSX file",
			setupFunc: func(t *testing.T) string {
				dir := t.TempDir()
				file := filepath.Join(dir, "water.xlsx")
				require.NoError(t, os.WriteFile(file, []byte("stub"), 0o644))
				return file
			},
			wantErr: false,
		},
		{
			name: "missing file",
			setupFunc: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "absent.csv")
			},
			wantErr:       true,
			errorContains: "does not exist",
		},
		{
			name: "path is a directory",
			setupFunc: func(t *testing.T) string {
				return t.TempDir()
			},
			wantErr:       true,
			errorContains: "is a directory",
		},
		{
			name: "unsupported format",
			setupFunc: func(t *testing.T) string {
				dir := t.TempDir()
				file := filepath.Join(dir, "water.json")
				require.NoError(t, os.WriteFile(file, []byte("{}"), 0o644))
				return file
			},
			wantErr:       true,
			errorContains: "unsupported format",
		},
		{
			name: "editor lock file",
			setupFunc: func(t *testing.T) string {
				dir := t.TempDir()
				file := filepath.Join(dir, "~$water.xlsx")
				require.NoError(t, os.WriteFile(file, []byte("lock"), 0o644))
				return file
			},
			wantErr:       true,
			errorContains: "lock file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validator := NewFileValidator(slog.Default())
			path := tt.setupFunc(t)

			err := validator.ValidateSourceFile(path)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFileValidator_ValidateOutputDirectory(t *testing.T) {
	tests := []struct {
		name          string
		setupFunc     func(t *testing.T) string
		wantErr       bool
		errorContains string
	}{
		{
			name: "existing directory",
			setupFunc: func(t *testing.T) string {
				return t.TempDir()
			},
			wantErr: false,
		},
		{
			name: "nested directory is created",
			setupFunc: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "exports", "daily")
			},
			wantErr: false,
		},
		{
			name: "path occupied by a file",
			setupFunc: func(t *testing.T) string {
				dir := t.TempDir()
				file := filepath.Join(dir, "exports")
				require.NoError(t, os.WriteFile(file, []byte("not a dir"), 0o644))
				return file
			},
			wantErr:       true,
			errorContains: "failed to create output directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validator := NewFileValidator(slog.Default())
			dir := tt.setupFunc(t)

			err := validator.ValidateOutputDirectory(dir)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
			} else {
				require.NoError(t, err)
				info, statErr := os.Stat(dir)
				require.NoError(t, statErr)
				assert.True(t, info.IsDir())
				// The write probe cleans up after itself.
				assert.NoFileExists(t, filepath.Join(dir, ".write_test"))
			}
		})
	}
}

func TestNewFileValidatorNilLogger(t *testing.T) {
	validator := NewFileValidator(nil)
	require.NotNil(t, validator)

	dir := t.TempDir()
	assert.NoError(t, validator.ValidateOutputDirectory(dir))
}
