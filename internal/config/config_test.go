package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, DefaultReadTimeout, cfg.Server.ReadTimeout)
	assert.Equal(t, DefaultShutdownTimeout, cfg.Server.ShutdownTimeout)
	assert.Equal(t, DefaultSourceFile, cfg.Dataset.SourceFile)
	assert.Equal(t, DefaultExportDir, cfg.Dataset.ExportDir)
	assert.True(t, cfg.Dataset.ExportArtifact)
	assert.True(t, cfg.Security.RateLimit.Enabled)
	assert.InDelta(t, DefaultRateLimitRPS, cfg.Security.RateLimit.RPS, 1e-9)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, WebSocketPingPeriod, cfg.WebSocket.PingPeriod)

	require.NoError(t, cfg.validate())
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9090
dataset:
  source_file: testdata/samples.csv
logging:
  level: debug
security:
  rate_limit:
    enabled: true
    rps: 25
    burst: 10
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "testdata/samples.csv", cfg.Dataset.SourceFile)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.InDelta(t, 25.0, cfg.Security.RateLimit.RPS, 1e-9)
	assert.Equal(t, 10, cfg.Security.RateLimit.Burst)

	// Fields absent from the file keep their defaults.
	assert.Equal(t, DefaultWriteTimeout, cfg.Server.WriteTimeout)
	assert.Equal(t, DefaultExportDir, cfg.Dataset.ExportDir)
}

func TestLoadFileEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9090
dataset:
  source_file: testdata/from_yaml.csv
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("WATERQ_SERVER_PORT", "7070")
	t.Setenv("WATERQ_SERVER_READ_TIMEOUT", "20s")
	t.Setenv("WATERQ_DATASET_SOURCE_FILE", "testdata/from_env.csv")
	t.Setenv("WATERQ_SECURITY_ALLOWED_ORIGINS", "http://a.example,http://b.example")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 20*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "testdata/from_env.csv", cfg.Dataset.SourceFile)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.Security.AllowedOrigins)
}

func TestLoadFileErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o644))

		_, err := LoadFile(path)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "parse config file")
	})
}

func TestLoadWithoutFile(t *testing.T) {
	// No config.yaml exists in the package directory, so Load falls
	// back to defaults plus environment.
	t.Setenv("WATERQ_LOGGING_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, DefaultSourceFile, cfg.Dataset.SourceFile)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "valid defaults",
			mutate:  func(*Config) {},
			wantErr: "",
		},
		{
			name:    "port zero",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "invalid server port",
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "invalid server port",
		},
		{
			name:    "zero read timeout",
			mutate:  func(c *Config) { c.Server.ReadTimeout = 0 },
			wantErr: "read timeout",
		},
		{
			name:    "empty source file",
			mutate:  func(c *Config) { c.Dataset.SourceFile = "" },
			wantErr: "source file",
		},
		{
			name: "rate limit enabled with zero rps",
			mutate: func(c *Config) {
				c.Security.RateLimit.Enabled = true
				c.Security.RateLimit.RPS = 0
			},
			wantErr: "rate limit rps",
		},
		{
			name: "rate limit disabled ignores rps",
			mutate: func(c *Config) {
				c.Security.RateLimit.Enabled = false
				c.Security.RateLimit.RPS = 0
			},
			wantErr: "",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			err := cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidateNormalizesLogging(t *testing.T) {
	cfg := Default()
	cfg.Logging.Format = "text"
	cfg.Logging.Output = "syslog"
	cfg.Logging.FilePath = ""

	require.NoError(t, cfg.validate())

	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "both", cfg.Logging.Output)
	assert.Equal(t, "logs/app.log", cfg.Logging.FilePath)
}
