package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"waterq/internal/config"
	"waterq/internal/exporter"
	"waterq/internal/files"
	"waterq/internal/infrastructure"
	"waterq/internal/pipeline"
	"waterq/internal/validation"
	"waterq/pkg/contracts/events"
)

func main() {
	configPath := flag.String("config", "", "explicit YAML config file (defaults to config.yaml lookup plus WATERQ_* environment)")
	sourceFile := flag.String("source", "", "input dataset, CSV or XLSX (overrides the configured source file)")
	exportDir := flag.String("out", "", "directory for exported artifacts (overrides the configured export dir)")
	skipWorkbook := flag.Bool("no-workbook", false, "skip the XLSX summary workbook")
	flag.Parse()

	cfg := loadConfig(*configPath)
	if *sourceFile != "" {
		cfg.Dataset.SourceFile = *sourceFile
	}
	if *exportDir != "" {
		cfg.Dataset.ExportDir = *exportDir
	}

	paths := config.NewPaths(cfg)
	if err := paths.EnsureDirectories(); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	logger.Info("Starting water quality processing",
		slog.String("source_file", paths.SourceFile),
		slog.String("export_dir", paths.ExportDir))

	// Fail before the pipeline spins up, not three stages in.
	checks := validation.NewFileValidator(logger)
	if err := checks.ValidateSourceFile(paths.SourceFile); err != nil {
		logger.Error("Source file failed preflight", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "preflight failed: %v\n", err)
		os.Exit(1)
	}
	if err := checks.ValidateOutputDirectory(paths.ExportDir); err != nil {
		logger.Error("Export directory failed preflight", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "preflight failed: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Processing %s\n", paths.SourceFile)

	pipe := pipeline.New(logger, newConsoleNotifier(os.Stdout))
	res, err := pipe.RunFile(ctx, paths.SourceFile)
	if err != nil {
		logger.Error("Build failed", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "build failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Build %s: %d rows, %d duplicates removed, %d unresolved regions\n",
		res.Fingerprint[:12],
		res.Report.Rows,
		res.Report.DuplicatesRemoved,
		res.Report.UnresolvedRegions)

	written, err := exportArtifacts(res, paths, *skipWorkbook, logger)
	if err != nil {
		logger.Error("Failed to export artifacts", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "export failed: %v\n", err)
		os.Exit(1)
	}
	for _, path := range written {
		fmt.Printf("Wrote %s\n", path)
	}

	logger.Info("Processing complete",
		slog.String("fingerprint", res.Fingerprint),
		slog.Int("rows", res.Report.Rows),
		slog.Int("artifacts", len(written)))
	fmt.Println("All artifacts written")
}

// loadConfig resolves the effective configuration. An explicit file must
// load; the ambient lookup falls back to defaults with a warning, so the
// CLI stays usable on a bare checkout.
func loadConfig(path string) *config.Config {
	if path != "" {
		cfg, err := config.LoadFile(path)
		if err != nil {
			slog.Error("Failed to load config file", "error", err)
			os.Exit(1)
		}
		return cfg
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		def := config.Default()
		cfg = &def
	}
	return cfg
}

// exportArtifacts writes the processed CSV and, unless skipped, the
// summary workbook. It returns the paths written, in order.
func exportArtifacts(res *pipeline.Result, paths *config.Paths, skipWorkbook bool, logger *slog.Logger) ([]string, error) {
	store := files.NewStore(paths.ExportDir, logger)

	csvPath, err := store.Replace(config.ProcessedCSVName, func(w io.Writer) error {
		_, err := exporter.NewCSVWriter(logger).Write(w, res.Frame, exporter.WriteOptions{})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("export processed CSV: %w", err)
	}
	written := []string{csvPath}

	if !skipWorkbook {
		workbookPath := paths.SummaryWorkbookPath()
		if err := exporter.NewWorkbook(logger).Write(workbookPath, res); err != nil {
			return written, fmt.Errorf("export summary workbook: %w", err)
		}
		written = append(written, workbookPath)
	}
	return written, nil
}

// consoleNotifier narrates stage progress on the console. It receives the
// same build snapshots the web service streams to websocket clients and
// prints each stage outcome once.
type consoleNotifier struct {
	out      io.Writer
	reported map[string]bool
}

func newConsoleNotifier(out io.Writer) *consoleNotifier {
	return &consoleNotifier{out: out, reported: make(map[string]bool)}
}

// Publish implements pipeline.Notifier.
func (c *consoleNotifier) Publish(snap events.BuildSnapshot) {
	for _, stage := range snap.Stages {
		if c.reported[stage.Name] {
			continue
		}
		switch stage.Status {
		case pipeline.StatusCompleted:
			fmt.Fprintf(c.out, "  %-18s %7d rows %9.3fs\n", stage.Name, stage.Rows, stage.Duration)
			c.reported[stage.Name] = true
		case pipeline.StatusFailed:
			fmt.Fprintf(c.out, "  %-18s failed: %s\n", stage.Name, stage.Error)
			c.reported[stage.Name] = true
		}
	}
}
