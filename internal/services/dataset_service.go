package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"waterq/internal/config"
	"waterq/internal/dataset"
	"waterq/internal/exporter"
	"waterq/internal/files"
	"waterq/internal/geo"
	"waterq/internal/pipeline"
	"waterq/internal/quality"
	api "waterq/pkg/contracts/api/v1"
	"waterq/pkg/contracts/domain"
)

// BuildMetrics receives cache and build measurements from the dataset
// service. Implementations must tolerate concurrent calls.
type BuildMetrics interface {
	RecordBuild(ctx context.Context, seconds float64, rows int)
	RecordCacheHit(ctx context.Context)
	RecordCacheMiss(ctx context.Context)
}

// DatasetService serves the enriched dataset. Builds are memoized by
// content fingerprint: the source file is re-read and re-hashed per
// request, but the pipeline only runs when the bytes changed. Cached
// results are never invalidated; replacing the file contents simply keys
// a new build.
type DatasetService struct {
	sourcePath string
	pipe       *pipeline.Pipeline
	detector   *quality.Detector
	logger     *slog.Logger
	metrics    BuildMetrics
	artifacts  *files.Store
	csv        *exporter.CSVWriter

	mu     sync.RWMutex
	builds map[string]*pipeline.Result
	group  singleflight.Group
}

// NewDatasetService creates a dataset service over the source file at
// sourcePath. A nil logger falls back to the default logger; metrics may
// be nil.
func NewDatasetService(sourcePath string, pipe *pipeline.Pipeline, logger *slog.Logger, metrics BuildMetrics) *DatasetService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DatasetService{
		sourcePath: sourcePath,
		pipe:       pipe,
		detector:   quality.NewDetector(logger),
		logger:     logger.With(slog.String("component", "dataset_service")),
		metrics:    metrics,
	}
}

// ExportTo configures the service to refresh the processed CSV artifact
// in store after every completed build. Export failures are logged, never
// surfaced to the request that triggered the build. Must be called before
// the service starts handling requests.
func (s *DatasetService) ExportTo(store *files.Store) {
	s.artifacts = store
	s.csv = exporter.NewCSVWriter(s.logger)
}

// Snapshot returns the build matching the current source bytes, running
// the pipeline when no cached result exists. Concurrent first requests
// share a single build.
func (s *DatasetService) Snapshot(ctx context.Context) (*pipeline.Result, error) {
	raw, err := os.ReadFile(s.sourcePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSourceUnavailable, s.sourcePath)
	}
	fingerprint := pipeline.Fingerprint(raw)

	s.mu.RLock()
	res, ok := s.builds[fingerprint]
	s.mu.RUnlock()
	if ok {
		if s.metrics != nil {
			s.metrics.RecordCacheHit(ctx)
		}
		return res, nil
	}

	v, err, shared := s.group.Do(fingerprint, func() (interface{}, error) {
		s.mu.RLock()
		res, ok := s.builds[fingerprint]
		s.mu.RUnlock()
		if ok {
			return res, nil
		}

		if s.metrics != nil {
			s.metrics.RecordCacheMiss(ctx)
		}
		started := time.Now()

		// The build outlives any single caller once started.
		res, buildErr := s.pipe.Run(context.WithoutCancel(ctx), s.sourcePath, raw)
		if buildErr != nil {
			return nil, buildErr
		}

		s.mu.Lock()
		if s.builds == nil {
			s.builds = make(map[string]*pipeline.Result)
		}
		s.builds[fingerprint] = res
		s.mu.Unlock()

		if s.metrics != nil {
			s.metrics.RecordBuild(ctx, time.Since(started).Seconds(), res.Report.Rows)
		}
		if s.artifacts != nil {
			s.exportArtifact(ctx, res)
		}
		return res, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildFailed, err)
	}
	if shared {
		s.logger.DebugContext(ctx, "joined in-flight build",
			slog.String("fingerprint", fingerprint[:12]))
	}
	return v.(*pipeline.Result), nil
}

// exportArtifact refreshes the processed CSV snapshot on disk.
func (s *DatasetService) exportArtifact(ctx context.Context, res *pipeline.Result) {
	path, err := s.artifacts.Replace(config.ProcessedCSVName, func(w io.Writer) error {
		_, err := s.csv.Write(w, res.Frame, exporter.WriteOptions{})
		return err
	})
	if err != nil {
		s.logger.WarnContext(ctx, "artifact export failed",
			slog.String("error", err.Error()))
		return
	}
	s.logger.InfoContext(ctx, "artifact refreshed",
		slog.String("path", path),
		slog.Int("rows", res.Frame.Rows()))
}

// Builds reports how many distinct inputs have been built this process.
func (s *DatasetService) Builds() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.builds)
}

// SourcePath returns the configured source file path.
func (s *DatasetService) SourcePath() string { return s.sourcePath }

// Overview describes the snapshot currently being served.
func (s *DatasetService) Overview(ctx context.Context) (api.DatasetOverview, error) {
	res, err := s.Snapshot(ctx)
	if err != nil {
		return api.DatasetOverview{}, err
	}
	f := res.Frame

	ov := api.DatasetOverview{
		Fingerprint: res.Fingerprint,
		SourceFile:  filepath.Base(res.SourceFile),
		BuiltAt:     res.BuiltAt,
		Rows:        f.Rows(),
		Columns:     f.Columns(),
		RegionCount: len(distinctRegions(f)),
	}
	ov.YearMin, ov.YearMax = yearBounds(f)
	return ov, nil
}

// Report returns the cleaning report of the current build.
func (s *DatasetService) Report(ctx context.Context) (api.BuildReport, error) {
	res, err := s.Snapshot(ctx)
	if err != nil {
		return api.BuildReport{}, err
	}
	return res.Report, nil
}

// Records returns one page of the filtered dataset plus the total number
// of matching records. A non-positive limit falls back to 100.
func (s *DatasetService) Records(ctx context.Context, filter api.FilterRequest, page api.PageRequest) ([]api.Record, int, error) {
	res, err := s.Snapshot(ctx)
	if err != nil {
		return nil, 0, err
	}
	sub := applyFilter(res.Frame, filter)

	limit := page.Limit
	if limit <= 0 {
		limit = 100
	}
	rows := sub.Records(page.Offset, limit)
	records := make([]api.Record, len(rows))
	for i, r := range rows {
		records[i] = api.Record(r)
	}
	return records, sub.Rows(), nil
}

// Filtered returns the filtered frame of the current build. It backs the
// export endpoint, which streams the frame instead of materializing
// records.
func (s *DatasetService) Filtered(ctx context.Context, filter api.FilterRequest) (*dataset.Frame, error) {
	res, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return applyFilter(res.Frame, filter), nil
}

// numericColumn resolves a query column name against the frame, mapping
// failures to the package sentinels.
func numericColumn(f *dataset.Frame, name string) (*dataset.Column, error) {
	col, ok := f.Column(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, name)
	}
	if col.Kind() != dataset.KindNumber {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotNumeric, name)
	}
	return col, nil
}

// distinctRegions collects the canonical non-blank region names present.
func distinctRegions(f *dataset.Frame) map[string]struct{} {
	out := make(map[string]struct{})
	col, ok := f.Column(domain.ColState)
	if !ok || col.Kind() != dataset.KindText {
		return out
	}
	for i := 0; i < col.Len(); i++ {
		if name := geo.CanonicalRegion(col.Text(i)); name != "" {
			out[name] = struct{}{}
		}
	}
	return out
}

// yearBounds returns the inclusive year range of the frame, or nils when
// no usable year exists.
func yearBounds(f *dataset.Frame) (*int, *int) {
	col, ok := f.Column(domain.ColYear)
	if !ok || col.Kind() != dataset.KindNumber {
		return nil, nil
	}
	var lo, hi int
	found := false
	for i := 0; i < col.Len(); i++ {
		v, present := col.Number(i)
		if !present {
			continue
		}
		y := int(v)
		if !found || y < lo {
			lo = y
		}
		if !found || y > hi {
			hi = y
		}
		found = true
	}
	if !found {
		return nil, nil
	}
	return &lo, &hi
}
