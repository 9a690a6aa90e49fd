package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"waterq/internal/dataprocessing"
	"waterq/internal/dataset"
	"waterq/internal/geo"
	"waterq/internal/infrastructure"
	"waterq/internal/quality"
	api "waterq/pkg/contracts/api/v1"
)

// Stage names in execution order.
const (
	StageLoad        = "load"
	StageNormalize   = "normalize"
	StageCoerce      = "coerce"
	StageDeduplicate = "deduplicate"
	StageImpute      = "impute"
	StageClassify    = "classify"
	StageGeocode     = "geocode"
	StageAnomalies   = "detect_anomalies"
)

// StageNames lists every stage in execution order.
var StageNames = []string{
	StageLoad,
	StageNormalize,
	StageCoerce,
	StageDeduplicate,
	StageImpute,
	StageClassify,
	StageGeocode,
	StageAnomalies,
}

// Result is one completed build: the enriched frame plus its identity and
// cleaning report. Results are immutable once returned and safe to share
// across readers.
type Result struct {
	ID          string
	Fingerprint string
	SourceFile  string
	BuiltAt     time.Time
	Frame       *dataset.Frame
	Report      api.BuildReport
}

// Pipeline runs the enrichment stages over raw input bytes.
type Pipeline struct {
	logger     *slog.Logger
	notifier   Notifier
	metrics    *infrastructure.BusinessMetrics
	loader     *dataprocessing.Loader
	normalizer *dataprocessing.Normalizer
	coercer    *dataprocessing.Coercer
	dedup      *dataprocessing.Deduplicator
	imputer    *dataprocessing.Imputer
	classifier *quality.Classifier
	resolver   *geo.Resolver
	detector   *quality.Detector
}

// New assembles a pipeline. A nil logger falls back to the default
// logger; a nil notifier drops progress snapshots.
func New(logger *slog.Logger, notifier Notifier) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Pipeline{
		logger:     logger.With(slog.String("component", "pipeline")),
		notifier:   notifier,
		loader:     dataprocessing.NewLoader(logger),
		normalizer: dataprocessing.NewNormalizer(logger),
		coercer:    dataprocessing.NewCoercer(logger),
		dedup:      dataprocessing.NewDeduplicator(logger),
		imputer:    dataprocessing.NewImputer(logger),
		classifier: quality.NewClassifier(logger),
		resolver:   geo.NewResolver(logger),
		detector:   quality.NewDetector(logger),
	}
}

// Instrument routes per-stage and per-build measurements through
// metrics. A nil metrics leaves recording off; call before the first
// build.
func (p *Pipeline) Instrument(metrics *infrastructure.BusinessMetrics) {
	p.metrics = metrics
}

// RunFile reads the file at path and runs a build over its bytes.
func (p *Pipeline) RunFile(ctx context.Context, path string) (*Result, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return p.Run(ctx, path, raw)
}

// Run executes every stage over the raw bytes of sourceFile. The
// extension of sourceFile selects the decoder. Cell-level problems never
// fail a build; only unreadable input or cancellation do.
func (p *Pipeline) Run(ctx context.Context, sourceFile string, raw []byte) (*Result, error) {
	buildID := uuid.New().String()
	fingerprint := Fingerprint(raw)
	logger := p.logger.With(
		slog.String("build_id", buildID),
		slog.String("fingerprint", fingerprint[:12]))

	logger.InfoContext(ctx, "build started",
		slog.String("source", sourceFile),
		slog.Int("bytes", len(raw)))

	track := newTracker(buildID, fingerprint, p.notifier)
	report := api.BuildReport{}

	infrastructure.RecordActiveBuildChange(ctx, p.metrics, 1)
	defer infrastructure.RecordActiveBuildChange(ctx, p.metrics, -1)

	var f *dataset.Frame
	runStage := func(name string, fn func(context.Context) error) error {
		if err := ctx.Err(); err != nil {
			track.fail(name, err, 0)
			infrastructure.RecordBuildError(ctx, p.metrics, fingerprint, err)
			return err
		}
		track.start(name)
		started := time.Now()
		if err := fn(ctx); err != nil {
			elapsed := time.Since(started)
			track.fail(name, err, elapsed.Seconds())
			infrastructure.RecordStageMetrics(ctx, p.metrics, fingerprint, name, elapsed, 0, false)
			infrastructure.RecordBuildError(ctx, p.metrics, fingerprint, err)
			logger.ErrorContext(ctx, "stage failed",
				slog.String("stage", name),
				slog.String("error", err.Error()))
			return fmt.Errorf("%s: %w", name, err)
		}
		elapsed := time.Since(started)
		report.Stages = append(report.Stages, api.StageReport{Name: name, Duration: elapsed.Seconds()})
		track.complete(name, f.Rows(), elapsed.Seconds())
		infrastructure.RecordStageMetrics(ctx, p.metrics, fingerprint, name, elapsed, f.Rows(), true)
		return nil
	}

	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{StageLoad, func(ctx context.Context) error {
			loaded, err := p.loader.LoadReader(ctx, sourceFile, bytes.NewReader(raw))
			if err != nil {
				return err
			}
			f = loaded
			report.RawRows = f.Rows()
			return nil
		}},
		{StageNormalize, func(ctx context.Context) error {
			return p.normalizer.Apply(ctx, f)
		}},
		{StageCoerce, func(ctx context.Context) error {
			return p.coercer.Apply(ctx, f)
		}},
		{StageDeduplicate, func(ctx context.Context) error {
			deduped, removed := p.dedup.Apply(ctx, f)
			f = deduped
			report.DuplicatesRemoved = removed
			return nil
		}},
		{StageImpute, func(ctx context.Context) error {
			report.Columns = columnQuality(p.imputer.Apply(ctx, f))
			return nil
		}},
		{StageClassify, func(ctx context.Context) error {
			return p.classifier.Apply(ctx, f)
		}},
		{StageGeocode, func(ctx context.Context) error {
			unresolved, err := p.resolver.Apply(ctx, f)
			if err != nil {
				return err
			}
			report.UnresolvedRegions = len(unresolved)
			return nil
		}},
		{StageAnomalies, func(ctx context.Context) error {
			return p.detector.Annotate(ctx, f)
		}},
	}

	for _, step := range steps {
		if err := runStage(step.name, step.fn); err != nil {
			return nil, err
		}
	}

	report.Rows = f.Rows()
	track.finish()

	logger.InfoContext(ctx, "build completed",
		slog.Int("raw_rows", report.RawRows),
		slog.Int("rows", report.Rows),
		slog.Int("duplicates_removed", report.DuplicatesRemoved),
		slog.Int("unresolved_regions", report.UnresolvedRegions))

	return &Result{
		ID:          buildID,
		Fingerprint: fingerprint,
		SourceFile:  sourceFile,
		BuiltAt:     time.Now().UTC(),
		Frame:       f,
		Report:      report,
	}, nil
}

// columnQuality converts imputation outcomes into the report contract.
// Undefined medians serialize as null.
func columnQuality(results []dataprocessing.ImputeResult) []api.ColumnQuality {
	out := make([]api.ColumnQuality, 0, len(results))
	for _, r := range results {
		q := api.ColumnQuality{
			Column:        r.Column,
			MissingBefore: r.MissingBefore,
			Imputed:       r.Imputed,
		}
		if r.HasMedian {
			m := r.Median
			q.Median = &m
		}
		out = append(out, q)
	}
	return out
}
