package services

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waterq/internal/config"
	"waterq/internal/files"
	"waterq/internal/pipeline"
	api "waterq/pkg/contracts/api/v1"
)

const sourceCSV = `STATION CODE,LOCATIONS,STATE,Temp,D.O. (mg/l),PH,CONDUCTIVITY (µhos/cm),B.O.D. (mg/l),NITRATENAN N+ NITRITENANN (mg/l),FECAL COLIFORM (MPN/100ml),TOTAL COLIFORM (MPN/100ml)Mean,year
1001,MANDOVI,GOA,25,6.0,7.0,200,1.0,0.5,100,200,2003
1002,ZUARI,GOA,25,6.4,7.4,400,1.4,0.6,150,250,2004
2001,PERIYAR,KERALA,25,5.0,6.0,800,4.0,1.0,900,1200,2003
2002,BHARATHAPUZHA,KERALA,25,4.0,9.0,1000,5.0,1.2,1000,1500,2005
3001,YAMUNA,NARNIA,25,6.0,7.0,300,1.0,0.5,100,200,2004
`

type countingMetrics struct {
	builds, hits, misses atomic.Int64
}

func (m *countingMetrics) RecordBuild(context.Context, float64, int) { m.builds.Add(1) }
func (m *countingMetrics) RecordCacheHit(context.Context)            { m.hits.Add(1) }
func (m *countingMetrics) RecordCacheMiss(context.Context)           { m.misses.Add(1) }

func newTestService(t *testing.T, csv string, metrics BuildMetrics) (*DatasetService, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "water.csv")
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))
	return NewDatasetService(path, pipeline.New(nil, nil), nil, metrics), path
}

func TestSnapshotMemoized(t *testing.T) {
	metrics := &countingMetrics{}
	s, path := newTestService(t, sourceCSV, metrics)
	ctx := context.Background()

	first, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Builds())

	second, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Same(t, first, second, "identical bytes reuse the build")
	assert.Equal(t, int64(1), metrics.builds.Load())
	assert.GreaterOrEqual(t, metrics.hits.Load(), int64(1))

	t.Run("changed bytes key a new build", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte(sourceCSV+"3002,GHAGGAR,PUNJAB,25,6.0,7.0,300,1.0,0.5,100,200,2006\n"), 0o644))

		third, err := s.Snapshot(ctx)
		require.NoError(t, err)
		assert.NotSame(t, first, third)
		assert.NotEqual(t, first.Fingerprint, third.Fingerprint)
		assert.Equal(t, 2, s.Builds())
	})

	t.Run("old content is never invalidated", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte(sourceCSV), 0o644))

		back, err := s.Snapshot(ctx)
		require.NoError(t, err)
		assert.Same(t, first, back)
		assert.Equal(t, 2, s.Builds())
	})
}

func TestSnapshotConcurrent(t *testing.T) {
	metrics := &countingMetrics{}
	s, _ := newTestService(t, sourceCSV, metrics)

	const callers = 16
	results := make([]*pipeline.Result, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := s.Snapshot(context.Background())
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	wg.Wait()

	for i := 1; i < callers; i++ {
		assert.Same(t, results[0], results[i])
	}
	assert.Equal(t, int64(1), metrics.builds.Load(), "concurrent first requests share one build")
}

func TestSnapshotExportsArtifact(t *testing.T) {
	s, path := newTestService(t, sourceCSV, nil)
	store := files.NewStore(filepath.Join(filepath.Dir(path), "exports"), nil)
	s.ExportTo(store)
	ctx := context.Background()

	_, err := s.Snapshot(ctx)
	require.NoError(t, err)
	require.True(t, store.Exists(config.ProcessedCSVName))

	first, err := os.ReadFile(store.Path(config.ProcessedCSVName))
	require.NoError(t, err)
	assert.Contains(t, string(first), "ph_status")
	assert.Contains(t, string(first), "MANDOVI")

	// A cache hit leaves the artifact alone; only new builds rewrite it.
	before, err := os.Stat(store.Path(config.ProcessedCSVName))
	require.NoError(t, err)
	_, err = s.Snapshot(ctx)
	require.NoError(t, err)
	after, err := os.Stat(store.Path(config.ProcessedCSVName))
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())

	t.Run("new build refreshes the artifact", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte(sourceCSV+"3002,GHAGGAR,PUNJAB,25,6.0,7.0,300,1.0,0.5,100,200,2006\n"), 0o644))

		_, err := s.Snapshot(ctx)
		require.NoError(t, err)

		refreshed, err := os.ReadFile(store.Path(config.ProcessedCSVName))
		require.NoError(t, err)
		assert.Contains(t, string(refreshed), "GHAGGAR")
	})
}

func TestSnapshotMissingSource(t *testing.T) {
	s := NewDatasetService(filepath.Join(t.TempDir(), "absent.csv"), pipeline.New(nil, nil), nil, nil)

	_, err := s.Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestSnapshotBuildFailure(t *testing.T) {
	s, _ := newTestService(t, "", nil)

	_, err := s.Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrBuildFailed)
	assert.Contains(t, err.Error(), "no header row")
}

func TestOverview(t *testing.T) {
	s, _ := newTestService(t, sourceCSV, nil)

	ov, err := s.Overview(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "water.csv", ov.SourceFile)
	assert.Len(t, ov.Fingerprint, 64)
	assert.Equal(t, 5, ov.Rows)
	assert.Equal(t, 3, ov.RegionCount)
	require.NotNil(t, ov.YearMin)
	require.NotNil(t, ov.YearMax)
	assert.Equal(t, 2003, *ov.YearMin)
	assert.Equal(t, 2005, *ov.YearMax)
	assert.Contains(t, ov.Columns, "ph_status")
	assert.False(t, ov.BuiltAt.IsZero())
}

func TestReport(t *testing.T) {
	s, _ := newTestService(t, sourceCSV, nil)

	report, err := s.Report(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, report.RawRows)
	assert.Equal(t, 5, report.Rows)
	assert.Equal(t, 0, report.DuplicatesRemoved)
	assert.Equal(t, 1, report.UnresolvedRegions)
	assert.Len(t, report.Stages, len(pipeline.StageNames))
}

func TestRecords(t *testing.T) {
	s, _ := newTestService(t, sourceCSV, nil)
	ctx := context.Background()

	t.Run("default paging", func(t *testing.T) {
		records, total, err := s.Records(ctx, api.FilterRequest{}, api.PageRequest{})
		require.NoError(t, err)
		assert.Equal(t, 5, total)
		assert.Len(t, records, 5)
		assert.Equal(t, "1001", records[0]["station_code"])
		assert.Equal(t, 7.0, records[0]["ph"])
	})

	t.Run("bounded page", func(t *testing.T) {
		records, total, err := s.Records(ctx, api.FilterRequest{}, api.PageRequest{Limit: 2, Offset: 3})
		require.NoError(t, err)
		assert.Equal(t, 5, total)
		require.Len(t, records, 2)
		assert.Equal(t, "2002", records[0]["station_code"])
	})

	t.Run("offset past the end", func(t *testing.T) {
		records, total, err := s.Records(ctx, api.FilterRequest{}, api.PageRequest{Limit: 2, Offset: 10})
		require.NoError(t, err)
		assert.Equal(t, 5, total)
		assert.Empty(t, records)
	})

	t.Run("filter shrinks totals", func(t *testing.T) {
		records, total, err := s.Records(ctx, api.FilterRequest{Regions: []string{"goa"}}, api.PageRequest{})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Len(t, records, 2)
	})
}
