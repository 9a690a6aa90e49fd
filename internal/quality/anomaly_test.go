package quality

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waterq/internal/dataset"
	"waterq/pkg/contracts/domain"
)

// outlierFrame holds eleven zeros and one spike. The spike's standardized
// score is exactly 11/sqrt(12) ~= 3.175 regardless of its magnitude, which
// brackets the default threshold cleanly.
func outlierFrame(t *testing.T) *dataset.Frame {
	t.Helper()
	values := make([]float64, 12)
	values[11] = 100
	f := dataset.NewFrame()
	require.NoError(t, f.AddColumn(dataset.NewNumberColumn(domain.ColPH, values, nil)))
	return f
}

func TestDetect(t *testing.T) {
	d := NewDetector(nil)
	ctx := context.Background()

	t.Run("spike above threshold flagged", func(t *testing.T) {
		det, err := d.Detect(ctx, outlierFrame(t), domain.ColPH, 3.0)
		require.NoError(t, err)
		assert.True(t, det.Defined)
		assert.Equal(t, 1, det.Flagged)
		assert.True(t, det.Flags[11])
		for i := 0; i < 11; i++ {
			assert.False(t, det.Flags[i])
		}
	})

	t.Run("threshold is strict", func(t *testing.T) {
		score := 11 / math.Sqrt(12)
		det, err := d.Detect(ctx, outlierFrame(t), domain.ColPH, score)
		require.NoError(t, err)
		assert.Equal(t, 0, det.Flagged, "score equal to threshold must not flag")
	})

	t.Run("higher threshold flags nothing", func(t *testing.T) {
		det, err := d.Detect(ctx, outlierFrame(t), domain.ColPH, 3.2)
		require.NoError(t, err)
		assert.Equal(t, 0, det.Flagged)
	})

	t.Run("non-positive threshold uses default", func(t *testing.T) {
		det, err := d.Detect(ctx, outlierFrame(t), domain.ColPH, 0)
		require.NoError(t, err)
		assert.Equal(t, DefaultAnomalyThreshold, det.Threshold)
		assert.Equal(t, 1, det.Flagged)
	})

	t.Run("zero variance flags nothing", func(t *testing.T) {
		f := dataset.NewFrame()
		require.NoError(t, f.AddColumn(dataset.NewNumberColumn(domain.ColPH,
			[]float64{7, 7, 7, 7}, nil)))
		det, err := d.Detect(ctx, f, domain.ColPH, 3.0)
		require.NoError(t, err)
		assert.False(t, det.Defined)
		assert.Equal(t, 0, det.Flagged)
		assert.Equal(t, 0.0, det.StdDev)
	})

	t.Run("missing cells never flagged", func(t *testing.T) {
		values := make([]float64, 13)
		values[11] = 100
		valid := make([]bool, 13)
		for i := range valid {
			valid[i] = true
		}
		valid[12] = false
		f := dataset.NewFrame()
		require.NoError(t, f.AddColumn(dataset.NewNumberColumn(domain.ColPH, values, valid)))

		det, err := d.Detect(ctx, f, domain.ColPH, 3.0)
		require.NoError(t, err)
		assert.Equal(t, 1, det.Flagged)
		assert.False(t, det.Flags[12])
	})

	t.Run("deterministic on unchanged input", func(t *testing.T) {
		f := outlierFrame(t)
		first, err := d.Detect(ctx, f, domain.ColPH, 3.0)
		require.NoError(t, err)
		second, err := d.Detect(ctx, f, domain.ColPH, 3.0)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("unknown column rejected", func(t *testing.T) {
		_, err := d.Detect(ctx, outlierFrame(t), "turbidity", 3.0)
		assert.Error(t, err)
	})

	t.Run("text column rejected", func(t *testing.T) {
		f := dataset.NewFrame()
		require.NoError(t, f.AddColumn(dataset.NewTextColumn(domain.ColState, []string{"GOA"})))
		_, err := d.Detect(ctx, f, domain.ColState, 3.0)
		assert.Error(t, err)
	})
}

func TestAnnotate(t *testing.T) {
	d := NewDetector(nil)
	ctx := context.Background()

	f := outlierFrame(t)
	conductivity := make([]float64, 12)
	for i := range conductivity {
		conductivity[i] = 400
	}
	require.NoError(t, f.AddColumn(dataset.NewNumberColumn(domain.ColConductivity, conductivity, nil)))

	require.NoError(t, d.Annotate(ctx, f))

	phFlags, ok := f.Column(domain.AnomalyColumn(domain.ColPH))
	require.True(t, ok)
	assert.True(t, phFlags.Bool(11))
	assert.False(t, phFlags.Bool(0))

	ecFlags, ok := f.Column(domain.AnomalyColumn(domain.ColConductivity))
	require.True(t, ok, "constant column still gets a flag column")
	for i := 0; i < 12; i++ {
		assert.False(t, ecFlags.Bool(i))
	}

	assert.False(t, f.Has(domain.AnomalyColumn(domain.ColBOD)),
		"absent parameters get no flag column")

	t.Run("re-annotation replaces flags", func(t *testing.T) {
		require.NoError(t, d.Annotate(ctx, f))
		assert.Equal(t, 1, countFlags(t, f, domain.AnomalyColumn(domain.ColPH)))
	})
}

func countFlags(t *testing.T, f *dataset.Frame, column string) int {
	t.Helper()
	col, ok := f.Column(column)
	require.True(t, ok)
	n := 0
	for i := 0; i < col.Len(); i++ {
		if col.Bool(i) {
			n++
		}
	}
	return n
}
