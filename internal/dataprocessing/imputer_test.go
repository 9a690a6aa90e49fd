package dataprocessing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waterq/internal/dataset"
	"waterq/pkg/contracts/domain"
)

func imputeOne(t *testing.T, name string, values []float64, valid []bool) (*dataset.Frame, ImputeResult) {
	t.Helper()
	f := dataset.NewFrame()
	require.NoError(t, f.AddColumn(dataset.NewNumberColumn(name, values, valid)))

	results := NewImputer(nil).Apply(context.Background(), f)
	require.Len(t, results, 1)
	return f, results[0]
}

func TestImputerApply(t *testing.T) {
	t.Run("odd count fills exact median", func(t *testing.T) {
		f, res := imputeOne(t, domain.ColPH,
			[]float64{6.0, 0, 8.0, 7.0},
			[]bool{true, false, true, true})

		assert.Equal(t, 1, res.MissingBefore)
		assert.Equal(t, 1, res.Imputed)
		assert.True(t, res.HasMedian)
		assert.Equal(t, 7.0, res.Median)

		col, _ := f.Column(domain.ColPH)
		v, present := col.Number(1)
		assert.True(t, present)
		assert.Equal(t, 7.0, v)
		assert.Equal(t, 0, col.Missing())
	})

	t.Run("even count averages middle pair", func(t *testing.T) {
		_, res := imputeOne(t, domain.ColBOD,
			[]float64{1, 2, 3, 100, 0},
			[]bool{true, true, true, true, false})

		assert.Equal(t, 2.5, res.Median)
		assert.Equal(t, 1, res.Imputed)
	})

	t.Run("complete column untouched", func(t *testing.T) {
		f, res := imputeOne(t, domain.ColDO, []float64{5, 6, 7}, nil)

		assert.Equal(t, 0, res.MissingBefore)
		assert.Equal(t, 0, res.Imputed)
		assert.True(t, res.HasMedian)
		assert.Equal(t, 6.0, res.Median)

		col, _ := f.Column(domain.ColDO)
		v, _ := col.Number(0)
		assert.Equal(t, 5.0, v)
	})

	t.Run("entirely missing column left missing", func(t *testing.T) {
		f, res := imputeOne(t, domain.ColNitrate,
			[]float64{0, 0},
			[]bool{false, false})

		assert.Equal(t, 2, res.MissingBefore)
		assert.Equal(t, 0, res.Imputed)
		assert.False(t, res.HasMedian)

		col, _ := f.Column(domain.ColNitrate)
		assert.Equal(t, 2, col.Missing())
	})

	t.Run("non-measurement columns skipped", func(t *testing.T) {
		f := dataset.NewFrame()
		require.NoError(t, f.AddColumn(dataset.NewTextColumn(domain.ColState, []string{"GOA"})))
		require.NoError(t, f.AddColumn(dataset.NewNumberColumn(domain.ColYear, []float64{2003}, nil)))

		results := NewImputer(nil).Apply(context.Background(), f)
		assert.Empty(t, results)
	})

	t.Run("idempotent once filled", func(t *testing.T) {
		f, _ := imputeOne(t, domain.ColPH,
			[]float64{6.0, 0, 8.0},
			[]bool{true, false, true})

		results := NewImputer(nil).Apply(context.Background(), f)
		require.Len(t, results, 1)
		assert.Equal(t, 0, results[0].MissingBefore)
		assert.Equal(t, 0, results[0].Imputed)
	})
}
