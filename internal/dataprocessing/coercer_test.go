package dataprocessing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waterq/internal/dataset"
	"waterq/pkg/contracts/domain"
)

func TestCoerceCell(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    float64
		present bool
	}{
		{"plain decimal", "7.2", 7.2, true},
		{"padded", "  7.2  ", 7.2, true},
		{"integer", "450", 450, true},
		{"negative", "-3", -3, true},
		{"scientific", "1e3", 1000, true},
		{"empty", "", 0, false},
		{"whitespace only", "   ", 0, false},
		{"nan upper", "NAN", 0, false},
		{"nan lower", "nan", 0, false},
		{"nan padded", " NaN ", 0, false},
		{"junk", "n/a", 0, false},
		{"unit suffix", "7.2 mg/l", 0, false},
		{"infinity token", "Infinity", 0, false},
		{"inf token", "-inf", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := CoerceCell(tt.raw)
			assert.Equal(t, tt.present, ok)
			if tt.present {
				assert.Equal(t, tt.want, v)
			}
		})
	}
}

func TestCoercerApply(t *testing.T) {
	c := NewCoercer(nil)
	ctx := context.Background()

	f := dataset.NewFrame()
	require.NoError(t, f.AddColumn(dataset.NewTextColumn(domain.ColState, []string{"GOA", "GOA", "KERALA"})))
	require.NoError(t, f.AddColumn(dataset.NewTextColumn(domain.ColPH, []string{"7.2", "NAN", "8.1"})))
	require.NoError(t, f.AddColumn(dataset.NewTextColumn(domain.ColDO, []string{"6.5", "5.9", ""})))
	require.NoError(t, f.AddColumn(dataset.NewTextColumn(domain.ColYear, []string{"2003", "", "2014"})))

	require.NoError(t, c.Apply(ctx, f))

	ph, ok := f.Column(domain.ColPH)
	require.True(t, ok)
	assert.Equal(t, dataset.KindNumber, ph.Kind())
	v, present := ph.Number(0)
	assert.True(t, present)
	assert.Equal(t, 7.2, v)
	_, present = ph.Number(1)
	assert.False(t, present, "NAN token becomes a missing cell")

	do, ok := f.Column(domain.ColDO)
	require.True(t, ok)
	assert.Equal(t, 1, do.Missing())

	state, ok := f.Column(domain.ColState)
	require.True(t, ok)
	assert.Equal(t, dataset.KindText, state.Kind(), "identity columns stay text")

	year, ok := f.Column(domain.ColYear)
	require.True(t, ok)
	assert.Equal(t, dataset.KindNumber, year.Kind())

	date, ok := f.Column(domain.ColDate)
	require.True(t, ok)
	assert.Equal(t, "2003-01-01", date.Text(0))
	assert.Equal(t, "", date.Text(1), "missing year derives no date")
	assert.Equal(t, "2014-01-01", date.Text(2))

	t.Run("idempotent", func(t *testing.T) {
		require.NoError(t, c.Apply(ctx, f))
		assert.Equal(t, dataset.KindNumber, ph.Kind())
		again, ok := f.Column(domain.ColDate)
		require.True(t, ok)
		assert.Equal(t, "2003-01-01", again.Text(0))
	})
}

func TestCoercerApplyWithoutYear(t *testing.T) {
	c := NewCoercer(nil)

	f := dataset.NewFrame()
	require.NoError(t, f.AddColumn(dataset.NewTextColumn(domain.ColPH, []string{"7.0"})))

	require.NoError(t, c.Apply(context.Background(), f))
	assert.False(t, f.Has(domain.ColDate), "no year means no derived date")
}
