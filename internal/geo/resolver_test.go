package geo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waterq/internal/dataset"
	"waterq/pkg/contracts/domain"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		found bool
		lat   float64
	}{
		{"exact", "GOA", true, 15.2993},
		{"mixed case", "Goa", true, 15.2993},
		{"padded", "  kerala  ", true, 10.8505},
		{"union territory", "PUDUCHERRY", true, 11.9416},
		{"pre-2019 name", "JAMMU & KASHMIR", true, 33.7782},
		{"unknown", "NARNIA", false, 0},
		{"empty", "", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, found := Lookup(tt.raw)
			assert.Equal(t, tt.found, found)
			if found {
				assert.Equal(t, tt.lat, p.Lat)
			}
		})
	}
}

func TestRegions(t *testing.T) {
	regions := Regions()
	assert.Len(t, regions, 37)
	assert.IsNonDecreasing(t, regions)
	assert.Contains(t, regions, "TAMIL NADU")
}

func TestResolverApply(t *testing.T) {
	r := NewResolver(nil)
	ctx := context.Background()

	f := dataset.NewFrame()
	require.NoError(t, f.AddColumn(dataset.NewTextColumn(domain.ColState,
		[]string{"GOA", "goa ", "NARNIA", ""})))

	unresolved, err := r.Apply(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, []string{"NARNIA"}, unresolved, "blank cells are not reported")

	lat, ok := f.Column(domain.ColLat)
	require.True(t, ok)
	lon, ok := f.Column(domain.ColLon)
	require.True(t, ok)

	v, present := lat.Number(0)
	assert.True(t, present)
	assert.Equal(t, 15.2993, v)
	v, present = lon.Number(1)
	assert.True(t, present, "case and padding are normalized before lookup")
	assert.Equal(t, 74.1240, v)

	_, present = lat.Number(2)
	assert.False(t, present, "unknown region resolves to missing coordinates")
	_, present = lon.Number(3)
	assert.False(t, present)

	t.Run("idempotent", func(t *testing.T) {
		again, err := r.Apply(ctx, f)
		require.NoError(t, err)
		assert.Equal(t, []string{"NARNIA"}, again)
	})
}

func TestResolverApplyWithoutState(t *testing.T) {
	r := NewResolver(nil)

	f := dataset.NewFrame()
	require.NoError(t, f.AddColumn(dataset.NewNumberColumn(domain.ColPH, []float64{7}, nil)))

	unresolved, err := r.Apply(context.Background(), f)
	require.NoError(t, err)
	assert.Nil(t, unresolved)
	assert.False(t, f.Has(domain.ColLat))
	assert.False(t, f.Has(domain.ColLon))
}
