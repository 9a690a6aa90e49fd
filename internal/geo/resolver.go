package geo

import (
	"context"
	"log/slog"
	"sort"

	"waterq/internal/dataset"
	"waterq/pkg/contracts/domain"
)

// Resolver enriches a frame with lat and lon columns derived from its
// state column.
type Resolver struct {
	logger *slog.Logger
}

// NewResolver creates a resolver. A nil logger falls back to the default
// logger.
func NewResolver(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		logger: logger.With(slog.String("component", "geo_resolver")),
	}
}

// Apply adds lat and lon number columns resolved from the state column
// and returns the distinct region names it could not resolve, sorted.
// Unresolved rows get missing coordinates. A frame without a state column
// gains no coordinate columns.
func (r *Resolver) Apply(ctx context.Context, f *dataset.Frame) ([]string, error) {
	col, ok := f.Column(domain.ColState)
	if !ok || col.Kind() != dataset.KindText {
		r.logger.WarnContext(ctx, "state column absent, skipping coordinate resolution")
		return nil, nil
	}

	n := col.Len()
	lat := make([]float64, n)
	lon := make([]float64, n)
	valid := make([]bool, n)
	unresolved := make(map[string]struct{})

	for i := 0; i < n; i++ {
		raw := col.Text(i)
		p, found := Lookup(raw)
		if !found {
			if name := CanonicalRegion(raw); name != "" {
				unresolved[name] = struct{}{}
			}
			continue
		}
		lat[i] = p.Lat
		lon[i] = p.Lon
		valid[i] = true
	}

	if err := f.PutColumn(dataset.NewNumberColumn(domain.ColLat, lat, valid)); err != nil {
		return nil, err
	}
	if err := f.PutColumn(dataset.NewNumberColumn(domain.ColLon, lon, append([]bool(nil), valid...))); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(unresolved))
	for name := range unresolved {
		names = append(names, name)
	}
	sort.Strings(names)

	if len(names) > 0 {
		r.logger.WarnContext(ctx, "regions missing from gazetteer",
			slog.Int("count", len(names)),
			slog.Any("regions", names))
	}
	return names, nil
}
