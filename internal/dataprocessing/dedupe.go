package dataprocessing

import (
	"context"
	"log/slog"

	"waterq/internal/dataset"
)

// Deduplicator removes exact-duplicate records. Equality spans every
// column; near-duplicates differing in a single cell are retained.
type Deduplicator struct {
	logger *slog.Logger
}

// NewDeduplicator creates a deduplicator. A nil logger falls back to the
// default logger.
func NewDeduplicator(logger *slog.Logger) *Deduplicator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Deduplicator{
		logger: logger.With(slog.String("component", "deduplicator")),
	}
}

// Apply returns the frame with duplicate rows removed, keeping the first
// occurrence, and the number of rows dropped. When nothing is duplicated
// the input frame is returned as-is.
func (d *Deduplicator) Apply(ctx context.Context, f *dataset.Frame) (*dataset.Frame, int) {
	seen := make(map[string]struct{}, f.Rows())
	mask := make([]bool, f.Rows())
	removed := 0

	for i := 0; i < f.Rows(); i++ {
		key := f.RowKey(i)
		if _, dup := seen[key]; dup {
			removed++
			continue
		}
		seen[key] = struct{}{}
		mask[i] = true
	}

	if removed == 0 {
		return f, 0
	}

	d.logger.InfoContext(ctx, "removed duplicate records",
		slog.Int("removed", removed),
		slog.Int("remaining", f.Rows()-removed))
	return f.Select(mask), removed
}
