package dataprocessing

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"waterq/internal/dataset"
	"waterq/pkg/contracts/domain"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// CanonicalKey converts a raw header into its canonical snake_case form:
// trimmed, lower-cased, every run of non-alphanumeric characters collapsed
// to a single underscore, leading and trailing underscores stripped.
// Applying it to an already-canonical key is a no-op.
func CanonicalKey(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = nonAlnum.ReplaceAllString(key, "_")
	return strings.Trim(key, "_")
}

// renameTable maps canonical-but-verbose header keys to the short semantic
// names the rest of the pipeline addresses. Keys absent from the input are
// skipped, so partial schemas stay safe.
var renameTable = map[string]string{
	"locations":                     domain.ColLocation,
	"d_o_mg_l":                      domain.ColDO,
	"conductivity_hos_cm":           domain.ColConductivity,
	"b_o_d_mg_l":                    domain.ColBOD,
	"nitratenan_n_nitritenann_mg_l": domain.ColNitrate,
	"fecal_coliform_mpn_100ml":      domain.ColFecalColiform,
	"total_coliform_mpn_100ml_mean": domain.ColTotalColiform,
}

// Normalizer maps arbitrary raw headers onto the canonical schema.
type Normalizer struct {
	logger *slog.Logger
}

// NewNormalizer creates a normalizer. A nil logger falls back to the
// default logger.
func NewNormalizer(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{
		logger: logger.With(slog.String("component", "normalizer")),
	}
}

// Apply canonicalizes every header in place and then applies the rename
// table. Unrecognized columns pass through untouched. When two raw headers
// collapse onto the same key the first keeps it and later ones retain
// their raw names, so no data is lost.
func (n *Normalizer) Apply(ctx context.Context, f *dataset.Frame) error {
	for _, name := range f.Columns() {
		key := CanonicalKey(name)
		if key == name {
			continue
		}
		if err := f.RenameColumn(name, key); err != nil {
			n.logger.WarnContext(ctx, "header collision, keeping raw name",
				slog.String("header", name),
				slog.String("key", key))
		}
	}

	for from, to := range renameTable {
		if !f.Has(from) {
			continue
		}
		if err := f.RenameColumn(from, to); err != nil {
			n.logger.WarnContext(ctx, "rename collision, keeping canonical key",
				slog.String("from", from),
				slog.String("to", to))
		}
	}

	return nil
}
