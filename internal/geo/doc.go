// Package geo resolves Indian state and union territory names to
// representative map coordinates.
//
// Monitoring records carry a free-form state name but no position, so the
// map view needs a gazetteer. Resolution is a static centroid table keyed
// by the canonical (trimmed, upper-cased) region name; there is no network
// lookup. Names outside the table resolve to missing coordinates and are
// reported, never dropped.
package geo
