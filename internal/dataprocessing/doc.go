// Package dataprocessing provides the cleaning stages of the water quality
// pipeline: loading raw tables, normalizing headers to the canonical
// schema, coercing cells to typed values, removing exact duplicates and
// imputing missing measurements.
//
// # Architecture
//
// The package is organized around four stage types plus a loader:
//
//  1. Loader: reads CSV or XLSX input into an all-text frame
//  2. Normalizer: canonicalizes headers and applies the rename table
//  3. Coercer: converts year and measurement columns to numbers
//  4. Deduplicator: drops exact-duplicate rows, keeping the first
//  5. Imputer: fills missing measurements with per-column medians
//
// # Data Flow
//
// The typical flow through this package:
//
//	Raw file → Loader → text Frame → Normalizer → Coercer → Deduplicator → Imputer → clean Frame
//
// # Error Handling
//
// Cell-level problems never fail a run: an unparsable or sentinel cell
// becomes a missing value and processing continues. Only file-level
// failures (unreadable input, no header row) return errors.
package dataprocessing
