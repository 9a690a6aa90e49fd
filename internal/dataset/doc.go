// Package dataset provides the column-oriented frame the enrichment
// pipeline operates on and every read-only view consumes.
//
// # Architecture
//
// A Frame is an ordered collection of named columns of equal length.
// Three column kinds exist:
//
//  1. Text: raw string cells, exactly as loaded
//  2. Number: float64 cells with an explicit per-cell missing marker
//  3. Bool: derived flag cells
//
// Loaders produce all-text frames; the type coercion stage swaps text
// columns for number columns in place, so column order is stable from
// raw file to exported artifact.
//
// # Mutability
//
// A frame is mutated only while a pipeline build owns it. After the build
// completes the frame is treated as immutable: views read cells, compute
// masks and call Select, which copies the matching rows into a new frame.
//
// # Missing values
//
// Number columns never invent values: a cell is either present or missing,
// and missing cells render as empty CSV fields and null JSON values.
package dataset
