// Package exporter writes the enrichment artifacts.
//
// This package contains two main components:
//
// CSVWriter: serializes an enriched frame as CSV, with an optional UTF-8
// BOM for Excel compatibility. Missing numeric cells serialize as empty
// fields and flag columns as True/False, so the artifact round-trips
// through spreadsheet tools without type damage.
//
// Workbook: generates the analyst summary workbook (overview, column
// quality, compliance counts, per-region means and stage timings) from a
// completed build.
package exporter
