// Package pipeline orchestrates the enrichment build that turns a raw
// monitoring table into the serving dataset.
//
// A build runs a fixed stage sequence over an in-memory frame:
//
//	load -> normalize -> coerce -> deduplicate -> impute -> classify ->
//	geocode -> detect_anomalies
//
// Each run is identified two ways: a fresh build ID for tracing, and a
// content fingerprint (BLAKE2b-256 of the raw input bytes) for
// memoization. Identical bytes always produce an identical fingerprint,
// so callers can reuse a previous Result instead of rebuilding.
//
// Stage transitions are published as events.BuildSnapshot values through
// the Notifier, which the WebSocket hub fans out to subscribers. Timing
// and cleaning counts land in the api.BuildReport attached to the Result.
package pipeline
