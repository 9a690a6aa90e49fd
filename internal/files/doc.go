// Package files manages the exported dataset artifacts on disk.
//
// Store roots every artifact under the configured export directory and
// replaces files atomically: content is streamed to a temporary file in
// the same directory and renamed into place, so a concurrent reader of
// processed_water_data.csv never sees a half-written snapshot. The store
// also enumerates what is currently exported, which backs the health
// report and the batch CLI summary.
package files
