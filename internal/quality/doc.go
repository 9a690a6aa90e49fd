// Package quality derives the judgement columns of the water quality
// pipeline and hosts the statistics behind them.
//
// # Architecture
//
// Three components over an already-coerced frame:
//
//  1. Classifier: threshold labels (ph_status, ec_level) and the
//     regulatory compliance verdict
//  2. Detector: standardized-score anomaly screening per numeric column
//  3. Stats: medians, quantiles, streaming moments and Pearson
//     correlation shared by the other components and the summary views
//
// # Determinism
//
// Every function here is a pure function of its numeric inputs: identical
// cells always produce identical labels and flags, and a missing cell
// always yields Unknown or an unflagged record, never an error.
package quality
