// Package services contains the business logic between the HTTP
// transport and the enrichment pipeline.
//
// # Services
//
// DatasetService owns the memoized builds: it fingerprints the source
// file, runs the pipeline once per distinct content, and answers every
// dataset query (records, summary, trends, correlation, map, distribution,
// anomalies) against the cached result. HealthService reports liveness
// and component status for the health endpoint.
//
// # Error Handling
//
// Query methods return the package sentinel errors (ErrUnknownColumn,
// ErrColumnNotNumeric, ...) wrapped with detail, so the transport layer
// can map them to stable HTTP status codes with errors.Is.
package services
