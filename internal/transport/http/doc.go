// Package http implements HTTP request handlers for the water quality
// web service. It provides a thin layer between HTTP transport and the
// dataset services, keeping handlers focused solely on HTTP concerns.
//
// # Architecture Principles
//
// Handlers in this package follow these principles:
//
//	1. Thin handlers - minimal logic, delegate to services
//	2. HTTP-only concerns - query parsing, response formatting
//	3. Error transformation - convert service errors to HTTP responses
//	4. No dataset logic - filtering and aggregation belong to services
//
// # Request Flow
//
// A typical request flows through these layers:
//
//	HTTP Request → Chi Router → Middleware → Handler → DatasetService → Pipeline
//	                                              ↓
//	HTTP Response ← Handler ← Service Response ←─┘
//
// # Response Shape
//
// Query endpoints wrap their payload in a uniform envelope:
//
//	{
//	    "status": "success",
//	    "data": [...],
//	    "count": 42
//	}
//
// List-like responses carry "count"; paged responses add "total" and echo
// the effective paging under "params". The download endpoint is the
// exception: it streams text/csv instead of JSON.
//
// # Error Handling
//
// All errors follow RFC 7807 Problem Details:
//
//	{
//	    "type": "/errors/dataset/unknown-column",
//	    "title": "Bad Request",
//	    "status": 400,
//	    "detail": "column \"turbidity\" does not exist in the dataset",
//	    "instance": "/api/dataset/anomalies"
//	}
//
// Service sentinels (unknown column, non-numeric column, source
// unavailable, build failure) are mapped in handleServiceError; anything
// unrecognized falls through to the central handler as a 500.
//
// # Testing
//
// Handlers are tested using httptest:
//
//	- Mock service dependencies
//	- Test various HTTP scenarios
//	- Verify problem responses
//	- Check envelope fields
package http
