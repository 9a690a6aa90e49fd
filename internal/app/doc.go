// Package app provides application initialization and lifecycle management
// for the water quality web service. It wires configuration, observability,
// the dataset pipeline and the HTTP surface together, and owns graceful
// shutdown.
//
// # Initialization Flow
//
// The typical initialization sequence:
//
//	1. Load configuration from the config file and WATERQ_* variables
//	2. Initialize logging, OpenTelemetry, and the metric instruments
//	3. Start the websocket hub and attach the build notifier
//	4. Create the pipeline and the dataset/health services
//	5. Set up HTTP handlers and middleware
//	6. Configure the HTTP server
//
// # Usage
//
// The main entry point is typically:
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := application.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// Run blocks until SIGINT or SIGTERM, then ensures:
//
//	- Active requests are completed or time out
//	- WebSocket connections are closed cleanly
//	- Metric and trace providers are flushed
//
// # Error Handling
//
// All initialization errors are returned to the caller. The package does
// not call os.Exit() directly, so main controls the exit process.
package app
