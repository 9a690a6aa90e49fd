// Package config provides centralized configuration management for the
// water quality service. It handles loading configuration from multiple
// sources, validation, and a type-safe API for accessing configuration
// values throughout the application.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of
// precedence:
//
//	1. Environment variables (highest priority)
//	2. Configuration file (YAML)
//	3. Built-in defaults (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern WATERQ_* for namespacing:
//
//	WATERQ_SERVER_PORT=8080
//	WATERQ_DATASET_SOURCE_FILE=data/water_quality.csv
//	WATERQ_LOGGING_LEVEL=debug
//	WATERQ_SECURITY_RATE_LIMIT_RPS=200
//
// # Path Management
//
// Directory handling goes through the Paths type derived from the loaded
// configuration; it creates the export and log directories on startup so
// later writes never race directory creation.
package config
