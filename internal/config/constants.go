package config

import "time"

// Application constants for the water quality monitoring service.
const (
	// Application Info
	AppName = "Water Quality Monitor"

	// Artifact names
	ProcessedCSVName    = "processed_water_data.csv"
	SummaryWorkbookName = "water_quality_summary.xlsx"

	// Rate Limiting
	DefaultRateLimitRPS   = 100
	DefaultRateLimitBurst = 50

	// Network Timeouts
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	WebSocketPingPeriod    = 30 * time.Second
	WebSocketPongWait      = 60 * time.Second

	// File Paths (relative to the working directory)
	DefaultSourceFile = "data/water_quality.csv"
	DefaultExportDir  = "exports"
	DefaultLogsDir    = "logs"
)
