package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"waterq/internal/files"
	"waterq/pkg/contracts"
)

// HealthService reports process liveness and component readiness.
type HealthService struct {
	dataset   *DatasetService
	artifacts *files.Store
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus is the health endpoint response.
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Uptime    string            `json:"uptime"`
	Runtime   RuntimeStats      `json:"runtime"`
	Services  map[string]string `json:"services"`
}

// RuntimeStats carries process-level figures.
type RuntimeStats struct {
	GoVersion  string `json:"go_version"`
	Goroutines int    `json:"goroutines"`
	MemAllocMB uint64 `json:"mem_alloc_mb"`
}

// NewHealthService creates a health service. The artifact store may be
// nil when exports are disabled; a nil logger falls back to the default
// logger.
func NewHealthService(dataset *DatasetService, artifacts *files.Store, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		dataset:   dataset,
		artifacts: artifacts,
		startTime: time.Now(),
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// Health checks each component and reduces them to a single status:
// healthy when the source file is readable, degraded otherwise. A dataset
// that has not been requested yet counts as pending, not unhealthy.
func (h *HealthService) Health(ctx context.Context) HealthStatus {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	status := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   contracts.Version,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Runtime: RuntimeStats{
			GoVersion:  runtime.Version(),
			Goroutines: runtime.NumGoroutine(),
			MemAllocMB: mem.Alloc / 1024 / 1024,
		},
		Services: make(map[string]string),
	}

	if _, err := os.Stat(h.dataset.SourcePath()); err != nil {
		status.Status = "degraded"
		status.Services["source_file"] = fmt.Sprintf("unavailable: %v", err)
		h.logger.WarnContext(ctx, "source file unavailable",
			slog.String("path", h.dataset.SourcePath()))
	} else {
		status.Services["source_file"] = "ok"
	}

	if n := h.dataset.Builds(); n > 0 {
		status.Services["dataset"] = fmt.Sprintf("ready (%d builds)", n)
	} else {
		status.Services["dataset"] = "pending"
	}

	// Artifacts are a side channel; their absence never degrades the
	// overall status.
	if h.artifacts != nil {
		switch artifacts, err := h.artifacts.List(); {
		case err != nil:
			status.Services["artifacts"] = fmt.Sprintf("unavailable: %v", err)
		case len(artifacts) == 0:
			status.Services["artifacts"] = "none"
		default:
			names := make([]string, len(artifacts))
			for i, a := range artifacts {
				names[i] = a.Name
			}
			status.Services["artifacts"] = strings.Join(names, ", ")
		}
	}

	return status
}
