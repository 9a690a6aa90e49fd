package websocket

import (
	"log/slog"

	"waterq/pkg/contracts/events"
)

// BuildNotifier forwards pipeline build snapshots to the hub. It
// satisfies the pipeline's Notifier contract; Publish never blocks a
// build because the hub drops on a full queue.
type BuildNotifier struct {
	hub    *Hub
	logger *slog.Logger
}

// NewBuildNotifier creates a notifier over hub.
func NewBuildNotifier(hub *Hub, logger *slog.Logger) *BuildNotifier {
	if logger == nil {
		logger = hub.logger
	}
	return &BuildNotifier{
		hub:    hub,
		logger: logger.With(slog.String("component", "build_notifier")),
	}
}

// Publish broadcasts the snapshot to all connected dashboard clients.
func (n *BuildNotifier) Publish(snapshot events.BuildSnapshot) {
	if snapshot.Error != "" {
		n.logger.Warn("broadcasting failed build",
			slog.String("build_id", snapshot.BuildID),
			slog.String("stage", snapshot.CurrentStage),
			slog.String("error", snapshot.Error))
	}
	n.hub.Broadcast(events.MessageTypeBuildSnapshot, snapshot)
}
