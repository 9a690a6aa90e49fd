package pipeline

import (
	"time"

	"waterq/pkg/contracts/events"
)

// Build and stage status values carried in snapshots.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Notifier receives a fresh snapshot on every build state transition.
// Implementations must not block the build.
type Notifier interface {
	Publish(snapshot events.BuildSnapshot)
}

// NopNotifier discards snapshots. Useful for batch runs with no
// subscribers.
type NopNotifier struct{}

// Publish implements Notifier.
func (NopNotifier) Publish(events.BuildSnapshot) {}

// tracker assembles the running snapshot for a single build and publishes
// a copy after every transition. Builds are single-goroutine, so no
// locking is needed here; fan-out concurrency is the notifier's problem.
type tracker struct {
	notifier Notifier
	snap     events.BuildSnapshot
	index    map[string]int
}

func newTracker(buildID, fingerprint string, notifier Notifier) *tracker {
	now := time.Now().UTC()
	stages := make([]events.StageSnapshot, len(StageNames))
	index := make(map[string]int, len(StageNames))
	for i, name := range StageNames {
		stages[i] = events.StageSnapshot{Name: name, Status: StatusPending}
		index[name] = i
	}

	t := &tracker{
		notifier: notifier,
		snap: events.BuildSnapshot{
			BuildID:     buildID,
			Fingerprint: fingerprint,
			Status:      StatusRunning,
			Stages:      stages,
			StartedAt:   now,
			UpdatedAt:   now,
		},
		index: index,
	}
	t.publish()
	return t
}

func (t *tracker) stage(name string) *events.StageSnapshot {
	return &t.snap.Stages[t.index[name]]
}

func (t *tracker) start(name string) {
	t.snap.CurrentStage = name
	t.stage(name).Status = StatusRunning
	t.publish()
}

func (t *tracker) complete(name string, rows int, seconds float64) {
	s := t.stage(name)
	s.Status = StatusCompleted
	s.Rows = rows
	s.Duration = seconds
	t.publish()
}

func (t *tracker) fail(name string, err error, seconds float64) {
	s := t.stage(name)
	s.Status = StatusFailed
	s.Duration = seconds
	s.Error = err.Error()

	now := time.Now().UTC()
	t.snap.Status = StatusFailed
	t.snap.Error = err.Error()
	t.snap.CompletedAt = &now
	t.publish()
}

func (t *tracker) finish() {
	now := time.Now().UTC()
	t.snap.Status = StatusCompleted
	t.snap.CurrentStage = ""
	t.snap.CompletedAt = &now
	t.publish()
}

// publish hands the notifier a snapshot with its own stage slice, so
// subscribers never observe later mutations.
func (t *tracker) publish() {
	if t.notifier == nil {
		return
	}
	t.snap.UpdatedAt = time.Now().UTC()
	snap := t.snap
	snap.Stages = append([]events.StageSnapshot(nil), t.snap.Stages...)
	t.notifier.Publish(snap)
}
