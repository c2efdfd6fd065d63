package monitor

import (
	"context"
	"errors"
	"log/slog"

	syncengine "gastos/internal/sync"
)

// Notifier exposes connectivity state and transition callbacks. The Pinger
// is the production implementation.
type Notifier interface {
	IsOnline() bool
	Subscribe(fn func(online bool))
}

// Syncer drains the pending-expense queue.
type Syncer interface {
	SyncAll(ctx context.Context) (syncengine.Result, error)
	IsSyncing() bool
}

// Counter reports the pending-expense backlog size.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// Status is a point-in-time snapshot of the offline queue.
type Status struct {
	IsOnline     bool `json:"is_online"`
	IsSyncing    bool `json:"is_syncing"`
	PendingCount int  `json:"pending_count"`
}

// Monitor links connectivity transitions to the sync engine: each
// offline→online edge starts exactly one drain attempt in the background.
// The online→offline edge only updates state.
type Monitor struct {
	notifier Notifier
	syncer   Syncer
	counter  Counter
}

func NewMonitor(notifier Notifier, syncer Syncer, counter Counter) *Monitor {
	m := &Monitor{
		notifier: notifier,
		syncer:   syncer,
		counter:  counter,
	}
	m.notifier.Subscribe(m.onTransition)
	return m
}

func (m *Monitor) onTransition(online bool) {
	if !online {
		return
	}
	// Runs off the notifier goroutine so probing never blocks on a drain.
	go m.TriggerSync(context.Background())
}

// TriggerSync runs one drain pass. A pass already in flight is not an
// error here: the running pass covers this trigger.
func (m *Monitor) TriggerSync(ctx context.Context) {
	result, err := m.syncer.SyncAll(ctx)
	if err != nil {
		if errors.Is(err, syncengine.ErrSyncInProgress) {
			slog.DebugContext(ctx, "Sync already running, trigger skipped")
			return
		}
		slog.ErrorContext(ctx, "Triggered sync failed", "error", err)
		return
	}
	if result.Attempted > 0 {
		slog.InfoContext(ctx, "Triggered sync finished",
			"attempted", result.Attempted,
			"succeeded", result.Succeeded,
			"failed", result.Failed)
	}
}

// Subscribe registers a callback for connectivity transitions.
func (m *Monitor) Subscribe(fn func(online bool)) { m.notifier.Subscribe(fn) }

func (m *Monitor) IsOnline() bool { return m.notifier.IsOnline() }
func (m *Monitor) IsSyncing() bool { return m.syncer.IsSyncing() }

// PendingCount reports the queue backlog, never negative. A store error
// degrades to zero rather than failing a status read.
func (m *Monitor) PendingCount(ctx context.Context) int {
	n, err := m.counter.Count(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Failed to count pending expenses", "error", err)
		return 0
	}
	if n < 0 {
		return 0
	}
	return n
}

// Snapshot reads all three status fields at once.
func (m *Monitor) Snapshot(ctx context.Context) Status {
	return Status{
		IsOnline:     m.IsOnline(),
		IsSyncing:    m.IsSyncing(),
		PendingCount: m.PendingCount(ctx),
	}
}
