// Package worker consumes queue events off the broker and keeps an audit
// trail of offline activity: what got queued, and how sync passes went.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"gastos/internal/amqp"
	"gastos/internal/core"
)

// Stats aggregates everything the observer has seen since startup.
type Stats struct {
	QueuedEvents   int
	SyncPasses     int
	TotalAttempted int
	TotalSucceeded int
	TotalFailed    int
	LastSyncAt     time.Time
}

// Observer handles queue events delivered over AMQP. It is the consuming
// counterpart of the publishers in the main process.
type Observer struct {
	mu    sync.Mutex
	stats Stats
}

func NewObserver() *Observer {
	return &Observer{}
}

// HandleExpenseQueued records one offline-queued expense.
func (o *Observer) HandleExpenseQueued(ctx context.Context, msg *amqp.ExpenseQueuedMessage) error {
	o.mu.Lock()
	o.stats.QueuedEvents++
	o.mu.Unlock()

	amount := core.Money{Cents: msg.AmountCents}
	slog.InfoContext(ctx, "Expense queued offline",
		"local_id", msg.LocalID,
		"item_id", msg.ItemID,
		"amount", amount.Format(core.Currency(msg.Currency)),
		"queued_at", msg.QueuedAt.Format(time.RFC3339))

	return nil
}

// HandleSyncResult records the outcome of one sync pass.
func (o *Observer) HandleSyncResult(ctx context.Context, msg *amqp.SyncResultMessage) error {
	o.mu.Lock()
	o.stats.SyncPasses++
	o.stats.TotalAttempted += msg.Attempted
	o.stats.TotalSucceeded += msg.Succeeded
	o.stats.TotalFailed += msg.Failed
	o.stats.LastSyncAt = msg.Timestamp
	o.mu.Unlock()

	if msg.Failed > 0 {
		slog.WarnContext(ctx, "Sync pass left entries queued",
			"attempted", msg.Attempted,
			"succeeded", msg.Succeeded,
			"failed", msg.Failed)
	} else {
		slog.InfoContext(ctx, "Sync pass drained cleanly",
			"attempted", msg.Attempted,
			"succeeded", msg.Succeeded)
	}

	return nil
}

// Stats returns a copy of the running totals.
func (o *Observer) Stats() Stats {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stats
}

// LogStats dumps the running totals, called periodically by the worker.
func (o *Observer) LogStats(ctx context.Context) {
	stats := o.Stats()
	slog.InfoContext(ctx, "Queue event totals",
		"queued_events", stats.QueuedEvents,
		"sync_passes", stats.SyncPasses,
		"attempted", stats.TotalAttempted,
		"succeeded", stats.TotalSucceeded,
		"failed", stats.TotalFailed)
}
