// Package sync drains the local pending-expense queue against the remote
// backend. Delivery is at-least-once: a submission whose response is lost
// stays queued and may be re-sent on a later pass; the backend carries no
// dedup key for it. That gap is deliberate and documented, not fixed here.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gastos/internal/amqp"
	"gastos/internal/core"
)

// ErrSyncInProgress is returned when a drain is requested while a previous
// one is still running. Callers skip or retry later; two drains never run
// concurrently.
var ErrSyncInProgress = errors.New("sync already in progress")

// Store is the slice of the pending-expense store the engine needs.
type Store interface {
	ListAll(ctx context.Context) ([]core.PendingExpense, error)
	Remove(ctx context.Context, localID int64) error
}

// Creator is the remote expense-creation collaborator.
type Creator interface {
	CreateExpense(ctx context.Context, itemID string, e core.NewExpense) (core.Expense, error)
}

// Prober reports current connectivity. Checked once per drain, at entry; a
// mid-run disconnect surfaces as per-entry failures instead.
type Prober interface {
	IsOnline() bool
}

// Events receives best-effort notifications about completed passes.
type Events interface {
	PublishSyncResult(ctx context.Context, msg *amqp.SyncResultMessage) error
}

// Result aggregates one drain pass. Per-entry failures never propagate out
// of SyncAll; they only count here.
type Result struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

type Engine struct {
	store  Store
	remote Creator
	prober Prober
	events Events // optional

	mu      sync.Mutex
	syncing bool
}

func NewEngine(store Store, remote Creator, prober Prober, events Events) *Engine {
	return &Engine{
		store:  store,
		remote: remote,
		prober: prober,
		events: events,
	}
}

// IsSyncing reports whether a drain pass is currently running.
func (e *Engine) IsSyncing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.syncing
}

// SyncAll pushes every queued expense to the backend, sequentially and in
// queue order, deleting each entry on confirmed acceptance. A failed entry
// stays queued and the pass moves on to the next one. Offline, it is a
// no-op with zero counts. A concurrent call gets ErrSyncInProgress.
func (e *Engine) SyncAll(ctx context.Context) (Result, error) {
	if e.prober != nil && !e.prober.IsOnline() {
		slog.DebugContext(ctx, "Skipping sync: offline")
		return Result{}, nil
	}

	e.mu.Lock()
	if e.syncing {
		e.mu.Unlock()
		return Result{}, ErrSyncInProgress
	}
	e.syncing = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.syncing = false
		e.mu.Unlock()
	}()

	// One snapshot per pass; entries queued mid-run wait for the next one.
	pending, err := e.store.ListAll(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list pending expenses: %w", err)
	}

	if len(pending) == 0 {
		return Result{}, nil
	}

	slog.InfoContext(ctx, "Syncing pending expenses", "count", len(pending))

	result := Result{Attempted: len(pending)}
	for _, p := range pending {
		if err := e.syncOne(ctx, p); err != nil {
			result.Failed++
			slog.WarnContext(ctx, "Pending expense sync failed",
				"local_id", p.LocalID,
				"item_id", p.ItemID,
				"error", err)
			continue
		}
		result.Succeeded++
	}

	slog.InfoContext(ctx, "Sync pass completed",
		"attempted", result.Attempted,
		"succeeded", result.Succeeded,
		"failed", result.Failed)

	e.publishResult(ctx, result)

	return result, nil
}

func (e *Engine) syncOne(ctx context.Context, p core.PendingExpense) error {
	// Only canonical fields cross the wire; LocalID and CreatedAt stay local.
	if _, err := e.remote.CreateExpense(ctx, p.ItemID, p.NewExpense); err != nil {
		return fmt.Errorf("create remote expense: %w", err)
	}

	if err := e.store.Remove(ctx, p.LocalID); err != nil {
		// The remote accepted the expense but the local row survived, so the
		// entry is still queued and will be re-submitted on the next pass
		// (at-least-once). Observably this pass did not drain it: count it
		// failed so pending_count and the result stay consistent.
		return fmt.Errorf("remove synced expense: %w", err)
	}

	slog.InfoContext(ctx, "Synced pending expense",
		"local_id", p.LocalID,
		"item_id", p.ItemID)

	return nil
}

func (e *Engine) publishResult(ctx context.Context, r Result) {
	if e.events == nil {
		return
	}
	msg := &amqp.SyncResultMessage{
		Attempted: r.Attempted,
		Succeeded: r.Succeeded,
		Failed:    r.Failed,
		Timestamp: time.Now().UTC(),
	}
	if err := e.events.PublishSyncResult(ctx, msg); err != nil {
		// Best-effort only; a broker outage never fails the pass.
		slog.WarnContext(ctx, "Failed to publish sync result", "error", err)
	}
}
