package worker

import (
	"context"
	"testing"
	"time"

	"gastos/internal/amqp"
)

func TestObserverAccumulatesStats(t *testing.T) {
	o := NewObserver()
	ctx := context.Background()

	queued := &amqp.ExpenseQueuedMessage{LocalID: 1, ItemID: "item-1", AmountCents: 2500, Currency: "soles"}
	if err := o.HandleExpenseQueued(ctx, queued); err != nil {
		t.Fatalf("HandleExpenseQueued: %v", err)
	}
	if err := o.HandleExpenseQueued(ctx, queued); err != nil {
		t.Fatalf("HandleExpenseQueued: %v", err)
	}

	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	result := &amqp.SyncResultMessage{Attempted: 3, Succeeded: 2, Failed: 1, Timestamp: at}
	if err := o.HandleSyncResult(ctx, result); err != nil {
		t.Fatalf("HandleSyncResult: %v", err)
	}

	stats := o.Stats()
	if stats.QueuedEvents != 2 {
		t.Fatalf("queued events = %d, want 2", stats.QueuedEvents)
	}
	if stats.SyncPasses != 1 || stats.TotalAttempted != 3 || stats.TotalSucceeded != 2 || stats.TotalFailed != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if !stats.LastSyncAt.Equal(at) {
		t.Fatalf("last sync at = %v, want %v", stats.LastSyncAt, at)
	}
}
