// Package services orchestrates the offline queue, the remote backend and
// the balance engine behind the HTTP handlers.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gastos/internal/amqp"
	"gastos/internal/core"
)

// Remote is the backend surface the expense service needs.
type Remote interface {
	CreateExpense(ctx context.Context, itemID string, e core.NewExpense) (core.Expense, error)
}

// Queue is the local pending-expense store surface.
type Queue interface {
	SavePending(ctx context.Context, itemID string, e core.NewExpense) (int64, error)
	ListByItem(ctx context.Context, itemID string) ([]core.PendingExpense, error)
	ListAll(ctx context.Context) ([]core.PendingExpense, error)
	Count(ctx context.Context) (int, error)
}

// Prober reports current connectivity.
type Prober interface {
	IsOnline() bool
}

// Publisher emits queue events; best-effort everywhere.
type Publisher interface {
	PublishExpenseQueued(ctx context.Context, msg *amqp.ExpenseQueuedMessage) error
}

// CreateResult tells the caller where the expense ended up.
type CreateResult struct {
	// Expense is set when the backend accepted the expense directly.
	Expense *core.Expense
	// LocalID is set when the expense was queued locally instead.
	LocalID int64
	Queued  bool
}

// ExpenseService routes expense creation: straight to the backend when
// online, into the durable local queue when offline. Online failures are
// the caller's problem; only confirmed-offline creation queues.
type ExpenseService struct {
	remote    Remote
	queue     Queue
	prober    Prober
	publisher Publisher // optional
}

func NewExpenseService(remote Remote, queue Queue, prober Prober, publisher Publisher) *ExpenseService {
	return &ExpenseService{
		remote:    remote,
		queue:     queue,
		prober:    prober,
		publisher: publisher,
	}
}

// CreateExpense validates and submits an expense. Offline, the expense is
// stored locally and reported as queued; online, backend errors (rejections
// and transport failures alike) propagate unqueued so the caller can retry
// deliberately.
func (s *ExpenseService) CreateExpense(ctx context.Context, itemID string, e core.NewExpense) (CreateResult, error) {
	if err := e.Validate(); err != nil {
		return CreateResult{}, fmt.Errorf("validate expense: %w", err)
	}

	if !s.prober.IsOnline() {
		return s.queueExpense(ctx, itemID, e)
	}

	created, err := s.remote.CreateExpense(ctx, itemID, e)
	if err != nil {
		return CreateResult{}, fmt.Errorf("create expense on backend: %w", err)
	}

	slog.InfoContext(ctx, "Expense created on backend",
		"item_id", itemID,
		"expense_id", created.ID,
		"amount_cents", created.Amount.Cents)

	return CreateResult{Expense: &created}, nil
}

func (s *ExpenseService) queueExpense(ctx context.Context, itemID string, e core.NewExpense) (CreateResult, error) {
	localID, err := s.queue.SavePending(ctx, itemID, e)
	if err != nil {
		return CreateResult{}, fmt.Errorf("queue expense locally: %w", err)
	}

	slog.InfoContext(ctx, "Expense queued offline",
		"item_id", itemID,
		"local_id", localID)

	s.announceQueued(ctx, localID, itemID, e)

	return CreateResult{LocalID: localID, Queued: true}, nil
}

func (s *ExpenseService) announceQueued(ctx context.Context, localID int64, itemID string, e core.NewExpense) {
	if s.publisher == nil {
		return
	}
	msg := &amqp.ExpenseQueuedMessage{
		LocalID:     localID,
		ItemID:      itemID,
		AmountCents: e.Amount.Cents,
		Currency:    string(e.Currency),
		QueuedAt:    time.Now().UTC(),
	}
	if err := s.publisher.PublishExpenseQueued(ctx, msg); err != nil {
		slog.WarnContext(ctx, "Failed to publish queued event",
			"local_id", localID, "error", err)
	}
}

// PendingForItem lists queued expenses for one item, oldest first.
func (s *ExpenseService) PendingForItem(ctx context.Context, itemID string) ([]core.PendingExpense, error) {
	pending, err := s.queue.ListByItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("list pending for item: %w", err)
	}
	return pending, nil
}

// PendingAll lists the whole queue, oldest first.
func (s *ExpenseService) PendingAll(ctx context.Context) ([]core.PendingExpense, error) {
	pending, err := s.queue.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}
	return pending, nil
}
