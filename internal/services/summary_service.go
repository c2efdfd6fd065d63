package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gastos/internal/balance"
	"gastos/internal/cache"
	"gastos/internal/core"
)

// Backend is the remote read surface the summary service needs.
type Backend interface {
	GetItem(ctx context.Context, itemID string) (core.Item, error)
	GetExpenses(ctx context.Context, itemID string) ([]core.Expense, error)
	GetItemParticipants(ctx context.Context, itemID string) ([]core.Participant, error)
	GetUserBudget(ctx context.Context, itemID string) (core.Budget, error)
}

// ItemSummary is everything an item detail view needs in one response.
type ItemSummary struct {
	Item         core.Item
	Totals       map[core.Currency]float64
	Balances     balance.Summary
	Budget       *core.Budget
	// BudgetRemaining is budget minus spend in the budget's currency; nil
	// when no budget is set.
	BudgetRemaining *float64
	PendingCount    int
}

// SummaryService assembles item summaries from the backend and the balance
// engine. Item metadata, rosters and budgets are cached briefly; the expense
// list is always fetched fresh.
type SummaryService struct {
	backend Backend
	queue   Queue

	items        *cache.Cache[core.Item]
	participants *cache.Cache[[]core.Participant]
	budgets      *cache.Cache[core.Budget]
}

func NewSummaryService(backend Backend, queue Queue) *SummaryService {
	return &SummaryService{
		backend:      backend,
		queue:        queue,
		items:        cache.New[core.Item](128, 5*time.Minute),
		participants: cache.New[[]core.Participant](128, time.Minute),
		budgets:      cache.New[core.Budget](128, time.Minute),
	}
}

// Caches exposes the internal caches for periodic purging.
func (s *SummaryService) Caches() []cache.Purger {
	return []cache.Purger{s.items, s.participants, s.budgets}
}

// InvalidateItem drops all cached state for one item. Called after an
// expense lands (directly or via sync) so the next summary is fresh.
func (s *SummaryService) InvalidateItem(itemID string) {
	prefix := "item:" + itemID + ":"
	s.items.EvictPrefix(prefix)
	s.participants.EvictPrefix(prefix)
	s.budgets.EvictPrefix(prefix)
}

// ItemSummary builds the full detail view for one item from the given
// user's perspective.
func (s *SummaryService) ItemSummary(ctx context.Context, itemID, userID string) (ItemSummary, error) {
	item, err := s.getItem(ctx, itemID)
	if err != nil {
		return ItemSummary{}, fmt.Errorf("get item: %w", err)
	}

	expenses, err := s.backend.GetExpenses(ctx, itemID)
	if err != nil {
		return ItemSummary{}, fmt.Errorf("get expenses: %w", err)
	}

	participants, err := s.getParticipants(ctx, itemID)
	if err != nil {
		return ItemSummary{}, fmt.Errorf("get participants: %w", err)
	}

	summary := ItemSummary{
		Item:     item,
		Totals:   balance.TotalsByCurrency(expenses, participants, userID, item.Kind),
		Balances: balance.NetBalances(expenses, participants, userID),
	}

	s.attachBudget(ctx, itemID, &summary)
	s.attachPendingCount(ctx, itemID, &summary)

	return summary, nil
}

// ExpenseBreakdown computes the viewpoint user's lent/owe position for each
// expense of an item, nil where the user is uninvolved.
func (s *SummaryService) ExpenseBreakdown(ctx context.Context, itemID, userID string) (map[string]*balance.ExpenseBalance, error) {
	item, err := s.getItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}

	expenses, err := s.backend.GetExpenses(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("get expenses: %w", err)
	}

	participants, err := s.getParticipants(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("get participants: %w", err)
	}

	out := make(map[string]*balance.ExpenseBalance, len(expenses))
	for _, e := range expenses {
		out[e.ID] = balance.ForExpense(e, participants, userID, item.Kind)
	}
	return out, nil
}

func (s *SummaryService) getItem(ctx context.Context, itemID string) (core.Item, error) {
	key := "item:" + itemID + ":meta"
	if item, ok := s.items.Get(key); ok {
		return item, nil
	}
	item, err := s.backend.GetItem(ctx, itemID)
	if err != nil {
		return core.Item{}, err
	}
	s.items.Put(key, item)
	return item, nil
}

func (s *SummaryService) getParticipants(ctx context.Context, itemID string) ([]core.Participant, error) {
	key := "item:" + itemID + ":participants"
	if roster, ok := s.participants.Get(key); ok {
		return roster, nil
	}
	roster, err := s.backend.GetItemParticipants(ctx, itemID)
	if err != nil {
		return nil, err
	}
	s.participants.Put(key, roster)
	return roster, nil
}

// attachBudget fills in the budget and remaining amount. A missing or
// unreadable budget degrades to nil rather than failing the summary.
func (s *SummaryService) attachBudget(ctx context.Context, itemID string, summary *ItemSummary) {
	key := "item:" + itemID + ":budget"
	budget, ok := s.budgets.Get(key)
	if !ok {
		var err error
		budget, err = s.backend.GetUserBudget(ctx, itemID)
		if err != nil {
			slog.WarnContext(ctx, "Failed to fetch budget", "item_id", itemID, "error", err)
			return
		}
		s.budgets.Put(key, budget)
	}

	if budget.Amount.Cents == 0 {
		return
	}

	remaining := budget.Amount.Units() - summary.Totals[budget.Currency]
	summary.Budget = &budget
	summary.BudgetRemaining = &remaining
}

func (s *SummaryService) attachPendingCount(ctx context.Context, itemID string, summary *ItemSummary) {
	pending, err := s.queue.ListByItem(ctx, itemID)
	if err != nil {
		slog.WarnContext(ctx, "Failed to count queued expenses for item",
			"item_id", itemID, "error", err)
		return
	}
	summary.PendingCount = len(pending)
}
