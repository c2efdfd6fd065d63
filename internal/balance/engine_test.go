package balance

import (
	"testing"

	"gastos/internal/core"
)

var (
	userA = core.Participant{ID: "a", Email: "ana@example.com", Name: "Ana"}
	userB = core.Participant{ID: "b", Email: "bruno@example.com", Name: "Bruno"}
	userC = core.Participant{ID: "c", Email: "carla@example.com", Name: "Carla"}
)

func divided(cents int64, paidBy string) core.Expense {
	return core.Expense{
		Amount:    core.Money{Cents: cents},
		Currency:  core.Soles,
		PaidBy:    paidBy,
		SplitType: core.SplitDivided,
	}
}

func TestTotalsPersonalItemCountsEverything(t *testing.T) {
	expenses := []core.Expense{
		{Amount: core.Money{Cents: 1000}, Currency: core.Soles},
		{Amount: core.Money{Cents: 2000}, Currency: core.Soles},
		{Amount: core.Money{Cents: 500}, Currency: core.Dolares},
	}
	totals := TotalsByCurrency(expenses, nil, "a", core.ItemPersonal)
	if totals[core.Soles] != 30 {
		t.Errorf("expected 30 soles, got %v", totals[core.Soles])
	}
	if totals[core.Dolares] != 5 {
		t.Errorf("expected 5 dolares, got %v", totals[core.Dolares])
	}
}

func TestTotalsSharedSplits(t *testing.T) {
	participants := []core.Participant{userA, userB}
	cases := []struct {
		name    string
		expense core.Expense
		user    string
		want    float64
	}{
		{"divided half", divided(10000, "a"), "a", 50},
		{"divided half non payer", divided(10000, "a"), "b", 50},
		{"assigned to me", core.Expense{Amount: core.Money{Cents: 8000}, Currency: core.Soles, PaidBy: "a", SplitType: core.SplitAssigned, AssignedTo: "b"}, "b", 80},
		{"assigned to other", core.Expense{Amount: core.Money{Cents: 8000}, Currency: core.Soles, PaidBy: "a", SplitType: core.SplitAssigned, AssignedTo: "b"}, "a", 0},
		{"selected including me", core.Expense{Amount: core.Money{Cents: 6000}, Currency: core.Soles, PaidBy: "a", SplitType: core.SplitSelected, SelectedParticipants: []string{"a", "b", "c"}}, "a", 20},
		{"selected excluding me", core.Expense{Amount: core.Money{Cents: 6000}, Currency: core.Soles, PaidBy: "a", SplitType: core.SplitSelected, SelectedParticipants: []string{"b", "c"}}, "a", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			totals := TotalsByCurrency([]core.Expense{tc.expense}, participants, tc.user, core.ItemShared)
			if got := totals[core.Soles]; got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestTotalsZeroParticipantsGuard(t *testing.T) {
	totals := TotalsByCurrency([]core.Expense{divided(10000, "a")}, nil, "a", core.ItemShared)
	if got := totals[core.Soles]; got != 0 {
		t.Fatalf("expected zero share with empty roster, got %v", got)
	}
}

func TestTotalsEmptySelectionGuard(t *testing.T) {
	e := core.Expense{
		Amount:    core.Money{Cents: 5000},
		Currency:  core.Soles,
		PaidBy:    "a",
		SplitType: core.SplitSelected,
	}
	totals := TotalsByCurrency([]core.Expense{e}, []core.Participant{userA, userB}, "a", core.ItemShared)
	if got := totals[core.Soles]; got != 0 {
		t.Fatalf("expected zero share with empty selection, got %v", got)
	}
}

func TestTotalsExcludePendingParticipants(t *testing.T) {
	pending := core.Participant{ID: "inv", Email: "new@example.com", IsPending: true}
	// Two registered users plus one pending invitation: divided shares are halves.
	totals := TotalsByCurrency([]core.Expense{divided(10000, "a")}, []core.Participant{userA, userB, pending}, "a", core.ItemShared)
	if got := totals[core.Soles]; got != 50 {
		t.Fatalf("expected 50 (pending excluded), got %v", got)
	}
}

func TestNetBalancesDividedPayer(t *testing.T) {
	s := NetBalances([]core.Expense{divided(10000, "a")}, []core.Participant{userA, userB}, "a")
	if got := s.OwedToYou[core.Soles]; got != 50 {
		t.Fatalf("expected 50 owed to A, got %v", got)
	}
	if len(s.OwedToYouDetails) != 1 {
		t.Fatalf("expected 1 detail, got %d", len(s.OwedToYouDetails))
	}
	d := s.OwedToYouDetails[0]
	if d.UserName != "Bruno" || d.Amount != 50 {
		t.Fatalf("unexpected detail %+v", d)
	}
	if len(s.YouOweDetails) != 0 {
		t.Fatalf("payer should owe nothing, got %+v", s.YouOweDetails)
	}
}

func TestNetBalancesAssigned(t *testing.T) {
	e := core.Expense{
		Amount:     core.Money{Cents: 8000},
		Currency:   core.Soles,
		PaidBy:     "a",
		SplitType:  core.SplitAssigned,
		AssignedTo: "b",
	}
	participants := []core.Participant{userA, userB, userC}

	fromA := NetBalances([]core.Expense{e}, participants, "a")
	if got := fromA.OwedToYou[core.Soles]; got != 80 {
		t.Fatalf("expected B to owe A 80, got %v", got)
	}

	fromB := NetBalances([]core.Expense{e}, participants, "b")
	if got := fromB.YouOwe[core.Soles]; got != 80 {
		t.Fatalf("expected B to owe 80, got %v", got)
	}
	if fromB.YouOweDetails[0].UserName != "Ana" {
		t.Fatalf("expected debt towards Ana, got %+v", fromB.YouOweDetails[0])
	}

	// C is uninvolved in an assigned expense.
	fromC := NetBalances([]core.Expense{e}, participants, "c")
	if len(fromC.OwedToYouDetails) != 0 || len(fromC.YouOweDetails) != 0 {
		t.Fatalf("expected no balances for C, got %+v", fromC)
	}
}

func TestNetBalancesSelected(t *testing.T) {
	e := core.Expense{
		Amount:               core.Money{Cents: 6000},
		Currency:             core.Soles,
		PaidBy:               "a",
		SplitType:            core.SplitSelected,
		SelectedParticipants: []string{"a", "b", "c"},
	}
	participants := []core.Participant{userA, userB, userC}

	s := NetBalances([]core.Expense{e}, participants, "a")
	if len(s.OwedToYouDetails) != 2 {
		t.Fatalf("expected 2 debtors, got %+v", s.OwedToYouDetails)
	}
	for _, d := range s.OwedToYouDetails {
		if d.Amount != 20 {
			t.Fatalf("expected share of 20, got %+v", d)
		}
	}
	if got := s.OwedToYou[core.Soles]; got != 40 {
		t.Fatalf("expected bucket total 40, got %v", got)
	}

	fromB := NetBalances([]core.Expense{e}, participants, "b")
	if got := fromB.YouOwe[core.Soles]; got != 20 {
		t.Fatalf("expected B to owe 20, got %v", got)
	}
}

func TestNetBalancesZeroSumNettingOmitsSettledPair(t *testing.T) {
	// A and B each paid a 60 divided expense: shares cancel exactly.
	expenses := []core.Expense{
		divided(6000, "a"),
		divided(6000, "b"),
	}
	s := NetBalances(expenses, []core.Participant{userA, userB}, "a")
	if len(s.OwedToYouDetails) != 0 || len(s.YouOweDetails) != 0 {
		t.Fatalf("expected settled pair to be omitted, got %+v", s)
	}
	if len(s.OwedToYou) != 0 || len(s.YouOwe) != 0 {
		t.Fatalf("expected empty bucket totals, got %+v", s)
	}
}

func TestNetBalancesMergesAcrossExpenses(t *testing.T) {
	expenses := []core.Expense{
		divided(10000, "a"), // B owes A 50
		divided(4000, "b"),  // A owes B 20
	}
	s := NetBalances(expenses, []core.Participant{userA, userB}, "a")
	if got := s.OwedToYou[core.Soles]; got != 30 {
		t.Fatalf("expected net 30 owed to A, got %v", got)
	}
	if len(s.YouOweDetails) != 0 {
		t.Fatalf("expected no residual debt, got %+v", s.YouOweDetails)
	}
}

func TestNetBalancesSeparateCurrencies(t *testing.T) {
	soles := divided(6000, "a")
	dolares := divided(6000, "b")
	dolares.Currency = core.Dolares

	s := NetBalances([]core.Expense{soles, dolares}, []core.Participant{userA, userB}, "a")
	if got := s.OwedToYou[core.Soles]; got != 30 {
		t.Fatalf("expected 30 soles owed, got %v", got)
	}
	if got := s.YouOwe[core.Dolares]; got != 30 {
		t.Fatalf("expected 30 dolares owed, got %v", got)
	}
}

func TestNetBalancesEmptyRoster(t *testing.T) {
	s := NetBalances([]core.Expense{divided(10000, "a")}, nil, "a")
	if len(s.OwedToYouDetails) != 0 || len(s.YouOweDetails) != 0 {
		t.Fatalf("expected empty summary, got %+v", s)
	}
}

func TestForExpenseDividedTwoParticipants(t *testing.T) {
	participants := []core.Participant{userA, userB}
	e := divided(10000, "a")

	payer := ForExpense(e, participants, "a", core.ItemShared)
	if payer == nil || payer.Type != Lent || payer.Amount != 50 {
		t.Fatalf("expected lent 50, got %+v", payer)
	}

	other := ForExpense(e, participants, "b", core.ItemShared)
	if other == nil || other.Type != Owe || other.Amount != 50 {
		t.Fatalf("expected owe 50, got %+v", other)
	}
}

func TestForExpenseAssigned(t *testing.T) {
	participants := []core.Participant{userA, userB, userC}
	e := core.Expense{
		Amount:     core.Money{Cents: 8000},
		Currency:   core.Soles,
		PaidBy:     "a",
		SplitType:  core.SplitAssigned,
		AssignedTo: "b",
	}

	if got := ForExpense(e, participants, "a", core.ItemShared); got == nil || got.Type != Lent || got.Amount != 80 {
		t.Fatalf("expected A lent 80, got %+v", got)
	}
	if got := ForExpense(e, participants, "b", core.ItemShared); got == nil || got.Type != Owe || got.Amount != 80 {
		t.Fatalf("expected B owes 80, got %+v", got)
	}
	if got := ForExpense(e, participants, "c", core.ItemShared); got != nil {
		t.Fatalf("expected no balance for C, got %+v", got)
	}
}

func TestForExpenseSelected(t *testing.T) {
	participants := []core.Participant{userA, userB, userC}
	e := core.Expense{
		Amount:               core.Money{Cents: 6000},
		Currency:             core.Soles,
		PaidBy:               "a",
		SplitType:            core.SplitSelected,
		SelectedParticipants: []string{"a", "b", "c"},
	}

	if got := ForExpense(e, participants, "a", core.ItemShared); got == nil || got.Type != Lent || got.Amount != 40 {
		t.Fatalf("expected A lent 40, got %+v", got)
	}
	if got := ForExpense(e, participants, "b", core.ItemShared); got == nil || got.Type != Owe || got.Amount != 20 {
		t.Fatalf("expected B owes 20, got %+v", got)
	}

	// Payer outside the selection lent the full amount.
	e.SelectedParticipants = []string{"b", "c"}
	if got := ForExpense(e, participants, "a", core.ItemShared); got == nil || got.Type != Lent || got.Amount != 60 {
		t.Fatalf("expected A lent 60, got %+v", got)
	}
}

func TestForExpenseSoloParticipantReportsNothing(t *testing.T) {
	// A divided expense with a single-member roster: payer lent nothing.
	e := divided(10000, "a")
	if got := ForExpense(e, []core.Participant{userA}, "a", core.ItemShared); got != nil {
		t.Fatalf("expected nil for solo roster, got %+v", got)
	}
}

func TestForExpenseGuards(t *testing.T) {
	e := divided(10000, "a")
	if got := ForExpense(e, nil, "a", core.ItemShared); got != nil {
		t.Fatalf("expected nil with empty roster, got %+v", got)
	}
	if got := ForExpense(e, []core.Participant{userA, userB}, "a", core.ItemPersonal); got != nil {
		t.Fatalf("expected nil on personal item, got %+v", got)
	}

	e.SplitType = core.SplitSelected
	e.SelectedParticipants = nil
	if got := ForExpense(e, []core.Participant{userA, userB}, "a", core.ItemShared); got != nil {
		t.Fatalf("expected nil with empty selection, got %+v", got)
	}
}

func TestNetBalancesDeterministicOrder(t *testing.T) {
	expenses := []core.Expense{
		divided(9000, "a"),
	}
	participants := []core.Participant{userC, userA, userB}
	s := NetBalances(expenses, participants, "a")
	if len(s.OwedToYouDetails) != 2 {
		t.Fatalf("expected 2 details, got %+v", s.OwedToYouDetails)
	}
	if s.OwedToYouDetails[0].UserName != "Bruno" || s.OwedToYouDetails[1].UserName != "Carla" {
		t.Fatalf("expected name-sorted details, got %+v", s.OwedToYouDetails)
	}
}
