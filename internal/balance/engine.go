// Package balance computes per-currency totals, net pairwise debts and
// per-expense settlement breakdowns from an expense list and a participant
// roster. Everything here is pure: no I/O, deterministic for a given input.
//
// Shares are computed in currency units as float64. Only strictly positive
// or strictly negative nets are reported; a pair that nets to zero is
// settled and omitted entirely.
package balance

import (
	"sort"

	"gastos/internal/core"
)

const (
	Lent BalanceType = "lent"
	Owe  BalanceType = "owe"
)

type (
	BalanceType string

	// ExpenseBalance is the viewpoint user's position on a single expense.
	ExpenseBalance struct {
		Type   BalanceType
		Amount float64
	}

	// Detail is one line of a settlement summary: what a single other user
	// owes (or is owed) in a single currency.
	Detail struct {
		UserID   string
		UserName string
		Currency core.Currency
		Amount   float64
	}

	// Summary is the net settlement view for the viewpoint user. The maps
	// hold per-currency bucket totals; the detail slices hold the per-user
	// breakdown those totals are the sum of.
	Summary struct {
		OwedToYou        map[core.Currency]float64
		YouOwe           map[core.Currency]float64
		OwedToYouDetails []Detail
		YouOweDetails    []Detail
	}
)

type pairKey struct {
	userID   string
	currency core.Currency
}

// registered filters out pending invitations: users invited by email who
// have not signed up yet take no part in any balance math.
func registered(participants []core.Participant) []core.Participant {
	out := make([]core.Participant, 0, len(participants))
	for _, p := range participants {
		if !p.IsPending {
			out = append(out, p)
		}
	}
	return out
}

func expenseCurrency(e core.Expense) core.Currency {
	if e.Currency == "" {
		return core.Soles
	}
	return e.Currency
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// TotalsByCurrency accumulates the viewpoint user's share of every expense,
// keyed by currency. On personal items each expense counts in full; on
// shared items the share follows the expense's split policy. Currencies a
// user has no share in still appear with a zero total once seen.
func TotalsByCurrency(expenses []core.Expense, participants []core.Participant, userID string, kind core.ItemKind) map[core.Currency]float64 {
	totals := make(map[core.Currency]float64)
	roster := registered(participants)

	for _, e := range expenses {
		currency := expenseCurrency(e)
		if _, ok := totals[currency]; !ok {
			totals[currency] = 0
		}

		var share float64
		switch {
		case kind == core.ItemPersonal:
			share = e.Amount.Units()
		case kind == core.ItemShared && e.SplitType == core.SplitAssigned:
			if e.AssignedTo == userID {
				share = e.Amount.Units()
			}
		case kind == core.ItemShared && e.SplitType == core.SplitDivided:
			if n := len(roster); n > 0 {
				share = e.Amount.Units() / float64(n)
			}
		case kind == core.ItemShared && e.SplitType == core.SplitSelected:
			if n := len(e.SelectedParticipants); n > 0 && contains(e.SelectedParticipants, userID) {
				share = e.Amount.Units() / float64(n)
			}
		}

		totals[currency] += share
	}

	return totals
}

// NetBalances produces the net pairwise settlement view: for every other
// registered participant and currency, what they owe the viewpoint user
// (positive) or the viewpoint user owes them (negative), accumulated over
// all expenses and netted per (user, currency) pair.
func NetBalances(expenses []core.Expense, participants []core.Participant, userID string) Summary {
	s := Summary{
		OwedToYou:        make(map[core.Currency]float64),
		YouOwe:           make(map[core.Currency]float64),
		OwedToYouDetails: []Detail{},
		YouOweDetails:    []Detail{},
	}

	roster := registered(participants)
	if userID == "" || len(expenses) == 0 || len(roster) == 0 {
		return s
	}

	rosterIDs := make([]string, len(roster))
	for i, p := range roster {
		rosterIDs[i] = p.ID
	}

	owedToMe := make(map[pairKey]float64)
	iOwe := make(map[pairKey]float64)

	for _, e := range expenses {
		currency := expenseCurrency(e)

		switch e.SplitType {
		case core.SplitDivided:
			share := e.Amount.Units() / float64(len(rosterIDs))
			if e.PaidBy == userID {
				for _, id := range rosterIDs {
					if id != userID {
						owedToMe[pairKey{id, currency}] += share
					}
				}
			} else {
				iOwe[pairKey{e.PaidBy, currency}] += share
			}

		case core.SplitAssigned:
			if e.AssignedTo == "" {
				continue
			}
			if e.PaidBy == userID && e.AssignedTo != userID {
				owedToMe[pairKey{e.AssignedTo, currency}] += e.Amount.Units()
			} else if e.AssignedTo == userID && e.PaidBy != userID {
				iOwe[pairKey{e.PaidBy, currency}] += e.Amount.Units()
			}

		case core.SplitSelected:
			selected := e.SelectedParticipants
			if len(selected) == 0 {
				continue
			}
			share := e.Amount.Units() / float64(len(selected))
			if e.PaidBy == userID {
				for _, id := range selected {
					if id != userID {
						owedToMe[pairKey{id, currency}] += share
					}
				}
			} else if contains(selected, userID) {
				iOwe[pairKey{e.PaidBy, currency}] += share
			}
		}
	}

	// Net the two accumulations per (user, currency) pair.
	net := make(map[pairKey]float64)
	for k, v := range owedToMe {
		net[k] += v
	}
	for k, v := range iOwe {
		net[k] -= v
	}

	keys := make([]pairKey, 0, len(net))
	for k := range net {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].userID != keys[j].userID {
			return keys[i].userID < keys[j].userID
		}
		return keys[i].currency < keys[j].currency
	})

	names := make(map[string]string, len(participants))
	for _, p := range participants {
		names[p.ID] = p.DisplayName()
	}

	for _, k := range keys {
		amount := net[k]
		name := names[k.userID]
		if name == "" {
			name = k.userID
		}

		switch {
		case amount > 0:
			s.OwedToYou[k.currency] += amount
			s.OwedToYouDetails = append(s.OwedToYouDetails, Detail{
				UserID:   k.userID,
				UserName: name,
				Currency: k.currency,
				Amount:   amount,
			})
		case amount < 0:
			s.YouOwe[k.currency] += -amount
			s.YouOweDetails = append(s.YouOweDetails, Detail{
				UserID:   k.userID,
				UserName: name,
				Currency: k.currency,
				Amount:   -amount,
			})
		}
		// amount == 0: fully settled, omitted.
	}

	sortDetails(s.OwedToYouDetails)
	sortDetails(s.YouOweDetails)

	return s
}

func sortDetails(details []Detail) {
	sort.Slice(details, func(i, j int) bool {
		if details[i].UserName != details[j].UserName {
			return details[i].UserName < details[j].UserName
		}
		return details[i].Currency < details[j].Currency
	})
}

// ForExpense evaluates the viewpoint user's position on a single expense:
// lent, owed, or nil when the expense does not involve the user
// asymmetrically. Used for the itemized display, never for accumulation.
func ForExpense(e core.Expense, participants []core.Participant, userID string, kind core.ItemKind) *ExpenseBalance {
	if userID == "" || kind == core.ItemPersonal {
		return nil
	}

	roster := registered(participants)
	amount := e.Amount.Units()

	switch e.SplitType {
	case core.SplitAssigned:
		if e.AssignedTo == "" {
			return nil
		}
		if e.PaidBy == userID && e.AssignedTo != userID {
			return &ExpenseBalance{Type: Lent, Amount: amount}
		}
		if e.AssignedTo == userID && e.PaidBy != userID {
			return &ExpenseBalance{Type: Owe, Amount: amount}
		}

	case core.SplitDivided:
		n := len(roster)
		if n == 0 {
			return nil
		}
		share := amount / float64(n)
		if e.PaidBy == userID {
			if lent := amount - share; lent > 0 {
				return &ExpenseBalance{Type: Lent, Amount: lent}
			}
			return nil
		}
		return &ExpenseBalance{Type: Owe, Amount: share}

	case core.SplitSelected:
		selected := e.SelectedParticipants
		if len(selected) == 0 {
			return nil
		}
		share := amount / float64(len(selected))
		if e.PaidBy == userID {
			if contains(selected, userID) {
				if lent := amount - share; lent > 0 {
					return &ExpenseBalance{Type: Lent, Amount: lent}
				}
				return nil
			}
			return &ExpenseBalance{Type: Lent, Amount: amount}
		}
		if contains(selected, userID) {
			return &ExpenseBalance{Type: Owe, Amount: share}
		}
	}

	return nil
}
