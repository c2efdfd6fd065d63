package core

import (
	"testing"
	"time"
)

func validNewExpense() NewExpense {
	return NewExpense{
		Amount:        Money{Cents: 1500},
		Description:   "mercado",
		PaymentMethod: Efectivo,
		Currency:      Soles,
		Date:          time.Date(2025, 2, 15, 18, 45, 0, 0, time.UTC),
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
	if err := (Money{Cents: -10}).Validate(); err == nil {
		t.Fatalf("expected error for negative")
	}
}

func TestNewExpenseValidate(t *testing.T) {
	if err := validNewExpense().Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*NewExpense)
	}{
		{"zero amount", func(e *NewExpense) { e.Amount = Money{} }},
		{"empty description", func(e *NewExpense) { e.Description = "   " }},
		{"bad currency", func(e *NewExpense) { e.Currency = "euros" }},
		{"bad payment method", func(e *NewExpense) { e.PaymentMethod = "tarjeta" }},
		{"bad split type", func(e *NewExpense) { e.SplitType = "halves" }},
		{"assigned without assignee", func(e *NewExpense) { e.SplitType = SplitAssigned }},
		{"selected without selection", func(e *NewExpense) { e.SplitType = SplitSelected }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := validNewExpense()
			tc.mutate(&e)
			if err := e.Validate(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestNewExpenseValidateSharedFields(t *testing.T) {
	e := validNewExpense()
	e.PaidBy = "user-a"
	e.SplitType = SplitSelected
	e.SelectedParticipants = []string{"user-a", "user-b"}
	if err := e.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	e.SplitType = SplitAssigned
	e.AssignedTo = "user-b"
	if err := e.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
}

func TestNewExpenseNormalized(t *testing.T) {
	lima := time.FixedZone("America/Lima", -5*3600)
	e := validNewExpense()
	e.Date = time.Date(2025, 2, 15, 13, 45, 0, 0, lima)
	e.SelectedParticipants = []string{" user-a ", "", "user-b"}

	n := e.Normalized()
	if n.Date.Location() != time.UTC {
		t.Fatalf("expected UTC date, got %v", n.Date.Location())
	}
	if n.Date.Hour() != 18 {
		t.Fatalf("expected 18:45 UTC, got %v", n.Date)
	}
	if len(n.SelectedParticipants) != 2 || n.SelectedParticipants[0] != "user-a" || n.SelectedParticipants[1] != "user-b" {
		t.Fatalf("unexpected selection %v", n.SelectedParticipants)
	}
}

func TestParticipantDisplayName(t *testing.T) {
	cases := []struct {
		p    Participant
		want string
	}{
		{Participant{ID: "u1", Email: "ana@example.com", Name: "Ana"}, "Ana"},
		{Participant{ID: "u2", Email: "bruno@example.com"}, "bruno"},
		{Participant{ID: "u3"}, "u3"},
	}
	for _, tc := range cases {
		if got := tc.p.DisplayName(); got != tc.want {
			t.Fatalf("expected %q, got %q", tc.want, got)
		}
	}
}
