package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyFromFloat(t *testing.T) {
	cases := []struct {
		in  float64
		out int64
	}{
		{12.34, 1234},
		{0.005, 1},
		{100, 10000},
	}
	for _, tc := range cases {
		if got := MoneyFromFloat(tc.in); got.Cents != tc.out {
			t.Fatalf("%v expected %d cents, got %d", tc.in, tc.out, got.Cents)
		}
	}
}

func TestMoneyFormat(t *testing.T) {
	if got := (Money{Cents: 1550}).Format(Soles); got != "S/15.50" {
		t.Fatalf("unexpected format %q", got)
	}
	if got := (Money{Cents: 200}).Format(Dolares); got != "$2.00" {
		t.Fatalf("unexpected format %q", got)
	}
	if got := (Money{Cents: 99}).Format(Reales); got != "R$0.99" {
		t.Fatalf("unexpected format %q", got)
	}
}
