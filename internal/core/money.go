// Package core holds the domain model shared by the queue, sync and balance
// layers: expense fields, enumerated tags and money handling.
package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ParseDecimalToCents converts a decimal string to cents with half-up
// rounding on the third decimal place. Both dot and comma separators are
// accepted. Negative and zero amounts are rejected.
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// MoneyFromFloat converts a currency-unit amount (as the backend reports it)
// to cents, rounding half away from zero.
func MoneyFromFloat(units float64) Money {
	return Money{Cents: int64(math.Round(units * 100))}
}

// Units returns the amount in currency units. Balance shares are fractions
// of this value, so the balance engine works in float64 and only storage
// keeps integer cents.
func (m Money) Units() float64 {
	return float64(m.Cents) / 100.0
}

// Format renders the amount with the currency's display symbol.
func (m Money) Format(c Currency) string {
	symbols := map[Currency]string{
		Soles:   "S/",
		Dolares: "$",
		Reales:  "R$",
	}
	sym, ok := symbols[c]
	if !ok {
		sym = "S/"
	}
	return fmt.Sprintf("%s%.2f", sym, m.Units())
}
