package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Cents is a monetary amount in minor units (1/100) of its currency.
// All ledger arithmetic is integer arithmetic; amounts never touch floats
// except when crossing the exchange rate.
type Cents int64

var (
	ErrNoExchangeRate = errors.New("no exchange rate available")
	ErrInvalidAmount  = errors.New("amount is not a valid positive monetary value")
)

type Currency string

const (
	// CurrencyReference is the currency product prices are denominated in (USD).
	CurrencyReference Currency = "USD"
	// CurrencySecondary is the local currency converted via the BCV rate (VES).
	CurrencySecondary Currency = "VES"
)

func (c Currency) Valid() bool {
	return c == CurrencyReference || c == CurrencySecondary
}

// NormalizeToReference converts an amount in the given currency to reference
// currency cents. Secondary amounts divide by the rate (units of secondary per
// one reference unit) and round to the nearest cent. A missing or non-positive
// rate yields ErrNoExchangeRate, never NaN or Inf.
func NormalizeToReference(amount Cents, currency Currency, rate float64) (Cents, error) {
	if currency == CurrencyReference {
		return amount, nil
	}
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return 0, ErrNoExchangeRate
	}
	return Cents(math.Round(float64(amount) / rate)), nil
}

// ParseAmount parses a user-entered decimal string ("12", "12.5", "12.50")
// into cents. Negative, zero, non-numeric and more-than-two-decimal inputs
// are rejected.
func ParseAmount(s string) (Cents, error) {
	s = strings.TrimSpace(s)

	whole := s
	frac := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole = s[:i]
		frac = s[i+1:]
	}
	// Both parts must be bare digit runs: ParseInt alone would let a sign
	// slip through in the fraction ("1.-5").
	if whole == "" || len(frac) > 2 || !isDigits(whole) || !isDigits(frac) {
		return 0, ErrInvalidAmount
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}

	var cents int64
	switch len(frac) {
	case 1:
		cents, _ = strconv.ParseInt(frac, 10, 64)
		cents *= 10
	case 2:
		cents, _ = strconv.ParseInt(frac, 10, 64)
	}

	if units > (math.MaxInt64-cents)/100 {
		return 0, ErrInvalidAmount
	}
	total := units*100 + cents
	if total <= 0 {
		return 0, ErrInvalidAmount
	}
	return Cents(total), nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// String renders the amount as a plain decimal, e.g. 1234 -> "12.34".
func (c Cents) String() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}
