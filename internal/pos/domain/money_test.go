package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		input   string
		want    Cents
		wantErr bool
	}{
		{"12.34", 1234, false},
		{"12.3", 1230, false},
		{"12", 1200, false},
		{"0.01", 1, false},
		{" 7.00 ", 700, false},
		{"0", 0, true},
		{"0.00", 0, true},
		{"-5", 0, true},
		{"+5", 0, true},
		{"12.345", 0, true},
		{"abc", 0, true},
		{"1.2e3", 0, true},
		{"", 0, true},
		{".50", 0, true},
		{"1.-5", 0, true},
		{"1.+5", 0, true},
		{"1.5-", 0, true},
		{"99999999999999999999", 0, true},
		{"184467440737095516.16", 0, true},
	}

	for _, tc := range cases {
		got, err := ParseAmount(tc.input)
		if tc.wantErr {
			assert.ErrorIs(t, err, ErrInvalidAmount, "input %q", tc.input)
		} else {
			assert.NoError(t, err, "input %q", tc.input)
			assert.Equal(t, tc.want, got, "input %q", tc.input)
		}
	}
}

func TestNormalizeToReference(t *testing.T) {
	got, err := NormalizeToReference(150000, CurrencySecondary, 100)
	assert.NoError(t, err)
	assert.Equal(t, Cents(1500), got)

	got, err = NormalizeToReference(1500, CurrencyReference, 0)
	assert.NoError(t, err, "reference amounts never need a rate")
	assert.Equal(t, Cents(1500), got)

	_, err = NormalizeToReference(100, CurrencySecondary, 0)
	assert.ErrorIs(t, err, ErrNoExchangeRate)

	_, err = NormalizeToReference(100, CurrencySecondary, math.NaN())
	assert.ErrorIs(t, err, ErrNoExchangeRate)

	_, err = NormalizeToReference(100, CurrencySecondary, math.Inf(1))
	assert.ErrorIs(t, err, ErrNoExchangeRate)
}

func TestCentsString(t *testing.T) {
	assert.Equal(t, "12.34", Cents(1234).String())
	assert.Equal(t, "0.05", Cents(5).String())
	assert.Equal(t, "-3.00", Cents(-300).String())
}
