package exchange

import (
	"errors"
	"time"
)

var (
	ErrNoRate      = errors.New("no exchange rate registered yet")
	ErrInvalidRate = errors.New("exchange rate must be a positive number")
)

const (
	SourceManual = "manual"
	SourceBCV    = "bcv"
)

// Rate is one observation of the BCV reference-to-secondary exchange rate:
// units of VES per 1 USD. The most recent by TakenAt is the current rate.
type Rate struct {
	ID      string    `json:"id"`
	Value   float64   `json:"value"`
	Source  string    `json:"source"`
	TakenAt time.Time `json:"taken_at"`
}

type Repository interface {
	Save(rate *Rate) error
	FindLatest() (*Rate, error)
	FindInDateRange(start, end time.Time) ([]Rate, error)
}
