package exchange

import (
	"log"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Subscriber is called synchronously every time the current rate changes.
type Subscriber func(Rate)

// RateFetcher fetches the current official rate from an external source.
type RateFetcher interface {
	FetchOfficialRate() (float64, error)
}

type Service interface {
	Current() (Rate, error)
	CurrentValue() float64
	SetManual(value float64) (Rate, error)
	RefreshFromBCV() error
	History(start, end time.Time) ([]Rate, error)
	Subscribe(sub Subscriber)
}

type service struct {
	repo    Repository
	fetcher RateFetcher

	mu          sync.RWMutex
	latest      *Rate
	subscribers []Subscriber
}

func NewService(repo Repository, fetcher RateFetcher) Service {
	s := &service{repo: repo, fetcher: fetcher}

	latest, err := repo.FindLatest()
	if err != nil {
		log.Printf("No current exchange rate loaded at startup: %v", err)
	} else {
		s.latest = latest
	}
	return s
}

// Current returns the most recent rate, or ErrNoRate when none was ever set.
func (s *service) Current() (Rate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.latest == nil {
		return Rate{}, ErrNoRate
	}
	return *s.latest, nil
}

// CurrentValue returns the current rate value, or 0 when no rate exists.
// The checkout ledger treats 0 as "no usable rate".
func (s *service) CurrentValue() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.latest == nil {
		return 0
	}
	return s.latest.Value
}

func (s *service) SetManual(value float64) (Rate, error) {
	return s.register(value, SourceManual)
}

// RefreshFromBCV pulls the official rate and registers it. Called by the
// scheduler; failures are returned so the caller can log and retry next tick.
func (s *service) RefreshFromBCV() error {
	value, err := s.fetcher.FetchOfficialRate()
	if err != nil {
		return err
	}
	_, err = s.register(value, SourceBCV)
	return err
}

func (s *service) History(start, end time.Time) ([]Rate, error) {
	rates, err := s.repo.FindInDateRange(start, end)
	if err != nil {
		return nil, err
	}
	if rates == nil {
		return []Rate{}, nil
	}
	return rates, nil
}

// Subscribe registers a callback invoked synchronously on every rate change.
func (s *service) Subscribe(sub Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, sub)
}

func (s *service) register(value float64, source string) (Rate, error) {
	if value <= 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return Rate{}, ErrInvalidRate
	}

	rate := Rate{
		ID:      uuid.NewString(),
		Value:   value,
		Source:  source,
		TakenAt: time.Now(),
	}
	if err := s.repo.Save(&rate); err != nil {
		return Rate{}, err
	}

	s.mu.Lock()
	s.latest = &rate
	subscribers := make([]Subscriber, len(s.subscribers))
	copy(subscribers, s.subscribers)
	s.mu.Unlock()

	// Latest rate wins; every subscriber is notified synchronously.
	for _, sub := range subscribers {
		sub(rate)
	}
	return rate, nil
}
