package exchange

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type mockRateRepository struct {
	rates   []Rate
	saveErr error
}

func (m *mockRateRepository) Save(rate *Rate) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.rates = append(m.rates, *rate)
	return nil
}

func (m *mockRateRepository) FindLatest() (*Rate, error) {
	if len(m.rates) == 0 {
		return nil, ErrNoRate
	}
	latest := m.rates[len(m.rates)-1]
	return &latest, nil
}

func (m *mockRateRepository) FindInDateRange(start, end time.Time) ([]Rate, error) {
	var out []Rate
	for _, r := range m.rates {
		if !r.TakenAt.Before(start) && !r.TakenAt.After(end) {
			out = append(out, r)
		}
	}
	return out, nil
}

type mockFetcher struct {
	value float64
	err   error
}

func (m *mockFetcher) FetchOfficialRate() (float64, error) {
	return m.value, m.err
}

func TestService_CurrentWithoutAnyRate(t *testing.T) {
	service := NewService(&mockRateRepository{}, &mockFetcher{})

	_, err := service.Current()
	assert.ErrorIs(t, err, ErrNoRate)
	assert.Equal(t, float64(0), service.CurrentValue())
}

func TestService_SetManualUpdatesCurrent(t *testing.T) {
	repo := &mockRateRepository{}
	service := NewService(repo, &mockFetcher{})

	rate, err := service.SetManual(36.58)
	assert.NoError(t, err)
	assert.Equal(t, 36.58, rate.Value)
	assert.Equal(t, SourceManual, rate.Source)
	assert.NotEmpty(t, rate.ID)
	assert.Len(t, repo.rates, 1)

	current, err := service.Current()
	assert.NoError(t, err)
	assert.Equal(t, 36.58, current.Value)
}

func TestService_SetManualRejectsInvalidValues(t *testing.T) {
	service := NewService(&mockRateRepository{}, &mockFetcher{})

	for _, value := range []float64{0, -1} {
		_, err := service.SetManual(value)
		assert.ErrorIs(t, err, ErrInvalidRate)
	}
}

func TestService_SubscribersNotifiedSynchronously(t *testing.T) {
	service := NewService(&mockRateRepository{}, &mockFetcher{})

	var first, second []float64
	service.Subscribe(func(r Rate) { first = append(first, r.Value) })
	service.Subscribe(func(r Rate) { second = append(second, r.Value) })

	_, err := service.SetManual(36.00)
	assert.NoError(t, err)
	_, err = service.SetManual(37.25)
	assert.NoError(t, err)

	assert.Equal(t, []float64{36.00, 37.25}, first)
	assert.Equal(t, []float64{37.25}, second[len(second)-1:], "latest rate wins")
	assert.Equal(t, 37.25, service.CurrentValue())
}

func TestService_RefreshFromBCV(t *testing.T) {
	repo := &mockRateRepository{}
	service := NewService(repo, &mockFetcher{value: 38.11})

	assert.NoError(t, service.RefreshFromBCV())
	current, err := service.Current()
	assert.NoError(t, err)
	assert.Equal(t, 38.11, current.Value)
	assert.Equal(t, SourceBCV, current.Source)
}

func TestService_RefreshFromBCVPropagatesFetchError(t *testing.T) {
	fetchErr := errors.New("bcv api unreachable")
	service := NewService(&mockRateRepository{}, &mockFetcher{err: fetchErr})

	assert.ErrorIs(t, service.RefreshFromBCV(), fetchErr)
	_, err := service.Current()
	assert.ErrorIs(t, err, ErrNoRate)
}

func TestService_LoadsLatestAtStartup(t *testing.T) {
	repo := &mockRateRepository{rates: []Rate{{ID: "r1", Value: 35.5, Source: SourceManual, TakenAt: time.Now()}}}
	service := NewService(repo, &mockFetcher{})

	assert.Equal(t, 35.5, service.CurrentValue())
}
