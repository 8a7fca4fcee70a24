package interfaces

import (
	"time"

	"github.com/dfigueredo/PosAdmin/internal/pos/application"
	"github.com/dfigueredo/PosAdmin/internal/pos/domain"
)

type MockSaleService struct {
	sale    *domain.Sale
	sales   []domain.Sale
	summary *application.DailySummary
	err     error

	lastLimit int
	lastFrom  time.Time
	lastTo    time.Time
	lastDay   time.Time
}

func (m *MockSaleService) GetByID(id string) (*domain.Sale, error) {
	return m.sale, m.err
}

func (m *MockSaleService) Recent(limit int) ([]domain.Sale, error) {
	m.lastLimit = limit
	return m.sales, m.err
}

func (m *MockSaleService) InRange(from, to time.Time) ([]domain.Sale, error) {
	m.lastFrom = from
	m.lastTo = to
	return m.sales, m.err
}

func (m *MockSaleService) DailySummary(day time.Time) (*application.DailySummary, error) {
	m.lastDay = day
	return m.summary, m.err
}
