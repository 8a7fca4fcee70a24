package application

import (
	"sort"
	"time"

	"github.com/dfigueredo/PosAdmin/internal/pos/domain"
	posErrors "github.com/dfigueredo/PosAdmin/internal/pos/errors"
)

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 100
)

// MethodTotal aggregates what one payment method collected over a period,
// in the method's own currency and normalized to reference cents.
type MethodTotal struct {
	MethodID  string          `json:"method_id"`
	Name      string          `json:"name"`
	Currency  domain.Currency `json:"currency"`
	Amount    domain.Cents    `json:"amount"`
	Reference domain.Cents    `json:"reference"`
}

// DailySummary is the end-of-day report for one calendar day.
type DailySummary struct {
	Date        string        `json:"date"`
	SaleCount   int           `json:"sale_count"`
	Subtotal    domain.Cents  `json:"subtotal"`
	TotalPaid   domain.Cents  `json:"total_paid"`
	ChangeGiven domain.Cents  `json:"change_given"`
	ByMethod    []MethodTotal `json:"by_method"`
}

// SaleService exposes the read side of completed sales.
type SaleService struct {
	repo domain.SaleRepository
}

func NewSaleService(repo domain.SaleRepository) *SaleService {
	return &SaleService{repo: repo}
}

func (s *SaleService) GetByID(id string) (*domain.Sale, error) {
	return s.repo.FindByID(id)
}

func (s *SaleService) Recent(limit int) ([]domain.Sale, error) {
	if limit < 1 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}
	return s.repo.FindRecent(limit)
}

func (s *SaleService) InRange(from, to time.Time) ([]domain.Sale, error) {
	if !to.After(from) {
		return nil, posErrors.NewFieldValidationError("to", "must be after from")
	}
	return s.repo.FindInDateRange(from, to)
}

// DailySummary aggregates all sales of the calendar day containing the given
// instant, in that instant's location.
func (s *SaleService) DailySummary(day time.Time) (*DailySummary, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.Add(24 * time.Hour)

	sales, err := s.repo.FindInDateRange(start, end)
	if err != nil {
		return nil, err
	}

	summary := &DailySummary{
		Date:     start.Format("2006-01-02"),
		ByMethod: []MethodTotal{},
	}
	totals := make(map[string]*MethodTotal)

	for _, sale := range sales {
		summary.SaleCount++
		summary.Subtotal += sale.Subtotal
		summary.TotalPaid += sale.TotalPaid
		summary.ChangeGiven += sale.ChangeGiven

		for _, p := range sale.Payments {
			total, ok := totals[p.MethodID]
			if !ok {
				total = &MethodTotal{MethodID: p.MethodID, Name: p.MethodName, Currency: p.Currency}
				totals[p.MethodID] = total
			}
			total.Amount += p.Amount
			total.Reference += p.Reference
		}
		for _, cp := range sale.ChangePayments {
			total, ok := totals[cp.MethodID]
			if !ok {
				total = &MethodTotal{MethodID: cp.MethodID, Name: cp.MethodName, Currency: cp.Currency}
				totals[cp.MethodID] = total
			}
			total.Amount -= cp.Amount
			total.Reference -= cp.Reference
		}
	}

	for _, total := range totals {
		summary.ByMethod = append(summary.ByMethod, *total)
	}
	sort.Slice(summary.ByMethod, func(i, j int) bool {
		return summary.ByMethod[i].Name < summary.ByMethod[j].Name
	})

	return summary, nil
}
