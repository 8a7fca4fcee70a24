package domain

import (
	"errors"
	"time"
)

var ErrSaleNotFound = errors.New("sale not found")

// SaleItem snapshots one sold product: the price is frozen at sale time and
// does not follow later catalog edits.
type SaleItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice Cents  `json:"unit_price_cents"`
	Quantity  int    `json:"quantity"`
	LineTotal Cents  `json:"line_total_cents"`
}

// SalePayment snapshots one tendered or returned amount, both in the
// currency of its method and normalized to reference cents at the rate the
// sale was settled with.
type SalePayment struct {
	MethodID   string   `json:"method_id"`
	MethodName string   `json:"method_name"`
	Currency   Currency `json:"currency"`
	Amount     Cents    `json:"amount_cents"`
	Reference  Cents    `json:"reference_cents"`
}

// Sale is a completed, persisted checkout.
type Sale struct {
	ID             string        `json:"id"`
	Number         string        `json:"number"`
	CashierID      string        `json:"cashier_id"`
	CustomerID     string        `json:"customer_id"`
	Items          []SaleItem    `json:"items"`
	Payments       []SalePayment `json:"payments"`
	ChangePayments []SalePayment `json:"change_payments"`
	Rate           float64       `json:"rate"`
	Subtotal       Cents         `json:"subtotal_cents"`
	TotalPaid      Cents         `json:"total_paid_cents"`
	ChangeGiven    Cents         `json:"change_given_cents"`
	CreatedAt      time.Time     `json:"created_at"`
}

// SaleRepository persists completed sales.
type SaleRepository interface {
	Save(sale *Sale) error
	FindByID(id string) (*Sale, error)
	FindInDateRange(start, end time.Time) ([]Sale, error)
	FindRecent(limit int) ([]Sale, error)
}
