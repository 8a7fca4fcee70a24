package catalog

import (
	"errors"
	"time"

	"github.com/dfigueredo/PosAdmin/internal/pos/domain"
)

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrBarcodeTaken       = errors.New("barcode already registered")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrProductDeactivated = errors.New("product is deactivated")
)

// Product is one inventory item. Price is denominated in reference currency
// cents; local-currency display prices are derived through the exchange rate.
type Product struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Barcode   string       `json:"barcode,omitempty"`
	Category  string       `json:"category,omitempty"`
	Price     domain.Cents `json:"price_cents"`
	Stock     int          `json:"stock"`
	Active    bool         `json:"active"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

type Repository interface {
	Save(product *Product) error
	FindByID(id string) (*Product, error)
	FindByBarcode(barcode string) (*Product, error)
	FindAll(activeOnly bool) ([]Product, error)
	Search(query string) ([]Product, error)
	Update(product *Product) error
	DecrementStock(id string, quantity int) error
	IncrementStock(id string, quantity int) error
}
