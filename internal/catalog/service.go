package catalog

import (
	"errors"
	"time"

	"github.com/google/uuid"

	posErrors "github.com/dfigueredo/PosAdmin/internal/pos/errors"
)

const maxProductNameLength = 120

type Service interface {
	Create(product *Product) error
	Update(product *Product) error
	Deactivate(id string) error
	GetByID(id string) (*Product, error)
	GetByBarcode(barcode string) (*Product, error)
	List(activeOnly bool) ([]Product, error)
	Search(query string) ([]Product, error)
	AdjustStock(id string, delta int) (*Product, error)
	DecrementForSale(productID string, quantity int) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func validateProduct(p *Product) error {
	if p.Name == "" {
		return posErrors.NewFieldValidationError("name", "must not be empty")
	}
	if len(p.Name) > maxProductNameLength {
		return posErrors.NewFieldValidationError("name", "is too long")
	}
	if p.Price <= 0 {
		return posErrors.NewFieldValidationError("price_cents", "must be a positive amount")
	}
	if p.Stock < 0 {
		return posErrors.NewFieldValidationError("stock", "must not be negative")
	}
	return nil
}

func (s *service) Create(product *Product) error {
	if err := validateProduct(product); err != nil {
		return err
	}

	if product.Barcode != "" {
		existing, err := s.repo.FindByBarcode(product.Barcode)
		if err != nil && !errors.Is(err, ErrProductNotFound) {
			return err
		}
		if existing != nil {
			return ErrBarcodeTaken
		}
	}

	product.ID = uuid.NewString()
	product.Active = true
	product.CreatedAt = time.Now()
	product.UpdatedAt = product.CreatedAt
	return s.repo.Save(product)
}

func (s *service) Update(product *Product) error {
	if err := validateProduct(product); err != nil {
		return err
	}

	existing, err := s.repo.FindByID(product.ID)
	if err != nil {
		return err
	}

	if product.Barcode != "" && product.Barcode != existing.Barcode {
		other, err := s.repo.FindByBarcode(product.Barcode)
		if err != nil && !errors.Is(err, ErrProductNotFound) {
			return err
		}
		if other != nil {
			return ErrBarcodeTaken
		}
	}

	product.Active = existing.Active
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = time.Now()
	return s.repo.Update(product)
}

func (s *service) Deactivate(id string) error {
	product, err := s.repo.FindByID(id)
	if err != nil {
		return err
	}
	product.Active = false
	product.UpdatedAt = time.Now()
	return s.repo.Update(product)
}

func (s *service) GetByID(id string) (*Product, error) {
	return s.repo.FindByID(id)
}

func (s *service) GetByBarcode(barcode string) (*Product, error) {
	return s.repo.FindByBarcode(barcode)
}

func (s *service) List(activeOnly bool) ([]Product, error) {
	products, err := s.repo.FindAll(activeOnly)
	if err != nil {
		return nil, err
	}
	if products == nil {
		return []Product{}, nil
	}
	return products, nil
}

func (s *service) Search(query string) ([]Product, error) {
	if query == "" {
		return s.List(true)
	}
	products, err := s.repo.Search(query)
	if err != nil {
		return nil, err
	}
	if products == nil {
		return []Product{}, nil
	}
	return products, nil
}

func (s *service) AdjustStock(id string, delta int) (*Product, error) {
	if delta == 0 {
		return nil, posErrors.NewFieldValidationError("delta", "must not be zero")
	}

	var err error
	if delta > 0 {
		err = s.repo.IncrementStock(id, delta)
	} else {
		err = s.repo.DecrementStock(id, -delta)
	}
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(id)
}

// DecrementForSale reserves sold stock at sale completion. Selling below
// zero stock is rejected.
func (s *service) DecrementForSale(productID string, quantity int) error {
	if quantity < 1 {
		return posErrors.NewFieldValidationError("quantity", "must be at least 1")
	}
	return s.repo.DecrementStock(productID, quantity)
}
