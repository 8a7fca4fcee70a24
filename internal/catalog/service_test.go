package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	posErrors "github.com/dfigueredo/PosAdmin/internal/pos/errors"
)

type mockProductRepository struct {
	products map[string]*Product
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{products: map[string]*Product{}}
}

func (m *mockProductRepository) Save(p *Product) error {
	copied := *p
	m.products[p.ID] = &copied
	return nil
}

func (m *mockProductRepository) FindByID(id string) (*Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *mockProductRepository) FindByBarcode(barcode string) (*Product, error) {
	for _, p := range m.products {
		if p.Barcode == barcode {
			copied := *p
			return &copied, nil
		}
	}
	return nil, ErrProductNotFound
}

func (m *mockProductRepository) FindAll(activeOnly bool) ([]Product, error) {
	var out []Product
	for _, p := range m.products {
		if !activeOnly || p.Active {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockProductRepository) Search(query string) ([]Product, error) {
	return m.FindAll(true)
}

func (m *mockProductRepository) Update(p *Product) error {
	if _, ok := m.products[p.ID]; !ok {
		return ErrProductNotFound
	}
	copied := *p
	m.products[p.ID] = &copied
	return nil
}

func (m *mockProductRepository) DecrementStock(id string, quantity int) error {
	p, ok := m.products[id]
	if !ok {
		return ErrProductNotFound
	}
	if p.Stock < quantity {
		return ErrInsufficientStock
	}
	p.Stock -= quantity
	return nil
}

func (m *mockProductRepository) IncrementStock(id string, quantity int) error {
	p, ok := m.products[id]
	if !ok {
		return ErrProductNotFound
	}
	p.Stock += quantity
	return nil
}

func TestProductService_CreateAssignsIDAndActivates(t *testing.T) {
	repo := newMockProductRepository()
	service := NewService(repo)

	product := &Product{Name: "Harina PAN", Price: 150, Stock: 20}
	assert.NoError(t, service.Create(product))
	assert.NotEmpty(t, product.ID)
	assert.True(t, product.Active)

	stored, err := service.GetByID(product.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Harina PAN", stored.Name)
}

func TestProductService_CreateValidation(t *testing.T) {
	service := NewService(newMockProductRepository())

	err := service.Create(&Product{Name: "", Price: 100})
	assert.True(t, posErrors.IsValidationError(err))

	err = service.Create(&Product{Name: "Arroz", Price: 0})
	assert.True(t, posErrors.IsValidationError(err))

	err = service.Create(&Product{Name: "Arroz", Price: 100, Stock: -1})
	assert.True(t, posErrors.IsValidationError(err))
}

func TestProductService_CreateRejectsDuplicateBarcode(t *testing.T) {
	service := NewService(newMockProductRepository())

	assert.NoError(t, service.Create(&Product{Name: "Harina PAN", Barcode: "759100100", Price: 150}))
	err := service.Create(&Product{Name: "Harina Juana", Barcode: "759100100", Price: 140})
	assert.ErrorIs(t, err, ErrBarcodeTaken)
}

func TestProductService_DecrementForSale(t *testing.T) {
	repo := newMockProductRepository()
	service := NewService(repo)

	product := &Product{Name: "Cafe", Price: 350, Stock: 2}
	assert.NoError(t, service.Create(product))

	assert.NoError(t, service.DecrementForSale(product.ID, 2))
	stored, _ := service.GetByID(product.ID)
	assert.Equal(t, 0, stored.Stock)

	assert.ErrorIs(t, service.DecrementForSale(product.ID, 1), ErrInsufficientStock)
}

func TestProductService_AdjustStock(t *testing.T) {
	repo := newMockProductRepository()
	service := NewService(repo)

	product := &Product{Name: "Azucar", Price: 120, Stock: 5}
	assert.NoError(t, service.Create(product))

	updated, err := service.AdjustStock(product.ID, 10)
	assert.NoError(t, err)
	assert.Equal(t, 15, updated.Stock)

	updated, err = service.AdjustStock(product.ID, -15)
	assert.NoError(t, err)
	assert.Equal(t, 0, updated.Stock)

	_, err = service.AdjustStock(product.ID, 0)
	assert.True(t, posErrors.IsValidationError(err))
}

func TestProductService_DeactivateHidesFromActiveList(t *testing.T) {
	repo := newMockProductRepository()
	service := NewService(repo)

	product := &Product{Name: "Aceite", Price: 500, Stock: 3}
	assert.NoError(t, service.Create(product))
	assert.NoError(t, service.Deactivate(product.ID))

	active, err := service.List(true)
	assert.NoError(t, err)
	assert.Empty(t, active)

	all, err := service.List(false)
	assert.NoError(t, err)
	assert.Len(t, all, 1)
}
