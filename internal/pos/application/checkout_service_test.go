package application

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfigueredo/PosAdmin/internal/catalog"
	"github.com/dfigueredo/PosAdmin/internal/customer"
	"github.com/dfigueredo/PosAdmin/internal/pos/domain"
	posErrors "github.com/dfigueredo/PosAdmin/internal/pos/errors"
)

type mockProductCatalog struct {
	products     map[string]*catalog.Product
	decrementErr error
	decrements   map[string]int
	restores     map[string]int
}

func newMockProductCatalog() *mockProductCatalog {
	return &mockProductCatalog{
		products:   make(map[string]*catalog.Product),
		decrements: make(map[string]int),
		restores:   make(map[string]int),
	}
}

func (m *mockProductCatalog) GetByID(id string) (*catalog.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return p, nil
}

func (m *mockProductCatalog) DecrementForSale(productID string, quantity int) error {
	if m.decrementErr != nil {
		return m.decrementErr
	}
	m.decrements[productID] += quantity
	return nil
}

func (m *mockProductCatalog) AdjustStock(id string, delta int) (*catalog.Product, error) {
	m.restores[id] += delta
	return m.products[id], nil
}

type mockCustomerDirectory struct {
	customers map[string]*customer.Customer
	walkIn    *customer.Customer
}

func (m *mockCustomerDirectory) GetByID(id string) (*customer.Customer, error) {
	c, ok := m.customers[id]
	if !ok {
		return nil, customer.ErrCustomerNotFound
	}
	return c, nil
}

func (m *mockCustomerDirectory) WalkIn() (*customer.Customer, error) {
	return m.walkIn, nil
}

type mockMethodCatalog struct {
	methods map[string]domain.PaymentMethod
}

func (m *mockMethodCatalog) GetByID(id string) (*domain.PaymentMethod, error) {
	method, ok := m.methods[id]
	if !ok {
		return nil, domain.ErrMethodNotFound
	}
	return &method, nil
}

func (m *mockMethodCatalog) MethodsByID() (map[string]domain.PaymentMethod, error) {
	return m.methods, nil
}

type fixedRateSource struct {
	value float64
}

func (r *fixedRateSource) CurrentValue() float64 { return r.value }

type mockSaleRepository struct {
	saved   []*domain.Sale
	saveErr error
}

func (m *mockSaleRepository) Save(sale *domain.Sale) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, sale)
	return nil
}

func (m *mockSaleRepository) FindByID(id string) (*domain.Sale, error) {
	for _, sale := range m.saved {
		if sale.ID == id {
			return sale, nil
		}
	}
	return nil, domain.ErrSaleNotFound
}

func (m *mockSaleRepository) FindInDateRange(from, to time.Time) ([]domain.Sale, error) {
	var out []domain.Sale
	for _, sale := range m.saved {
		if !sale.CreatedAt.Before(from) && sale.CreatedAt.Before(to) {
			out = append(out, *sale)
		}
	}
	return out, nil
}

func (m *mockSaleRepository) FindRecent(limit int) ([]domain.Sale, error) {
	var out []domain.Sale
	for i := len(m.saved) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, *m.saved[i])
	}
	return out, nil
}

type mockDrawerRecorder struct {
	recorded []*domain.Sale
}

func (m *mockDrawerRecorder) RecordSale(sale *domain.Sale) error {
	m.recorded = append(m.recorded, sale)
	return nil
}

type checkoutFixture struct {
	service   *CheckoutService
	products  *mockProductCatalog
	customers *mockCustomerDirectory
	methods   *mockMethodCatalog
	rates     *fixedRateSource
	sales     *mockSaleRepository
	drawer    *mockDrawerRecorder
}

func newCheckoutFixture() *checkoutFixture {
	products := newMockProductCatalog()
	products.products["p1"] = &catalog.Product{ID: "p1", Name: "Harina PAN 1kg", Price: 150, Stock: 10, Active: true}
	products.products["p2"] = &catalog.Product{ID: "p2", Name: "Café 250g", Price: 400, Stock: 3, Active: true}
	products.products["p3"] = &catalog.Product{ID: "p3", Name: "Descontinuado", Price: 100, Stock: 5, Active: false}

	customers := &mockCustomerDirectory{
		customers: map[string]*customer.Customer{
			"c1": {ID: "c1", DocumentID: "V-12345678", Name: "María Pérez"},
		},
		walkIn: &customer.Customer{ID: "walkin", DocumentID: customer.WalkInDocumentID, Name: "Cliente ocasional"},
	}

	methods := &mockMethodCatalog{methods: map[string]domain.PaymentMethod{
		"cash-usd": {ID: "cash-usd", Name: "Efectivo USD", Currency: domain.CurrencyReference, Kind: domain.KindCash, GivesChange: true},
		"cash-bs":  {ID: "cash-bs", Name: "Efectivo Bs", Currency: domain.CurrencySecondary, Kind: domain.KindCash, GivesChange: true},
		"pm":       {ID: "pm", Name: "Pago Móvil", Currency: domain.CurrencySecondary, Kind: domain.KindDigital, GivesChange: false},
	}}

	rates := &fixedRateSource{value: 100}
	sales := &mockSaleRepository{}
	drawer := &mockDrawerRecorder{}

	return &checkoutFixture{
		service:   NewCheckoutService(products, customers, methods, rates, sales, drawer),
		products:  products,
		customers: customers,
		methods:   methods,
		rates:     rates,
		sales:     sales,
		drawer:    drawer,
	}
}

func (f *checkoutFixture) sessionAtPayment(t *testing.T) string {
	t.Helper()

	view, err := f.service.StartSession("cashier-1")
	require.NoError(t, err)

	_, err = f.service.AddProduct(view.ID, "p1", 2) // 300
	require.NoError(t, err)

	_, err = f.service.Advance(view.ID)
	require.NoError(t, err)

	_, err = f.service.SelectCustomer(view.ID, "")
	require.NoError(t, err)

	_, err = f.service.Advance(view.ID)
	require.NoError(t, err)

	return view.ID
}

func TestCheckoutService_StartSession_OnePerCashier(t *testing.T) {
	f := newCheckoutFixture()

	first, err := f.service.StartSession("cashier-1")
	require.NoError(t, err)

	again, err := f.service.StartSession("cashier-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	other, err := f.service.StartSession("cashier-2")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestCheckoutService_AddProduct(t *testing.T) {
	f := newCheckoutFixture()
	view, err := f.service.StartSession("cashier-1")
	require.NoError(t, err)

	view, err = f.service.AddProduct(view.ID, "p1", 2)
	require.NoError(t, err)
	assert.Equal(t, domain.Cents(300), view.Snapshot.Subtotal)

	// Adding the same product accumulates into one line.
	view, err = f.service.AddProduct(view.ID, "p1", 1)
	require.NoError(t, err)
	assert.Len(t, view.Cart.Lines, 1)
	assert.Equal(t, 3, view.Cart.Lines[0].Quantity)
}

func TestCheckoutService_AddProduct_DeactivatedRejected(t *testing.T) {
	f := newCheckoutFixture()
	view, err := f.service.StartSession("cashier-1")
	require.NoError(t, err)

	_, err = f.service.AddProduct(view.ID, "p3", 1)
	assert.ErrorIs(t, err, catalog.ErrProductDeactivated)
}

func TestCheckoutService_AddProduct_CannotExceedStock(t *testing.T) {
	f := newCheckoutFixture()
	view, err := f.service.StartSession("cashier-1")
	require.NoError(t, err)

	_, err = f.service.AddProduct(view.ID, "p2", 2)
	require.NoError(t, err)

	_, err = f.service.AddProduct(view.ID, "p2", 2)
	assert.ErrorIs(t, err, catalog.ErrInsufficientStock)
}

func TestCheckoutService_CartEditsOnlyDuringProductSelection(t *testing.T) {
	f := newCheckoutFixture()
	sessionID := f.sessionAtPayment(t)

	_, err := f.service.AddProduct(sessionID, "p1", 1)
	assert.ErrorIs(t, err, domain.ErrWrongStage)

	_, err = f.service.SetLineQuantity(sessionID, "p1", 5)
	assert.ErrorIs(t, err, domain.ErrWrongStage)
}

func TestCheckoutService_SelectCustomer_DefaultsToWalkIn(t *testing.T) {
	f := newCheckoutFixture()
	view, err := f.service.StartSession("cashier-1")
	require.NoError(t, err)

	_, err = f.service.AddProduct(view.ID, "p1", 1)
	require.NoError(t, err)
	_, err = f.service.Advance(view.ID)
	require.NoError(t, err)

	view, err = f.service.SelectCustomer(view.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "walkin", view.CustomerID)

	view, err = f.service.SelectCustomer(view.ID, "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", view.CustomerID)
}

func TestCheckoutService_Advance_EmptyCartBlocked(t *testing.T) {
	f := newCheckoutFixture()
	view, err := f.service.StartSession("cashier-1")
	require.NoError(t, err)

	_, err = f.service.Advance(view.ID)
	assert.ErrorIs(t, err, domain.ErrEmptyCart)
}

func TestCheckoutService_Back_PreservesEnteredData(t *testing.T) {
	f := newCheckoutFixture()
	sessionID := f.sessionAtPayment(t)

	view, err := f.service.AddPayment(sessionID, "cash-usd", 100)
	require.NoError(t, err)
	require.Len(t, view.Payments, 1)

	view, err = f.service.Back(sessionID)
	require.NoError(t, err)
	assert.Equal(t, "customer_selection", view.Stage)
	assert.Len(t, view.Payments, 1)

	view, err = f.service.Back(sessionID)
	require.NoError(t, err)
	assert.Equal(t, "product_selection", view.Stage)
	assert.False(t, view.Cart.IsEmpty())
}

func TestCheckoutService_AddPayment(t *testing.T) {
	f := newCheckoutFixture()
	sessionID := f.sessionAtPayment(t)

	view, err := f.service.AddPayment(sessionID, "cash-usd", 100)
	require.NoError(t, err)
	assert.Equal(t, domain.Cents(100), view.Snapshot.TotalPaid)
	assert.Equal(t, domain.Cents(200), view.Snapshot.Balance)

	// 20000 cents of Bs at rate 100 is 200 reference cents.
	view, err = f.service.AddPayment(sessionID, "pm", 20000)
	require.NoError(t, err)
	assert.Equal(t, domain.Cents(300), view.Snapshot.TotalPaid)
	assert.True(t, view.CanComplete)
}

func TestCheckoutService_AddPayment_Validation(t *testing.T) {
	f := newCheckoutFixture()
	sessionID := f.sessionAtPayment(t)

	_, err := f.service.AddPayment(sessionID, "cash-usd", 0)
	assert.ErrorIs(t, err, posErrors.ErrInvalidAmount)

	_, err = f.service.AddPayment(sessionID, "nope", 100)
	assert.ErrorIs(t, err, posErrors.ErrUnknownPaymentMethod)
}

func TestCheckoutService_RemovePayment(t *testing.T) {
	f := newCheckoutFixture()
	sessionID := f.sessionAtPayment(t)

	_, err := f.service.AddPayment(sessionID, "cash-usd", 300)
	require.NoError(t, err)

	view, err := f.service.RemovePayment(sessionID, 0)
	require.NoError(t, err)
	assert.Empty(t, view.Payments)
	assert.Equal(t, domain.Cents(0), view.Snapshot.TotalPaid)

	_, err = f.service.RemovePayment(sessionID, 3)
	assert.Error(t, err)
}

func TestCheckoutService_ChangePayments(t *testing.T) {
	f := newCheckoutFixture()
	sessionID := f.sessionAtPayment(t)

	// Pay 500 against a 300 subtotal: 200 cents of change owed.
	view, err := f.service.AddPayment(sessionID, "cash-usd", 500)
	require.NoError(t, err)
	assert.Equal(t, domain.Cents(200), view.Snapshot.ChangeToGive)
	assert.False(t, view.CanComplete)

	// A method that gives no change cannot disburse it.
	_, err = f.service.AddChangePayment(sessionID, "pm", 10000)
	assert.ErrorIs(t, err, posErrors.ErrMethodGivesNoChange)

	// Giving back more than owed is rejected outright.
	_, err = f.service.AddChangePayment(sessionID, "cash-usd", 300)
	assert.ErrorIs(t, err, posErrors.ErrChangeExceedsOwed)

	// Change in bolívares: 10000 Bs cents at rate 100 covers 100 cents.
	view, err = f.service.AddChangePayment(sessionID, "cash-bs", 10000)
	require.NoError(t, err)
	assert.Equal(t, domain.Cents(100), view.Snapshot.RemainingChange)

	view, err = f.service.AddChangePayment(sessionID, "cash-usd", 100)
	require.NoError(t, err)
	assert.Equal(t, domain.Cents(0), view.Snapshot.RemainingChange)
	assert.True(t, view.CanComplete)
}

func TestCheckoutService_Complete(t *testing.T) {
	f := newCheckoutFixture()
	sessionID := f.sessionAtPayment(t)

	_, err := f.service.AddPayment(sessionID, "cash-usd", 300)
	require.NoError(t, err)

	sale, err := f.service.Complete(sessionID)
	require.NoError(t, err)

	assert.NotEmpty(t, sale.Number)
	assert.Equal(t, "walkin", sale.CustomerID)
	assert.Equal(t, domain.Cents(300), sale.Subtotal)
	assert.Equal(t, float64(100), sale.Rate)
	require.Len(t, sale.Payments, 1)
	assert.Equal(t, domain.Cents(300), sale.Payments[0].Reference)

	require.Len(t, f.sales.saved, 1)
	assert.Equal(t, 2, f.products.decrements["p1"])
	require.Len(t, f.drawer.recorded, 1)

	// Session is gone; the cashier gets a fresh one.
	_, err = f.service.GetSession(sessionID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	fresh, err := f.service.StartSession("cashier-1")
	require.NoError(t, err)
	assert.NotEqual(t, sessionID, fresh.ID)
}

func TestCheckoutService_Complete_BlockedUntilSettled(t *testing.T) {
	f := newCheckoutFixture()
	sessionID := f.sessionAtPayment(t)

	_, err := f.service.AddPayment(sessionID, "cash-usd", 100)
	require.NoError(t, err)

	_, err = f.service.Complete(sessionID)
	assert.ErrorIs(t, err, domain.ErrNotPayable)
}

func TestCheckoutService_Complete_SaveFailureRestoresStock(t *testing.T) {
	f := newCheckoutFixture()
	sessionID := f.sessionAtPayment(t)

	_, err := f.service.AddPayment(sessionID, "cash-usd", 300)
	require.NoError(t, err)

	f.sales.saveErr = errors.New("connection refused")
	_, err = f.service.Complete(sessionID)
	require.Error(t, err)

	assert.Equal(t, 2, f.products.decrements["p1"])
	assert.Equal(t, 2, f.products.restores["p1"])

	// The session survives so the cashier can retry.
	_, err = f.service.GetSession(sessionID)
	assert.NoError(t, err)
}

func TestCheckoutService_Cancel(t *testing.T) {
	f := newCheckoutFixture()
	view, err := f.service.StartSession("cashier-1")
	require.NoError(t, err)

	require.NoError(t, f.service.Cancel(view.ID))

	_, err = f.service.GetSession(view.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.ErrorIs(t, f.service.Cancel(view.ID), domain.ErrSessionNotFound)
}

func TestCheckoutService_CleanupStale(t *testing.T) {
	f := newCheckoutFixture()

	stale, err := f.service.StartSession("cashier-1")
	require.NoError(t, err)
	fresh, err := f.service.StartSession("cashier-2")
	require.NoError(t, err)

	f.service.mu.Lock()
	f.service.sessions[stale.ID].UpdatedAt = time.Now().Add(-2 * time.Hour)
	f.service.mu.Unlock()

	removed := f.service.CleanupStale(time.Hour)
	assert.Equal(t, 1, removed)

	_, err = f.service.GetSession(stale.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	_, err = f.service.GetSession(fresh.ID)
	assert.NoError(t, err)
}
