package interfaces

import (
	"github.com/dfigueredo/PosAdmin/internal/pos/application"
	"github.com/dfigueredo/PosAdmin/internal/pos/domain"
)

// MockCheckoutService returns canned values and records the arguments of the
// last call.
type MockCheckoutService struct {
	view *application.SessionView
	sale *domain.Sale
	err  error

	lastSessionID string
	lastProductID string
	lastMethodID  string
	lastAmount    domain.Cents
	lastQuantity  int
	lastIndex     int
}

func (m *MockCheckoutService) StartSession(cashierID string) (*application.SessionView, error) {
	return m.view, m.err
}

func (m *MockCheckoutService) GetSession(sessionID string) (*application.SessionView, error) {
	m.lastSessionID = sessionID
	return m.view, m.err
}

func (m *MockCheckoutService) AddProduct(sessionID, productID string, quantity int) (*application.SessionView, error) {
	m.lastSessionID = sessionID
	m.lastProductID = productID
	m.lastQuantity = quantity
	return m.view, m.err
}

func (m *MockCheckoutService) SetLineQuantity(sessionID, productID string, quantity int) (*application.SessionView, error) {
	m.lastSessionID = sessionID
	m.lastProductID = productID
	m.lastQuantity = quantity
	return m.view, m.err
}

func (m *MockCheckoutService) SelectCustomer(sessionID, customerID string) (*application.SessionView, error) {
	m.lastSessionID = sessionID
	return m.view, m.err
}

func (m *MockCheckoutService) AddPayment(sessionID, methodID string, amount domain.Cents) (*application.SessionView, error) {
	m.lastSessionID = sessionID
	m.lastMethodID = methodID
	m.lastAmount = amount
	return m.view, m.err
}

func (m *MockCheckoutService) RemovePayment(sessionID string, index int) (*application.SessionView, error) {
	m.lastSessionID = sessionID
	m.lastIndex = index
	return m.view, m.err
}

func (m *MockCheckoutService) AddChangePayment(sessionID, methodID string, amount domain.Cents) (*application.SessionView, error) {
	m.lastSessionID = sessionID
	m.lastMethodID = methodID
	m.lastAmount = amount
	return m.view, m.err
}

func (m *MockCheckoutService) RemoveChangePayment(sessionID string, index int) (*application.SessionView, error) {
	m.lastSessionID = sessionID
	m.lastIndex = index
	return m.view, m.err
}

func (m *MockCheckoutService) Advance(sessionID string) (*application.SessionView, error) {
	m.lastSessionID = sessionID
	return m.view, m.err
}

func (m *MockCheckoutService) Back(sessionID string) (*application.SessionView, error) {
	m.lastSessionID = sessionID
	return m.view, m.err
}

func (m *MockCheckoutService) Complete(sessionID string) (*domain.Sale, error) {
	m.lastSessionID = sessionID
	return m.sale, m.err
}

func (m *MockCheckoutService) Cancel(sessionID string) error {
	m.lastSessionID = sessionID
	return m.err
}
