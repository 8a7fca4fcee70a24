package interfaces

import (
	"github.com/dfigueredo/PosAdmin/internal/pos/domain"
)

type MockPaymentMethodService struct {
	method  *domain.PaymentMethod
	methods []domain.PaymentMethod
	err     error

	created *domain.PaymentMethod
	updated *domain.PaymentMethod
	deleted string
}

func (m *MockPaymentMethodService) Create(method *domain.PaymentMethod) error {
	m.created = method
	return m.err
}

func (m *MockPaymentMethodService) Update(method *domain.PaymentMethod) error {
	m.updated = method
	return m.err
}

func (m *MockPaymentMethodService) Delete(id string) error {
	m.deleted = id
	return m.err
}

func (m *MockPaymentMethodService) GetByID(id string) (*domain.PaymentMethod, error) {
	return m.method, m.err
}

func (m *MockPaymentMethodService) List() ([]domain.PaymentMethod, error) {
	return m.methods, m.err
}

func (m *MockPaymentMethodService) ChangeCapableMethods() ([]domain.PaymentMethod, error) {
	var capable []domain.PaymentMethod
	for _, method := range m.methods {
		if method.GivesChange {
			capable = append(capable, method)
		}
	}
	return capable, m.err
}
