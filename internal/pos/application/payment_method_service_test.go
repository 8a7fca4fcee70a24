package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfigueredo/PosAdmin/internal/pos/domain"
)

type mockPaymentMethodRepository struct {
	methods map[string]domain.PaymentMethod
	inUse   map[string]bool
}

func newMockPaymentMethodRepository() *mockPaymentMethodRepository {
	return &mockPaymentMethodRepository{
		methods: make(map[string]domain.PaymentMethod),
		inUse:   make(map[string]bool),
	}
}

func (m *mockPaymentMethodRepository) Save(method *domain.PaymentMethod) error {
	m.methods[method.ID] = *method
	return nil
}

func (m *mockPaymentMethodRepository) FindAll() ([]domain.PaymentMethod, error) {
	var out []domain.PaymentMethod
	for _, method := range m.methods {
		out = append(out, method)
	}
	return out, nil
}

func (m *mockPaymentMethodRepository) FindByID(id string) (*domain.PaymentMethod, error) {
	method, ok := m.methods[id]
	if !ok {
		return nil, domain.ErrMethodNotFound
	}
	return &method, nil
}

func (m *mockPaymentMethodRepository) Update(method *domain.PaymentMethod) error {
	if _, ok := m.methods[method.ID]; !ok {
		return domain.ErrMethodNotFound
	}
	m.methods[method.ID] = *method
	return nil
}

func (m *mockPaymentMethodRepository) Delete(id string) error {
	if _, ok := m.methods[id]; !ok {
		return domain.ErrMethodNotFound
	}
	delete(m.methods, id)
	return nil
}

func (m *mockPaymentMethodRepository) InUse(id string) (bool, error) {
	return m.inUse[id], nil
}

func validMethod() *domain.PaymentMethod {
	return &domain.PaymentMethod{
		Name:        "Efectivo USD",
		Currency:    domain.CurrencyReference,
		Kind:        domain.KindCash,
		GivesChange: true,
	}
}

func TestPaymentMethodService_Create(t *testing.T) {
	repo := newMockPaymentMethodRepository()
	service := NewPaymentMethodService(repo)

	method := validMethod()
	require.NoError(t, service.Create(method))

	assert.NotEmpty(t, method.ID)
	assert.False(t, method.CreatedAt.IsZero())

	stored, err := service.GetByID(method.ID)
	require.NoError(t, err)
	assert.Equal(t, "Efectivo USD", stored.Name)
}

func TestPaymentMethodService_Create_Invalid(t *testing.T) {
	service := NewPaymentMethodService(newMockPaymentMethodRepository())

	method := validMethod()
	method.Name = ""
	assert.Error(t, service.Create(method))

	method = validMethod()
	method.Currency = "EUR"
	assert.Error(t, service.Create(method))
}

func TestPaymentMethodService_Update_FrozenWhenUsedBySales(t *testing.T) {
	repo := newMockPaymentMethodRepository()
	service := NewPaymentMethodService(repo)

	method := validMethod()
	require.NoError(t, service.Create(method))

	method.Name = "Efectivo"
	require.NoError(t, service.Update(method))

	repo.inUse[method.ID] = true
	method.Name = "Otro nombre"
	assert.ErrorIs(t, service.Update(method), domain.ErrMethodInUse)
}

func TestPaymentMethodService_Delete_FrozenWhenUsedBySales(t *testing.T) {
	repo := newMockPaymentMethodRepository()
	service := NewPaymentMethodService(repo)

	method := validMethod()
	require.NoError(t, service.Create(method))

	repo.inUse[method.ID] = true
	assert.ErrorIs(t, service.Delete(method.ID), domain.ErrMethodInUse)

	repo.inUse[method.ID] = false
	require.NoError(t, service.Delete(method.ID))

	_, err := service.GetByID(method.ID)
	assert.ErrorIs(t, err, domain.ErrMethodNotFound)
}

func TestPaymentMethodService_ChangeCapableMethods(t *testing.T) {
	repo := newMockPaymentMethodRepository()
	service := NewPaymentMethodService(repo)

	cash := validMethod()
	require.NoError(t, service.Create(cash))

	digital := validMethod()
	digital.Name = "Pago Móvil"
	digital.Currency = domain.CurrencySecondary
	digital.Kind = domain.KindDigital
	digital.GivesChange = false
	require.NoError(t, service.Create(digital))

	capable, err := service.ChangeCapableMethods()
	require.NoError(t, err)
	require.Len(t, capable, 1)
	assert.Equal(t, cash.ID, capable[0].ID)

	byID, err := service.MethodsByID()
	require.NoError(t, err)
	assert.Len(t, byID, 2)
}
