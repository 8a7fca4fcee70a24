package drawer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dfigueredo/PosAdmin/internal/pos/domain"
	posErrors "github.com/dfigueredo/PosAdmin/internal/pos/errors"
)

type mockDrawerRepository struct {
	sessions  map[string]*Session
	movements []Movement
}

func newMockDrawerRepository() *mockDrawerRepository {
	return &mockDrawerRepository{sessions: map[string]*Session{}}
}

func (m *mockDrawerRepository) SaveSession(s *Session) error {
	copied := *s
	m.sessions[s.ID] = &copied
	return nil
}

func (m *mockDrawerRepository) FindOpenSession() (*Session, error) {
	for _, s := range m.sessions {
		if s.Status == StatusOpen {
			copied := *s
			return &copied, nil
		}
	}
	return nil, ErrNoOpenSession
}

func (m *mockDrawerRepository) FindSessionByID(id string) (*Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	copied := *s
	return &copied, nil
}

func (m *mockDrawerRepository) FindRecentSessions(limit int) ([]Session, error) {
	var out []Session
	for _, s := range m.sessions {
		out = append(out, *s)
	}
	return out, nil
}

func (m *mockDrawerRepository) CloseSession(s *Session) error {
	existing, ok := m.sessions[s.ID]
	if !ok || existing.Status != StatusOpen {
		return ErrSessionClosed
	}
	copied := *s
	m.sessions[s.ID] = &copied
	return nil
}

func (m *mockDrawerRepository) SaveMovement(movement *Movement) error {
	m.movements = append(m.movements, *movement)
	return nil
}

func (m *mockDrawerRepository) FindMovements(sessionID string) ([]Movement, error) {
	var out []Movement
	for _, mv := range m.movements {
		if mv.SessionID == sessionID {
			out = append(out, mv)
		}
	}
	return out, nil
}

func (m *mockDrawerRepository) SumByMethod(sessionID string) (map[string]domain.Cents, error) {
	sums := make(map[string]domain.Cents)
	for _, mv := range m.movements {
		if mv.SessionID == sessionID {
			sums[mv.MethodID] += mv.Amount
		}
	}
	return sums, nil
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

func drawerTestCatalog() *mockMethodCatalog {
	return &mockMethodCatalog{methods: map[string]domain.PaymentMethod{
		"cash-usd": {ID: "cash-usd", Name: "Efectivo USD", Currency: domain.CurrencyReference, Kind: domain.KindCash, GivesChange: true, ManagesOpeningBalance: true},
		"cash-bs":  {ID: "cash-bs", Name: "Efectivo Bs", Currency: domain.CurrencySecondary, Kind: domain.KindCash, GivesChange: true, ManagesOpeningBalance: true},
		"pm-bs":    {ID: "pm-bs", Name: "Pago Movil", Currency: domain.CurrencySecondary, Kind: domain.KindDigital, GivesChange: false},
	}}
}

func TestDrawerService_OpenAndSingleSessionRule(t *testing.T) {
	service := NewService(newMockDrawerRepository(), drawerTestCatalog())

	session, err := service.Open("user-1", []MethodBalance{{MethodID: "cash-usd", Amount: 5000}}, "")
	assert.NoError(t, err)
	assert.Equal(t, StatusOpen, session.Status)

	_, err = service.Open("user-2", nil, "")
	assert.ErrorIs(t, err, ErrSessionAlreadyOpen)
}

func TestDrawerService_OpenRejectsNonOpeningBalanceMethods(t *testing.T) {
	service := NewService(newMockDrawerRepository(), drawerTestCatalog())

	_, err := service.Open("user-1", []MethodBalance{{MethodID: "pm-bs", Amount: 100}}, "")
	assert.True(t, posErrors.IsValidationError(err))
}

func TestDrawerService_CloseComputesDeviation(t *testing.T) {
	repo := newMockDrawerRepository()
	service := NewService(repo, drawerTestCatalog())

	_, err := service.Open("user-1", []MethodBalance{{MethodID: "cash-usd", Amount: 5000}}, "")
	assert.NoError(t, err)

	_, err = service.ManualMovement(KindManualIn, "cash-usd", 1000, "cambio de reserva")
	assert.NoError(t, err)
	_, err = service.ManualMovement(KindManualOut, "cash-usd", 500, "pago proveedor")
	assert.NoError(t, err)

	// expected 50.00 + 10.00 - 5.00 = 55.00, declared 54.00 -> deviation -1.00
	closed, err := service.Close([]MethodBalance{{MethodID: "cash-usd", Amount: 5400}}, "")
	assert.NoError(t, err)
	assert.Equal(t, StatusClosed, closed.Status)
	assert.Len(t, closed.Counts, 1)
	assert.Equal(t, domain.Cents(5500), closed.Counts[0].Expected)
	assert.Equal(t, domain.Cents(5400), closed.Counts[0].Declared)
	assert.Equal(t, domain.Cents(-100), closed.Counts[0].Deviation)

	_, err = service.Close(nil, "")
	assert.ErrorIs(t, err, ErrNoOpenSession)
}

func TestDrawerService_RecordSaleOnlyTouchesCashMethods(t *testing.T) {
	repo := newMockDrawerRepository()
	service := NewService(repo, drawerTestCatalog())

	session, err := service.Open("user-1", nil, "")
	assert.NoError(t, err)

	sale := &domain.Sale{
		ID:     "sale-1",
		Number: "0001",
		Payments: []domain.SalePayment{
			{MethodID: "cash-bs", Amount: 150000},
			{MethodID: "pm-bs", Amount: 50000},
		},
		ChangePayments: []domain.SalePayment{
			{MethodID: "cash-usd", Amount: 500},
		},
	}
	assert.NoError(t, service.RecordSale(sale))

	movements, err := service.Movements(session.ID)
	assert.NoError(t, err)
	assert.Len(t, movements, 2, "digital payments must not produce drawer movements")

	sums, err := repo.SumByMethod(session.ID)
	assert.NoError(t, err)
	assert.Equal(t, domain.Cents(150000), sums["cash-bs"])
	assert.Equal(t, domain.Cents(-500), sums["cash-usd"], "change leaves the drawer")
}

func TestDrawerService_RecordSaleWithoutOpenSessionIsNoOp(t *testing.T) {
	repo := newMockDrawerRepository()
	service := NewService(repo, drawerTestCatalog())

	sale := &domain.Sale{ID: "sale-1", Payments: []domain.SalePayment{{MethodID: "cash-usd", Amount: 100}}}
	assert.NoError(t, service.RecordSale(sale))
	assert.Empty(t, repo.movements)
}

func TestDrawerService_ManualMovementValidation(t *testing.T) {
	service := NewService(newMockDrawerRepository(), drawerTestCatalog())

	_, err := service.ManualMovement(KindSale, "cash-usd", 100, "")
	assert.True(t, posErrors.IsValidationError(err))

	_, err = service.ManualMovement(KindManualIn, "cash-usd", 0, "")
	assert.True(t, posErrors.IsValidationError(err))

	_, err = service.ManualMovement(KindManualIn, "missing", 100, "")
	assert.True(t, posErrors.IsValidationError(err))
}
