package drawer

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dfigueredo/PosAdmin/internal/pos/domain"
	posErrors "github.com/dfigueredo/PosAdmin/internal/pos/errors"
)

// MethodCatalog is the slice of the payment-method service the drawer needs.
type MethodCatalog interface {
	GetByID(id string) (*domain.PaymentMethod, error)
}

type Service interface {
	Open(userID string, openings []MethodBalance, notes string) (*Session, error)
	Close(declared []MethodBalance, notes string) (*Session, error)
	OpenSession() (*Session, error)
	GetSession(id string) (*Session, error)
	RecentSessions(limit int) ([]Session, error)
	Movements(sessionID string) ([]Movement, error)
	ManualMovement(kind MovementKind, methodID string, amount domain.Cents, description string) (*Movement, error)
	// RecordSale writes drawer movements for the cash legs of a completed
	// sale. It is a no-op when no drawer session is open.
	RecordSale(sale *domain.Sale) error
}

type service struct {
	repo    Repository
	methods MethodCatalog
}

func NewService(repo Repository, methods MethodCatalog) Service {
	return &service{repo: repo, methods: methods}
}

func (s *service) Open(userID string, openings []MethodBalance, notes string) (*Session, error) {
	existing, err := s.repo.FindOpenSession()
	if err != nil && !errors.Is(err, ErrNoOpenSession) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrSessionAlreadyOpen
	}

	for _, opening := range openings {
		method, err := s.methods.GetByID(opening.MethodID)
		if err != nil {
			return nil, posErrors.ErrUnknownPaymentMethod
		}
		if !method.ManagesOpeningBalance {
			return nil, posErrors.NewFieldValidationError("openings",
				fmt.Sprintf("method '%s' does not manage an opening balance", method.Name))
		}
		if opening.Amount < 0 {
			return nil, posErrors.ErrInvalidAmount
		}
	}

	session := &Session{
		ID:       uuid.NewString(),
		OpenedBy: userID,
		Status:   StatusOpen,
		Notes:    notes,
		OpenedAt: time.Now(),
	}
	if err := s.repo.SaveSession(session); err != nil {
		return nil, err
	}

	for _, opening := range openings {
		movement := &Movement{
			ID:          uuid.NewString(),
			SessionID:   session.ID,
			Kind:        KindOpening,
			MethodID:    opening.MethodID,
			Amount:      opening.Amount,
			Description: "Opening balance",
			CreatedAt:   time.Now(),
		}
		if err := s.repo.SaveMovement(movement); err != nil {
			return nil, err
		}
	}
	return session, nil
}

func (s *service) Close(declared []MethodBalance, notes string) (*Session, error) {
	session, err := s.repo.FindOpenSession()
	if err != nil {
		return nil, err
	}

	expected, err := s.repo.SumByMethod(session.ID)
	if err != nil {
		return nil, err
	}

	declaredByMethod := make(map[string]domain.Cents, len(declared))
	for _, d := range declared {
		if d.Amount < 0 {
			return nil, posErrors.ErrInvalidAmount
		}
		declaredByMethod[d.MethodID] = d.Amount
	}

	counted := make(map[string]bool)
	var counts []MethodCount
	for methodID, expectedAmount := range expected {
		declaredAmount := declaredByMethod[methodID]
		counts = append(counts, MethodCount{
			MethodID:  methodID,
			Expected:  expectedAmount,
			Declared:  declaredAmount,
			Deviation: declaredAmount - expectedAmount,
		})
		counted[methodID] = true
	}
	for methodID, declaredAmount := range declaredByMethod {
		if !counted[methodID] {
			counts = append(counts, MethodCount{
				MethodID:  methodID,
				Declared:  declaredAmount,
				Deviation: declaredAmount,
			})
		}
	}

	now := time.Now()
	session.Status = StatusClosed
	session.Counts = counts
	session.ClosedAt = &now
	if notes != "" {
		session.Notes = notes
	}
	if err := s.repo.CloseSession(session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *service) OpenSession() (*Session, error) {
	return s.repo.FindOpenSession()
}

func (s *service) GetSession(id string) (*Session, error) {
	return s.repo.FindSessionByID(id)
}

func (s *service) RecentSessions(limit int) ([]Session, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	sessions, err := s.repo.FindRecentSessions(limit)
	if err != nil {
		return nil, err
	}
	if sessions == nil {
		return []Session{}, nil
	}
	return sessions, nil
}

func (s *service) Movements(sessionID string) ([]Movement, error) {
	movements, err := s.repo.FindMovements(sessionID)
	if err != nil {
		return nil, err
	}
	if movements == nil {
		return []Movement{}, nil
	}
	return movements, nil
}

func (s *service) ManualMovement(kind MovementKind, methodID string, amount domain.Cents, description string) (*Movement, error) {
	if kind != KindManualIn && kind != KindManualOut {
		return nil, posErrors.NewFieldValidationError("kind", "must be 'manual_in' or 'manual_out'")
	}
	if amount <= 0 {
		return nil, posErrors.ErrInvalidAmount
	}
	if _, err := s.methods.GetByID(methodID); err != nil {
		return nil, posErrors.ErrUnknownPaymentMethod
	}

	session, err := s.repo.FindOpenSession()
	if err != nil {
		return nil, err
	}

	signed := amount
	if kind == KindManualOut {
		signed = -amount
	}
	movement := &Movement{
		ID:          uuid.NewString(),
		SessionID:   session.ID,
		Kind:        kind,
		MethodID:    methodID,
		Amount:      signed,
		Description: description,
		CreatedAt:   time.Now(),
	}
	if err := s.repo.SaveMovement(movement); err != nil {
		return nil, err
	}
	return movement, nil
}

func (s *service) RecordSale(sale *domain.Sale) error {
	session, err := s.repo.FindOpenSession()
	if err != nil {
		if errors.Is(err, ErrNoOpenSession) {
			return nil
		}
		return err
	}

	record := func(kind MovementKind, p domain.SalePayment, sign domain.Cents) error {
		method, err := s.methods.GetByID(p.MethodID)
		if err != nil {
			return err
		}
		if method.Kind != domain.KindCash {
			return nil
		}
		movement := &Movement{
			ID:          uuid.NewString(),
			SessionID:   session.ID,
			Kind:        kind,
			MethodID:    p.MethodID,
			Amount:      sign * p.Amount,
			Description: fmt.Sprintf("Sale %s", sale.Number),
			SaleID:      sale.ID,
			CreatedAt:   time.Now(),
		}
		return s.repo.SaveMovement(movement)
	}

	for _, p := range sale.Payments {
		if err := record(KindSale, p, 1); err != nil {
			return err
		}
	}
	for _, cp := range sale.ChangePayments {
		if err := record(KindChange, cp, -1); err != nil {
			return err
		}
	}
	return nil
}
