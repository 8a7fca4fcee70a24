package application

import (
	"time"

	"github.com/google/uuid"

	"github.com/dfigueredo/PosAdmin/internal/pos/domain"
)

type PaymentMethodService struct {
	repo domain.PaymentMethodRepository
}

func NewPaymentMethodService(repo domain.PaymentMethodRepository) *PaymentMethodService {
	return &PaymentMethodService{repo: repo}
}

func (s *PaymentMethodService) Create(method *domain.PaymentMethod) error {
	if err := method.Validate(); err != nil {
		return err
	}
	method.ID = uuid.NewString()
	method.CreatedAt = time.Now()
	method.UpdatedAt = method.CreatedAt
	return s.repo.Save(method)
}

// Update rejects edits to methods already referenced by a historical sale:
// those are frozen so old tickets keep meaning what they meant.
func (s *PaymentMethodService) Update(method *domain.PaymentMethod) error {
	if err := method.Validate(); err != nil {
		return err
	}

	existing, err := s.repo.FindByID(method.ID)
	if err != nil {
		return err
	}

	inUse, err := s.repo.InUse(method.ID)
	if err != nil {
		return err
	}
	if inUse {
		return domain.ErrMethodInUse
	}

	method.CreatedAt = existing.CreatedAt
	method.UpdatedAt = time.Now()
	return s.repo.Update(method)
}

func (s *PaymentMethodService) Delete(id string) error {
	if _, err := s.repo.FindByID(id); err != nil {
		return err
	}

	inUse, err := s.repo.InUse(id)
	if err != nil {
		return err
	}
	if inUse {
		return domain.ErrMethodInUse
	}
	return s.repo.Delete(id)
}

func (s *PaymentMethodService) GetByID(id string) (*domain.PaymentMethod, error) {
	return s.repo.FindByID(id)
}

func (s *PaymentMethodService) List() ([]domain.PaymentMethod, error) {
	methods, err := s.repo.FindAll()
	if err != nil {
		return nil, err
	}
	if methods == nil {
		return []domain.PaymentMethod{}, nil
	}
	return methods, nil
}

// ChangeCapableMethods returns only methods allowed to disburse change.
func (s *PaymentMethodService) ChangeCapableMethods() ([]domain.PaymentMethod, error) {
	methods, err := s.repo.FindAll()
	if err != nil {
		return nil, err
	}

	capable := []domain.PaymentMethod{}
	for _, m := range methods {
		if m.GivesChange {
			capable = append(capable, m)
		}
	}
	return capable, nil
}

// MethodsByID loads the catalog keyed by ID for the checkout ledger.
func (s *PaymentMethodService) MethodsByID() (map[string]domain.PaymentMethod, error) {
	methods, err := s.repo.FindAll()
	if err != nil {
		return nil, err
	}

	byID := make(map[string]domain.PaymentMethod, len(methods))
	for _, m := range methods {
		byID[m.ID] = m
	}
	return byID, nil
}
