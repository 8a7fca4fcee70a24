package customer

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/badoux/checkmail"
	"github.com/google/uuid"

	posErrors "github.com/dfigueredo/PosAdmin/internal/pos/errors"
)

type Service interface {
	Create(customer *Customer) error
	Update(customer *Customer) error
	Delete(id string) error
	GetByID(id string) (*Customer, error)
	GetByDocument(documentID string) (*Customer, error)
	List() ([]Customer, error)
	Search(query string) ([]Customer, error)
	// WalkIn returns the seeded default customer for anonymous sales.
	WalkIn() (*Customer, error)
}

type service struct {
	repo Repository
}

// NewService seeds the walk-in customer if it is missing.
func NewService(repo Repository) Service {
	s := &service{repo: repo}
	if err := s.ensureWalkIn(); err != nil {
		log.Printf("Could not seed walk-in customer: %v", err)
	}
	return s
}

func (s *service) ensureWalkIn() error {
	_, err := s.repo.FindByDocument(WalkInDocumentID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrCustomerNotFound) {
		return err
	}

	now := time.Now()
	return s.repo.Save(&Customer{
		ID:         uuid.NewString(),
		DocumentID: WalkInDocumentID,
		Name:       "Cliente ocasional",
		CreatedAt:  now,
		UpdatedAt:  now,
	})
}

func validateCustomer(c *Customer) error {
	if strings.TrimSpace(c.Name) == "" {
		return posErrors.NewFieldValidationError("name", "must not be empty")
	}
	if strings.TrimSpace(c.DocumentID) == "" {
		return posErrors.NewFieldValidationError("document_id", "must not be empty")
	}
	if c.Email != "" {
		if err := checkmail.ValidateFormat(c.Email); err != nil {
			return posErrors.NewFieldValidationError("email", "is not a valid email address")
		}
	}
	return nil
}

func (s *service) Create(customer *Customer) error {
	if err := validateCustomer(customer); err != nil {
		return err
	}

	existing, err := s.repo.FindByDocument(customer.DocumentID)
	if err != nil && !errors.Is(err, ErrCustomerNotFound) {
		return fmt.Errorf("could not check document uniqueness: %v", err)
	}
	if existing != nil {
		return ErrDocumentTaken
	}

	customer.ID = uuid.NewString()
	customer.CreatedAt = time.Now()
	customer.UpdatedAt = customer.CreatedAt
	return s.repo.Save(customer)
}

func (s *service) Update(customer *Customer) error {
	if err := validateCustomer(customer); err != nil {
		return err
	}

	existing, err := s.repo.FindByID(customer.ID)
	if err != nil {
		return err
	}
	if existing.IsWalkIn() {
		return ErrWalkInProtected
	}

	if customer.DocumentID != existing.DocumentID {
		other, err := s.repo.FindByDocument(customer.DocumentID)
		if err != nil && !errors.Is(err, ErrCustomerNotFound) {
			return err
		}
		if other != nil {
			return ErrDocumentTaken
		}
	}

	customer.CreatedAt = existing.CreatedAt
	customer.UpdatedAt = time.Now()
	return s.repo.Update(customer)
}

func (s *service) Delete(id string) error {
	existing, err := s.repo.FindByID(id)
	if err != nil {
		return err
	}
	if existing.IsWalkIn() {
		return ErrWalkInProtected
	}
	return s.repo.Delete(id)
}

func (s *service) GetByID(id string) (*Customer, error) {
	return s.repo.FindByID(id)
}

func (s *service) GetByDocument(documentID string) (*Customer, error) {
	return s.repo.FindByDocument(documentID)
}

func (s *service) List() ([]Customer, error) {
	customers, err := s.repo.FindAll()
	if err != nil {
		return nil, err
	}
	if customers == nil {
		return []Customer{}, nil
	}
	return customers, nil
}

func (s *service) Search(query string) ([]Customer, error) {
	if query == "" {
		return s.List()
	}
	customers, err := s.repo.Search(query)
	if err != nil {
		return nil, err
	}
	if customers == nil {
		return []Customer{}, nil
	}
	return customers, nil
}

func (s *service) WalkIn() (*Customer, error) {
	return s.repo.FindByDocument(WalkInDocumentID)
}
