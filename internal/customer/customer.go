package customer

import (
	"errors"
	"time"
)

var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrDocumentTaken    = errors.New("document ID already registered")
	ErrWalkInProtected  = errors.New("the walk-in customer cannot be modified or deleted")
)

// WalkInDocumentID identifies the seeded default customer used for
// anonymous sales.
const WalkInDocumentID = "V-0"

// Customer is a registered buyer. DocumentID holds the cedula or RIF.
type Customer struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone,omitempty"`
	Email      string    `json:"email,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (c *Customer) IsWalkIn() bool {
	return c.DocumentID == WalkInDocumentID
}

type Repository interface {
	Save(customer *Customer) error
	FindByID(id string) (*Customer, error)
	FindByDocument(documentID string) (*Customer, error)
	FindAll() ([]Customer, error)
	Search(query string) ([]Customer, error)
	Update(customer *Customer) error
	Delete(id string) error
}
