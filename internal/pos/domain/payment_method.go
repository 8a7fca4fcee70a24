package domain

import (
	"errors"
	"time"

	posErrors "github.com/dfigueredo/PosAdmin/internal/pos/errors"
)

var (
	ErrMethodNotFound = errors.New("payment method not found")
	ErrMethodInUse    = errors.New("payment method is referenced by historical sales")
)

type MethodKind string

const (
	KindCash    MethodKind = "cash"
	KindDigital MethodKind = "digital"
)

// PaymentMethod describes one way a customer can pay: which currency it is
// denominated in, whether it is physical cash, whether the cashier can hand
// change back through it, and whether it carries an opening balance when a
// cash-drawer session starts.
type PaymentMethod struct {
	ID                    string     `json:"id"`
	Name                  string     `json:"name"`
	Currency              Currency   `json:"currency"`
	Kind                  MethodKind `json:"kind"`
	GivesChange           bool       `json:"gives_change"`
	ManagesOpeningBalance bool       `json:"manages_opening_balance"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

func (m *PaymentMethod) Validate() error {
	if m.Name == "" {
		return posErrors.NewFieldValidationError("name", "must not be empty")
	}
	if len(m.Name) > 60 {
		return posErrors.NewFieldValidationError("name", "must be at most 60 characters")
	}
	if !m.Currency.Valid() {
		return posErrors.NewFieldValidationError("currency", "must be 'USD' or 'VES'")
	}
	if m.Kind != KindCash && m.Kind != KindDigital {
		return posErrors.NewFieldValidationError("kind", "must be 'cash' or 'digital'")
	}
	return nil
}

// PaymentMethodRepository persists the payment method catalog.
type PaymentMethodRepository interface {
	Save(method *PaymentMethod) error
	FindAll() ([]PaymentMethod, error)
	FindByID(id string) (*PaymentMethod, error)
	Update(method *PaymentMethod) error
	Delete(id string) error
	InUse(id string) (bool, error)
}
