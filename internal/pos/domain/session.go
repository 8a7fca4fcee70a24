package domain

import (
	"errors"
	"time"
)

var (
	ErrEmptyCart        = errors.New("cart must not be empty")
	ErrNoCustomer       = errors.New("a customer must be selected")
	ErrNotPayable       = errors.New("sale is not fully paid or change is not settled")
	ErrSessionCompleted = errors.New("checkout session is already completed")
	ErrSessionNotFound  = errors.New("checkout session not found")
	ErrWrongStage       = errors.New("operation not allowed at this checkout stage")
)

// Stage is the step a checkout session is currently on. Transitions are
// guarded going forward and always allowed going backward; Completed is
// terminal.
type Stage int

const (
	StageProductSelection Stage = iota
	StageCustomerSelection
	StagePayment
	StageCompleted
)

func (s Stage) String() string {
	switch s {
	case StageProductSelection:
		return "product_selection"
	case StageCustomerSelection:
		return "customer_selection"
	case StagePayment:
		return "payment"
	case StageCompleted:
		return "completed"
	}
	return "unknown"
}

// Session is the in-memory state of one checkout. It is owned by exactly one
// cashier and discarded on completion or cancellation.
type Session struct {
	ID             string
	CashierID      string
	Stage          Stage
	Cart           Cart
	CustomerID     string
	Payments       []Payment
	ChangePayments []ChangePayment
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Advance moves the session one stage forward, enforcing the guard of the
// current stage. The snapshot must be freshly computed from the session.
func (s *Session) Advance(snap Snapshot) error {
	switch s.Stage {
	case StageProductSelection:
		if s.Cart.IsEmpty() {
			return ErrEmptyCart
		}
		s.Stage = StageCustomerSelection
	case StageCustomerSelection:
		if s.CustomerID == "" {
			return ErrNoCustomer
		}
		s.Stage = StagePayment
	case StagePayment:
		if !snap.CanComplete() {
			return ErrNotPayable
		}
		s.Stage = StageCompleted
	case StageCompleted:
		return ErrSessionCompleted
	}
	s.UpdatedAt = time.Now()
	return nil
}

// Back moves the session one stage backward. Entered data is preserved.
func (s *Session) Back() error {
	switch s.Stage {
	case StageProductSelection:
		return nil
	case StageCompleted:
		return ErrSessionCompleted
	default:
		s.Stage--
		s.UpdatedAt = time.Now()
		return nil
	}
}
