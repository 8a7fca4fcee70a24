package drawer

import (
	"errors"
	"time"

	"github.com/dfigueredo/PosAdmin/internal/pos/domain"
)

var (
	ErrSessionNotFound    = errors.New("drawer session not found")
	ErrNoOpenSession      = errors.New("no open drawer session")
	ErrSessionAlreadyOpen = errors.New("a drawer session is already open")
	ErrSessionClosed      = errors.New("drawer session is already closed")
)

type SessionStatus string

const (
	StatusOpen   SessionStatus = "open"
	StatusClosed SessionStatus = "closed"
)

type MovementKind string

const (
	// KindOpening is the opening balance entry recorded when the session opens.
	KindOpening MovementKind = "opening"
	// KindSale is cash received from a completed sale.
	KindSale MovementKind = "sale"
	// KindChange is cash handed back to a customer as change.
	KindChange    MovementKind = "change"
	KindManualIn  MovementKind = "manual_in"
	KindManualOut MovementKind = "manual_out"
)

// Movement is one immutable entry in the drawer ledger. Amount is signed:
// money entering the drawer is positive, money leaving it is negative.
// Movements are never modified or deleted; corrections are inverse entries.
type Movement struct {
	ID          string       `json:"id"`
	SessionID   string       `json:"session_id"`
	Kind        MovementKind `json:"kind"`
	MethodID    string       `json:"method_id"`
	Amount      domain.Cents `json:"amount_cents"`
	Description string       `json:"description,omitempty"`
	SaleID      string       `json:"sale_id,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// MethodBalance is an amount attributed to one payment method, in that
// method's own currency.
type MethodBalance struct {
	MethodID string       `json:"method_id"`
	Amount   domain.Cents `json:"amount_cents"`
}

// MethodCount is the per-method reconciliation produced when a session
// closes: what the ledger says should be in the drawer versus what the
// cashier counted.
type MethodCount struct {
	MethodID  string       `json:"method_id"`
	Expected  domain.Cents `json:"expected_cents"`
	Declared  domain.Cents `json:"declared_cents"`
	Deviation domain.Cents `json:"deviation_cents"`
}

// Session is one cash-drawer shift, from opening count to closing count.
type Session struct {
	ID       string        `json:"id"`
	OpenedBy string        `json:"opened_by"`
	Status   SessionStatus `json:"status"`
	Counts   []MethodCount `json:"counts,omitempty"`
	Notes    string        `json:"notes,omitempty"`
	OpenedAt time.Time     `json:"opened_at"`
	ClosedAt *time.Time    `json:"closed_at,omitempty"`
}

type Repository interface {
	SaveSession(session *Session) error
	FindOpenSession() (*Session, error)
	FindSessionByID(id string) (*Session, error)
	FindRecentSessions(limit int) ([]Session, error)
	CloseSession(session *Session) error
	SaveMovement(movement *Movement) error
	FindMovements(sessionID string) ([]Movement, error)
	SumByMethod(sessionID string) (map[string]domain.Cents, error)
}
