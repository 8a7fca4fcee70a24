package license

import (
	"errors"
	"time"
)

var (
	ErrLicenseNotFound = errors.New("license not found")
	ErrLicenseExpired  = errors.New("license is expired")
	ErrLicenseInactive = errors.New("license is not active")
	ErrNoLicense       = errors.New("no license activated for this installation")
)

type Plan string

const (
	PlanBasic   Plan = "basic"
	PlanPremium Plan = "premium"
)

// License authorizes one installation of the application for a business.
type License struct {
	Key          string     `json:"key"`
	BusinessName string     `json:"business_name"`
	BusinessRIF  string     `json:"business_rif"`
	Plan         Plan       `json:"plan"`
	Active       bool       `json:"active"`
	IssuedAt     time.Time  `json:"issued_at"`
	ExpiresAt    time.Time  `json:"expires_at"`
	ActivatedAt  *time.Time `json:"activated_at,omitempty"`
}

func (l *License) Expired(now time.Time) bool {
	return now.After(l.ExpiresAt)
}

type Repository interface {
	Save(license *License) error
	FindByKey(key string) (*License, error)
	FindActivated() (*License, error)
	Update(license *License) error
}
