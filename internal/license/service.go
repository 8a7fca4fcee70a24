package license

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	posErrors "github.com/dfigueredo/PosAdmin/internal/pos/errors"
)

const defaultLicenseDuration = 365 * 24 * time.Hour

type Service interface {
	// Issue creates a new license key for a business. Admin operation.
	Issue(businessName, businessRIF string, plan Plan, duration time.Duration) (*License, error)
	// Activate binds an issued key to this installation.
	Activate(key string) (*License, error)
	// Status returns the activated license, validating expiry.
	Status() (*License, error)
	Renew(key string, duration time.Duration) (*License, error)
	// Middleware blocks requests when no valid license is activated.
	Middleware() func(http.Handler) http.Handler
}

type service struct {
	repo         Repository
	respondError func(w http.ResponseWriter, status int, message string)
}

func NewService(repo Repository, respondError func(w http.ResponseWriter, status int, message string)) Service {
	return &service{repo: repo, respondError: respondError}
}

func (s *service) Issue(businessName, businessRIF string, plan Plan, duration time.Duration) (*License, error) {
	if strings.TrimSpace(businessName) == "" {
		return nil, posErrors.NewFieldValidationError("business_name", "must not be empty")
	}
	if plan != PlanBasic && plan != PlanPremium {
		return nil, posErrors.NewFieldValidationError("plan", "must be 'basic' or 'premium'")
	}
	if duration <= 0 {
		duration = defaultLicenseDuration
	}

	now := time.Now()
	license := &License{
		Key:          uuid.NewString(),
		BusinessName: businessName,
		BusinessRIF:  businessRIF,
		Plan:         plan,
		Active:       true,
		IssuedAt:     now,
		ExpiresAt:    now.Add(duration),
	}
	if err := s.repo.Save(license); err != nil {
		return nil, err
	}
	return license, nil
}

func (s *service) Activate(key string) (*License, error) {
	license, err := s.repo.FindByKey(key)
	if err != nil {
		return nil, err
	}
	if !license.Active {
		return nil, ErrLicenseInactive
	}
	if license.Expired(time.Now()) {
		return nil, ErrLicenseExpired
	}

	now := time.Now()
	license.ActivatedAt = &now
	if err := s.repo.Update(license); err != nil {
		return nil, err
	}
	return license, nil
}

func (s *service) Status() (*License, error) {
	license, err := s.repo.FindActivated()
	if err != nil {
		return nil, err
	}
	if !license.Active {
		return nil, ErrLicenseInactive
	}
	if license.Expired(time.Now()) {
		return license, ErrLicenseExpired
	}
	return license, nil
}

func (s *service) Renew(key string, duration time.Duration) (*License, error) {
	license, err := s.repo.FindByKey(key)
	if err != nil {
		return nil, err
	}
	if duration <= 0 {
		duration = defaultLicenseDuration
	}

	start := license.ExpiresAt
	if now := time.Now(); start.Before(now) {
		start = now
	}
	license.ExpiresAt = start.Add(duration)
	license.Active = true
	if err := s.repo.Update(license); err != nil {
		return nil, err
	}
	return license, nil
}

func (s *service) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := s.Status(); err != nil {
				s.respondError(w, http.StatusPaymentRequired, "A valid license is required: "+err.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
