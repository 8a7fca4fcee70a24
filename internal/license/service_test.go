package license

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type mockLicenseRepository struct {
	licenses map[string]*License
}

func newMockLicenseRepository() *mockLicenseRepository {
	return &mockLicenseRepository{licenses: map[string]*License{}}
}

func (m *mockLicenseRepository) Save(l *License) error {
	copied := *l
	m.licenses[l.Key] = &copied
	return nil
}

func (m *mockLicenseRepository) FindByKey(key string) (*License, error) {
	l, ok := m.licenses[key]
	if !ok {
		return nil, ErrLicenseNotFound
	}
	copied := *l
	return &copied, nil
}

func (m *mockLicenseRepository) FindActivated() (*License, error) {
	for _, l := range m.licenses {
		if l.ActivatedAt != nil {
			copied := *l
			return &copied, nil
		}
	}
	return nil, ErrNoLicense
}

func (m *mockLicenseRepository) Update(l *License) error {
	if _, ok := m.licenses[l.Key]; !ok {
		return ErrLicenseNotFound
	}
	copied := *l
	m.licenses[l.Key] = &copied
	return nil
}

func TestLicenseService_IssueAndActivate(t *testing.T) {
	service := NewService(newMockLicenseRepository(), nil)

	issued, err := service.Issue("Bodega La Esquina", "J-12345678-9", PlanBasic, 0)
	assert.NoError(t, err)
	assert.NotEmpty(t, issued.Key)
	assert.True(t, issued.Active)
	assert.True(t, issued.ExpiresAt.After(time.Now()))

	_, err = service.Status()
	assert.ErrorIs(t, err, ErrNoLicense)

	activated, err := service.Activate(issued.Key)
	assert.NoError(t, err)
	assert.NotNil(t, activated.ActivatedAt)

	status, err := service.Status()
	assert.NoError(t, err)
	assert.Equal(t, issued.Key, status.Key)
}

func TestLicenseService_ActivateUnknownKey(t *testing.T) {
	service := NewService(newMockLicenseRepository(), nil)

	_, err := service.Activate("not-a-key")
	assert.ErrorIs(t, err, ErrLicenseNotFound)
}

func TestLicenseService_ExpiredLicenseIsRejected(t *testing.T) {
	repo := newMockLicenseRepository()
	service := NewService(repo, nil)

	issued, err := service.Issue("Bodega La Esquina", "", PlanPremium, time.Hour)
	assert.NoError(t, err)

	stored := repo.licenses[issued.Key]
	stored.ExpiresAt = time.Now().Add(-time.Hour)

	_, err = service.Activate(issued.Key)
	assert.ErrorIs(t, err, ErrLicenseExpired)
}

func TestLicenseService_RenewExtendsExpiry(t *testing.T) {
	repo := newMockLicenseRepository()
	service := NewService(repo, nil)

	issued, err := service.Issue("Bodega La Esquina", "", PlanBasic, 24*time.Hour)
	assert.NoError(t, err)

	renewed, err := service.Renew(issued.Key, 48*time.Hour)
	assert.NoError(t, err)
	assert.True(t, renewed.ExpiresAt.After(issued.ExpiresAt))
}
