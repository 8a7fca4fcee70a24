package license

import (
	"database/sql"
	"errors"
	"fmt"
)

type licenseRepository struct {
	db *sql.DB
}

func NewLicenseRepository(db *sql.DB) Repository {
	return &licenseRepository{db: db}
}

const licenseColumns = "key, business_name, business_rif, plan, active, issued_at, expires_at, activated_at"

func scanLicense(row interface{ Scan(...interface{}) error }) (*License, error) {
	var l License
	var rif sql.NullString
	var activatedAt sql.NullTime
	err := row.Scan(&l.Key, &l.BusinessName, &rif, &l.Plan, &l.Active, &l.IssuedAt, &l.ExpiresAt, &activatedAt)
	if err != nil {
		return nil, err
	}
	l.BusinessRIF = rif.String
	if activatedAt.Valid {
		l.ActivatedAt = &activatedAt.Time
	}
	return &l, nil
}

func (r *licenseRepository) Save(license *License) error {
	query := `
		INSERT INTO licenses (key, business_name, business_rif, plan, active, issued_at, expires_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7)
	`
	_, err := r.db.Exec(query, license.Key, license.BusinessName, license.BusinessRIF,
		license.Plan, license.Active, license.IssuedAt, license.ExpiresAt)
	if err != nil {
		return fmt.Errorf("could not save license: %v", err)
	}
	return nil
}

func (r *licenseRepository) FindByKey(key string) (*License, error) {
	query := "SELECT " + licenseColumns + " FROM licenses WHERE key = $1"

	license, err := scanLicense(r.db.QueryRow(query, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLicenseNotFound
		}
		return nil, fmt.Errorf("could not find license: %v", err)
	}
	return license, nil
}

func (r *licenseRepository) FindActivated() (*License, error) {
	query := "SELECT " + licenseColumns + ` FROM licenses
		WHERE activated_at IS NOT NULL
		ORDER BY activated_at DESC
		LIMIT 1`

	license, err := scanLicense(r.db.QueryRow(query))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoLicense
		}
		return nil, fmt.Errorf("could not find activated license: %v", err)
	}
	return license, nil
}

func (r *licenseRepository) Update(license *License) error {
	query := `
		UPDATE licenses
		SET business_name = $2, business_rif = NULLIF($3, ''), plan = $4,
		    active = $5, expires_at = $6, activated_at = $7
		WHERE key = $1
	`
	result, err := r.db.Exec(query, license.Key, license.BusinessName, license.BusinessRIF,
		license.Plan, license.Active, license.ExpiresAt, license.ActivatedAt)
	if err != nil {
		return fmt.Errorf("could not update license: %v", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrLicenseNotFound
	}
	return nil
}
