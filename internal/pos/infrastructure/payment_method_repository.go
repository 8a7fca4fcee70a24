package infrastructure

import (
	"database/sql"
	"errors"

	"github.com/dfigueredo/PosAdmin/internal/pos/domain"
)

type PaymentMethodRepository struct {
	db *sql.DB
}

func NewPaymentMethodRepository(db *sql.DB) *PaymentMethodRepository {
	return &PaymentMethodRepository{db: db}
}

func (r *PaymentMethodRepository) Save(method *domain.PaymentMethod) error {
	_, err := r.db.Exec(
		`INSERT INTO payment_methods (id, name, currency, kind, gives_change, manages_opening_balance, created_at, updated_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		method.ID, method.Name, method.Currency, method.Kind, method.GivesChange,
		method.ManagesOpeningBalance, method.CreatedAt, method.UpdatedAt,
	)
	return err
}

func (r *PaymentMethodRepository) FindAll() ([]domain.PaymentMethod, error) {
	rows, err := r.db.Query(
		`SELECT id, name, currency, kind, gives_change, manages_opening_balance, created_at, updated_at
         FROM payment_methods ORDER BY name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var methods []domain.PaymentMethod
	for rows.Next() {
		var method domain.PaymentMethod
		if err := rows.Scan(&method.ID, &method.Name, &method.Currency, &method.Kind,
			&method.GivesChange, &method.ManagesOpeningBalance, &method.CreatedAt, &method.UpdatedAt); err != nil {
			return nil, err
		}
		methods = append(methods, method)
	}
	return methods, rows.Err()
}

func (r *PaymentMethodRepository) FindByID(id string) (*domain.PaymentMethod, error) {
	var method domain.PaymentMethod
	err := r.db.QueryRow(
		`SELECT id, name, currency, kind, gives_change, manages_opening_balance, created_at, updated_at
         FROM payment_methods WHERE id = $1`, id,
	).Scan(&method.ID, &method.Name, &method.Currency, &method.Kind,
		&method.GivesChange, &method.ManagesOpeningBalance, &method.CreatedAt, &method.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrMethodNotFound
	}
	if err != nil {
		return nil, err
	}
	return &method, nil
}

func (r *PaymentMethodRepository) Update(method *domain.PaymentMethod) error {
	result, err := r.db.Exec(
		`UPDATE payment_methods
         SET name = $2, currency = $3, kind = $4, gives_change = $5, manages_opening_balance = $6, updated_at = $7
         WHERE id = $1`,
		method.ID, method.Name, method.Currency, method.Kind, method.GivesChange,
		method.ManagesOpeningBalance, method.UpdatedAt,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrMethodNotFound
	}
	return nil
}

func (r *PaymentMethodRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM payment_methods WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrMethodNotFound
	}
	return nil
}

// InUse reports whether any recorded sale references the method.
func (r *PaymentMethodRepository) InUse(id string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(
		`SELECT EXISTS (SELECT 1 FROM sale_payments WHERE method_id = $1)`, id,
	).Scan(&exists)
	return exists, err
}
