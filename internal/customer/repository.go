package customer

import (
	"database/sql"
	"errors"
	"fmt"
)

type customerRepository struct {
	db *sql.DB
}

func NewCustomerRepository(db *sql.DB) Repository {
	return &customerRepository{db: db}
}

const customerColumns = "id, document_id, name, phone, email, created_at, updated_at"

func scanCustomer(row interface{ Scan(...interface{}) error }) (*Customer, error) {
	var c Customer
	var phone, email sql.NullString
	err := row.Scan(&c.ID, &c.DocumentID, &c.Name, &phone, &email, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Phone = phone.String
	c.Email = email.String
	return &c, nil
}

func (r *customerRepository) Save(customer *Customer) error {
	query := `
		INSERT INTO customers (id, document_id, name, phone, email, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7)
	`
	_, err := r.db.Exec(query, customer.ID, customer.DocumentID, customer.Name,
		customer.Phone, customer.Email, customer.CreatedAt, customer.UpdatedAt)
	if err != nil {
		return fmt.Errorf("could not save customer: %v", err)
	}
	return nil
}

func (r *customerRepository) FindByID(id string) (*Customer, error) {
	query := "SELECT " + customerColumns + " FROM customers WHERE id = $1"

	customer, err := scanCustomer(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("could not find customer: %v", err)
	}
	return customer, nil
}

func (r *customerRepository) FindByDocument(documentID string) (*Customer, error) {
	query := "SELECT " + customerColumns + " FROM customers WHERE document_id = $1"

	customer, err := scanCustomer(r.db.QueryRow(query, documentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("could not find customer: %v", err)
	}
	return customer, nil
}

func (r *customerRepository) FindAll() ([]Customer, error) {
	query := "SELECT " + customerColumns + " FROM customers ORDER BY name"
	return r.queryCustomers(query)
}

func (r *customerRepository) Search(search string) ([]Customer, error) {
	query := "SELECT " + customerColumns + ` FROM customers
		WHERE name ILIKE '%' || $1 || '%' OR document_id ILIKE '%' || $1 || '%'
		ORDER BY name`
	return r.queryCustomers(query, search)
}

func (r *customerRepository) queryCustomers(query string, args ...interface{}) ([]Customer, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("could not query customers: %v", err)
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, *customer)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return customers, nil
}

func (r *customerRepository) Update(customer *Customer) error {
	query := `
		UPDATE customers
		SET document_id = $2, name = $3, phone = NULLIF($4, ''), email = NULLIF($5, ''), updated_at = $6
		WHERE id = $1
	`
	result, err := r.db.Exec(query, customer.ID, customer.DocumentID, customer.Name,
		customer.Phone, customer.Email, customer.UpdatedAt)
	if err != nil {
		return fmt.Errorf("could not update customer: %v", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCustomerNotFound
	}
	return nil
}

func (r *customerRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM customers WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("could not delete customer: %v", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCustomerNotFound
	}
	return nil
}
