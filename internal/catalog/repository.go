package catalog

import (
	"database/sql"
	"errors"
	"fmt"
)

type productRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) Repository {
	return &productRepository{db: db}
}

const productColumns = "id, name, barcode, category, price_cents, stock, active, created_at, updated_at"

func scanProduct(row interface{ Scan(...interface{}) error }) (*Product, error) {
	var p Product
	var barcode, category sql.NullString
	err := row.Scan(&p.ID, &p.Name, &barcode, &category, &p.Price, &p.Stock, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Barcode = barcode.String
	p.Category = category.String
	return &p, nil
}

func (r *productRepository) Save(product *Product) error {
	query := `
		INSERT INTO products (id, name, barcode, category, price_cents, stock, active, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(query, product.ID, product.Name, product.Barcode, product.Category,
		product.Price, product.Stock, product.Active, product.CreatedAt, product.UpdatedAt)
	if err != nil {
		return fmt.Errorf("could not save product: %v", err)
	}
	return nil
}

func (r *productRepository) FindByID(id string) (*Product, error) {
	query := "SELECT " + productColumns + " FROM products WHERE id = $1"

	product, err := scanProduct(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("could not find product: %v", err)
	}
	return product, nil
}

func (r *productRepository) FindByBarcode(barcode string) (*Product, error) {
	query := "SELECT " + productColumns + " FROM products WHERE barcode = $1"

	product, err := scanProduct(r.db.QueryRow(query, barcode))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("could not find product: %v", err)
	}
	return product, nil
}

func (r *productRepository) FindAll(activeOnly bool) ([]Product, error) {
	query := "SELECT " + productColumns + " FROM products"
	if activeOnly {
		query += " WHERE active = TRUE"
	}
	query += " ORDER BY name"

	return r.queryProducts(query)
}

func (r *productRepository) Search(search string) ([]Product, error) {
	query := "SELECT " + productColumns + ` FROM products
		WHERE active = TRUE AND (name ILIKE '%' || $1 || '%' OR barcode = $1 OR category ILIKE '%' || $1 || '%')
		ORDER BY name`

	return r.queryProducts(query, search)
}

func (r *productRepository) queryProducts(query string, args ...interface{}) ([]Product, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("could not query products: %v", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *product)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func (r *productRepository) Update(product *Product) error {
	query := `
		UPDATE products
		SET name = $2, barcode = NULLIF($3, ''), category = NULLIF($4, ''),
		    price_cents = $5, stock = $6, active = $7, updated_at = $8
		WHERE id = $1
	`
	result, err := r.db.Exec(query, product.ID, product.Name, product.Barcode, product.Category,
		product.Price, product.Stock, product.Active, product.UpdatedAt)
	if err != nil {
		return fmt.Errorf("could not update product: %v", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *productRepository) DecrementStock(id string, quantity int) error {
	query := `
		UPDATE products
		SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1 AND stock >= $2
	`
	result, err := r.db.Exec(query, id, quantity)
	if err != nil {
		return fmt.Errorf("could not decrement stock: %v", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		if _, err := r.FindByID(id); err != nil {
			return err
		}
		return ErrInsufficientStock
	}
	return nil
}

func (r *productRepository) IncrementStock(id string, quantity int) error {
	query := `
		UPDATE products
		SET stock = stock + $2, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.Exec(query, id, quantity)
	if err != nil {
		return fmt.Errorf("could not increment stock: %v", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}
