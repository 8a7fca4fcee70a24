package infrastructure

import (
	"database/sql"
	"errors"
	"time"

	"github.com/dfigueredo/PosAdmin/internal/pos/domain"
)

type SaleRepository struct {
	db *sql.DB
}

func NewSaleRepository(db *sql.DB) *SaleRepository {
	return &SaleRepository{db: db}
}

// Save writes the sale with its items and payment legs in one transaction.
func (r *SaleRepository) Save(sale *domain.Sale) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO sales (id, number, cashier_id, customer_id, rate, subtotal, total_paid, change_given, created_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		sale.ID, sale.Number, sale.CashierID, sale.CustomerID, sale.Rate,
		sale.Subtotal, sale.TotalPaid, sale.ChangeGiven, sale.CreatedAt,
	)
	if err != nil {
		return err
	}

	for _, item := range sale.Items {
		_, err = tx.Exec(
			`INSERT INTO sale_items (sale_id, product_id, name, unit_price, quantity, line_total)
             VALUES ($1, $2, $3, $4, $5, $6)`,
			sale.ID, item.ProductID, item.Name, item.UnitPrice, item.Quantity, item.LineTotal,
		)
		if err != nil {
			return err
		}
	}

	insertPayment := func(p domain.SalePayment, isChange bool) error {
		_, err := tx.Exec(
			`INSERT INTO sale_payments (sale_id, method_id, method_name, currency, amount, reference, is_change)
             VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			sale.ID, p.MethodID, p.MethodName, p.Currency, p.Amount, p.Reference, isChange,
		)
		return err
	}
	for _, p := range sale.Payments {
		if err := insertPayment(p, false); err != nil {
			return err
		}
	}
	for _, p := range sale.ChangePayments {
		if err := insertPayment(p, true); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *SaleRepository) FindByID(id string) (*domain.Sale, error) {
	var sale domain.Sale
	err := r.db.QueryRow(
		`SELECT id, number, cashier_id, customer_id, rate, subtotal, total_paid, change_given, created_at
         FROM sales WHERE id = $1`, id,
	).Scan(&sale.ID, &sale.Number, &sale.CashierID, &sale.CustomerID, &sale.Rate,
		&sale.Subtotal, &sale.TotalPaid, &sale.ChangeGiven, &sale.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSaleNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := r.loadDetails(&sale); err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *SaleRepository) FindInDateRange(from, to time.Time) ([]domain.Sale, error) {
	rows, err := r.db.Query(
		`SELECT id, number, cashier_id, customer_id, rate, subtotal, total_paid, change_given, created_at
         FROM sales WHERE created_at >= $1 AND created_at < $2 ORDER BY created_at`, from, to,
	)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

func (r *SaleRepository) FindRecent(limit int) ([]domain.Sale, error) {
	rows, err := r.db.Query(
		`SELECT id, number, cashier_id, customer_id, rate, subtotal, total_paid, change_given, created_at
         FROM sales ORDER BY created_at DESC LIMIT $1`, limit,
	)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

func (r *SaleRepository) collect(rows *sql.Rows) ([]domain.Sale, error) {
	defer rows.Close()

	var sales []domain.Sale
	for rows.Next() {
		var sale domain.Sale
		if err := rows.Scan(&sale.ID, &sale.Number, &sale.CashierID, &sale.CustomerID, &sale.Rate,
			&sale.Subtotal, &sale.TotalPaid, &sale.ChangeGiven, &sale.CreatedAt); err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range sales {
		if err := r.loadDetails(&sales[i]); err != nil {
			return nil, err
		}
	}
	return sales, nil
}

func (r *SaleRepository) loadDetails(sale *domain.Sale) error {
	itemRows, err := r.db.Query(
		`SELECT product_id, name, unit_price, quantity, line_total
         FROM sale_items WHERE sale_id = $1 ORDER BY id`, sale.ID,
	)
	if err != nil {
		return err
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item domain.SaleItem
		if err := itemRows.Scan(&item.ProductID, &item.Name, &item.UnitPrice, &item.Quantity, &item.LineTotal); err != nil {
			return err
		}
		sale.Items = append(sale.Items, item)
	}
	if err := itemRows.Err(); err != nil {
		return err
	}

	paymentRows, err := r.db.Query(
		`SELECT method_id, method_name, currency, amount, reference, is_change
         FROM sale_payments WHERE sale_id = $1 ORDER BY id`, sale.ID,
	)
	if err != nil {
		return err
	}
	defer paymentRows.Close()

	for paymentRows.Next() {
		var payment domain.SalePayment
		var isChange bool
		if err := paymentRows.Scan(&payment.MethodID, &payment.MethodName, &payment.Currency,
			&payment.Amount, &payment.Reference, &isChange); err != nil {
			return err
		}
		if isChange {
			sale.ChangePayments = append(sale.ChangePayments, payment)
		} else {
			sale.Payments = append(sale.Payments, payment)
		}
	}
	return paymentRows.Err()
}
