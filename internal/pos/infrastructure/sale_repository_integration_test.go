package infrastructure

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dfigueredo/PosAdmin/internal/pos/domain"
)

const posSchema = `
CREATE TABLE IF NOT EXISTS payment_methods (
	id UUID PRIMARY KEY,
	name VARCHAR(100) NOT NULL,
	currency VARCHAR(3) NOT NULL,
	kind VARCHAR(20) NOT NULL,
	gives_change BOOLEAN NOT NULL,
	manages_opening_balance BOOLEAN NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS sales (
	id UUID PRIMARY KEY,
	number VARCHAR(20) NOT NULL,
	cashier_id VARCHAR(64) NOT NULL,
	customer_id VARCHAR(64) NOT NULL,
	rate DOUBLE PRECISION NOT NULL,
	subtotal BIGINT NOT NULL,
	total_paid BIGINT NOT NULL,
	change_given BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS sale_items (
	id SERIAL PRIMARY KEY,
	sale_id UUID NOT NULL REFERENCES sales(id),
	product_id VARCHAR(64) NOT NULL,
	name VARCHAR(200) NOT NULL,
	unit_price BIGINT NOT NULL,
	quantity INT NOT NULL,
	line_total BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS sale_payments (
	id SERIAL PRIMARY KEY,
	sale_id UUID NOT NULL REFERENCES sales(id),
	method_id VARCHAR(64) NOT NULL,
	method_name VARCHAR(100) NOT NULL,
	currency VARCHAR(3) NOT NULL,
	amount BIGINT NOT NULL,
	reference BIGINT NOT NULL,
	is_change BOOLEAN NOT NULL
);
`

func setupPosDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("posadmin_test"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = pgContainer.Terminate(ctx)
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("pgx", connStr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(posSchema)
	require.NoError(t, err)

	return db
}

func sampleSale(id, number string, createdAt time.Time) *domain.Sale {
	return &domain.Sale{
		ID:          id,
		Number:      number,
		CashierID:   "cashier-1",
		CustomerID:  "walkin",
		Rate:        36.58,
		Subtotal:    700,
		TotalPaid:   1000,
		ChangeGiven: 300,
		CreatedAt:   createdAt,
		Items: []domain.SaleItem{
			{ProductID: "p1", Name: "Harina PAN 1kg", UnitPrice: 150, Quantity: 2, LineTotal: 300},
			{ProductID: "p2", Name: "Café 250g", UnitPrice: 400, Quantity: 1, LineTotal: 400},
		},
		Payments: []domain.SalePayment{
			{MethodID: "cash-usd", MethodName: "Efectivo USD", Currency: domain.CurrencyReference, Amount: 1000, Reference: 1000},
		},
		ChangePayments: []domain.SalePayment{
			{MethodID: "cash-usd", MethodName: "Efectivo USD", Currency: domain.CurrencyReference, Amount: 300, Reference: 300},
		},
	}
}

func TestSaleRepository_SaveAndFindByID(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-backed repository test in short mode")
	}

	repo := NewSaleRepository(setupPosDB(t))

	sale := sampleSale("f6b1a7b0-5c3e-4f9d-8a2b-111111111111", "V-AAAA1111", time.Now())
	require.NoError(t, repo.Save(sale))

	found, err := repo.FindByID(sale.ID)
	require.NoError(t, err)
	assert.Equal(t, sale.Number, found.Number)
	assert.Equal(t, domain.Cents(700), found.Subtotal)
	require.Len(t, found.Items, 2)
	require.Len(t, found.Payments, 1)
	require.Len(t, found.ChangePayments, 1)
	assert.Equal(t, domain.Cents(300), found.ChangePayments[0].Amount)

	_, err = repo.FindByID("f6b1a7b0-5c3e-4f9d-8a2b-999999999999")
	assert.ErrorIs(t, err, domain.ErrSaleNotFound)
}

func TestSaleRepository_FindInDateRange(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-backed repository test in short mode")
	}

	repo := NewSaleRepository(setupPosDB(t))

	now := time.Now()
	today := sampleSale("f6b1a7b0-5c3e-4f9d-8a2b-222222222222", "V-BBBB2222", now)
	lastWeek := sampleSale("f6b1a7b0-5c3e-4f9d-8a2b-333333333333", "V-CCCC3333", now.Add(-7*24*time.Hour))
	require.NoError(t, repo.Save(today))
	require.NoError(t, repo.Save(lastWeek))

	sales, err := repo.FindInDateRange(now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, today.Number, sales[0].Number)
	assert.Len(t, sales[0].Items, 2)
}

func TestPaymentMethodRepository_InUse(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-backed repository test in short mode")
	}

	db := setupPosDB(t)
	methods := NewPaymentMethodRepository(db)
	sales := NewSaleRepository(db)

	now := time.Now()
	method := &domain.PaymentMethod{
		ID:          "8a35b2de-8d7a-4f6a-9c07-0f0f2d1f1a10",
		Name:        "Efectivo USD",
		Currency:    domain.CurrencyReference,
		Kind:        domain.KindCash,
		GivesChange: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, methods.Save(method))

	inUse, err := methods.InUse(method.ID)
	require.NoError(t, err)
	assert.False(t, inUse)

	sale := sampleSale("f6b1a7b0-5c3e-4f9d-8a2b-444444444444", "V-DDDD4444", now)
	sale.Payments[0].MethodID = method.ID
	sale.ChangePayments[0].MethodID = method.ID
	require.NoError(t, sales.Save(sale))

	inUse, err = methods.InUse(method.ID)
	require.NoError(t, err)
	assert.True(t, inUse)
}
