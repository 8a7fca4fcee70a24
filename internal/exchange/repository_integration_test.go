package exchange

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
)

const exchangeRatesSchema = `
CREATE TABLE IF NOT EXISTS exchange_rates (
	id UUID PRIMARY KEY,
	value NUMERIC(12, 4) NOT NULL,
	source VARCHAR(20) NOT NULL,
	taken_at TIMESTAMPTZ NOT NULL
);
`

func setupRateDB(t *testing.T) *sql.DB {
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

	_, err = db.Exec(exchangeRatesSchema)
	require.NoError(t, err)

	return db
}

func TestRateRepository_SaveAndFindLatest(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-backed repository test in short mode")
	}

	repo := NewRateRepository(setupRateDB(t))

	_, err := repo.FindLatest()
	assert.ErrorIs(t, err, ErrNoRate)

	older := Rate{ID: "8a35b2de-8d7a-4f6a-9c07-0f0f2d1f1a01", Value: 36.10, Source: SourceManual, TakenAt: time.Now().Add(-2 * time.Hour)}
	newer := Rate{ID: "8a35b2de-8d7a-4f6a-9c07-0f0f2d1f1a02", Value: 36.58, Source: SourceBCV, TakenAt: time.Now()}
	require.NoError(t, repo.Save(&older))
	require.NoError(t, repo.Save(&newer))

	latest, err := repo.FindLatest()
	require.NoError(t, err)
	assert.Equal(t, newer.ID, latest.ID)
	assert.InDelta(t, 36.58, latest.Value, 0.0001)
	assert.Equal(t, SourceBCV, latest.Source)
}

func TestRateRepository_FindInDateRange(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-backed repository test in short mode")
	}

	repo := NewRateRepository(setupRateDB(t))

	now := time.Now()
	inRange := Rate{ID: "8a35b2de-8d7a-4f6a-9c07-0f0f2d1f1a03", Value: 36.00, Source: SourceManual, TakenAt: now.Add(-24 * time.Hour)}
	outOfRange := Rate{ID: "8a35b2de-8d7a-4f6a-9c07-0f0f2d1f1a04", Value: 30.00, Source: SourceManual, TakenAt: now.Add(-30 * 24 * time.Hour)}
	require.NoError(t, repo.Save(&inRange))
	require.NoError(t, repo.Save(&outOfRange))

	rates, err := repo.FindInDateRange(now.Add(-7*24*time.Hour), now)
	require.NoError(t, err)
	require.Len(t, rates, 1)
	assert.Equal(t, inRange.ID, rates[0].ID)
}
