package exchange

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type rateRepository struct {
	db *sql.DB
}

func NewRateRepository(db *sql.DB) Repository {
	return &rateRepository{db: db}
}

func (r *rateRepository) Save(rate *Rate) error {
	query := `
		INSERT INTO exchange_rates (id, value, source, taken_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.Exec(query, rate.ID, rate.Value, rate.Source, rate.TakenAt)
	if err != nil {
		return fmt.Errorf("could not save exchange rate: %v", err)
	}
	return nil
}

func (r *rateRepository) FindLatest() (*Rate, error) {
	query := `
		SELECT id, value, source, taken_at
		FROM exchange_rates
		ORDER BY taken_at DESC
		LIMIT 1
	`

	var rate Rate
	err := r.db.QueryRow(query).Scan(&rate.ID, &rate.Value, &rate.Source, &rate.TakenAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoRate
		}
		return nil, fmt.Errorf("could not find latest exchange rate: %v", err)
	}

	return &rate, nil
}

func (r *rateRepository) FindInDateRange(start, end time.Time) ([]Rate, error) {
	query := `
		SELECT id, value, source, taken_at
		FROM exchange_rates
		WHERE taken_at BETWEEN $1 AND $2
		ORDER BY taken_at DESC
	`

	rows, err := r.db.Query(query, start, end)
	if err != nil {
		return nil, fmt.Errorf("could not query exchange rates: %v", err)
	}
	defer rows.Close()

	var rates []Rate
	for rows.Next() {
		var rate Rate
		if err := rows.Scan(&rate.ID, &rate.Value, &rate.Source, &rate.TakenAt); err != nil {
			return nil, err
		}
		rates = append(rates, rate)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return rates, nil
}
