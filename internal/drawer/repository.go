package drawer

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dfigueredo/PosAdmin/internal/pos/domain"
)

type drawerRepository struct {
	db *sql.DB
}

func NewDrawerRepository(db *sql.DB) Repository {
	return &drawerRepository{db: db}
}

func (r *drawerRepository) SaveSession(session *Session) error {
	query := `
		INSERT INTO drawer_sessions (id, opened_by, status, notes, opened_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5)
	`
	_, err := r.db.Exec(query, session.ID, session.OpenedBy, session.Status, session.Notes, session.OpenedAt)
	if err != nil {
		return fmt.Errorf("could not save drawer session: %v", err)
	}
	return nil
}

func scanSession(row interface{ Scan(...interface{}) error }) (*Session, error) {
	var s Session
	var notes sql.NullString
	var counts []byte
	var closedAt sql.NullTime
	err := row.Scan(&s.ID, &s.OpenedBy, &s.Status, &notes, &counts, &s.OpenedAt, &closedAt)
	if err != nil {
		return nil, err
	}
	s.Notes = notes.String
	if closedAt.Valid {
		s.ClosedAt = &closedAt.Time
	}
	if len(counts) > 0 {
		if err := json.Unmarshal(counts, &s.Counts); err != nil {
			return nil, fmt.Errorf("could not decode drawer counts: %v", err)
		}
	}
	return &s, nil
}

const sessionColumns = "id, opened_by, status, notes, counts, opened_at, closed_at"

func (r *drawerRepository) FindOpenSession() (*Session, error) {
	query := "SELECT " + sessionColumns + " FROM drawer_sessions WHERE status = 'open'"

	session, err := scanSession(r.db.QueryRow(query))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoOpenSession
		}
		return nil, fmt.Errorf("could not find open drawer session: %v", err)
	}
	return session, nil
}

func (r *drawerRepository) FindSessionByID(id string) (*Session, error) {
	query := "SELECT " + sessionColumns + " FROM drawer_sessions WHERE id = $1"

	session, err := scanSession(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("could not find drawer session: %v", err)
	}
	return session, nil
}

func (r *drawerRepository) FindRecentSessions(limit int) ([]Session, error) {
	query := "SELECT " + sessionColumns + " FROM drawer_sessions ORDER BY opened_at DESC LIMIT $1"

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("could not query drawer sessions: %v", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *drawerRepository) CloseSession(session *Session) error {
	counts, err := json.Marshal(session.Counts)
	if err != nil {
		return fmt.Errorf("could not encode drawer counts: %v", err)
	}

	query := `
		UPDATE drawer_sessions
		SET status = $2, counts = $3, notes = NULLIF($4, ''), closed_at = $5
		WHERE id = $1 AND status = 'open'
	`
	result, err := r.db.Exec(query, session.ID, session.Status, counts, session.Notes, session.ClosedAt)
	if err != nil {
		return fmt.Errorf("could not close drawer session: %v", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrSessionClosed
	}
	return nil
}

func (r *drawerRepository) SaveMovement(movement *Movement) error {
	query := `
		INSERT INTO drawer_movements (id, session_id, kind, method_id, amount_cents, description, sale_id, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8)
	`
	_, err := r.db.Exec(query, movement.ID, movement.SessionID, movement.Kind, movement.MethodID,
		movement.Amount, movement.Description, movement.SaleID, movement.CreatedAt)
	if err != nil {
		return fmt.Errorf("could not save drawer movement: %v", err)
	}
	return nil
}

func (r *drawerRepository) FindMovements(sessionID string) ([]Movement, error) {
	query := `
		SELECT id, session_id, kind, method_id, amount_cents, description, sale_id, created_at
		FROM drawer_movements
		WHERE session_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.Query(query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("could not query drawer movements: %v", err)
	}
	defer rows.Close()

	var movements []Movement
	for rows.Next() {
		var m Movement
		var description, saleID sql.NullString
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Kind, &m.MethodID, &m.Amount, &description, &saleID, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Description = description.String
		m.SaleID = saleID.String
		movements = append(movements, m)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return movements, nil
}

func (r *drawerRepository) SumByMethod(sessionID string) (map[string]domain.Cents, error) {
	query := `
		SELECT method_id, COALESCE(SUM(amount_cents), 0)
		FROM drawer_movements
		WHERE session_id = $1
		GROUP BY method_id
	`

	rows, err := r.db.Query(query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("could not sum drawer movements: %v", err)
	}
	defer rows.Close()

	sums := make(map[string]domain.Cents)
	for rows.Next() {
		var methodID string
		var total domain.Cents
		if err := rows.Scan(&methodID, &total); err != nil {
			return nil, err
		}
		sums[methodID] = total
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return sums, nil
}
