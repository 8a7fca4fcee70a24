package user

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var (
	ErrUserNotFound             = errors.New("user not found")
	ErrNoTwoFactorCodeGenerated = errors.New("no two-factor authentication code generated")
)

type Repository interface {
	createUser(user *User) error
	countUsers() (int, error)
	getUserByEmail(email string) (*User, error)
	userExistsByLoginOrEmail(login, email string) (*User, error)
	getUserByLoginOrEmail(loginOrEmail string) (*User, error)
	getUserByID(id string) (*User, error)
	listUsers() ([]User, error)
	saveEmailVerificationCode(userID string, code string, expiresAt time.Time, codeType string) error
	updateEmailVerified(userID string, verified bool) error
	getEmailVerificationCode(userID string) (string, string, time.Time, time.Time, error)
	deleteEmailTwoFactorCode(userID string) error
	updateUserPasswordAndHashToken(userID, newPasswordHash, newHashToken string) error
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) Repository {
	return &userRepository{
		db: db,
	}
}

const userColumns = `id, email, login, role, password_hash, is_verified, two_factor_enabled, two_factor_method, hash_token, created_at, updated_at`

func scanUser(row *sql.Row) (*User, error) {
	var user User
	err := row.Scan(&user.ID, &user.Email, &user.Login, &user.Role, &user.PasswordHash, &user.IsActive,
		&user.TwoFactorEnabled, &user.TwoFactorMethod, &user.HashToken, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("could not find user: %v", err)
	}
	return &user, nil
}

func (r *userRepository) createUser(user *User) error {
	query := `
		INSERT INTO users (email, login, role, password_hash, two_factor_enabled, two_factor_method, hash_token, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING id;
	`
	var id string
	err := r.db.QueryRow(query, user.Email, user.Login, user.Role, user.PasswordHash,
		user.TwoFactorEnabled, user.TwoFactorMethod, user.HashToken).Scan(&id)
	if err != nil {
		return fmt.Errorf("could not create user: %v", err)
	}

	user.ID = id
	return nil
}

func (r *userRepository) countUsers() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

func (r *userRepository) getUserByEmail(email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRow(query, email))
}

func (r *userRepository) userExistsByLoginOrEmail(login, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE login = $1 OR email = $2`
	return scanUser(r.db.QueryRow(query, login, email))
}

func (r *userRepository) getUserByLoginOrEmail(loginOrEmail string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE login = $1 OR email = $1`
	return scanUser(r.db.QueryRow(query, loginOrEmail))
}

func (r *userRepository) getUserByID(id string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRow(query, id))
}

func (r *userRepository) listUsers() ([]User, error) {
	rows, err := r.db.Query(`SELECT ` + userColumns + ` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.Email, &user.Login, &user.Role, &user.PasswordHash, &user.IsActive,
			&user.TwoFactorEnabled, &user.TwoFactorMethod, &user.HashToken, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *userRepository) saveEmailVerificationCode(userID string, code string, expiresAt time.Time, codeType string) error {
	query := `
        INSERT INTO user_email_verification_codes (user_id, code, expires_at, type)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (user_id) DO UPDATE
        SET code = $2, expires_at = $3, type = $4, created_at = CURRENT_TIMESTAMP
    `
	_, err := r.db.Exec(query, userID, code, expiresAt, codeType)
	if err != nil {
		return fmt.Errorf("could not save verification code: %v", err)
	}
	return nil
}

func (r *userRepository) updateEmailVerified(userID string, verified bool) error {
	query := `
        UPDATE users
        SET is_verified = $2, updated_at = NOW()
        WHERE id = $1
    `
	_, err := r.db.Exec(query, userID, verified)
	if err != nil {
		return fmt.Errorf("could not update email verification status: %v", err)
	}
	return nil
}

func (r *userRepository) getEmailVerificationCode(userID string) (string, string, time.Time, time.Time, error) {
	query := `
        SELECT code, type, expires_at, created_at
        FROM user_email_verification_codes
        WHERE user_id = $1
    `

	var code string
	var codeType string
	var expiresAt time.Time
	var createdAt time.Time
	err := r.db.QueryRow(query, userID).Scan(&code, &codeType, &expiresAt, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", time.Time{}, time.Time{}, ErrNoTwoFactorCodeGenerated
		}
		return "", "", time.Time{}, time.Time{}, fmt.Errorf("could not retrieve verification code: %v", err)
	}

	return code, codeType, expiresAt, createdAt, nil
}

func (r *userRepository) deleteEmailTwoFactorCode(userID string) error {
	query := `
        DELETE FROM user_email_verification_codes
        WHERE user_id = $1
    `
	_, err := r.db.Exec(query, userID)
	if err != nil {
		return fmt.Errorf("could not delete email two-factor code: %v", err)
	}
	return nil
}

func (r *userRepository) updateUserPasswordAndHashToken(userID, newPasswordHash, newHashToken string) error {
	query := `
        UPDATE users
        SET password_hash = $1,
            hash_token = $2,
            updated_at = $3
        WHERE id = $4
    `
	_, err := r.db.Exec(query, newPasswordHash, newHashToken, time.Now(), userID)
	return err
}
