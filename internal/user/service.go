package user

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/badoux/checkmail"
	"golang.org/x/crypto/bcrypt"

	emailService "github.com/dfigueredo/PosAdmin/internal/email"
)

const (
	maxEmailLength     = 60
	minEmailLength     = 3
	maxLoginLength     = 30
	minLoginLength     = 5
	bcryptCost         = 12
	defaultCodeTimeout = 2
	CodeVerifyType     = "verify"

	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

var (
	ErrInvalidEmail             = errors.New("email address is not valid")
	ErrEmailLength              = fmt.Errorf("email address must be between %d and %d characters", minEmailLength, maxEmailLength)
	ErrLoginLength              = fmt.Errorf("login must be between %d and %d characters", minLoginLength, maxLoginLength)
	ErrEmailAlreadyExists       = errors.New("email already exists")
	ErrLoginAlreadyExists       = errors.New("login already exists")
	ErrInternalError            = errors.New("internal server error")
	ErrInvalidRole              = errors.New("role must be 'admin' or 'cashier'")
	ErrUserAlreadyVerified      = errors.New("user already verified")
	ErrInvalidVerificationCode  = errors.New("invalid verification code")
	ErrVerificationCodeExpired  = errors.New("verification code expired")
	ErrTooManyEmailCodeRequests = errors.New("too many email code requests")
	ErrInvalidOldPassword       = errors.New("invalid old password")
	ErrNotAdmin                 = errors.New("administrator privileges required")
)

// User is an account of the store's back office: the owner (admin) or one of
// the cashiers they created.
type User struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	Login            string    `json:"login"`
	Role             string    `json:"role"`
	PasswordHash     string    `json:"-"`
	TwoFactorEnabled bool      `json:"two_factor_enabled"`
	TwoFactorMethod  string    `json:"two_factor_method"`
	HashToken        string    `json:"-"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type Service interface {
	Register(email, login, password string) (*User, error)
	CreateCashier(adminID, email, login, password string) (*User, error)
	VerifyRegistrationCode(email, code string) error
	GenerateVerificationCode(user *User) error
	SendVerificationCode(user *User) error
	SaveEmailVerificationCode(userID string, code string, expiresAt time.Time, codeType string) error
	GetEmailVerificationCode(userID string) (string, string, time.Time, time.Time, error)
	GetUserByID(userID string) (*User, error)
	GetUserByLoginOrEmail(loginOrEmail string) (*User, error)
	ListUsers() ([]User, error)
	SetActive(adminID, userID string, active bool) error
	DeleteEmailTwoFactorCode(userID string) error
	ChangePasswordWithOldPassword(userID, oldPassword, newPassword string) error
	ResetPassword(userID, newPassword string) error
}

type service struct {
	repo         Repository
	emailService emailService.EmailSender
}

func NewUserService(repo Repository, emailService emailService.EmailSender) Service {
	return &service{
		repo:         repo,
		emailService: emailService,
	}
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(hashed), err
}

func doPasswordsMatch(hashedPassword, currPassword string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(currPassword)) == nil
}

func GenerateVerificationCode() (string, error) {
	code := make([]byte, 6)
	if _, err := rand.Read(code); err != nil {
		return "", fmt.Errorf("could not generate verification code: %v", err)
	}
	for i := range code {
		code[i] = '0' + (code[i] % 10)
	}
	return string(code), nil
}

func generateHashToken() (string, error) {
	token := make([]byte, 32)
	if _, err := rand.Read(token); err != nil {
		return "", fmt.Errorf("could not generate hash token: %v", err)
	}
	return hex.EncodeToString(token), nil
}

func validateEmailAddress(email string) error {
	if err := checkmail.ValidateFormat(email); err != nil {
		return ErrInvalidEmail
	}
	if len(email) > maxEmailLength || len(email) <= minEmailLength {
		return ErrEmailLength
	}
	return nil
}

func (s *service) validateNewAccount(email, login string) (string, error) {
	if err := validateEmailAddress(email); err != nil {
		return "", err
	}

	if len(login) == 0 {
		parts := strings.Split(email, "@")
		if len(parts) < 2 {
			return "", ErrInvalidEmail
		}
		login = parts[0]
	} else if len(login) > maxLoginLength || len(login) < minLoginLength {
		return "", ErrLoginLength
	}

	existing, err := s.repo.userExistsByLoginOrEmail(login, email)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		log.Printf("Error checking account uniqueness: %v", err)
		return "", ErrInternalError
	}
	if existing != nil {
		if existing.Login == login {
			return "", ErrLoginAlreadyExists
		}
		return "", ErrEmailAlreadyExists
	}

	return login, nil
}

func (s *service) createAccount(email, login, password, role string) (*User, error) {
	passwordHash, err := hashPassword(password)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		return nil, ErrInternalError
	}

	hashToken, err := generateHashToken()
	if err != nil {
		return nil, ErrInternalError
	}

	user := &User{
		Email:        email,
		Login:        login,
		Role:         role,
		PasswordHash: passwordHash,
		HashToken:    hashToken,
	}
	if err := s.repo.createUser(user); err != nil {
		log.Printf("Error creating user: %v", err)
		return nil, ErrInternalError
	}
	return user, nil
}

// Register creates the store owner account. The first account becomes the
// admin; later self-registrations become cashiers pending admin activation.
func (s *service) Register(email, login, password string) (*User, error) {
	login, err := s.validateNewAccount(email, login)
	if err != nil {
		return nil, err
	}

	role := RoleCashier
	count, err := s.repo.countUsers()
	if err != nil {
		return nil, ErrInternalError
	}
	if count == 0 {
		role = RoleAdmin
	}

	user, err := s.createAccount(email, login, password, role)
	if err != nil {
		return nil, err
	}

	if err := s.SendVerificationCode(user); err != nil {
		log.Printf("Error sending verification email: %v", err)
		return nil, ErrInternalError
	}
	return user, nil
}

// CreateCashier lets the admin open a cashier account directly. The account
// still confirms its email through the verification code.
func (s *service) CreateCashier(adminID, email, login, password string) (*User, error) {
	admin, err := s.repo.getUserByID(adminID)
	if err != nil {
		return nil, err
	}
	if !admin.IsAdmin() {
		return nil, ErrNotAdmin
	}

	login, err = s.validateNewAccount(email, login)
	if err != nil {
		return nil, err
	}

	user, err := s.createAccount(email, login, password, RoleCashier)
	if err != nil {
		return nil, err
	}

	if err := s.SendVerificationCode(user); err != nil {
		log.Printf("Error sending verification email: %v", err)
		return nil, ErrInternalError
	}
	return user, nil
}

func (s *service) SendVerificationCode(user *User) error {
	newCode, err := GenerateVerificationCode()
	if err != nil {
		return err
	}

	expirationTime := time.Now().Add(10 * time.Minute).UTC()
	if err := s.repo.saveEmailVerificationCode(user.ID, newCode, expirationTime, CodeVerifyType); err != nil {
		return fmt.Errorf("could not save verification code: %v", err)
	}

	s.emailService.QueueEmail(user.Email, emailService.RegistrationConfirmationData{
		UserName: user.Login,
		Code:     newCode,
	})
	return nil
}

func (s *service) VerifyRegistrationCode(email, code string) error {
	user, err := s.repo.getUserByEmail(email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		return ErrInternalError
	}

	if user.IsActive {
		return ErrUserAlreadyVerified
	}

	storedCode, codeType, expiryTime, _, err := s.repo.getEmailVerificationCode(user.ID)
	if err != nil {
		return ErrInvalidVerificationCode
	}
	if codeType != CodeVerifyType || storedCode != code {
		return ErrInvalidVerificationCode
	}
	if time.Now().UTC().After(expiryTime) {
		return ErrVerificationCodeExpired
	}

	if err := s.repo.updateEmailVerified(user.ID, true); err != nil {
		return ErrInternalError
	}
	_ = s.repo.deleteEmailTwoFactorCode(user.ID)
	return nil
}

// GenerateVerificationCode re-sends the registration code, rate limited.
func (s *service) GenerateVerificationCode(user *User) error {
	_, _, _, createdAt, err := s.repo.getEmailVerificationCode(user.ID)
	if err != nil && !errors.Is(err, ErrNoTwoFactorCodeGenerated) {
		return ErrInternalError
	}
	if err == nil {
		sinceLast := time.Now().UTC().Sub(createdAt.UTC())
		if sinceLast.Minutes() < defaultCodeTimeout {
			return ErrTooManyEmailCodeRequests
		}
	}
	return s.SendVerificationCode(user)
}

func (s *service) ChangePasswordWithOldPassword(userID, oldPassword, newPassword string) error {
	user, err := s.repo.getUserByID(userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		return ErrInternalError
	}

	if !doPasswordsMatch(user.PasswordHash, oldPassword) {
		return ErrInvalidOldPassword
	}
	return s.changePassword(userID, newPassword)
}

func (s *service) changePassword(userID, newPassword string) error {
	newPasswordHash, err := hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("could not hash password: %v", err)
	}

	// Rotating the hash token invalidates every outstanding refresh token.
	newHashToken, err := generateHashToken()
	if err != nil {
		return err
	}
	return s.repo.updateUserPasswordAndHashToken(userID, newPasswordHash, newHashToken)
}

func (s *service) ResetPassword(userID, newPassword string) error {
	return s.changePassword(userID, newPassword)
}

func (s *service) ListUsers() ([]User, error) {
	return s.repo.listUsers()
}

// SetActive lets the admin enable or disable an account. Admins cannot
// deactivate themselves.
func (s *service) SetActive(adminID, userID string, active bool) error {
	admin, err := s.repo.getUserByID(adminID)
	if err != nil {
		return err
	}
	if !admin.IsAdmin() {
		return ErrNotAdmin
	}
	if adminID == userID && !active {
		return errors.New("administrators cannot deactivate their own account")
	}
	return s.repo.updateEmailVerified(userID, active)
}

func (s *service) GetUserByID(userID string) (*User, error) {
	return s.repo.getUserByID(userID)
}

func (s *service) GetUserByLoginOrEmail(loginOrEmail string) (*User, error) {
	return s.repo.getUserByLoginOrEmail(loginOrEmail)
}

func (s *service) SaveEmailVerificationCode(userID string, code string, expiresAt time.Time, codeType string) error {
	return s.repo.saveEmailVerificationCode(userID, code, expiresAt, codeType)
}

func (s *service) GetEmailVerificationCode(userID string) (string, string, time.Time, time.Time, error) {
	return s.repo.getEmailVerificationCode(userID)
}

func (s *service) DeleteEmailTwoFactorCode(userID string) error {
	return s.repo.deleteEmailTwoFactorCode(userID)
}
