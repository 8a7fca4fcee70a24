package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	emailService "github.com/dfigueredo/PosAdmin/internal/email"
	"github.com/dfigueredo/PosAdmin/internal/user"
)

const (
	google2FAAuthMethod = "google_authenticator"
	email2FAAuthMethod  = "email"
	defaultCodeTimeout  = 2
	CodeVerifyType      = "verify"
	Code2FAType         = "2fa"
	CodePassType        = "password"
)

var (
	ErrUserNotFound             = errors.New("user not found")
	ErrInvalidCredentials       = errors.New("invalid credentials")
	ErrInternalError            = errors.New("internal server error")
	ErrInvalidTwoFactorMethod   = errors.New("two factor auth method not supported")
	ErrUser2FANotEnabled        = errors.New("two factor auth is not enabled")
	ErrInvalid2FACode           = errors.New("2fa code is invalid")
	ErrUser2FAAlreadyEnabled    = errors.New("2fa auth already enabled")
	ErrInvalidVerificationCode  = errors.New("invalid verification code")
	ErrVerificationCodeExpired  = errors.New("verification code expired")
	ErrUserNotVerified          = errors.New("user has not been verified")
	ErrTooManyEmailCodeRequests = errors.New("too many email code requests")
	ErrInvalidCodeType          = errors.New("invalid code type")
)

// TwoFactorAuthenticator is the contract every 2FA method satisfies.
type TwoFactorAuthenticator interface {
	GenerateSecret(userID string) (string, string, error)
	GenerateCode(secret string) (string, error)
	VerifyCode(secretOrCode, code string) bool
}

type Service interface {
	Login(emailOrLogin, password string) (*user.User, string, string, error)
	VerifyTwoFactor(sessionToken, code string) (*user.User, string, string, error)
	RegisterTwoFactor(userID string, method string) (string, error)
	RefreshAccessToken(userID string) (string, string, error)
	JWTRefreshTokenMiddleware() func(http.Handler) http.Handler
	JWTAccessTokenMiddleware() func(http.Handler) http.Handler
	AdminOnlyMiddleware() func(http.Handler) http.Handler
	SendEmailCode(user *user.User, codeType string) error
	VerifyTwoFactorCode(userID, method, code string) error
	DisableTwoFactorAuth(userID, method, verificationCode string) error
	RequestEmail2FACode(userID string) error
	ResetPassword(email, code, newPassword string) error
	RequestPasswordReset(email string) error
}

type service struct {
	repo           UserRepository
	userService    user.Service
	sessionManager SessionManagerInterface
	jwtManager     JWTManagerInterface
	emailService   emailService.EmailSender
	authenticator  Authenticator
}

func NewAuthService(repo UserRepository, userService user.Service, sessionManager SessionManagerInterface, jwtManager JWTManagerInterface, emailService emailService.EmailSender, authenticator Authenticator) Service {
	return &service{
		repo:           repo,
		userService:    userService,
		sessionManager: sessionManager,
		jwtManager:     jwtManager,
		emailService:   emailService,
		authenticator:  authenticator,
	}
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

func (s *service) SendEmailCode(u *user.User, codeType string) error {
	_, storedCodeType, _, createdAt, err := s.userService.GetEmailVerificationCode(u.ID)
	if err == nil && storedCodeType != "" {
		sinceLastCode := time.Now().UTC().Sub(createdAt.UTC())
		if sinceLastCode.Minutes() < defaultCodeTimeout && storedCodeType != CodeVerifyType && codeType != storedCodeType {
			return ErrTooManyEmailCodeRequests
		}
	}

	newCode, err := GenerateVerificationCode()
	if err != nil {
		return err
	}

	expirationTime := time.Now().UTC().Add(10 * time.Minute)
	if err := s.userService.SaveEmailVerificationCode(u.ID, newCode, expirationTime, codeType); err != nil {
		return fmt.Errorf("could not save verification code: %v", err)
	}

	switch codeType {
	case Code2FAType:
		s.emailService.QueueEmail(u.Email, emailService.TwoFactorCodeData{
			UserName: u.Login,
			Code:     newCode,
		})
	case CodePassType:
		s.emailService.QueueEmail(u.Email, emailService.ResetPasswordData{
			UserName: u.Login,
			Code:     newCode,
		})
	case CodeVerifyType:
		s.emailService.QueueEmail(u.Email, emailService.RegistrationConfirmationData{
			UserName: u.Login,
			Code:     newCode,
		})
	default:
		log.Printf("Unsupported code type %q, email not sent", codeType)
	}

	return nil
}

func (s *service) issueTokenPair(u *user.User) (string, string, error) {
	accessToken, err := s.jwtManager.GenerateAccessJWT(u.ID, u.Role, defaultJWTDuration)
	if err != nil {
		return "", "", ErrInternalError
	}
	refreshToken, err := s.jwtManager.GenerateRefreshJWT(u.ID, u.HashToken, defaultJWTRefreshDuration)
	if err != nil {
		return "", "", ErrInternalError
	}
	return accessToken, refreshToken, nil
}

func (s *service) Login(emailOrLogin, password string) (*user.User, string, string, error) {
	existingUser, err := s.userService.GetUserByLoginOrEmail(emailOrLogin)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, "", "", ErrInvalidCredentials
		}
		log.Printf("Error fetching user during login: %v", err)
		return nil, "", "", ErrInternalError
	}

	if !existingUser.IsActive {
		if err := s.SendEmailCode(existingUser, CodeVerifyType); err != nil && !errors.Is(err, ErrTooManyEmailCodeRequests) {
			return nil, "", "", ErrInternalError
		}
		return nil, "", "", ErrUserNotVerified
	}

	if !doPasswordsMatch(existingUser.PasswordHash, password) {
		return nil, "", "", ErrInvalidCredentials
	}

	if existingUser.TwoFactorEnabled {
		switch existingUser.TwoFactorMethod {
		case email2FAAuthMethod:
			if err := s.SendEmailCode(existingUser, Code2FAType); err != nil {
				log.Printf("Error sending 2FA email: %v", err)
				return nil, "", "", ErrInternalError
			}
		case google2FAAuthMethod:
			// TOTP codes come from the authenticator app, nothing to send.
		default:
			return nil, "", "", ErrInvalidTwoFactorMethod
		}
		sessionToken, err := s.sessionManager.GenerateSessionToken(existingUser.ID, defaultSessionTokenDuration)
		if err != nil {
			return nil, "", "", ErrInternalError
		}
		return existingUser, sessionToken, "", nil
	}

	accessToken, refreshToken, err := s.issueTokenPair(existingUser)
	if err != nil {
		return nil, "", "", err
	}
	return existingUser, accessToken, refreshToken, nil
}

func (s *service) VerifyTwoFactor(sessionToken, code string) (*user.User, string, string, error) {
	userID, err := s.sessionManager.VerifySessionToken(sessionToken)
	if err != nil {
		return nil, "", "", err
	}
	existingUser, err := s.userService.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, "", "", ErrUserNotFound
		}
		return nil, "", "", ErrInternalError
	}
	if !existingUser.TwoFactorEnabled {
		return nil, "", "", ErrUser2FANotEnabled
	}

	var valid bool
	switch existingUser.TwoFactorMethod {
	case email2FAAuthMethod:
		if err := s.checkEmailCode(userID, Code2FAType, code); err != nil {
			return nil, "", "", err
		}
		valid = true
	case google2FAAuthMethod:
		secret, err := s.repo.GetTwoFactorSecret(userID)
		if err != nil {
			return nil, "", "", err
		}
		valid = s.authenticator.VerifyCode(secret, code)
	default:
		return nil, "", "", ErrInvalidTwoFactorMethod
	}

	if !valid {
		return nil, "", "", ErrInvalid2FACode
	}

	s.sessionManager.DeleteSessionToken(sessionToken)

	accessToken, refreshToken, err := s.issueTokenPair(existingUser)
	if err != nil {
		return nil, "", "", err
	}
	return existingUser, accessToken, refreshToken, nil
}

// checkEmailCode validates the stored email code of the given type and
// consumes it on success.
func (s *service) checkEmailCode(userID, wantType, code string) error {
	storedCode, codeType, expiryTime, _, err := s.userService.GetEmailVerificationCode(userID)
	if err != nil {
		if errors.Is(err, user.ErrNoTwoFactorCodeGenerated) {
			return user.ErrNoTwoFactorCodeGenerated
		}
		return ErrInternalError
	}
	if codeType != wantType {
		return ErrInvalidCodeType
	}
	if storedCode != code {
		return ErrInvalid2FACode
	}
	if time.Now().After(expiryTime) {
		return ErrVerificationCodeExpired
	}
	if err := s.userService.DeleteEmailTwoFactorCode(userID); err != nil {
		return ErrInternalError
	}
	return nil
}

func (s *service) RegisterTwoFactor(userID string, method string) (string, error) {
	existingUser, err := s.userService.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return "", ErrUserNotFound
		}
		return "", ErrInternalError
	}

	if existingUser.TwoFactorEnabled {
		return "", ErrUser2FAAlreadyEnabled
	}

	switch method {
	case email2FAAuthMethod:
		if err := s.SendEmailCode(existingUser, Code2FAType); err != nil {
			log.Printf("Error sending 2FA email: %v", err)
			return "", ErrInternalError
		}
		return "", nil
	case google2FAAuthMethod:
		otpURI, secret, err := s.authenticator.GenerateSecret(existingUser.Email)
		if err != nil {
			return "", ErrInternalError
		}
		if err := s.repo.SaveTwoFactorSecret(userID, secret); err != nil {
			return "", ErrInternalError
		}
		return otpURI, nil
	default:
		return "", ErrInvalidTwoFactorMethod
	}
}

func (s *service) RequestEmail2FACode(userID string) error {
	existingUser, err := s.userService.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return ErrInternalError
	}

	if !existingUser.TwoFactorEnabled {
		return ErrUser2FANotEnabled
	}
	if existingUser.TwoFactorMethod != email2FAAuthMethod {
		return ErrInvalidTwoFactorMethod
	}

	if err := s.SendEmailCode(existingUser, Code2FAType); err != nil {
		if errors.Is(err, ErrTooManyEmailCodeRequests) {
			return err
		}
		log.Printf("Error sending 2FA email: %v", err)
		return ErrInternalError
	}
	return nil
}

func (s *service) DisableTwoFactorAuth(userID, method, verificationCode string) error {
	existingUser, err := s.userService.GetUserByID(userID)
	if err != nil {
		return ErrUserNotFound
	}

	if !existingUser.TwoFactorEnabled {
		return ErrUser2FANotEnabled
	}
	if existingUser.TwoFactorMethod != method {
		return ErrInvalidTwoFactorMethod
	}

	switch existingUser.TwoFactorMethod {
	case google2FAAuthMethod:
		secret, err := s.repo.GetTwoFactorSecret(userID)
		if err != nil {
			return ErrInternalError
		}
		if !s.authenticator.VerifyCode(secret, verificationCode) {
			return ErrInvalid2FACode
		}
	case email2FAAuthMethod:
		if err := s.checkEmailCode(userID, Code2FAType, verificationCode); err != nil {
			return err
		}
	default:
		return ErrInvalidTwoFactorMethod
	}

	if err := s.repo.DisableTwoFactor(userID); err != nil {
		return ErrInternalError
	}
	return nil
}

func (s *service) VerifyTwoFactorCode(userID, method, code string) error {
	existingUser, err := s.userService.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return ErrInternalError
	}

	if existingUser.TwoFactorEnabled {
		return ErrUser2FAAlreadyEnabled
	}

	switch method {
	case email2FAAuthMethod:
		if err := s.checkEmailCode(userID, Code2FAType, code); err != nil {
			return err
		}
	case google2FAAuthMethod:
		secret, err := s.repo.GetTwoFactorSecret(userID)
		if err != nil {
			if errors.Is(err, ErrUser2FANotEnabled) {
				return ErrInvalidTwoFactorMethod
			}
			return ErrInternalError
		}
		if !s.authenticator.VerifyCode(secret, code) {
			return ErrInvalid2FACode
		}
	default:
		return ErrInvalidTwoFactorMethod
	}

	if err := s.repo.EnableTwoFactor(userID, method); err != nil {
		return ErrInternalError
	}
	return nil
}

// RefreshAccessToken requests are already validated by the refresh token
// middleware.
func (s *service) RefreshAccessToken(userID string) (string, string, error) {
	existingUser, err := s.userService.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return "", "", ErrUserNotFound
		}
		return "", "", ErrInternalError
	}
	return s.issueTokenPair(existingUser)
}

func (s *service) RequestPasswordReset(email string) error {
	existingUser, err := s.userService.GetUserByLoginOrEmail(email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return ErrInternalError
	}

	if existingUser.TwoFactorEnabled && existingUser.TwoFactorMethod == google2FAAuthMethod {
		// The TOTP code itself authorizes the reset, no email needed.
		return nil
	}

	codeType := CodePassType
	if existingUser.TwoFactorEnabled && existingUser.TwoFactorMethod == email2FAAuthMethod {
		codeType = Code2FAType
	}

	if err := s.SendEmailCode(existingUser, codeType); err != nil {
		if errors.Is(err, ErrTooManyEmailCodeRequests) {
			return ErrTooManyEmailCodeRequests
		}
		log.Printf("Error sending password reset email: %v", err)
		return ErrInternalError
	}
	return nil
}

func (s *service) ResetPassword(email, verificationCode, newPassword string) error {
	existingUser, err := s.userService.GetUserByLoginOrEmail(email)
	if err != nil {
		return ErrUserNotFound
	}

	if existingUser.TwoFactorEnabled {
		switch existingUser.TwoFactorMethod {
		case google2FAAuthMethod:
			secret, err := s.repo.GetTwoFactorSecret(existingUser.ID)
			if err != nil {
				return ErrInternalError
			}
			if !s.authenticator.VerifyCode(secret, verificationCode) {
				return ErrInvalid2FACode
			}
		case email2FAAuthMethod:
			if err := s.checkEmailCode(existingUser.ID, Code2FAType, verificationCode); err != nil {
				return err
			}
		default:
			return ErrInvalidTwoFactorMethod
		}
	} else {
		if err := s.checkEmailCode(existingUser.ID, CodePassType, verificationCode); err != nil {
			return err
		}
	}

	if err := s.userService.ResetPassword(existingUser.ID, newPassword); err != nil {
		return ErrInternalError
	}
	return nil
}

func doPasswordsMatch(hashedPassword, currPassword string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(currPassword)) == nil
}
