package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/zvrva/railbooking/internal/domain"
	"github.com/zvrva/railbooking/internal/kafka"
	"github.com/zvrva/railbooking/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCode        = errors.New("invalid or expired verification code")
	ErrAlreadyVerified    = errors.New("email already verified")
)

const (
	verificationTTL = 24 * time.Hour
	resetCodeTTL    = 15 * time.Minute
)

type AuthUseCase interface {
	Signup(ctx context.Context, input SignupInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	Verify(ctx context.Context, email, code string) error
	ResendCode(ctx context.Context, email string) error
	ForgotPassword(ctx context.Context, email string) error
	VerifyResetCode(ctx context.Context, email, code string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
	Profile(ctx context.Context, userID int64) (*domain.User, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type SignupInput struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
}

func (in SignupInput) validate() error {
	if strings.TrimSpace(in.FullName) == "" {
		return errors.New("full name is required")
	}
	if !strings.Contains(in.Email, "@") {
		return errors.New("a valid email is required")
	}
	if len(in.Password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}

type AuthService struct {
	users              repository.UserRepository
	producer           Producer
	notificationsTopic string
	jwtSecret          string
	tokenTTL           time.Duration
	bcryptCost         int
}

func NewAuthService(
	users repository.UserRepository,
	producer Producer,
	notificationsTopic string,
	jwtSecret string,
	tokenTTL time.Duration,
	bcryptCost int,
) *AuthService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		users:              users,
		producer:           producer,
		notificationsTopic: notificationsTopic,
		jwtSecret:          jwtSecret,
		tokenTTL:           tokenTTL,
		bcryptCost:         bcryptCost,
	}
}

func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*domain.User, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	email := normalizeEmail(input.Email)

	if existing, err := s.users.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	code, err := verificationCode()
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		FullName:              strings.TrimSpace(input.FullName),
		Email:                 email,
		PasswordHash:          string(hash),
		Phone:                 input.Phone,
		Role:                  domain.RoleUser,
		VerificationCode:      code,
		VerificationExpiresAt: time.Now().UTC().Add(verificationTTL),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.publishCode(ctx, kafka.EventVerificationMail, user, code)
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := NewAccessToken(s.jwtSecret, user.ID, user.Role, s.tokenTTL)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return token, user, nil
}

func (s *AuthService) Verify(ctx context.Context, email, code string) error {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidCode
		}
		return err
	}
	if user.IsVerified {
		return nil
	}
	if user.VerificationCode != code || time.Now().UTC().After(user.VerificationExpiresAt) {
		return ErrInvalidCode
	}
	return s.users.MarkVerified(ctx, user.ID)
}

// ResendCode issues a fresh verification code for an unverified
// account.
func (s *AuthService) ResendCode(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	if user.IsVerified {
		return ErrAlreadyVerified
	}

	code, err := verificationCode()
	if err != nil {
		return err
	}
	if err := s.users.SetVerificationCode(ctx, user.ID, code, time.Now().UTC().Add(verificationTTL)); err != nil {
		return err
	}

	s.publishCode(ctx, kafka.EventVerificationMail, user, code)
	return nil
}

// ForgotPassword issues a short-lived reset code. The code reuses the
// verification columns, so it also invalidates any pending signup code.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}

	code, err := verificationCode()
	if err != nil {
		return err
	}
	if err := s.users.SetVerificationCode(ctx, user.ID, code, time.Now().UTC().Add(resetCodeTTL)); err != nil {
		return err
	}

	s.publishCode(ctx, kafka.EventPasswordReset, user, code)
	return nil
}

// VerifyResetCode checks a reset code without consuming it, so the
// client can gate its password form before submitting.
func (s *AuthService) VerifyResetCode(ctx context.Context, email, code string) error {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	return checkCode(user, code)
}

func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if len(newPassword) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	if err := checkCode(user, code); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.users.UpdatePassword(ctx, user.ID, string(hash))
}

func (s *AuthService) Profile(ctx context.Context, userID int64) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// checkCode validates a stored code against what the caller supplied.
// An empty stored code never matches; it means no code is outstanding.
func checkCode(user *domain.User, code string) error {
	if code == "" || user.VerificationCode == "" || user.VerificationCode != code {
		return ErrInvalidCode
	}
	if time.Now().UTC().After(user.VerificationExpiresAt) {
		return ErrInvalidCode
	}
	return nil
}

// publishCode emits a code-carrying mail event, best effort.
func (s *AuthService) publishCode(ctx context.Context, eventType string, user *domain.User, code string) {
	if s.producer == nil || s.notificationsTopic == "" {
		return
	}
	event := kafka.BookingEvent{
		Type:   eventType,
		UserID: user.ID,
		Email:  user.Email,
		Code:   code,
	}
	if err := s.producer.Publish(ctx, s.notificationsTopic, user.Email, event); err != nil {
		log.Printf("publish %s for %s: %v", eventType, user.Email, err)
	}
}

// verificationCode returns a 6-digit numeric code.
func verificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

var _ AuthUseCase = (*AuthService)(nil)
