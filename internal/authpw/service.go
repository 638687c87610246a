// Package authpw provides email/password authentication with email
// verification and password reset flows.
package authpw

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"letterforge/api/internal/auth"
	"letterforge/api/internal/store"
	"letterforge/api/internal/util"
)

var (
	ErrEmailTaken         = errors.New("authpw: email already registered")
	ErrInvalidCredentials = errors.New("authpw: invalid email or password")
	ErrInvalidToken       = errors.New("authpw: invalid or expired token")
	ErrValidation         = errors.New("authpw: validation failed")
)

const minPasswordLength = 8

// UserStore is the storage surface the service needs.
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (store.User, error)
	GetUserByID(ctx context.Context, id string) (store.User, error)
	CreateUser(ctx context.Context, user store.User) error
	UpdateUserVerificationToken(ctx context.Context, userID, token string, expiresAt time.Time) error
	VerifyUserEmail(ctx context.Context, token string) (store.User, error)
	UpdateUserPassword(ctx context.Context, userID, passwordHash string) error
	CreatePasswordReset(ctx context.Context, reset store.PasswordReset) error
	GetPasswordReset(ctx context.Context, tokenHash string) (store.PasswordReset, error)
	MarkPasswordResetUsed(ctx context.Context, resetID string) error
}

type Service struct {
	store UserStore
}

func NewService(store UserStore) *Service {
	return &Service{store: store}
}

type SignUpRequest struct {
	Email       string
	Password    string
	DisplayName string
}

type SignUpResponse struct {
	UserID            string
	VerificationToken string
}

// SignUp creates an account in the unverified state and returns the
// verification token to send by email.
func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (*SignUpResponse, error) {
	if req.Email == "" || req.Password == "" || req.DisplayName == "" {
		return nil, fmt.Errorf("%w: email, password and display name are required", ErrValidation)
	}
	if len(req.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}

	if _, err := s.store.GetUserByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	verificationToken, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("generate verification token: %w", err)
	}
	expiresAt := time.Now().Add(24 * time.Hour)

	user := store.User{
		ID:                    util.NewID("usr"),
		DisplayName:           req.DisplayName,
		Email:                 req.Email,
		PasswordHash:          string(hash),
		VerificationToken:     verificationToken,
		VerificationExpiresAt: &expiresAt,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return &SignUpResponse{
		UserID:            user.ID,
		VerificationToken: verificationToken,
	}, nil
}

type SignInRequest struct {
	Email    string
	Password string
}

type SignInResponse struct {
	User           store.User
	RequiresVerify bool
}

// SignIn authenticates a user. Unknown email and wrong password produce
// the same error so callers cannot probe for registered addresses.
func (s *Service) SignIn(ctx context.Context, req SignInRequest) (*SignInResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &SignInResponse{
		User:           user,
		RequiresVerify: !user.IsEmailVerified,
	}, nil
}

// VerifyEmail marks an account verified using its verification token.
func (s *Service) VerifyEmail(ctx context.Context, token string) (store.User, error) {
	if token == "" {
		return store.User{}, fmt.Errorf("%w: verification token required", ErrValidation)
	}
	user, err := s.store.VerifyUserEmail(ctx, token)
	if err != nil {
		return store.User{}, ErrInvalidToken
	}
	return user, nil
}

// RequestPasswordReset issues a reset token for the given address. When
// the email is unknown it returns ("", nil) so the caller responds the
// same either way.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return "", nil
	}

	token, err := generateToken()
	if err != nil {
		return "", err
	}
	reset := store.PasswordReset{
		ID:        util.NewID("rst"),
		UserID:    user.ID,
		TokenHash: auth.HashToken(token),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	if err := s.store.CreatePasswordReset(ctx, reset); err != nil {
		return "", fmt.Errorf("create password reset: %w", err)
	}
	return token, nil
}

type ResetPasswordRequest struct {
	Token       string
	NewPassword string
}

// ResetPassword consumes a reset token and replaces the password.
func (s *Service) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	if req.Token == "" || req.NewPassword == "" {
		return fmt.Errorf("%w: token and new password are required", ErrValidation)
	}
	if len(req.NewPassword) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}

	reset, err := s.store.GetPasswordReset(ctx, auth.HashToken(req.Token))
	if err != nil {
		return ErrInvalidToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.UpdateUserPassword(ctx, reset.UserID, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	// Best effort: the password is already changed at this point.
	_ = s.store.MarkPasswordResetUsed(ctx, reset.ID)
	return nil
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
