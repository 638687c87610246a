package authpw

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"letterforge/api/internal/store"
)

type mockUserStore struct {
	users      map[string]store.User
	emailIndex map[string]string
	resets     map[string]store.PasswordReset
	usedResets map[string]bool
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{
		users:      make(map[string]store.User),
		emailIndex: make(map[string]string),
		resets:     make(map[string]store.PasswordReset),
		usedResets: make(map[string]bool),
	}
}

func (m *mockUserStore) GetUserByEmail(ctx context.Context, email string) (store.User, error) {
	if userID, ok := m.emailIndex[email]; ok {
		return m.users[userID], nil
	}
	return store.User{}, store.ErrNotFound
}

func (m *mockUserStore) GetUserByID(ctx context.Context, id string) (store.User, error) {
	if user, ok := m.users[id]; ok {
		return user, nil
	}
	return store.User{}, store.ErrNotFound
}

func (m *mockUserStore) CreateUser(ctx context.Context, user store.User) error {
	m.users[user.ID] = user
	m.emailIndex[user.Email] = user.ID
	return nil
}

func (m *mockUserStore) UpdateUserVerificationToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	if user, ok := m.users[userID]; ok {
		user.VerificationToken = token
		user.VerificationExpiresAt = &expiresAt
		m.users[userID] = user
	}
	return nil
}

func (m *mockUserStore) VerifyUserEmail(ctx context.Context, token string) (store.User, error) {
	for id, user := range m.users {
		if user.VerificationToken == token && user.VerificationExpiresAt != nil && time.Now().Before(*user.VerificationExpiresAt) {
			user.IsEmailVerified = true
			user.VerificationToken = ""
			m.users[id] = user
			return user, nil
		}
	}
	return store.User{}, store.ErrNotFound
}

func (m *mockUserStore) UpdateUserPassword(ctx context.Context, userID, passwordHash string) error {
	user, ok := m.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	user.PasswordHash = passwordHash
	m.users[userID] = user
	return nil
}

func (m *mockUserStore) CreatePasswordReset(ctx context.Context, reset store.PasswordReset) error {
	m.resets[reset.TokenHash] = reset
	return nil
}

func (m *mockUserStore) GetPasswordReset(ctx context.Context, tokenHash string) (store.PasswordReset, error) {
	reset, ok := m.resets[tokenHash]
	if !ok || m.usedResets[reset.ID] || time.Now().After(reset.ExpiresAt) {
		return store.PasswordReset{}, store.ErrNotFound
	}
	return reset, nil
}

func (m *mockUserStore) MarkPasswordResetUsed(ctx context.Context, resetID string) error {
	m.usedResets[resetID] = true
	return nil
}

func signUpTestUser(t *testing.T, svc *Service, email string) *SignUpResponse {
	t.Helper()
	resp, err := svc.SignUp(context.Background(), SignUpRequest{
		Email:       email,
		Password:    "correct horse battery",
		DisplayName: "Test User",
	})
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	return resp
}

func TestSignUp(t *testing.T) {
	svc := NewService(newMockUserStore())
	resp := signUpTestUser(t, svc, "alice@example.com")

	if resp.UserID == "" {
		t.Error("expected a user ID")
	}
	if resp.VerificationToken == "" {
		t.Error("expected a verification token")
	}
}

func TestSignUp_Validation(t *testing.T) {
	svc := NewService(newMockUserStore())
	ctx := context.Background()

	cases := []SignUpRequest{
		{Email: "", Password: "longenough", DisplayName: "A"},
		{Email: "a@b.c", Password: "", DisplayName: "A"},
		{Email: "a@b.c", Password: "longenough", DisplayName: ""},
		{Email: "a@b.c", Password: "short", DisplayName: "A"},
	}
	for _, req := range cases {
		if _, err := svc.SignUp(ctx, req); !errors.Is(err, ErrValidation) {
			t.Errorf("SignUp(%+v): expected ErrValidation, got %v", req, err)
		}
	}
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	svc := NewService(newMockUserStore())
	signUpTestUser(t, svc, "alice@example.com")

	_, err := svc.SignUp(context.Background(), SignUpRequest{
		Email:       "alice@example.com",
		Password:    "another password",
		DisplayName: "Alice Again",
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
}

func TestSignIn(t *testing.T) {
	m := newMockUserStore()
	svc := NewService(m)
	resp := signUpTestUser(t, svc, "alice@example.com")
	ctx := context.Background()

	// Unverified account signs in but is flagged.
	signIn, err := svc.SignIn(ctx, SignInRequest{Email: "alice@example.com", Password: "correct horse battery"})
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if !signIn.RequiresVerify {
		t.Error("expected RequiresVerify before email verification")
	}

	if _, err := svc.VerifyEmail(ctx, resp.VerificationToken); err != nil {
		t.Fatalf("VerifyEmail failed: %v", err)
	}

	signIn, err = svc.SignIn(ctx, SignInRequest{Email: "alice@example.com", Password: "correct horse battery"})
	if err != nil {
		t.Fatalf("SignIn after verify failed: %v", err)
	}
	if signIn.RequiresVerify {
		t.Error("did not expect RequiresVerify after verification")
	}
	if signIn.User.ID != resp.UserID {
		t.Errorf("expected user %s, got %s", resp.UserID, signIn.User.ID)
	}
}

func TestSignIn_BadCredentials(t *testing.T) {
	svc := NewService(newMockUserStore())
	signUpTestUser(t, svc, "alice@example.com")
	ctx := context.Background()

	if _, err := svc.SignIn(ctx, SignInRequest{Email: "alice@example.com", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.SignIn(ctx, SignInRequest{Email: "nobody@example.com", Password: "whatever"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestVerifyEmail_InvalidToken(t *testing.T) {
	svc := NewService(newMockUserStore())
	if _, err := svc.VerifyEmail(context.Background(), "bogus"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	m := newMockUserStore()
	svc := NewService(m)
	resp := signUpTestUser(t, svc, "alice@example.com")
	ctx := context.Background()
	if _, err := svc.VerifyEmail(ctx, resp.VerificationToken); err != nil {
		t.Fatalf("VerifyEmail failed: %v", err)
	}

	token, err := svc.RequestPasswordReset(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected a reset token")
	}

	if err := svc.ResetPassword(ctx, ResetPasswordRequest{Token: token, NewPassword: "brand new password"}); err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}

	user := m.users[resp.UserID]
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("brand new password")); err != nil {
		t.Error("new password does not match stored hash")
	}

	// Token is single use.
	if err := svc.ResetPassword(ctx, ResetPasswordRequest{Token: token, NewPassword: "yet another password"}); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("reused token: expected ErrInvalidToken, got %v", err)
	}
}

func TestRequestPasswordReset_UnknownEmail(t *testing.T) {
	svc := NewService(newMockUserStore())
	token, err := svc.RequestPasswordReset(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}
	if token != "" {
		t.Error("expected empty token for unknown email")
	}
}
