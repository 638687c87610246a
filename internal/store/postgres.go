package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"letterforge/api/internal/draft"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ErrNotFound is returned by lookups when no matching row exists.
var ErrNotFound = errors.New("store: not found")

func (s *PostgresStore) CreateUser(ctx context.Context, user User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, display_name, email, password_hash, verification_token, verification_expires_at)
		VALUES ($1, $2, LOWER($3), $4, $5, $6)
	`, user.ID, user.DisplayName, user.Email, user.PasswordHash, user.VerificationToken, user.VerificationExpiresAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, display_name, email, password_hash, is_email_verified, COALESCE(verification_token, ''), verification_expires_at, created_at, updated_at
		FROM users
		WHERE email = LOWER($1)
	`, email).Scan(&user.ID, &user.DisplayName, &user.Email, &user.PasswordHash, &user.IsEmailVerified, &user.VerificationToken, &user.VerificationExpiresAt, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("lookup user by email: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, userID string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, display_name, email, password_hash, is_email_verified, COALESCE(verification_token, ''), verification_expires_at, created_at, updated_at
		FROM users
		WHERE id = $1
	`, userID).Scan(&user.ID, &user.DisplayName, &user.Email, &user.PasswordHash, &user.IsEmailVerified, &user.VerificationToken, &user.VerificationExpiresAt, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("lookup user by id: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) UpdateUserVerificationToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET verification_token=$2, verification_expires_at=$3, updated_at=NOW()
		WHERE id=$1
	`, userID, token, expiresAt)
	if err != nil {
		return fmt.Errorf("update verification token: %w", err)
	}
	return nil
}

func (s *PostgresStore) VerifyUserEmail(ctx context.Context, token string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		UPDATE users
		SET is_email_verified=TRUE, verification_token=NULL, verification_expires_at=NULL, updated_at=NOW()
		WHERE verification_token=$1 AND verification_expires_at > NOW()
		RETURNING id, display_name, email
	`, token).Scan(&user.ID, &user.DisplayName, &user.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("verify user email: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) UpdateUserPassword(ctx context.Context, userID, passwordHash string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET password_hash=$2, updated_at=NOW() WHERE id=$1
	`, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("update user password: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreatePasswordReset(ctx context.Context, reset PasswordReset) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO password_resets (id, user_id, token_hash, expires_at)
		VALUES ($1, $2, $3, $4)
	`, reset.ID, reset.UserID, reset.TokenHash, reset.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert password reset: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetPasswordReset(ctx context.Context, tokenHash string) (PasswordReset, error) {
	var reset PasswordReset
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, token_hash, expires_at, used_at, created_at
		FROM password_resets
		WHERE token_hash=$1 AND used_at IS NULL AND expires_at > NOW()
	`, tokenHash).Scan(&reset.ID, &reset.UserID, &reset.TokenHash, &reset.ExpiresAt, &reset.UsedAt, &reset.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return PasswordReset{}, ErrNotFound
	}
	if err != nil {
		return PasswordReset{}, fmt.Errorf("lookup password reset: %w", err)
	}
	return reset, nil
}

func (s *PostgresStore) MarkPasswordResetUsed(ctx context.Context, resetID string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE password_resets SET used_at=NOW() WHERE id=$1`, resetID)
	if err != nil {
		return fmt.Errorf("mark password reset used: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_sessions (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_hash) DO UPDATE SET user_id=EXCLUDED.user_id, expires_at=EXCLUDED.expires_at, revoked_at=NULL
	`, tokenHash, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("save refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) LookupRefreshSession(ctx context.Context, tokenHash string) (string, error) {
	var userID string
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id FROM refresh_sessions
		WHERE token_hash=$1 AND revoked_at IS NULL AND expires_at > NOW()
	`, tokenHash).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("lookup refresh session: %w", err)
	}
	return userID, nil
}

func (s *PostgresStore) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE refresh_sessions SET revoked_at=NOW() WHERE token_hash=$1`, tokenHash)
	if err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) RevokeAccessToken(ctx context.Context, jti string, exp time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO revoked_access_tokens (jti, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (jti) DO NOTHING
	`, jti, exp)
	if err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}
	return nil
}

func (s *PostgresStore) IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM revoked_access_tokens WHERE jti=$1)`, jti).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return revoked, nil
}

// ReadSnapshot loads the user's draft slot. A missing row means the user
// has never saved, which is not an error: it returns (nil, nil).
func (s *PostgresStore) ReadSnapshot(ctx context.Context, userID string) (*draft.Snapshot, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: empty user id", draft.ErrInvalidArgument)
	}

	var row LetterSnapshot
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, has_input, background, target_details, letter_type, body, updated_at
		FROM letter_snapshots
		WHERE user_id=$1
	`, userID).Scan(&row.UserID, &row.HasInput, &row.Background, &row.TargetDetails, &row.LetterType, &row.Body, &row.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read letter snapshot: %w", err)
	}

	snapshot := &draft.Snapshot{Body: row.Body, UpdatedAt: row.UpdatedAt}
	if row.HasInput {
		snapshot.Input = &draft.Input{
			Background:    row.Background,
			TargetDetails: row.TargetDetails,
			LetterType:    draft.LetterType(row.LetterType),
		}
	}
	return snapshot, nil
}

// WriteSnapshot upserts the user's draft slot. A nil input clears the
// persisted form fields rather than preserving the previous ones.
func (s *PostgresStore) WriteSnapshot(ctx context.Context, userID string, input *draft.Input, body string) error {
	if userID == "" {
		return fmt.Errorf("%w: empty user id", draft.ErrInvalidArgument)
	}

	row := LetterSnapshot{UserID: userID, Body: body}
	if input != nil {
		row.HasInput = true
		row.Background = input.Background
		row.TargetDetails = input.TargetDetails
		row.LetterType = string(input.LetterType)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO letter_snapshots (user_id, has_input, background, target_details, letter_type, body, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			has_input=EXCLUDED.has_input,
			background=EXCLUDED.background,
			target_details=EXCLUDED.target_details,
			letter_type=EXCLUDED.letter_type,
			body=EXCLUDED.body,
			updated_at=NOW()
	`, row.UserID, row.HasInput, row.Background, row.TargetDetails, row.LetterType, row.Body)
	if err != nil {
		return fmt.Errorf("write letter snapshot: %w", err)
	}
	return nil
}
