package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"letterforge/api/internal/store"
)

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	m := miniredis.RunT(t)
	s, err := NewRedisStore("redis://" + m.Addr())
	if err != nil {
		t.Fatalf("failed to create redis store: %v", err)
	}
	return s, m
}

func TestNewRedisStore(t *testing.T) {
	m := miniredis.RunT(t)
	defer m.Close()

	s, err := NewRedisStore("redis://" + m.Addr())
	if err != nil {
		t.Fatalf("NewRedisStore failed: %v", err)
	}
	defer s.Close()

	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestSaveAndLookupRefreshSession(t *testing.T) {
	s, m := setupTestRedis(t)
	defer s.Close()
	defer m.Close()

	ctx := context.Background()
	if err := s.SaveRefreshSession(ctx, "hash-abc", "usr_1", time.Now().Add(24*time.Hour)); err != nil {
		t.Fatalf("SaveRefreshSession failed: %v", err)
	}

	userID, err := s.LookupRefreshSession(ctx, "hash-abc")
	if err != nil {
		t.Fatalf("LookupRefreshSession failed: %v", err)
	}
	if userID != "usr_1" {
		t.Errorf("expected usr_1, got %s", userID)
	}
}

func TestSaveRefreshSession_AlreadyExpired(t *testing.T) {
	s, m := setupTestRedis(t)
	defer s.Close()
	defer m.Close()

	if err := s.SaveRefreshSession(context.Background(), "hash-old", "usr_1", time.Now().Add(-time.Minute)); err == nil {
		t.Error("expected error saving already-expired session")
	}
}

func TestLookupExpiredSession(t *testing.T) {
	s, m := setupTestRedis(t)
	defer s.Close()
	defer m.Close()

	ctx := context.Background()
	if err := s.SaveRefreshSession(ctx, "hash-short", "usr_2", time.Now().Add(time.Millisecond)); err != nil {
		t.Fatalf("SaveRefreshSession failed: %v", err)
	}

	m.FastForward(2 * time.Millisecond)

	if _, err := s.LookupRefreshSession(ctx, "hash-short"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for expired token, got %v", err)
	}
}

func TestLookupNonExistentSession(t *testing.T) {
	s, m := setupTestRedis(t)
	defer s.Close()
	defer m.Close()

	if _, err := s.LookupRefreshSession(context.Background(), "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRevokeRefreshSession(t *testing.T) {
	s, m := setupTestRedis(t)
	defer s.Close()
	defer m.Close()

	ctx := context.Background()
	if err := s.SaveRefreshSession(ctx, "hash-revoke", "usr_3", time.Now().Add(24*time.Hour)); err != nil {
		t.Fatalf("SaveRefreshSession failed: %v", err)
	}
	if err := s.RevokeRefreshSession(ctx, "hash-revoke"); err != nil {
		t.Fatalf("RevokeRefreshSession failed: %v", err)
	}
	if _, err := s.LookupRefreshSession(ctx, "hash-revoke"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound after revoke, got %v", err)
	}

	// Revoking a token that does not exist is not an error.
	if err := s.RevokeRefreshSession(ctx, "missing"); err != nil {
		t.Errorf("RevokeRefreshSession for missing token failed: %v", err)
	}
}

func TestSessionIsolation(t *testing.T) {
	s, m := setupTestRedis(t)
	defer s.Close()
	defer m.Close()

	ctx := context.Background()
	expiresAt := time.Now().Add(24 * time.Hour)
	if err := s.SaveRefreshSession(ctx, "hash-1", "usr_a", expiresAt); err != nil {
		t.Fatalf("SaveRefreshSession 1 failed: %v", err)
	}
	if err := s.SaveRefreshSession(ctx, "hash-2", "usr_b", expiresAt); err != nil {
		t.Fatalf("SaveRefreshSession 2 failed: %v", err)
	}

	if err := s.RevokeRefreshSession(ctx, "hash-1"); err != nil {
		t.Fatalf("Revoke hash-1 failed: %v", err)
	}

	if _, err := s.LookupRefreshSession(ctx, "hash-1"); err == nil {
		t.Error("expected error for revoked hash-1")
	}
	userID, err := s.LookupRefreshSession(ctx, "hash-2")
	if err != nil {
		t.Fatalf("Lookup hash-2 failed: %v", err)
	}
	if userID != "usr_b" {
		t.Errorf("expected usr_b, got %s", userID)
	}
}
