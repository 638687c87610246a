package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var testSecret = []byte("test-secret")

func TestIssueAndParseToken(t *testing.T) {
	claims := Claims{
		Sub:  "user-1",
		Name: "Avery",
		JTI:  "jti-1",
		Exp:  time.Now().Add(time.Hour).Unix(),
	}
	token, err := IssueToken(testSecret, claims)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	parsed, err := ParseToken(testSecret, token)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if parsed.Sub != claims.Sub || parsed.Name != claims.Name || parsed.JTI != claims.JTI {
		t.Errorf("round trip mismatch: got %+v", parsed)
	}
	if parsed.Synthetic {
		t.Errorf("expected non-synthetic claims")
	}
}

func TestParseToken_SyntheticFlagSurvives(t *testing.T) {
	token, err := IssueToken(testSecret, Claims{
		Sub:       "guest_abc",
		Name:      "Guest",
		Synthetic: true,
		JTI:       "jti-2",
		Exp:       time.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	parsed, err := ParseToken(testSecret, token)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if !parsed.Synthetic {
		t.Errorf("expected synthetic flag to survive the round trip")
	}
}

func TestParseToken_Expired(t *testing.T) {
	token, err := IssueToken(testSecret, Claims{
		Sub:  "user-1",
		Name: "Avery",
		JTI:  "jti-3",
		Exp:  time.Now().Add(-time.Minute).Unix(),
	})
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	if _, err := ParseToken(testSecret, token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("expected ErrExpiredToken, got %v", err)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, err := IssueToken(testSecret, Claims{
		Sub:  "user-1",
		Name: "Avery",
		JTI:  "jti-4",
		Exp:  time.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	if _, err := ParseToken([]byte("other-secret"), token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseToken_Garbage(t *testing.T) {
	for _, token := range []string{"", "garbage", "a.b.c", strings.Repeat("x", 100)} {
		if _, err := ParseToken(testSecret, token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("token %q: expected ErrInvalidToken, got %v", token, err)
		}
	}
}

func TestHashToken_Deterministic(t *testing.T) {
	if HashToken("abc") != HashToken("abc") {
		t.Errorf("expected stable hash")
	}
	if HashToken("abc") == HashToken("abd") {
		t.Errorf("expected distinct hashes for distinct tokens")
	}
}
