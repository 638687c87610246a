package auth

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carried by an access token. Synthetic marks a skip-login session
// substituted for real authentication; it behaves as a full identity but is
// never backed by the persistence store.
type Claims struct {
	Sub       string
	Name      string
	Synthetic bool
	JTI       string
	Exp       int64
}

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("expired token")
)

type tokenClaims struct {
	Name      string `json:"name"`
	Synthetic bool   `json:"synthetic,omitempty"`
	jwt.RegisteredClaims
}

func IssueToken(secret []byte, claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Name:      claims.Name,
		Synthetic: claims.Synthetic,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.Sub,
			ID:        claims.JTI,
			ExpiresAt: jwt.NewNumericDate(time.Unix(claims.Exp, 0)),
		},
	})
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func ParseToken(secret []byte, token string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrExpiredToken
		}
		return Claims{}, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	if claims.Subject == "" || claims.ID == "" || claims.ExpiresAt == nil {
		return Claims{}, ErrInvalidToken
	}
	return Claims{
		Sub:       claims.Subject,
		Name:      claims.Name,
		Synthetic: claims.Synthetic,
		JTI:       claims.ID,
		Exp:       claims.ExpiresAt.Unix(),
	}, nil
}

func HashToken(value string) string {
	sum := sha256.Sum256([]byte(value))
	return fmt.Sprintf("%x", sum)
}
