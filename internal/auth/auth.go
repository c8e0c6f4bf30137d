package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey int

// ClaimsKey is the request-context key under which the authentication
// middleware stores the verified Claims.
const ClaimsKey ctxKey = 1

const (
	RoleCustomer = "customer"
	RoleVendor   = "vendor"
	RoleAdmin    = "admin"
)

// TokenValidity is the fixed session window embedded at issuance.
const TokenValidity = 7 * 24 * time.Hour

// ErrInvalidToken is returned for every verification failure - malformed,
// tampered, or expired - so callers cannot distinguish why a token was
// rejected.
var ErrInvalidToken = errors.New("invalid or expired token")

// ValidRole reports whether s is one of the three known roles.
func ValidRole(s string) bool {
	return s == RoleCustomer || s == RoleVendor || s == RoleAdmin
}

// Claims is the payload carried inside a session token.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Keys holds the process-wide signing secret. It is set once at startup and
// never mutated afterwards.
type Keys struct {
	secret []byte
}

func NewKeys(secret string) (*Keys, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret must not be empty")
	}
	return &Keys{secret: []byte(secret)}, nil
}

// GenerateToken issues a signed session token for the given identity and
// role, valid for TokenValidity from now.
func (k *Keys) GenerateToken(userID, email, role string) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenValidity)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(k.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a token string. Any failure collapses
// into ErrInvalidToken.
func (k *Keys) ValidateToken(tokenStr string) (Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return k.secret, nil
	})
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}
