// Package session resolves the caller's identity and role from a signed
// token. Redirecting or blocking unauthorized users is left to the caller.
package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Roles the appointment service knows about.
const (
	RolePatient = "PATIENT"
	RoleDoctor  = "DOCTOR"
)

var ErrInvalidToken = errors.New("session: invalid token")

// Session identifies one signed-in user.
type Session struct {
	Sub  string
	Role string
}

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Parse validates an HS256 token and extracts the sub and role claims.
func Parse(token, secret string) (*Session, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrInvalidToken
	}

	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("session: unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid || c.Subject == "" || c.Role == "" {
		return nil, ErrInvalidToken
	}
	return &Session{Sub: c.Subject, Role: strings.ToUpper(c.Role)}, nil
}

// Sign issues a token for the given identity. The sandbox service and tests
// use it; production tokens come from the auth provider.
func Sign(sub, role, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role:             strings.ToUpper(role),
		RegisteredClaims: jwt.RegisteredClaims{Subject: sub},
	})
	return token.SignedString([]byte(secret))
}

// RequireRole reports whether the session exists and holds one of the
// allowed roles.
func RequireRole(s *Session, roles ...string) bool {
	if s == nil {
		return false
	}
	for _, r := range roles {
		if strings.EqualFold(s.Role, r) {
			return true
		}
	}
	return false
}
