package client

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Claims are the identity claims carried by an API token.
type Claims struct {
	UserID       uint   `json:"user_id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	Role         string `json:"role"`
	TechnicienID *uint  `json:"technicien_id,omitempty"`
	jwt.RegisteredClaims
}

// Session is an immutable authenticated session.
type Session struct {
	token  string
	claims Claims
}

// NewSession decodes token without verifying its signature. The server
// verifies it on every call; the decoded claims only drive role gating on
// the client side.
func NewSession(token string) (*Session, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return &Session{token: token, claims: claims}, nil
}

func (s *Session) Token() string { return s.token }

func (s *Session) Claims() Claims { return s.claims }

func (s *Session) HasRole(role string) bool {
	return s.claims.Role == role
}

// Expired reports whether the token is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	if s.claims.ExpiresAt == nil {
		return false
	}
	return !now.Before(s.claims.ExpiresAt.Time)
}
