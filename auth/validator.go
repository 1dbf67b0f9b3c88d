// Package auth validates the HS256 bearer tokens that protect the gateway
// API. Tokens are issued out of band (or by Sign, used by tooling and tests)
// and carry the caller identity plus an optional role.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when the token is invalid
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned when the token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrInvalidIssuer is returned when the token issuer is invalid
	ErrInvalidIssuer = errors.New("invalid issuer")
)

// Claims represents the claims carried by a gateway token.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// Validator validates HS256-signed JWT tokens.
type Validator struct {
	secret []byte
	issuer string
}

// Config holds configuration for the Validator
type Config struct {
	// Secret is the HS256 signing key.
	Secret string
	// Issuer, when set, is enforced against the token's "iss" claim.
	Issuer string
}

// NewValidator creates a new token validator.
func NewValidator(cfg Config) (*Validator, error) {
	if cfg.Secret == "" {
		return nil, errors.New("auth secret is required")
	}
	return &Validator{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
	}, nil
}

// ValidateToken validates a token string and returns its claims.
func (v *Validator) ValidateToken(_ context.Context, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: unexpected signing method %v", ErrInvalidToken, t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	if v.issuer != "" && claims.Issuer != v.issuer {
		return nil, ErrInvalidIssuer
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing sub claim", ErrInvalidToken)
	}

	return claims, nil
}

// Sign issues a token for the given subject. Intended for tooling and tests;
// production tokens normally come from the identity provider.
func (v *Validator) Sign(subject, email, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email: email,
		Role:  role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}
