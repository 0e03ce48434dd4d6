package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role is the caller class encoded in an access token.
type Role string

const (
	// RoleAssistant is the voice front end driving turns.
	RoleAssistant Role = "assistant"
	// RoleDevice is a guidance device reading movement steps.
	RoleDevice Role = "device"
	RoleAdmin  Role = "admin"
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	switch r {
	case RoleAssistant, RoleDevice, RoleAdmin:
		return true
	}
	return false
}

var ErrInvalidToken = errors.New("invalid token")

// Claims are the custom JWT claims.
type Claims struct {
	Subject string `json:"sub_id"`
	Role    Role   `json:"role"`
	jwt.RegisteredClaims
}

// JWTManager signs and verifies HMAC access tokens.
type JWTManager struct {
	secret   []byte
	tokenTTL time.Duration
	issuer   string
}

// NewJWTManager creates a manager. A zero ttl issues tokens without expiry.
func NewJWTManager(secret string, tokenTTL time.Duration) *JWTManager {
	return &JWTManager{
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		issuer:   "service-wayfinding",
	}
}

// Generate issues a signed token for subject with role.
func (m *JWTManager) Generate(subject string, role Role) (string, error) {
	if !role.IsValid() {
		return "", fmt.Errorf("unknown role %q", role)
	}

	now := time.Now()
	claims := Claims{
		Subject: subject,
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   m.issuer,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if m.tokenTTL != 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(m.tokenTTL))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token.
func (m *JWTManager) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || !claims.Role.IsValid() {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
