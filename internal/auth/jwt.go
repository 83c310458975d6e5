// Package auth issues and verifies signed tokens and hashes passwords.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/PaulBabatuyi/semx/internal/clock"
	"github.com/PaulBabatuyi/semx/internal/normalize"
)

var (
	// ErrUnknownKey is returned when a token names a key id the manager does not hold.
	ErrUnknownKey = errors.New("unknown signing key")
	errNoSubject  = errors.New("token has no user id")
)

// JWTManager issues HS256 session tokens and checks them on the way back in.
type JWTManager struct {
	secrets map[string][]byte // by kid; "" when a single secret is configured
	signKID string
	ttl     time.Duration
	clock   clock.Clock
}

// Claims carries the session owner.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// NewJWTManager signs and verifies with one shared secret.
func NewJWTManager(secret string, ttl time.Duration) *JWTManager {
	return NewJWTManagerFromKeys(map[string]string{"": secret}, "", ttl)
}

// NewJWTManagerFromKeys signs with keys[activeKID] and accepts tokens from
// any key in keys, so a secret can be rotated while old sessions live out
// their ttl.
func NewJWTManagerFromKeys(keys map[string]string, activeKID string, ttl time.Duration) *JWTManager {
	secrets := make(map[string][]byte, len(keys))
	for kid, s := range keys {
		secrets[kid] = []byte(s)
	}
	return &JWTManager{secrets: secrets, signKID: activeKID, ttl: ttl, clock: clock.Real()}
}

// WithClock replaces the time source.
func (m *JWTManager) WithClock(c clock.Clock) *JWTManager {
	m.clock = c
	return m
}

// Duration is the lifetime of newly issued tokens.
func (m *JWTManager) Duration() time.Duration { return m.ttl }

// GenerateToken signs a session for userID and reports when it expires.
func (m *JWTManager) GenerateToken(userID, email string) (string, time.Time, error) {
	secret, ok := m.secrets[m.signKID]
	if !ok {
		return "", time.Time{}, fmt.Errorf("%w: %q", ErrUnknownKey, m.signKID)
	}

	issued := m.clock.Now()
	exp := issued.Add(m.ttl)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID: userID,
		Email:  normalize.Email(email),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	if m.signKID != "" {
		tok.Header["kid"] = m.signKID
	}

	signed, err := tok.SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// VerifyToken checks signature and expiry and returns the session claims.
func (m *JWTManager) VerifyToken(raw string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, m.lookupKey,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.clock.Now),
	)
	if err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, errNoSubject
	}
	return &claims, nil
}

func (m *JWTManager) lookupKey(t *jwt.Token) (any, error) {
	if _, isHMAC := t.Method.(*jwt.SigningMethodHMAC); !isHMAC {
		return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
	}
	kid, _ := t.Header["kid"].(string)
	if secret, ok := m.secrets[kid]; ok {
		return secret, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKey, kid)
}

// HashPassword bcrypts a plaintext password at the default cost.
func HashPassword(plain string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// CheckPassword returns nil when plain matches hash.
func CheckPassword(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}
