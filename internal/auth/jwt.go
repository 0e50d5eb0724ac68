// Package auth provides session-token issuance and verification plus
// password hashing for the blog backend.
//
// Tokens are HS256 JWTs carrying the user's flake ID and email, valid for
// 30 days. The users table stores the currently valid token so the
// middleware can reject JWTs superseded by a later sign-in, and so that
// rotation can blacklist the outgoing token until its own expiry.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is how long an issued session token stays valid.
const TokenTTL = 30 * 24 * time.Hour

// Errors returned by token verification.
var (
	// ErrInvalidToken covers malformed, mis-signed, and expired tokens.
	ErrInvalidToken = errors.New("auth: invalid token")
)

// Claims are the JWT claims carried by a session token.
type Claims struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies session tokens with a shared signing
// key. Construct one per process and inject it where tokens are handled.
type TokenManager struct {
	signingKey []byte
}

// NewTokenManager returns a TokenManager signing with key.
func NewTokenManager(key string) *TokenManager {
	return &TokenManager{signingKey: []byte(key)}
}

// Issue mints a signed token for the given user, expiring after TokenTTL.
func (m *TokenManager) Issue(userID, email string, now time.Time) (string, error) {
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.signingKey)
}

// Verify checks the signature and expiry of a token and returns its claims.
func (m *TokenManager) Verify(token string) (*Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.signingKey, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

// Decode extracts claims without verifying the signature. Callers use it to
// read the expiry of a token that is being rotated out; access decisions
// must go through Verify.
func Decode(token string) (*Claims, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}
