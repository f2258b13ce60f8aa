// Package auth provides session tokens, password hashing, GitHub OAuth and
// the HTTP middleware that turns a session cookie into a request identity.
//
// SESSION FLOW OVERVIEW:
//  1. The user posts the login form (or completes GitHub OAuth)
//  2. The server issues a signed JWT and stores it in the "session" HttpOnly cookie
//  3. On every request LoadIdentity reads the cookie, validates the JWT and
//     looks the user up, putting an *Identity into the request context
//  4. RequireLogin redirects anonymous requests to the login page
//
// WHY JWT?
// The token is self-contained: user ID and expiry are inside a signed payload,
// so the server keeps no session table. The signature ensures nobody can
// tamper with it without the secret key.
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: algorithm + token type → {"alg":"HS256","typ":"JWT"}
//	- Payload: claims (data) → {"sub":"userID","iss":"snippetshare","exp":1234567890}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer is written into, and required on, every session token.
const Issuer = "snippetshare"

// MinSecretLength is the shortest HMAC secret NewTokenService accepts.
const MinSecretLength = 16

// ErrTokenExpired is returned by Validate for a well-formed but expired token.
var ErrTokenExpired = errors.New("auth: token expired")

// TokenService handles JWT creation and validation.
//
// It holds the HMAC secret key used to sign and verify tokens and the
// lifetime given to every token Generate issues.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService with the given secret and token lifetime.
// Example: SNIPPETS_AUTH__JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("auth: JWT secret must be at least %d characters", MinSecretLength)
	}
	if ttl <= 0 {
		return nil, errors.New("auth: token lifetime must be positive")
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// TTL is the lifetime of tokens issued by Generate. The session cookie's
// Max-Age is set from it so cookie and token expire together.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// claims is the JWT payload. "sub" (Subject) carries the internal user ID.
type claims struct {
	jwt.RegisteredClaims
}

// Generate creates and signs a session token for userID valid for TTL().
//
// Signing algorithm: HS256 (HMAC-SHA256), symmetric: the same key signs and verifies.
func (s *TokenService) Generate(userID string) (string, error) {
	return s.GenerateWithDuration(userID, s.ttl)
}

// GenerateWithDuration creates a token with a custom expiry duration.
// Used in tests to mint already-expired tokens.
func (s *TokenService) GenerateWithDuration(userID string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    Issuer,
		},
	}

	// jwt.NewWithClaims creates an unsigned token with the given algorithm.
	// SignedString(key) signs it and returns the complete JWT string.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a JWT string.
// Returns the userID (stored in the "sub" claim) if the token is valid.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid (wasn't tampered with)
//   - Token is not expired (ExpiresAt is in the future)
//   - Issuer matches Issuer (prevents tokens from other apps)
//   - Algorithm is HS256 (prevents algorithm confusion attacks)
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid token claims")
	}

	if c.Subject == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}

	return c.Subject, nil
}
