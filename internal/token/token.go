// Package token issues and validates the signed session tokens that
// prove identity and role without a server-side lookup.
package token

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/arnavgupta/campus-events-api/internal/model"
)

var (
	// ErrExpired is returned when a token's expiry is in the past.
	ErrExpired = errors.New("session expired")
	// ErrMalformed is returned when a token fails signature or shape checks.
	ErrMalformed = errors.New("malformed session token")
	// ErrRevoked is returned when a token was invalidated by an explicit logout.
	ErrRevoked = errors.New("session revoked")
)

// Claims binds a user and role to the standard expiry claims.
type Claims struct {
	jwt.RegisteredClaims
	UserID string     `json:"uid"`
	Role   model.Role `json:"role"`
}

// Issuer signs and verifies session tokens with an HMAC secret.
// Tokens are stateless; the revocation set only exists so that an
// explicit logout takes effect before natural expiry.
type Issuer struct {
	secret []byte
	ttl    time.Duration

	mu      sync.Mutex
	revoked map[string]time.Time
}

// NewIssuer constructs an Issuer. The secret must be shared by all
// instances that need to validate each other's tokens.
func NewIssuer(secret []byte, ttl time.Duration) *Issuer {
	return &Issuer{
		secret:  secret,
		ttl:     ttl,
		revoked: make(map[string]time.Time),
	}
}

// Issue creates a signed token for the given user valid for the
// configured TTL.
func (i *Issuer) Issue(userID string, role model.Role) (string, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		UserID: userID,
		Role:   role,
	})
	return t.SignedString(i.secret)
}

// Validate verifies the signature and expiry of tokenString and returns
// its claims. The HMAC comparison inside the JWT library is constant-time.
func (i *Issuer) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	t, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrMalformed
	}
	if !t.Valid || claims.UserID == "" || !claims.Role.Valid() {
		return nil, ErrMalformed
	}
	if i.isRevoked(tokenString) {
		return nil, ErrRevoked
	}
	return claims, nil
}

// Revoke invalidates tokenString until its natural expiry. Unknown or
// malformed tokens are ignored; revoking them is harmless.
func (i *Issuer) Revoke(tokenString string) {
	claims, err := i.Validate(tokenString)
	if err != nil {
		return
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.revoked[tokenString] = claims.ExpiresAt.Time
}

func (i *Issuer) isRevoked(tokenString string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	// Drop entries whose tokens have expired on their own.
	now := time.Now()
	for tok, exp := range i.revoked {
		if exp.Before(now) {
			delete(i.revoked, tok)
		}
	}

	_, ok := i.revoked[tokenString]
	return ok
}
