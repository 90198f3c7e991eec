// internal/auth/token.go
package auth

import (
	"crypto/ed25519"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Tokens issues and verifies the ed25519-signed JWTs used as session
// cookies. Keys are generated per process unless loaded explicitly.
type Tokens struct {
	private ed25519.PrivateKey
	public  ed25519.PublicKey
	expiry  time.Duration
}

// NewTokens generates a fresh key pair. A zero expiry means tokens never
// expire.
func NewTokens(expiry time.Duration) (*Tokens, error) {
	public, private, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ed25519 key pair: %w", err)
	}
	return &Tokens{private: private, public: public, expiry: expiry}, nil
}

// ExpirySeconds is used for the cookie MaxAge.
func (t *Tokens) ExpirySeconds() int {
	return int(t.expiry.Seconds())
}

// Issue signs a JWT with sub = playerID.
func (t *Tokens) Issue(playerID string) (string, error) {
	claims := jwt.MapClaims{"sub": playerID}
	if t.expiry > 0 {
		claims["exp"] = time.Now().Add(t.expiry).Unix()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(t.private)
}

// Verify checks the signature and returns the sub claim.
func (t *Tokens) Verify(tokenString string) (string, error) {
	parsed, err := jwt.Parse(tokenString, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return t.public, nil
	})
	if err != nil {
		return "", fmt.Errorf("jwt parse error: %w", err)
	}
	if !parsed.Valid {
		return "", fmt.Errorf("invalid token")
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid jwt claims")
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return "", fmt.Errorf("missing sub in jwt")
	}
	return sub, nil
}
