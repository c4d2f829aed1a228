// Package token verifies access tokens minted by the authentication service.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "siappa/pkg/domain"
	dErrors "siappa/pkg/domain-errors"
)

// Claims carries only the subject. Role and village are never read from the
// token; they are resolved from the profile store on each request.
type Claims struct {
	jwt.RegisteredClaims
}

// Validator checks HS256 tokens against a shared signing key.
type Validator struct {
	signingKey []byte
	issuer     string
}

func NewValidator(signingKey, issuer string) *Validator {
	return &Validator{signingKey: []byte(signingKey), issuer: issuer}
}

// ValidateToken parses and verifies tokenString. Tokens without an expiry are rejected.
func (v *Validator) ValidateToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return v.signingKey, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// PrincipalID returns the subject as a typed ID.
func (c *Claims) PrincipalID() (id.PrincipalID, error) {
	pid, err := id.ParsePrincipalID(c.Subject)
	if err != nil {
		return id.PrincipalID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token subject")
	}
	return pid, nil
}

// Issue signs a token for principalID. The authentication service owns
// issuance in production; this exists for local tooling and tests.
func (v *Validator) Issue(principalID id.PrincipalID, ttl time.Duration) (string, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principalID.String(),
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	})
	return t.SignedString(v.signingKey)
}
