package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	jwt.RegisteredClaims

	// Role is a custom claim set by the identity provider.
	Role string `json:"role,omitempty"`
}

type Verified struct {
	ActorID   string
	Role      string
	ExpiresAt time.Time
}

// VerifyToken verifies an actor session token (JWT, HS256) using the shared
// auth secret. The subject claim carries the actor id, the role claim the
// marketplace role.
func VerifyToken(tokenString, secret, issuer string, now time.Time) (*Verified, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("missing token")
	}
	if secret == "" {
		return nil, fmt.Errorf("missing auth secret")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	claims := &Claims{}
	tok, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	if claims.ExpiresAt == nil || claims.ExpiresAt.Time.Before(now) {
		return nil, fmt.Errorf("token expired")
	}
	if claims.NotBefore != nil && claims.NotBefore.Time.After(now) {
		return nil, fmt.Errorf("token not active yet")
	}
	if issuer != "" && claims.Issuer != issuer {
		return nil, fmt.Errorf("issuer mismatch")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("missing subject")
	}
	if claims.Role == "" {
		return nil, fmt.Errorf("missing role claim")
	}

	return &Verified{
		ActorID:   claims.Subject,
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// IssueToken mints a session token. Used by dev tooling and tests; in
// production the identity provider issues tokens with the same secret.
func IssueToken(actorID, role, secret, issuer string, ttl time.Duration, now time.Time) (string, error) {
	if actorID == "" || role == "" {
		return "", fmt.Errorf("missing actor id or role")
	}
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actorID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: role,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString([]byte(secret))
}
