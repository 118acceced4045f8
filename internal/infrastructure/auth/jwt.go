// Package auth verifies bearer tokens and turns them into an access.Identity.
// Tokens are HS256 JWTs carrying the user ID in "sub" and the role in "role".
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/scholarhub/scholarship-review/internal/domain/access"
	"github.com/scholarhub/scholarship-review/internal/domain/shared"
)

var (
	// ErrMissingSecret is returned when the gate is built without a signing key.
	ErrMissingSecret = errors.New("auth: signing secret is empty")
)

// Gate resolves the caller of an HTTP request.
type Gate interface {
	CurrentRole(r *http.Request) (access.Identity, error)
}

// Claims is the token payload.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTGate authenticates requests.
type JWTGate struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewJWTGate creates a gate for tokens signed with secret.
func NewJWTGate(secret, issuer string) (*JWTGate, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrMissingSecret
	}
	return &JWTGate{secret: []byte(secret), issuer: issuer, now: time.Now}, nil
}

var _ Gate = (*JWTGate)(nil)

// CurrentRole resolves the caller of r. A request without an Authorization
// header is anonymous. A malformed, expired or badly signed token is an
// ErrUnauthorized error.
func (g *JWTGate) CurrentRole(r *http.Request) (access.Identity, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return access.Anonymous, nil
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return access.Anonymous, unauthorized("invalid authorization header", nil)
	}

	return g.Verify(strings.TrimSpace(parts[1]))
}

// Verify parses a raw token.
func (g *JWTGate) Verify(raw string) (access.Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(g.now),
	}
	if g.issuer != "" {
		opts = append(opts, jwt.WithIssuer(g.issuer))
	}

	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return g.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return access.Anonymous, unauthorized("invalid token", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return access.Anonymous, unauthorized("invalid claims", nil)
	}

	return access.Identity{
		UserID: claims.Subject,
		Role:   access.ParseRole(claims.Role),
	}, nil
}

// Issue signs a token for userID with the given role.
func (g *JWTGate) Issue(userID string, role access.Role, ttl time.Duration) (string, error) {
	now := g.now()
	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    g.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
}

func unauthorized(msg string, err error) error {
	if err == nil {
		return shared.NewDomainError("auth", "Authenticate", shared.ErrUnauthorized, msg)
	}
	return shared.WrapError("auth", "Authenticate", shared.ErrUnauthorized, msg, err)
}
