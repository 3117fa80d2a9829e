// Package identity turns bearer credentials into an authenticated principal.
// Issuing credentials is somebody else's job; this package only verifies them.
package identity

import (
	"context"
	"errors"
	"fmt"
	"github.com/golang-jwt/jwt/v5"
	"nutricare/cmd/internal/domain/entity"
	"strconv"
)

var ErrInvalidToken = errors.New("identity: invalid token")

type Principal struct {
	UserID   int
	Role     entity.Role
	Username string
}

type Resolver interface {
	Resolve(ctx context.Context, token string) (*Principal, error)
}

// Claims carried by tokens accepted by JWTResolver. The subject is the
// numeric user id.
type Claims struct {
	Role     string `json:"role"`
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// JWTResolver verifies HS256 tokens signed with a shared secret.
type JWTResolver struct {
	secret []byte
	parser *jwt.Parser
}

func NewJWTResolver(secret string) *JWTResolver {
	return &JWTResolver{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}
}

func (j *JWTResolver) Resolve(_ context.Context, token string) (*Principal, error) {
	claims := &Claims{}
	parsed, err := j.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return j.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	return NewPrincipal(claims.Subject, claims.Role, claims.Username)
}

// Sign issues a token for p. Only tests and local tooling mint tokens.
func (j *JWTResolver) Sign(p *Principal, claims jwt.RegisteredClaims) (string, error) {
	claims.Subject = strconv.Itoa(p.UserID)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Role:             string(p.Role),
		Username:         p.Username,
		RegisteredClaims: claims,
	})
	return token.SignedString(j.secret)
}

// NewPrincipal validates the raw identity attributes shared by every resolver.
func NewPrincipal(subject, role, username string) (*Principal, error) {
	userID, err := strconv.Atoi(subject)
	if err != nil || userID <= 0 {
		return nil, fmt.Errorf("%w: subject %q is not a user id", ErrInvalidToken, subject)
	}

	r := entity.Role(role)
	if !r.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, role)
	}

	return &Principal{UserID: userID, Role: r, Username: username}, nil
}
