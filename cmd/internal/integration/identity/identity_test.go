package identity

import (
	"context"
	"errors"
	"github.com/golang-jwt/jwt/v5"
	"nutricare/cmd/internal/domain/entity"
	"testing"
	"time"
)

func TestJWTResolverRoundTrip(t *testing.T) {
	resolver := NewJWTResolver("secret")
	token, err := resolver.Sign(&Principal{UserID: 10, Role: entity.RoleClient, Username: "ana"}, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	p, err := resolver.Resolve(context.Background(), token)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if p.UserID != 10 || p.Role != entity.RoleClient || p.Username != "ana" {
		t.Fatalf("unexpected principal %+v", p)
	}
}

func TestJWTResolverRejects(t *testing.T) {
	resolver := NewJWTResolver("secret")
	valid := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}

	expired, _ := resolver.Sign(&Principal{UserID: 10, Role: entity.RoleClient}, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})
	foreign, _ := NewJWTResolver("other").Sign(&Principal{UserID: 10, Role: entity.RoleClient}, valid)
	badRole, _ := resolver.Sign(&Principal{UserID: 10, Role: "admin"}, valid)
	badSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Role:             "client",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "abc"},
	}).SignedString([]byte("secret"))
	noneAlg, _ := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		Role:             "client",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "10"},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := map[string]string{
		"garbage":     "not-a-token",
		"expired":     expired,
		"wrong key":   foreign,
		"bad role":    badRole,
		"bad subject": badSubject,
		"none alg":    noneAlg,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := resolver.Resolve(context.Background(), token)
			if !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("err = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestNewPrincipal(t *testing.T) {
	if _, err := NewPrincipal("0", "client", ""); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("zero id accepted: %v", err)
	}
	p, err := NewPrincipal("20", "consultant", "dr")
	if err != nil || p.UserID != 20 || p.Role != entity.RoleConsultant {
		t.Fatalf("NewPrincipal = %+v, %v", p, err)
	}
}
