package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/bilardeando/internal/domain/user"
	"github.com/riskibarqy/bilardeando/internal/usecase"
)

func TestJWTVerifier_RoundTrip(t *testing.T) {
	v, err := NewJWTVerifier("s3cret", "bilardeando")
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}

	token, err := v.Sign(user.Principal{UserID: "u-1", Email: "a@b.c", Name: "Ana"}, time.Hour, time.Now())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	p, err := v.VerifyAccessToken(t.Context(), token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if p.UserID != "u-1" || p.Email != "a@b.c" || p.Name != "Ana" {
		t.Fatalf("unexpected principal %+v", p)
	}
}

func TestJWTVerifier_Rejects(t *testing.T) {
	v, _ := NewJWTVerifier("s3cret", "bilardeando")
	other, _ := NewJWTVerifier("other", "bilardeando")
	foreign, _ := NewJWTVerifier("s3cret", "someone-else")

	expired, _ := v.Sign(user.Principal{UserID: "u-1"}, time.Minute, time.Now().Add(-time.Hour))
	wrongKey, _ := other.Sign(user.Principal{UserID: "u-1"}, time.Hour, time.Now())
	wrongIssuer, _ := foreign.Sign(user.Principal{UserID: "u-1"}, time.Hour, time.Now())
	noSubject, _ := v.Sign(user.Principal{}, time.Hour, time.Now())

	for name, token := range map[string]string{
		"empty":        "",
		"garbage":      "not-a-jwt",
		"expired":      expired,
		"wrong key":    wrongKey,
		"wrong issuer": wrongIssuer,
		"no subject":   noSubject,
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := v.VerifyAccessToken(t.Context(), token); !errors.Is(err, usecase.ErrUnauthorized) {
				t.Fatalf("expected ErrUnauthorized, got %v", err)
			}
		})
	}
}

func TestNewJWTVerifier_RequiresSecret(t *testing.T) {
	if _, err := NewJWTVerifier(" ", ""); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}
