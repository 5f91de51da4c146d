package services_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/localnerve/myway-api/internal/services"
)

func TestTokenIssuer(t *testing.T) {
	issuer := services.NewTokenIssuer("secret", time.Hour)

	token, err := issuer.Issue(42)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	id, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if id != 42 {
		t.Errorf("Expected 42, got %d", id)
	}

	if _, err := services.NewTokenIssuer("other", time.Hour).Parse(token); err == nil {
		t.Errorf("Expected a token signed with another secret to be rejected")
	}
	if _, err := issuer.Parse("not.a.token"); err == nil {
		t.Errorf("Expected garbage to be rejected")
	}
}

func TestTokenIssuerRejectsExpiredAndUnbounded(t *testing.T) {
	expired := services.NewTokenIssuer("secret", -time.Minute)
	token, err := expired.Issue(7)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := expired.Parse(token); err == nil {
		t.Errorf("Expected an expired token to be rejected")
	}

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"userId": 7}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("Failed to sign: %v", err)
	}
	if _, err := expired.Parse(noExp); err == nil {
		t.Errorf("Expected a token without exp to be rejected")
	}
}
