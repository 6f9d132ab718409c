package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssueAndValidateTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer(TokenIssuerConfig{
		SigningSecret: []byte("test-secret"),
		TokenTTL:      time.Hour,
	})

	principal := Principal{UserID: "user-1", Email: "jane@example.com", Role: "admin"}
	token, expiresIn, err := issuer.IssueToken(context.Background(), principal)
	if err != nil {
		t.Fatalf("unexpected issue error: %v", err)
	}
	if expiresIn != int64(time.Hour/time.Second) {
		t.Fatalf("unexpected expiry seconds: %d", expiresIn)
	}

	parsed, err := issuer.ValidateToken(token)
	if err != nil {
		t.Fatalf("unexpected validate error: %v", err)
	}
	if parsed != principal {
		t.Fatalf("principal round trip mismatch: got %+v, want %+v", parsed, principal)
	}
	if !parsed.IsAdmin() {
		t.Fatalf("expected admin principal")
	}
}

func TestValidateTokenExpired(t *testing.T) {
	past := time.Now().Add(-2 * time.Hour)
	issuedAgo := NewTokenIssuer(TokenIssuerConfig{
		SigningSecret: []byte("test-secret"),
		TokenTTL:      time.Hour,
		Clock:         func() time.Time { return past },
	})
	token, _, err := issuedAgo.IssueToken(context.Background(), Principal{UserID: "user-1"})
	if err != nil {
		t.Fatalf("unexpected issue error: %v", err)
	}

	current := NewTokenIssuer(TokenIssuerConfig{SigningSecret: []byte("test-secret")})
	if _, err := current.ValidateToken(token); !errors.Is(err, jwt.ErrTokenExpired) {
		t.Fatalf("expected expired-token error, got %v", err)
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer(TokenIssuerConfig{SigningSecret: []byte("test-secret")})
	token, _, err := issuer.IssueToken(context.Background(), Principal{UserID: "user-1"})
	if err != nil {
		t.Fatalf("unexpected issue error: %v", err)
	}

	other := NewTokenIssuer(TokenIssuerConfig{SigningSecret: []byte("different-secret")})
	if _, err := other.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid-token error, got %v", err)
	}
}

func TestIssueTokenRequiresSubject(t *testing.T) {
	issuer := NewTokenIssuer(TokenIssuerConfig{SigningSecret: []byte("test-secret")})
	if _, _, err := issuer.IssueToken(context.Background(), Principal{}); err == nil {
		t.Fatalf("expected error for empty subject")
	}
}
