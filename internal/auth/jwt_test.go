package auth

import (
	"testing"
	"time"
)

func newTestAuthenticator() *JWTAuthenticator {
	return NewJWTAuthenticator(
		"access-secret",
		"refresh-secret",
		"estates",
		"estates",
		time.Minute,
		time.Hour,
	)
}

func TestTokenRoundTrip(t *testing.T) {
	a := newTestAuthenticator()

	access, refresh, err := a.GenerateTokens(42)
	if err != nil {
		t.Fatalf("GenerateTokens: %v", err)
	}

	tok, err := a.ValidateAccessToken(access)
	if err != nil {
		t.Fatalf("ValidateAccessToken: %v", err)
	}
	if !tok.Valid {
		t.Error("access token not valid")
	}

	tok, err = a.ValidateRefreshToken(refresh)
	if err != nil {
		t.Fatalf("ValidateRefreshToken: %v", err)
	}
	if !tok.Valid {
		t.Error("refresh token not valid")
	}
}

func TestTokensUseSeparateSecrets(t *testing.T) {
	a := newTestAuthenticator()

	access, refresh, err := a.GenerateTokens(7)
	if err != nil {
		t.Fatalf("GenerateTokens: %v", err)
	}

	if _, err := a.ValidateAccessToken(refresh); err == nil {
		t.Error("refresh token accepted as access token")
	}
	if _, err := a.ValidateRefreshToken(access); err == nil {
		t.Error("access token accepted as refresh token")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	a := NewJWTAuthenticator("s", "r", "estates", "estates", -time.Minute, -time.Minute)

	access, _, err := a.GenerateTokens(7)
	if err != nil {
		t.Fatalf("GenerateTokens: %v", err)
	}
	if _, err := a.ValidateAccessToken(access); err == nil {
		t.Error("expired token accepted")
	}
}

func TestGarbageTokenRejected(t *testing.T) {
	a := newTestAuthenticator()
	if _, err := a.ValidateAccessToken("not.a.token"); err == nil {
		t.Error("garbage accepted")
	}
}
