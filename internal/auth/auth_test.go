package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("testpass123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword(hash, "testpass123") {
		t.Error("expected password to match")
	}
	if CheckPassword(hash, "wrongpassword") {
		t.Error("expected wrong password to fail")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	is := NewIssuer("test-secret", 15*time.Minute)

	tok, exp, err := is.MakeToken("test-uid", "sess-1")
	if err != nil {
		t.Fatalf("make token: %v", err)
	}
	claims, err := is.ParseToken(tok)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != "test-uid" {
		t.Errorf("uid mismatch: %s", claims.UserID)
	}
	if claims.SessionID() != "sess-1" {
		t.Errorf("session mismatch: %s", claims.SessionID())
	}

	// verify expiry is ~15 min from now
	diff := time.Until(exp)
	if diff < 14*time.Minute || diff > 16*time.Minute {
		t.Errorf("expected ~15min expiry, got %v", diff)
	}
	if !claims.ExpiresAt.Time.Equal(exp.Truncate(time.Second)) {
		t.Errorf("claims expiry %v != %v", claims.ExpiresAt.Time, exp)
	}
}

func TestTokenExpired(t *testing.T) {
	is := NewIssuer("test-secret", time.Minute)
	is.now = func() time.Time { return time.Now().Add(-time.Hour) }
	tok, _, err := is.MakeToken("uid", "sess")
	if err != nil {
		t.Fatalf("make token: %v", err)
	}

	is.now = time.Now
	if _, err := is.ParseToken(tok); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestAlgorithmConfusion(t *testing.T) {
	is := NewIssuer("test-secret", time.Hour)

	tok, _, _ := is.MakeToken("uid", "sess")
	if _, err := is.ParseToken(tok); err != nil {
		t.Fatalf("valid token failed: %v", err)
	}

	// wrong secret fails
	if _, err := NewIssuer("wrong-secret", time.Hour).ParseToken(tok); err == nil {
		t.Fatal("expected error for wrong secret")
	}

	// garbage token fails
	if _, err := is.ParseToken("not.a.token"); err == nil {
		t.Fatal("expected error for garbage token")
	}

	// unsigned token fails
	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "uid"})
	raw, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := is.ParseToken(raw); err == nil {
		t.Fatal("expected error for alg none")
	}
}

func TestTokenWithoutSession(t *testing.T) {
	is := NewIssuer("test-secret", time.Hour)
	tok, _, _ := is.MakeToken("uid", "")
	if _, err := is.ParseToken(tok); err != ErrBadToken {
		t.Errorf("expected ErrBadToken, got %v", err)
	}
	if strings.Count(tok, ".") != 2 {
		t.Errorf("unexpected token shape %q", tok)
	}
}
