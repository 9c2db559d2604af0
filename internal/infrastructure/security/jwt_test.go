package security

import (
	"testing"
	"time"
)

func TestSessionToken(t *testing.T) {
	const secret = "test-secret"
	expiresAt := time.Now().UTC().Add(time.Hour)

	token, err := GenerateSessionToken("sess-1", "anna@example.com", secret, expiresAt)
	if err != nil {
		t.Fatalf("GenerateSessionToken() error = %v", err)
	}

	claims, err := ValidateJWT(token, secret)
	if err != nil {
		t.Fatalf("ValidateJWT() error = %v", err)
	}
	if claims["sessionId"] != "sess-1" {
		t.Errorf("sessionId = %v, want sess-1", claims["sessionId"])
	}
	if IsAdminClaims(claims) {
		t.Error("session token must not carry admin role")
	}

	if _, err := ValidateJWT(token, "wrong-secret"); err == nil {
		t.Error("ValidateJWT() with wrong secret succeeded")
	}
}

func TestAdminToken(t *testing.T) {
	const secret = "test-secret"

	token, err := GenerateAdminToken(secret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateAdminToken() error = %v", err)
	}

	claims, err := ValidateJWT(token, secret)
	if err != nil {
		t.Fatalf("ValidateJWT() error = %v", err)
	}
	if !IsAdminClaims(claims) {
		t.Error("admin token missing admin role")
	}
}

func TestExpiredToken(t *testing.T) {
	const secret = "test-secret"

	token, err := GenerateSessionToken("sess-1", "anna@example.com", secret, time.Now().UTC().Add(-time.Hour))
	if err != nil {
		t.Fatalf("GenerateSessionToken() error = %v", err)
	}

	if _, err := ValidateJWT(token, secret); err == nil {
		t.Error("ValidateJWT() accepted expired token")
	}
}
