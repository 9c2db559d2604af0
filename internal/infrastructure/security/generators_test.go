package security

import (
	"strings"
	"testing"
)

func TestGenerateSecureToken(t *testing.T) {
	t.Run("tokens are unique", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 1000; i++ {
			token, err := GenerateSecureToken(24)
			if err != nil {
				t.Fatalf("GenerateSecureToken() error = %v", err)
			}
			if seen[token] {
				t.Fatal("duplicate token generated")
			}
			seen[token] = true
		}
	})

	t.Run("tokens are URL safe", func(t *testing.T) {
		token, err := GenerateSecureToken(24)
		if err != nil {
			t.Fatalf("GenerateSecureToken() error = %v", err)
		}
		if strings.ContainsAny(token, "+/=") {
			t.Errorf("token %q contains non-URL-safe characters", token)
		}
	})

	t.Run("24 bytes encode to 32 characters", func(t *testing.T) {
		token, err := GenerateSecureToken(24)
		if err != nil {
			t.Fatalf("GenerateSecureToken() error = %v", err)
		}
		if len(token) != 32 {
			t.Errorf("token length = %d, want 32", len(token))
		}
	})
}

func TestGenerateULID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateULID()
		if len(id) != 26 {
			t.Fatalf("ULID length = %d, want 26", len(id))
		}
		if seen[id] {
			t.Fatal("duplicate ULID generated")
		}
		seen[id] = true
	}
}
