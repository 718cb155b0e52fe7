package auth

import (
	"strings"
	"testing"
	"time"
)

func TestGenerateAndVerifyToken(t *testing.T) {
	jwtAuth, err := NewJWTAuth("test-secret-key", 7*24*time.Hour)
	if err != nil {
		t.Fatalf("NewJWTAuth failed: %v", err)
	}

	token, err := jwtAuth.GenerateToken("user-123", "test@example.com")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	user, err := jwtAuth.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken failed: %v", err)
	}
	if user.ID != "user-123" {
		t.Errorf("expected user ID user-123, got %s", user.ID)
	}
	if user.Email != "test@example.com" {
		t.Errorf("expected email test@example.com, got %s", user.Email)
	}
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	issuer, _ := NewJWTAuth("secret-one", time.Hour)
	verifier, _ := NewJWTAuth("secret-two", time.Hour)

	token, err := issuer.GenerateToken("user-123", "test@example.com")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if _, err := verifier.VerifyToken(token); err == nil {
		t.Error("expected verification to fail with wrong secret")
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	jwtAuth, _ := NewJWTAuth("test-secret", time.Hour)
	jwtAuth.TokenExpiry = -time.Hour

	token, err := jwtAuth.GenerateToken("user-123", "test@example.com")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if _, err := jwtAuth.VerifyToken(token); err == nil {
		t.Error("expected verification to fail for expired token")
	}
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{"valid bearer", "Bearer abc123", "abc123", false},
		{"lowercase bearer", "bearer abc123", "abc123", false},
		{"empty header", "", "", true},
		{"missing scheme", "abc123", "", true},
		{"wrong scheme", "Basic abc123", "", true},
		{"empty token", "Bearer ", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractToken(tt.header)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for header %q", tt.header)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !strings.HasPrefix(hash, "argon2id$") {
		t.Errorf("expected argon2id prefix, got %s", hash)
	}

	ok, err := VerifyPassword(hash, "s3cret-pass")
	if err != nil {
		t.Fatalf("VerifyPassword failed: %v", err)
	}
	if !ok {
		t.Error("expected correct password to verify")
	}

	ok, err = VerifyPassword(hash, "wrong-pass")
	if err != nil {
		t.Fatalf("VerifyPassword failed: %v", err)
	}
	if ok {
		t.Error("expected wrong password to fail verification")
	}
}

func TestHashPasswordUniqueSalts(t *testing.T) {
	first, _ := HashPassword("same-password")
	second, _ := HashPassword("same-password")
	if first == second {
		t.Error("expected different hashes for the same password")
	}
}
