package utils

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("pass1234", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "pass1234" {
		t.Fatal("hash must not equal the plaintext")
	}

	tests := []struct {
		name  string
		plain string
		want  bool
	}{
		{"same password", "pass1234", true},
		{"different password", "pass12345", false},
		{"empty password", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VerifyPassword(hash, tt.plain); got != tt.want {
				t.Errorf("VerifyPassword(%q) = %v, want %v", tt.plain, got, tt.want)
			}
		})
	}
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	if VerifyPassword("not-a-bcrypt-hash", "pass1234") {
		t.Error("malformed hash must not verify")
	}
}

func TestHashPasswordCostFallback(t *testing.T) {
	hash, err := HashPassword("pass1234", 0)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		t.Fatalf("Cost: %v", err)
	}
	if cost != DefaultBcryptCost {
		t.Errorf("cost = %d, want %d", cost, DefaultBcryptCost)
	}
}
