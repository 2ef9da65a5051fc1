package security

import (
	"strings"
	"testing"
)

func TestHashPasswordFormat(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	salt, derived, ok := strings.Cut(hash, ":")
	if !ok {
		t.Fatalf("hash %q missing salt separator", hash)
	}
	if len(salt) != saltBytes*2 {
		t.Errorf("salt length = %d hex chars, want %d", len(salt), saltBytes*2)
	}
	if len(derived) != scryptKeyLen*2 {
		t.Errorf("derived length = %d hex chars, want %d", len(derived), scryptKeyLen*2)
	}
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatal(err)
	}

	if !VerifyPassword("hunter22", hash) {
		t.Error("correct password rejected")
	}
	if VerifyPassword("hunter23", hash) {
		t.Error("wrong password accepted")
	}
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	tests := []string{
		"",
		"no-separator",
		":",
		"abc:",
		":def",
		"salt:not-hex",
	}
	for _, stored := range tests {
		if VerifyPassword("anything", stored) {
			t.Errorf("VerifyPassword accepted malformed hash %q", stored)
		}
	}
}

func TestHashPasswordSaltsDiffer(t *testing.T) {
	a, err := HashPassword("same password")
	if err != nil {
		t.Fatal(err)
	}
	b, err := HashPassword("same password")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("two hashes of one password are identical; salt not random")
	}
}
