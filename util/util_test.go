package util

import (
	"strings"
	"testing"
)

func TestGetNameAndVersion(t *testing.T) {
	result := GetNameAndVersion()
	if !strings.HasPrefix(result, "monodon / ") {
		t.Errorf("Expected 'monodon / <version>', got '%s'", result)
	}
}

func TestRandomString(t *testing.T) {
	for _, length := range []int{10, 20, 32, 64} {
		result := RandomString(length)
		if len(result) != length {
			t.Errorf("Expected length %d, got %d", length, len(result))
		}
	}
}

func TestRandomStringUniqueness(t *testing.T) {
	results := make(map[string]bool)
	for i := 0; i < 100; i++ {
		s := RandomString(32)
		if results[s] {
			t.Errorf("RandomString produced duplicate: %s", s)
		}
		results[s] = true
	}
}

func TestPrettyPrint(t *testing.T) {
	result := PrettyPrint(map[string]string{"key": "value"})
	if len(result) == 0 {
		t.Error("PrettyPrint returned empty string")
	}
	if !strings.Contains(result, "value") {
		t.Errorf("Expected serialized value, got '%s'", result)
	}
}

func TestGeneratePemKeypair(t *testing.T) {
	keypair := GeneratePemKeypair()

	if keypair == nil {
		t.Fatal("GeneratePemKeypair returned nil")
	}

	if !strings.Contains(keypair.Private, "BEGIN RSA PRIVATE KEY") {
		t.Error("Private key doesn't have PEM header")
	}
	if !strings.Contains(keypair.Private, "END RSA PRIVATE KEY") {
		t.Error("Private key doesn't have PEM footer")
	}

	if !strings.Contains(keypair.Public, "BEGIN PUBLIC KEY") {
		t.Error("Public key doesn't have PEM header")
	}
	if !strings.Contains(keypair.Public, "END PUBLIC KEY") {
		t.Error("Public key doesn't have PEM footer")
	}
}

func TestGeneratePemKeypairUniqueness(t *testing.T) {
	keypair1 := GeneratePemKeypair()
	keypair2 := GeneratePemKeypair()

	if keypair1.Private == keypair2.Private {
		t.Error("Generated keypairs should be different")
	}
	if keypair1.Public == keypair2.Public {
		t.Error("Generated public keys should be different")
	}
}
