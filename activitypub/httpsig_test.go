package activitypub

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"testing"
	"time"
)

func generateTestKeyPair(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("Failed to generate key pair: %v", err)
	}
	return privateKey
}

func privateKeyToPEM(key *rsa.PrivateKey) string {
	return string(pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}))
}

func publicKeyToPEM(t *testing.T, key *rsa.PublicKey) string {
	t.Helper()
	keyBytes, err := x509.MarshalPKIXPublicKey(key)
	if err != nil {
		t.Fatalf("Failed to marshal public key: %v", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: keyBytes,
	}))
}

func TestParsePrivateKey(t *testing.T) {
	privateKey := generateTestKeyPair(t)

	parsed, err := ParsePrivateKey(privateKeyToPEM(privateKey))
	if err != nil {
		t.Fatalf("ParsePrivateKey failed: %v", err)
	}
	if parsed.N.Cmp(privateKey.N) != 0 {
		t.Error("Parsed key doesn't match original")
	}
}

func TestParsePrivateKeyInvalidPEM(t *testing.T) {
	_, err := ParsePrivateKey("not a valid PEM")
	if err == nil {
		t.Error("Expected error for invalid PEM")
	}
}

func TestParsePublicKey(t *testing.T) {
	privateKey := generateTestKeyPair(t)

	parsed, err := ParsePublicKey(publicKeyToPEM(t, &privateKey.PublicKey))
	if err != nil {
		t.Fatalf("ParsePublicKey failed: %v", err)
	}
	if parsed.N.Cmp(privateKey.PublicKey.N) != 0 {
		t.Error("Parsed key doesn't match original")
	}
}

func TestParsePublicKeyInvalidPEM(t *testing.T) {
	_, err := ParsePublicKey("garbage")
	if err == nil {
		t.Error("Expected error for invalid PEM")
	}
}

func TestSignAndVerifyRequest(t *testing.T) {
	privateKey := generateTestKeyPair(t)
	keyId := "https://example.com/users/alice#main-key"

	body := []byte(`{"type":"Follow"}`)
	req, err := http.NewRequest("POST", "https://remote.example/inbox", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	req.Header.Set("Date", time.Now().UTC().Format(http.TimeFormat))
	req.Header.Set("Host", "remote.example")

	if err := SignRequest(req, privateKey, keyId); err != nil {
		t.Fatalf("SignRequest failed: %v", err)
	}
	if req.Header.Get("Signature") == "" {
		t.Fatal("Expected Signature header set")
	}

	actorURI, err := VerifyRequest(req, publicKeyToPEM(t, &privateKey.PublicKey))
	if err != nil {
		t.Fatalf("VerifyRequest failed: %v", err)
	}
	if actorURI != "https://example.com/users/alice" {
		t.Errorf("Expected actor URI without fragment, got '%s'", actorURI)
	}
}

func TestVerifyRequestWrongKey(t *testing.T) {
	privateKey := generateTestKeyPair(t)
	otherKey := generateTestKeyPair(t)

	req, _ := http.NewRequest("POST", "https://remote.example/inbox", bytes.NewReader([]byte("{}")))
	req.Header.Set("Date", time.Now().UTC().Format(http.TimeFormat))

	if err := SignRequest(req, privateKey, "https://example.com/users/alice#main-key"); err != nil {
		t.Fatalf("SignRequest failed: %v", err)
	}

	if _, err := VerifyRequest(req, publicKeyToPEM(t, &otherKey.PublicKey)); err == nil {
		t.Error("Expected verification to fail with the wrong key")
	}
}
