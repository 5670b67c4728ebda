package apitoken

import (
	"net/http"
	"testing"
	"time"
)

func TestSignAndVerifyRoundTrip(t *testing.T) {
	signer, err := NewSigner("test-secret", time.Minute)
	if err != nil {
		t.Fatalf("NewSigner() error = %v", err)
	}
	token, err := signer.Sign("platescan")
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	verifier, err := NewVerifier("test-secret")
	if err != nil {
		t.Fatalf("NewVerifier() error = %v", err)
	}
	subject, err := verifier.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if subject != "platescan" {
		t.Fatalf("subject = %q, want platescan", subject)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	signer, _ := NewSigner("secret-a", time.Minute)
	token, err := signer.Sign("platescan")
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	verifier, _ := NewVerifier("secret-b")
	if _, err := verifier.Verify(token); err == nil {
		t.Fatal("Verify() error = nil, want signature failure")
	}
}

func TestBearerToken(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	if _, ok := BearerToken(req); ok {
		t.Fatal("BearerToken() ok = true on missing header")
	}
	req.Header.Set("Authorization", "Basic abc")
	if _, ok := BearerToken(req); ok {
		t.Fatal("BearerToken() ok = true on non-bearer scheme")
	}
	req.Header.Set("Authorization", "Bearer tok-123")
	token, ok := BearerToken(req)
	if !ok || token != "tok-123" {
		t.Fatalf("BearerToken() = %q, %v", token, ok)
	}
}
