// ABOUTME: Tests for anti-forgery request token minting and verification
// ABOUTME: Covers round trips, expiry, tampering and wrong-secret rejection

package httpapi

import (
	"errors"
	"testing"
	"time"
)

func TestRequestToken_RoundTrip(t *testing.T) {
	src := NewRequestTokenSource([]byte("test-secret"), time.Hour)

	tok, err := src.NewToken()
	if err != nil {
		t.Fatalf("NewToken() error = %v", err)
	}
	if tok == "" {
		t.Fatal("NewToken() returned empty token")
	}

	if err := src.Verify(tok); err != nil {
		t.Errorf("Verify() error = %v", err)
	}
}

func TestRequestToken_Unique(t *testing.T) {
	src := NewRequestTokenSource([]byte("test-secret"), time.Hour)

	a, err := src.NewToken()
	if err != nil {
		t.Fatalf("NewToken() error = %v", err)
	}
	b, err := src.NewToken()
	if err != nil {
		t.Fatalf("NewToken() error = %v", err)
	}
	if a == b {
		t.Error("two minted tokens should differ")
	}
}

func TestRequestToken_Expired(t *testing.T) {
	src := NewRequestTokenSource([]byte("test-secret"), -time.Minute)

	tok, err := src.NewToken()
	if err != nil {
		t.Fatalf("NewToken() error = %v", err)
	}

	err = src.Verify(tok)
	if !errors.Is(err, ErrExpiredToken) {
		t.Errorf("Verify() error = %v, want ErrExpiredToken", err)
	}
}

func TestRequestToken_WrongSecret(t *testing.T) {
	src := NewRequestTokenSource([]byte("test-secret"), time.Hour)
	other := NewRequestTokenSource([]byte("other-secret"), time.Hour)

	tok, err := src.NewToken()
	if err != nil {
		t.Fatalf("NewToken() error = %v", err)
	}

	err = other.Verify(tok)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
	}
}

func TestRequestToken_Garbage(t *testing.T) {
	src := NewRequestTokenSource([]byte("test-secret"), time.Hour)

	for _, tok := range []string{"", "not-a-token", "a.b.c"} {
		if err := src.Verify(tok); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Verify(%q) error = %v, want ErrInvalidToken", tok, err)
		}
	}
}

func TestRequestToken_DefaultTTL(t *testing.T) {
	src := NewRequestTokenSource([]byte("test-secret"), 0)

	tok, err := src.NewToken()
	if err != nil {
		t.Fatalf("NewToken() error = %v", err)
	}
	if err := src.Verify(tok); err != nil {
		t.Errorf("Verify() error = %v, want valid with fallback ttl", err)
	}
}
