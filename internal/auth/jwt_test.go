package auth

import (
	"errors"
	"testing"
	"time"
)

func TestSignAndParseBearer(t *testing.T) {
	v := NewVerifier("test-secret")

	raw, err := v.Sign("user-42", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	claims, err := v.ParseBearer("Bearer " + raw)
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != "user-42" {
		t.Fatalf("userId=%q, want user-42", claims.UserID)
	}
}

func TestMissingToken(t *testing.T) {
	v := NewVerifier("test-secret")
	_, err := v.ParseBearer("")
	if !errors.Is(err, ErrMissingToken) {
		t.Fatalf("err=%v, want ErrMissingToken", err)
	}
}

func TestMalformedHeader(t *testing.T) {
	v := NewVerifier("test-secret")
	_, err := v.ParseBearer("not-a-bearer-token")
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err=%v, want ErrInvalidToken", err)
	}
}

func TestWrongSecretRejected(t *testing.T) {
	v := NewVerifier("test-secret")
	raw, err := v.Sign("user-42", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	other := NewVerifier("other-secret")
	if _, err := other.ParseBearer("Bearer " + raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err=%v, want ErrInvalidToken", err)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	v := NewVerifier("test-secret")
	raw, err := v.Sign("user-42", -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := v.ParseBearer("Bearer " + raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err=%v, want ErrInvalidToken", err)
	}
}
