package token

import (
	"errors"
	"testing"
	"time"
)

type codecConfig struct {
	secret    string
	algorithm string
}

func (c codecConfig) GetJWTSecret() string    { return c.secret }
func (c codecConfig) GetJWTAlgorithm() string { return c.algorithm }

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	codec, err := NewCodec(codecConfig{secret: "test-secret", algorithm: "HS256"})
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return codec
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	codec := newTestCodec(t)

	raw, err := codec.Encode(map[string]interface{}{"sub": "alice@example.com"}, time.Minute, ScopeAccess)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	claims, err := codec.Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if Subject(claims) != "alice@example.com" {
		t.Fatalf("sub = %q, want alice@example.com", Subject(claims))
	}
	if Scope(claims) != ScopeAccess {
		t.Fatalf("scope = %q, want %q", Scope(claims), ScopeAccess)
	}
	if _, ok := claims["iat"]; !ok {
		t.Fatal("iat claim missing")
	}
	if _, ok := claims["exp"]; !ok {
		t.Fatal("exp claim missing")
	}
}

func TestDecodeExpired(t *testing.T) {
	codec := newTestCodec(t)

	raw, err := codec.Encode(map[string]interface{}{"sub": "alice@example.com"}, -time.Minute, ScopeAccess)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	if _, err := codec.Decode(raw); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestDecodeWrongSecret(t *testing.T) {
	codec := newTestCodec(t)
	other, err := NewCodec(codecConfig{secret: "different-secret", algorithm: "HS256"})
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	raw, err := other.Encode(map[string]interface{}{"sub": "alice@example.com"}, time.Minute, ScopeAccess)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	if _, err := codec.Decode(raw); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestDecodeGarbage(t *testing.T) {
	codec := newTestCodec(t)

	if _, err := codec.Decode("not.a.token"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestDecodeAlgorithmMismatch(t *testing.T) {
	hs256 := newTestCodec(t)
	hs512, err := NewCodec(codecConfig{secret: "test-secret", algorithm: "HS512"})
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	raw, err := hs512.Encode(map[string]interface{}{"sub": "alice@example.com"}, time.Minute, ScopeAccess)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	if _, err := hs256.Decode(raw); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestNewCodecRejectsUnknownAlgorithm(t *testing.T) {
	if _, err := NewCodec(codecConfig{secret: "s", algorithm: "RS256"}); err == nil {
		t.Fatal("expected error for unsupported algorithm")
	}
}

func TestScopesAreDistinct(t *testing.T) {
	codec := newTestCodec(t)

	raw, err := codec.Encode(map[string]interface{}{"sub": "alice@example.com"}, EmailTokenTTL, ScopeEmail)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	claims, err := codec.Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if Scope(claims) != "email_token" {
		t.Fatalf("scope = %q, want email_token", Scope(claims))
	}
}
