package password

import (
	"errors"
	"strings"
	"testing"
)

func TestHashVerifyRoundTrip(t *testing.T) {
	hashed, err := Hash("Secret123")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hashed == "Secret123" {
		t.Fatal("hash equals the plaintext")
	}
	if !strings.HasPrefix(hashed, "$2") {
		t.Fatalf("expected bcrypt hash, got %q", hashed)
	}

	ok, err := Verify("Secret123", hashed)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatal("correct password did not verify")
	}
}

func TestVerifyWrongPassword(t *testing.T) {
	hashed, err := Hash("Secret123")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	ok, err := Verify("NotTheSecret", hashed)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ok {
		t.Fatal("wrong password verified")
	}
}

func TestHashIsSalted(t *testing.T) {
	first, err := Hash("Secret123")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	second, err := Hash("Secret123")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if first == second {
		t.Fatal("two hashes of the same password are identical")
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	ok, err := Verify("Secret123", "not-a-bcrypt-hash")
	if ok {
		t.Fatal("malformed hash verified")
	}
	if !errors.Is(err, ErrInvalidHash) {
		t.Fatalf("expected ErrInvalidHash, got %v", err)
	}
}
