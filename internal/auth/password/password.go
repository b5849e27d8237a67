// Package password wraps bcrypt credential hashing for the auth domain.
package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidHash indicates the stored hash is not a valid bcrypt token.
var ErrInvalidHash = errors.New("invalid password hash")

// Hash generates a salted bcrypt hash from a plaintext password.
func Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether plain matches the stored bcrypt hash.
// The comparison is constant-time within the underlying primitive.
// It returns ErrInvalidHash when the stored value is not a bcrypt token.
func Verify(plain, hashed string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, ErrInvalidHash
	}
}
