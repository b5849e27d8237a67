// Package token implements the signed-claims codec used for access and
// email tokens. Encoding and decoding are pure; all authorization decisions
// based on the returned claims belong to the caller.
package token

import (
	"errors"
	"fmt"
	"time"

	"contacts_backend/platform/config"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// ScopeAccess marks short-lived session tokens.
	ScopeAccess = "access_token"
	// ScopeEmail marks tokens embedded in verification and reset emails.
	ScopeEmail = "email_token"

	// EmailTokenTTL is the fixed lifetime of email-scoped tokens.
	EmailTokenTTL = time.Hour
)

var (
	// ErrInvalid indicates a malformed token or a failed signature check.
	ErrInvalid = errors.New("token invalid")
	// ErrExpired indicates a structurally valid token past its exp claim.
	ErrExpired = errors.New("token expired")
)

// Codec signs and verifies claim sets with an HMAC secret.
type Codec struct {
	secret []byte
	method *jwt.SigningMethodHMAC
}

// NewCodec builds a Codec from the configured secret and algorithm.
func NewCodec(cfg config.JWTConfig) (*Codec, error) {
	var method *jwt.SigningMethodHMAC
	switch cfg.GetJWTAlgorithm() {
	case "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("unsupported signing algorithm %q", cfg.GetJWTAlgorithm())
	}

	return &Codec{secret: []byte(cfg.GetJWTSecret()), method: method}, nil
}

// Encode signs the given claims with iat = now, exp = now + ttl and the
// provided scope, returning the compact token string.
func (c *Codec) Encode(data map[string]interface{}, ttl time.Duration, scope string) (string, error) {
	now := time.Now()

	claims := jwt.MapClaims{}
	for key, value := range data {
		claims[key] = value
	}
	claims["iat"] = now.Unix()
	claims["exp"] = now.Add(ttl).Unix()
	claims["scope"] = scope

	return jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
}

// Decode verifies the signature and expiry and returns the claims.
// Expired tokens fail with ErrExpired; anything else that does not verify
// fails with ErrInvalid.
func (c *Codec) Decode(rawToken string) (jwt.MapClaims, error) {
	parsed, err := jwt.Parse(rawToken, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != c.method.Alg() {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalid
	}

	return claims, nil
}

// Scope extracts the scope claim, empty when absent.
func Scope(claims jwt.MapClaims) string {
	scope, _ := claims["scope"].(string)
	return scope
}

// Subject extracts the sub claim, empty when absent.
func Subject(claims jwt.MapClaims) string {
	sub, _ := claims["sub"].(string)
	return sub
}
