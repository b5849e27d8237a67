// Package service implements the auth orchestrator: token issuance and
// validation, cache-first principal resolution, and the password-reset
// protocol coordinating the token codec, the user cache, the directory,
// the password hasher and the email sender.
package service

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"contacts_backend/internal/auth/identity"
	"contacts_backend/internal/auth/password"
	"contacts_backend/internal/auth/repository"
	"contacts_backend/internal/auth/token"
	"contacts_backend/internal/email"
	"contacts_backend/internal/storage"
	"contacts_backend/platform/apperr"
	"contacts_backend/platform/config"
	"contacts_backend/platform/logger"
)

const (
	msgCredentials  = "could not validate credentials"
	msgUserNotFound = "user not found"
	msgInvalidScope = "invalid scope"
	msgInvalidToken = "invalid token"
	msgResetToken   = "invalid or expired token"
	msgMismatch     = "token mismatch"
	msgBadLogin     = "invalid credentials"
	msgEmailTaken   = "email already registered"
	msgAdminOnly    = "admin access required"
	msgVerified     = "email already verified"
)

// Directory is the user directory collaborator (relational store).
type Directory interface {
	GetByEmail(ctx context.Context, email string) (repository.User, error)
	Create(ctx context.Context, email, hashedPassword string, avatarURL *string) (repository.User, error)
	UpdatePassword(ctx context.Context, email, hashedPassword string) error
	MarkVerified(ctx context.Context, email string) error
	UpdateAvatar(ctx context.Context, email, avatarURL string) error
}

// UserCache is the TTL key-value collaborator holding memoized principals
// and reset-token records.
type UserCache interface {
	GetPrincipal(ctx context.Context, email string) (identity.Principal, bool)
	SetPrincipal(ctx context.Context, principal identity.Principal)
	DeletePrincipal(ctx context.Context, email string) error
	SetResetToken(ctx context.Context, rawToken, email string) error
	GetResetToken(ctx context.Context, rawToken string) (string, bool, error)
	DeleteResetToken(ctx context.Context, rawToken string) error
}

// Service orchestrates the auth core. It holds no mutable state between
// calls beyond injected configuration and collaborator handles.
type Service struct {
	cfg      config.AuthServiceConfig
	codec    *token.Codec
	repo     Directory
	cache    UserCache
	mail     email.Sender
	uploader storage.Uploader
	log      *logger.Logger
}

// New constructs the auth service with explicit dependencies.
func New(cfg config.AuthServiceConfig, codec *token.Codec, repo Directory, userCache UserCache, mail email.Sender, uploader storage.Uploader, log *logger.Logger) *Service {
	return &Service{
		cfg:      cfg,
		codec:    codec,
		repo:     repo,
		cache:    userCache,
		mail:     mail,
		uploader: uploader,
		log:      log,
	}
}

// CreateAccessToken issues an access-scoped token with the configured TTL.
func (s *Service) CreateAccessToken(data map[string]interface{}) (string, error) {
	return s.codec.Encode(data, s.cfg.GetAccessTokenTTL(), token.ScopeAccess)
}

// CreateEmailToken issues an email-scoped token with the fixed 1h TTL.
func (s *Service) CreateEmailToken(data map[string]interface{}) (string, error) {
	return s.codec.Encode(data, token.EmailTokenTTL, token.ScopeEmail)
}

// ResolveCurrentUser validates a bearer token and resolves its subject to a
// principal, cache-first with a directory fallback. The cache write on a
// miss is best-effort; a failure there is logged, never fatal.
//
// Unlike the historical behavior, the token's scope must be access_token:
// email tokens are never accepted as session credentials.
func (s *Service) ResolveCurrentUser(ctx context.Context, rawToken string) (identity.Principal, error) {
	claims, err := s.codec.Decode(rawToken)
	if err != nil {
		return identity.Principal{}, apperr.Unauthorized(msgCredentials)
	}

	if token.Scope(claims) != token.ScopeAccess {
		return identity.Principal{}, apperr.Unauthorized(msgCredentials)
	}

	subject := token.Subject(claims)
	if subject == "" {
		return identity.Principal{}, apperr.Unauthorized(msgCredentials)
	}

	if principal, ok := s.cache.GetPrincipal(ctx, subject); ok {
		return principal, nil
	}

	user, err := s.repo.GetByEmail(ctx, subject)
	if errors.Is(err, repository.ErrNotFound) {
		return identity.Principal{}, apperr.NotFound(msgUserNotFound)
	}
	if err != nil {
		return identity.Principal{}, err
	}

	principal, err := user.Principal()
	if err != nil {
		return identity.Principal{}, err
	}

	s.cache.SetPrincipal(ctx, principal)

	return principal, nil
}

// GetEmailFromToken decodes an email-scoped token and returns its subject.
// Structurally invalid (or expired) tokens are unprocessable; a valid token
// with the wrong scope is an authentication failure.
func (s *Service) GetEmailFromToken(rawToken string) (string, error) {
	claims, err := s.codec.Decode(rawToken)
	if err != nil {
		return "", apperr.Unprocessable(msgInvalidToken)
	}

	if token.Scope(claims) != token.ScopeEmail {
		return "", apperr.Unauthorized(msgInvalidScope)
	}

	subject := token.Subject(claims)
	if subject == "" {
		return "", apperr.Unprocessable(msgInvalidToken)
	}

	return subject, nil
}

// Register creates a new unverified user and queues the verification email.
// Email delivery is best-effort here: the account exists either way.
func (s *Service) Register(ctx context.Context, userEmail, plainPassword string) (identity.Principal, error) {
	hashed, err := password.Hash(plainPassword)
	if err != nil {
		return identity.Principal{}, err
	}

	avatar := gravatarURL(userEmail)
	user, err := s.repo.Create(ctx, userEmail, hashed, &avatar)
	if errors.Is(err, repository.ErrEmailTaken) {
		return identity.Principal{}, apperr.Conflict(msgEmailTaken)
	}
	if err != nil {
		return identity.Principal{}, err
	}

	principal, err := user.Principal()
	if err != nil {
		return identity.Principal{}, err
	}

	emailToken, err := s.CreateEmailToken(map[string]interface{}{"sub": userEmail})
	if err != nil {
		return identity.Principal{}, err
	}
	if err := s.mail.SendVerificationEmail(ctx, userEmail, emailToken, s.cfg.GetAppBaseURL()); err != nil {
		s.log.Error("failed to queue verification email", "email", userEmail, "error", err.Error())
	}

	s.log.AuthEvent("register", userEmail, true, "")

	return principal, nil
}

// Login verifies credentials and issues an access token.
func (s *Service) Login(ctx context.Context, userEmail, plainPassword string) (string, error) {
	user, err := s.repo.GetByEmail(ctx, userEmail)
	if errors.Is(err, repository.ErrNotFound) {
		s.log.AuthEvent("login", userEmail, false, "unknown user")
		return "", apperr.Unauthorized(msgBadLogin)
	}
	if err != nil {
		return "", err
	}

	match, err := password.Verify(plainPassword, user.HashedPassword)
	if err != nil {
		return "", err
	}
	if !match {
		s.log.AuthEvent("login", userEmail, false, "bad password")
		return "", apperr.Unauthorized(msgBadLogin)
	}

	accessToken, err := s.CreateAccessToken(map[string]interface{}{"sub": user.Email})
	if err != nil {
		return "", err
	}

	s.log.AuthEvent("login", userEmail, true, "")

	return accessToken, nil
}

// RequestVerificationEmail re-sends the address-confirmation email.
func (s *Service) RequestVerificationEmail(ctx context.Context, userEmail string) error {
	user, err := s.repo.GetByEmail(ctx, userEmail)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(msgUserNotFound)
	}
	if err != nil {
		return err
	}

	if user.Verified {
		return apperr.BadRequest(msgVerified)
	}

	emailToken, err := s.CreateEmailToken(map[string]interface{}{"sub": user.Email})
	if err != nil {
		return err
	}

	return s.mail.SendVerificationEmail(ctx, user.Email, emailToken, s.cfg.GetAppBaseURL())
}

// VerifyEmail confirms the address carried by an email-scoped token.
// It reports whether the address was already verified; the flag itself only
// ever flips to true.
func (s *Service) VerifyEmail(ctx context.Context, rawToken string) (bool, error) {
	userEmail, err := s.GetEmailFromToken(rawToken)
	if err != nil {
		return false, err
	}

	user, err := s.repo.GetByEmail(ctx, userEmail)
	if errors.Is(err, repository.ErrNotFound) {
		return false, apperr.NotFound(msgUserNotFound)
	}
	if err != nil {
		return false, err
	}

	if user.Verified {
		return true, nil
	}

	if err := s.repo.MarkVerified(ctx, userEmail); err != nil {
		return false, err
	}

	if err := s.cache.DeletePrincipal(ctx, userEmail); err != nil {
		s.log.CacheError("delete_principal", userEmail, err)
	}

	s.log.AuthEvent("verify_email", userEmail, true, "")

	return false, nil
}

// RequestPasswordReset starts the reset protocol: the user must exist, an
// email token is issued, its proof-of-issuance record is stored in the
// cache, and the reset email is sent.
//
// The cache write is deliberately fail-open: if the record cannot be stored
// the email still goes out, and the subsequent reset fails with
// "invalid or expired token". The email send itself is a hard failure.
func (s *Service) RequestPasswordReset(ctx context.Context, userEmail string) error {
	if _, err := s.repo.GetByEmail(ctx, userEmail); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound(msgUserNotFound)
		}
		return err
	}

	resetToken, err := s.CreateEmailToken(map[string]interface{}{"sub": userEmail})
	if err != nil {
		return err
	}

	if err := s.cache.SetResetToken(ctx, resetToken, userEmail); err != nil {
		s.log.CacheError("set_reset_token", userEmail, err)
	}

	return s.mail.SendResetEmail(ctx, userEmail, resetToken, s.cfg.GetAppBaseURL())
}

// ResetPassword consumes a reset token and replaces the user's password.
// Steps are strictly ordered: the cache record is checked before the token
// is decoded, all validation precedes the password write, and the record is
// deleted only after the write commits. A crash between the write and the
// delete leaves the token redeemable, which is idempotent-safe.
func (s *Service) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	cachedEmail, ok, err := s.cache.GetResetToken(ctx, rawToken)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Unauthorized(msgResetToken)
	}

	emailFromToken, err := s.GetEmailFromToken(rawToken)
	if err != nil {
		return err
	}

	if emailFromToken != cachedEmail {
		return apperr.Unauthorized(msgMismatch)
	}

	if _, err := s.repo.GetByEmail(ctx, emailFromToken); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound(msgUserNotFound)
		}
		return err
	}

	hashed, err := password.Hash(newPassword)
	if err != nil {
		return err
	}

	if err := s.repo.UpdatePassword(ctx, emailFromToken, hashed); err != nil {
		return err
	}

	if err := s.cache.DeleteResetToken(ctx, rawToken); err != nil {
		s.log.CacheError("delete_reset_token", emailFromToken, err)
	}

	s.log.AuthEvent("password_reset", emailFromToken, true, "")

	return nil
}

// UpdateAvatar uploads the new avatar, persists its URL and invalidates the
// cached principal, returning the refreshed principal.
func (s *Service) UpdateAvatar(ctx context.Context, userEmail string, file io.Reader, size int64, contentType string) (identity.Principal, error) {
	url, err := s.uploader.UploadAvatar(ctx, userEmail, file, size, contentType)
	if err != nil {
		return identity.Principal{}, apperr.Wrap(apperr.KindInternal, "failed to upload avatar", err)
	}

	if err := s.repo.UpdateAvatar(ctx, userEmail, url); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return identity.Principal{}, apperr.NotFound(msgUserNotFound)
		}
		return identity.Principal{}, err
	}

	if err := s.cache.DeletePrincipal(ctx, userEmail); err != nil {
		s.log.CacheError("delete_principal", userEmail, err)
	}

	user, err := s.repo.GetByEmail(ctx, userEmail)
	if err != nil {
		return identity.Principal{}, err
	}

	return user.Principal()
}

// GetCurrentAdmin is a pure authorization check: non-admin principals are
// rejected, admins pass through unchanged.
func (s *Service) GetCurrentAdmin(principal identity.Principal) (identity.Principal, error) {
	if principal.Role != identity.RoleAdmin {
		return identity.Principal{}, apperr.Forbidden(msgAdminOnly)
	}
	return principal, nil
}

// gravatarURL derives the default avatar for an email address.
func gravatarURL(userEmail string) string {
	normalized := strings.ToLower(strings.TrimSpace(userEmail))
	sum := md5.Sum([]byte(normalized))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%s", hex.EncodeToString(sum[:]))
}

var _ Directory = (*repository.Repository)(nil)
