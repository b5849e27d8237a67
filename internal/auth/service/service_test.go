package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	authcache "contacts_backend/internal/auth/cache"
	"contacts_backend/internal/auth/identity"
	"contacts_backend/internal/auth/password"
	"contacts_backend/internal/auth/repository"
	"contacts_backend/internal/auth/token"
	"contacts_backend/platform/apperr"
	"contacts_backend/platform/logger"
)

type testConfig struct{}

func (testConfig) GetJWTSecret() string             { return "test-secret" }
func (testConfig) GetJWTAlgorithm() string          { return "HS256" }
func (testConfig) GetAccessTokenTTL() time.Duration { return 15 * time.Minute }
func (testConfig) GetAppBaseURL() string            { return "http://localhost:8080" }

// fakeDirectory is an in-memory Directory keyed by email.
type fakeDirectory struct {
	users  map[string]repository.User
	nextID int64
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{users: make(map[string]repository.User), nextID: 1}
}

func (d *fakeDirectory) GetByEmail(_ context.Context, email string) (repository.User, error) {
	user, ok := d.users[email]
	if !ok {
		return repository.User{}, repository.ErrNotFound
	}
	return user, nil
}

func (d *fakeDirectory) Create(_ context.Context, email, hashedPassword string, avatarURL *string) (repository.User, error) {
	if _, ok := d.users[email]; ok {
		return repository.User{}, repository.ErrEmailTaken
	}
	user := repository.User{
		ID:             d.nextID,
		Email:          email,
		HashedPassword: hashedPassword,
		AvatarURL:      avatarURL,
		Role:           string(identity.RoleUser),
	}
	d.nextID++
	d.users[email] = user
	return user, nil
}

func (d *fakeDirectory) UpdatePassword(_ context.Context, email, hashedPassword string) error {
	user, ok := d.users[email]
	if !ok {
		return repository.ErrNotFound
	}
	user.HashedPassword = hashedPassword
	d.users[email] = user
	return nil
}

func (d *fakeDirectory) MarkVerified(_ context.Context, email string) error {
	user, ok := d.users[email]
	if !ok {
		return repository.ErrNotFound
	}
	user.Verified = true
	d.users[email] = user
	return nil
}

func (d *fakeDirectory) UpdateAvatar(_ context.Context, email, avatarURL string) error {
	user, ok := d.users[email]
	if !ok {
		return repository.ErrNotFound
	}
	user.AvatarURL = &avatarURL
	d.users[email] = user
	return nil
}

// recordingSender captures sent emails; failSend makes sends fail.
type recordingSender struct {
	verifications []string
	resets        []string
	resetTokens   []string
	failSend      bool
}

func (s *recordingSender) SendVerificationEmail(_ context.Context, toEmail, _, _ string) error {
	if s.failSend {
		return errors.New("smtp unreachable")
	}
	s.verifications = append(s.verifications, toEmail)
	return nil
}

func (s *recordingSender) SendResetEmail(_ context.Context, toEmail, tok, _ string) error {
	if s.failSend {
		return errors.New("smtp unreachable")
	}
	s.resets = append(s.resets, toEmail)
	s.resetTokens = append(s.resetTokens, tok)
	return nil
}

// fakeUploader returns a fixed URL for any upload.
type fakeUploader struct {
	url string
	err error
}

func (u fakeUploader) UploadAvatar(context.Context, string, io.Reader, int64, string) (string, error) {
	return u.url, u.err
}

type fixture struct {
	svc    *Service
	dir    *fakeDirectory
	sender *recordingSender
	cache  *authcache.Cache
	codec  *token.Codec
	redis  *miniredis.Miniredis
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	log := logger.New("test")
	codec, err := token.NewCodec(testConfig{})
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	dir := newFakeDirectory()
	sender := &recordingSender{}
	userCache := authcache.New(rdb, log)
	svc := New(testConfig{}, codec, dir, userCache, sender, fakeUploader{url: "https://cdn.example.com/avatars/new.png"}, log)

	return &fixture{svc: svc, dir: dir, sender: sender, cache: userCache, codec: codec, redis: mr}
}

func (f *fixture) register(t *testing.T, email, pw string) identity.Principal {
	t.Helper()
	principal, err := f.svc.Register(context.Background(), email, pw)
	if err != nil {
		t.Fatalf("Register(%s): %v", email, err)
	}
	return principal
}

func kindOf(t *testing.T, err error) apperr.Kind {
	t.Helper()
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperr.Error, got %T: %v", err, err)
	}
	return appErr.Kind
}

func TestRegisterAndResolveCurrentUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	registered := f.register(t, "alice@example.com", "Secret123")
	if registered.Email != "alice@example.com" || registered.Role != identity.RoleUser {
		t.Fatalf("unexpected principal: %+v", registered)
	}
	if registered.AvatarURL == nil || !strings.Contains(*registered.AvatarURL, "gravatar.com/avatar/") {
		t.Fatalf("expected gravatar avatar, got %v", registered.AvatarURL)
	}
	if len(f.sender.verifications) != 1 {
		t.Fatalf("expected 1 verification email, sent %d", len(f.sender.verifications))
	}

	accessToken, err := f.svc.CreateAccessToken(map[string]interface{}{"sub": "alice@example.com"})
	if err != nil {
		t.Fatalf("CreateAccessToken: %v", err)
	}

	resolved, err := f.svc.ResolveCurrentUser(ctx, accessToken)
	if err != nil {
		t.Fatalf("ResolveCurrentUser: %v", err)
	}
	if resolved.Email != "alice@example.com" {
		t.Fatalf("resolved email = %q", resolved.Email)
	}

	// resolution memoizes the principal
	if !f.redis.Exists("get_user_from_cache:alice@example.com") {
		t.Fatal("expected principal to be cached after resolution")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)

	f.register(t, "alice@example.com", "Secret123")
	_, err := f.svc.Register(context.Background(), "alice@example.com", "Other456")
	if kindOf(t, err) != apperr.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRegisterSucceedsWhenEmailSendFails(t *testing.T) {
	f := newFixture(t)
	f.sender.failSend = true

	if _, err := f.svc.Register(context.Background(), "alice@example.com", "Secret123"); err != nil {
		t.Fatalf("Register should tolerate email failure: %v", err)
	}
}

func TestResolveCurrentUserServedFromCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.register(t, "alice@example.com", "Secret123")
	accessToken, _ := f.svc.CreateAccessToken(map[string]interface{}{"sub": "alice@example.com"})

	if _, err := f.svc.ResolveCurrentUser(ctx, accessToken); err != nil {
		t.Fatalf("first resolution: %v", err)
	}

	// remove the user behind the cache; a hit must not touch the directory
	delete(f.dir.users, "alice@example.com")

	resolved, err := f.svc.ResolveCurrentUser(ctx, accessToken)
	if err != nil {
		t.Fatalf("cached resolution: %v", err)
	}
	if resolved.Email != "alice@example.com" {
		t.Fatalf("resolved email = %q", resolved.Email)
	}
}

func TestResolveCurrentUserRejectsBadTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice@example.com", "Secret123")

	// garbage
	if _, err := f.svc.ResolveCurrentUser(ctx, "garbage"); kindOf(t, err) != apperr.KindUnauthorized {
		t.Fatalf("expected unauthorized for garbage token, got %v", err)
	}

	// email-scoped token must not work as a session credential
	emailToken, err := f.svc.CreateEmailToken(map[string]interface{}{"sub": "alice@example.com"})
	if err != nil {
		t.Fatalf("CreateEmailToken: %v", err)
	}
	if _, err := f.svc.ResolveCurrentUser(ctx, emailToken); kindOf(t, err) != apperr.KindUnauthorized {
		t.Fatalf("expected unauthorized for email-scoped token, got %v", err)
	}

	// missing subject
	noSub, err := f.svc.CreateAccessToken(map[string]interface{}{})
	if err != nil {
		t.Fatalf("CreateAccessToken: %v", err)
	}
	if _, err := f.svc.ResolveCurrentUser(ctx, noSub); kindOf(t, err) != apperr.KindUnauthorized {
		t.Fatalf("expected unauthorized for token without subject, got %v", err)
	}
}

func TestResolveCurrentUserUnknownSubject(t *testing.T) {
	f := newFixture(t)

	accessToken, _ := f.svc.CreateAccessToken(map[string]interface{}{"sub": "ghost@example.com"})
	_, err := f.svc.ResolveCurrentUser(context.Background(), accessToken)
	if kindOf(t, err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGetEmailFromToken(t *testing.T) {
	f := newFixture(t)

	emailToken, err := f.svc.CreateEmailToken(map[string]interface{}{"sub": "alice@example.com"})
	if err != nil {
		t.Fatalf("CreateEmailToken: %v", err)
	}

	email, err := f.svc.GetEmailFromToken(emailToken)
	if err != nil {
		t.Fatalf("GetEmailFromToken: %v", err)
	}
	if email != "alice@example.com" {
		t.Fatalf("email = %q", email)
	}

	// undecodable token is unprocessable, not unauthorized
	if _, err := f.svc.GetEmailFromToken("garbage"); kindOf(t, err) != apperr.KindUnprocessable {
		t.Fatalf("expected unprocessable for garbage, got %v", err)
	}

	// well-formed access token carries the wrong scope
	accessToken, _ := f.svc.CreateAccessToken(map[string]interface{}{"sub": "alice@example.com"})
	if _, err := f.svc.GetEmailFromToken(accessToken); kindOf(t, err) != apperr.KindUnauthorized {
		t.Fatalf("expected unauthorized for wrong scope, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice@example.com", "Secret123")

	accessToken, err := f.svc.Login(ctx, "alice@example.com", "Secret123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	claims, err := f.codec.Decode(accessToken)
	if err != nil {
		t.Fatalf("decode issued token: %v", err)
	}
	if token.Scope(claims) != token.ScopeAccess || token.Subject(claims) != "alice@example.com" {
		t.Fatalf("unexpected claims: %v", claims)
	}

	if _, err := f.svc.Login(ctx, "alice@example.com", "WrongPass"); kindOf(t, err) != apperr.KindUnauthorized {
		t.Fatalf("expected unauthorized for wrong password, got %v", err)
	}
	if _, err := f.svc.Login(ctx, "ghost@example.com", "Secret123"); kindOf(t, err) != apperr.KindUnauthorized {
		t.Fatalf("expected unauthorized for unknown user, got %v", err)
	}
}

func TestVerifyEmailFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice@example.com", "Secret123")

	emailToken, _ := f.svc.CreateEmailToken(map[string]interface{}{"sub": "alice@example.com"})

	already, err := f.svc.VerifyEmail(ctx, emailToken)
	if err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}
	if already {
		t.Fatal("first verification reported already-verified")
	}
	if !f.dir.users["alice@example.com"].Verified {
		t.Fatal("user not marked verified")
	}

	already, err = f.svc.VerifyEmail(ctx, emailToken)
	if err != nil {
		t.Fatalf("second VerifyEmail: %v", err)
	}
	if !already {
		t.Fatal("second verification should report already-verified")
	}
}

func TestRequestVerificationEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice@example.com", "Secret123")
	f.sender.verifications = nil

	if err := f.svc.RequestVerificationEmail(ctx, "alice@example.com"); err != nil {
		t.Fatalf("RequestVerificationEmail: %v", err)
	}
	if len(f.sender.verifications) != 1 {
		t.Fatalf("expected 1 verification email, sent %d", len(f.sender.verifications))
	}

	if err := f.svc.RequestVerificationEmail(ctx, "ghost@example.com"); kindOf(t, err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}

	emailToken, _ := f.svc.CreateEmailToken(map[string]interface{}{"sub": "alice@example.com"})
	if _, err := f.svc.VerifyEmail(ctx, emailToken); err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}
	if err := f.svc.RequestVerificationEmail(ctx, "alice@example.com"); kindOf(t, err) != apperr.KindBadRequest {
		t.Fatalf("expected bad request for verified user, got %v", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice@example.com", "Secret123")

	if err := f.svc.RequestPasswordReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	if len(f.sender.resetTokens) != 1 {
		t.Fatalf("expected 1 reset email, sent %d", len(f.sender.resetTokens))
	}
	resetToken := f.sender.resetTokens[0]

	if !f.redis.Exists("reset_token:" + resetToken) {
		t.Fatal("expected reset record in cache")
	}

	if err := f.svc.ResetPassword(ctx, resetToken, "NewPass456"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}

	ok, err := password.Verify("NewPass456", f.dir.users["alice@example.com"].HashedPassword)
	if err != nil || !ok {
		t.Fatalf("new password does not verify: ok=%v err=%v", ok, err)
	}

	if f.redis.Exists("reset_token:" + resetToken) {
		t.Fatal("reset record should be consumed")
	}
}

func TestPasswordResetSingleUse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice@example.com", "Secret123")

	if err := f.svc.RequestPasswordReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	resetToken := f.sender.resetTokens[0]

	if err := f.svc.ResetPassword(ctx, resetToken, "NewPass456"); err != nil {
		t.Fatalf("first ResetPassword: %v", err)
	}

	err := f.svc.ResetPassword(ctx, resetToken, "Again789x")
	if kindOf(t, err) != apperr.KindUnauthorized {
		t.Fatalf("expected unauthorized on reuse, got %v", err)
	}
	if !strings.Contains(err.Error(), "invalid or expired token") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestPasswordResetTokenMismatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice@example.com", "Secret123")
	f.register(t, "mallory@example.com", "Secret123")

	// a token issued for mallory with a cache record claiming alice
	emailToken, err := f.svc.CreateEmailToken(map[string]interface{}{"sub": "mallory@example.com"})
	if err != nil {
		t.Fatalf("CreateEmailToken: %v", err)
	}
	f.redis.Set("reset_token:"+emailToken, "alice@example.com")

	err = f.svc.ResetPassword(ctx, emailToken, "NewPass456")
	if kindOf(t, err) != apperr.KindUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if !strings.Contains(err.Error(), "token mismatch") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestPasswordResetUnknownToken(t *testing.T) {
	f := newFixture(t)

	err := f.svc.ResetPassword(context.Background(), "never-issued", "NewPass456")
	if kindOf(t, err) != apperr.KindUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestRequestPasswordResetUnknownUser(t *testing.T) {
	f := newFixture(t)

	err := f.svc.RequestPasswordReset(context.Background(), "ghost@example.com")
	if kindOf(t, err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(f.sender.resets) != 0 {
		t.Fatal("no reset email should be sent for unknown users")
	}
}

func TestRequestPasswordResetEmailSendFailureIsFatal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice@example.com", "Secret123")
	f.sender.failSend = true

	if err := f.svc.RequestPasswordReset(ctx, "alice@example.com"); err == nil {
		t.Fatal("expected error when reset email cannot be sent")
	}
}

func TestUpdateAvatar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice@example.com", "Secret123")

	// prime the cache so invalidation is observable
	accessToken, _ := f.svc.CreateAccessToken(map[string]interface{}{"sub": "alice@example.com"})
	if _, err := f.svc.ResolveCurrentUser(ctx, accessToken); err != nil {
		t.Fatalf("ResolveCurrentUser: %v", err)
	}

	updated, err := f.svc.UpdateAvatar(ctx, "alice@example.com", strings.NewReader("png-bytes"), 9, "image/png")
	if err != nil {
		t.Fatalf("UpdateAvatar: %v", err)
	}
	if updated.AvatarURL == nil || *updated.AvatarURL != "https://cdn.example.com/avatars/new.png" {
		t.Fatalf("avatar = %v", updated.AvatarURL)
	}
	if f.redis.Exists("get_user_from_cache:alice@example.com") {
		t.Fatal("cached principal should be invalidated after avatar update")
	}
}

func TestGetCurrentAdmin(t *testing.T) {
	f := newFixture(t)

	admin := identity.Principal{ID: 1, Email: "root@example.com", Role: identity.RoleAdmin}
	got, err := f.svc.GetCurrentAdmin(admin)
	if err != nil {
		t.Fatalf("GetCurrentAdmin: %v", err)
	}
	if got != admin {
		t.Fatalf("admin principal changed: %+v", got)
	}

	_, err = f.svc.GetCurrentAdmin(identity.Principal{ID: 2, Email: "bob@example.com", Role: identity.RoleUser})
	if kindOf(t, err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}
