// Package email defines the outbound email contract and its SMTP
// implementation. The auth service depends only on the Sender interface;
// production wiring may substitute the async mailer dispatcher.
package email

import "context"

// Sender delivers the two account emails. Implementations receive the raw
// token and the application base URL and are responsible for building the
// user-facing links.
type Sender interface {
	SendVerificationEmail(ctx context.Context, toEmail, token, baseURL string) error
	SendResetEmail(ctx context.Context, toEmail, token, baseURL string) error
}

// NoopSender drops all email. Used when SMTP is not configured.
type NoopSender struct{}

// SendVerificationEmail implements Sender.
func (NoopSender) SendVerificationEmail(ctx context.Context, toEmail, token, baseURL string) error {
	return nil
}

// SendResetEmail implements Sender.
func (NoopSender) SendResetEmail(ctx context.Context, toEmail, token, baseURL string) error {
	return nil
}
