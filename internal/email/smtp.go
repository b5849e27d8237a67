package email

import (
	"context"
	"fmt"
	"strings"
	"time"

	"contacts_backend/platform/config"

	gomail "github.com/wneessen/go-mail"
)

const (
	subjectVerification  = "Email Confirmation"
	subjectPasswordReset = "Password Reset Request"
)

// SMTPSender implements Sender over a direct SMTP connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSender builds the configured Sender: an SMTPSender when email is
// enabled, NoopSender otherwise.
func NewSender(cfg config.EmailConfig) Sender {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}
	}
	return &SMTPSender{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUser(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
	}
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

// SendVerificationEmail delivers the address-confirmation email.
func (s *SMTPSender) SendVerificationEmail(ctx context.Context, toEmail, token, baseURL string) error {
	content, err := renderTemplate("verification.html", mailData{
		Title:    "Confirm your email address",
		Heading:  "Confirm your email address",
		Body:     "Thanks for signing up. Click the button below to verify your email address.",
		CTALabel: "Verify email",
		CTAURL:   VerificationURL(baseURL, token),
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectVerification, content)
}

// SendResetEmail delivers the password-reset email.
func (s *SMTPSender) SendResetEmail(ctx context.Context, toEmail, token, baseURL string) error {
	content, err := renderTemplate("password_reset.html", mailData{
		Title:    "Reset your password",
		Heading:  "Reset your password",
		Body:     "We received a request to reset your password. The link below is valid for one hour.",
		CTALabel: "Reset password",
		CTAURL:   ResetURL(baseURL, token),
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectPasswordReset, content)
}

// VerificationURL builds the email-verification link for a token.
func VerificationURL(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/api/users/verify?token=" + token
}

// ResetURL builds the password-reset link for a token.
func ResetURL(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/reset-password?token=" + token
}
