package email

import (
	"strings"
	"testing"
)

func TestRenderTemplates(t *testing.T) {
	tests := []struct {
		name string
		data mailData
	}{
		{"verification.html", mailData{
			Title:    "Confirm your email address",
			Heading:  "Confirm your email address",
			Body:     "Click the button below.",
			CTALabel: "Verify email",
			CTAURL:   "https://app.example.com/api/users/verify?token=abc",
		}},
		{"password_reset.html", mailData{
			Title:    "Reset your password",
			Heading:  "Reset your password",
			Body:     "The link below is valid for one hour.",
			CTALabel: "Reset password",
			CTAURL:   "https://app.example.com/reset-password?token=abc",
		}},
	}

	for _, tt := range tests {
		content, err := renderTemplate(tt.name, tt.data)
		if err != nil {
			t.Fatalf("%s: render: %v", tt.name, err)
		}
		for _, want := range []string{tt.data.Heading, tt.data.Body, tt.data.CTALabel, tt.data.CTAURL} {
			if !strings.Contains(content, want) {
				t.Fatalf("%s: output missing %q", tt.name, want)
			}
		}
	}
}

func TestRenderTemplateUnknownName(t *testing.T) {
	if _, err := renderTemplate("no-such-template.html", mailData{}); err == nil {
		t.Fatal("expected error for unknown template")
	}
}

func TestLinkBuilders(t *testing.T) {
	if got := VerificationURL("https://app.example.com/", "tok"); got != "https://app.example.com/api/users/verify?token=tok" {
		t.Fatalf("verification url = %q", got)
	}
	if got := ResetURL("https://app.example.com", "tok"); got != "https://app.example.com/reset-password?token=tok" {
		t.Fatalf("reset url = %q", got)
	}
}
