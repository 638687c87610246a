package email

import (
	"strings"
	"testing"
)

func TestServiceIsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		expected bool
	}{
		{name: "empty config", config: Config{}, expected: false},
		{name: "missing host", config: Config{Port: "587", From: "mail@letterforge.dev"}, expected: false},
		{name: "missing port", config: Config{Host: "smtp.example.com", From: "mail@letterforge.dev"}, expected: false},
		{name: "missing from", config: Config{Host: "smtp.example.com", Port: "587"}, expected: false},
		{name: "fully configured", config: Config{Host: "smtp.example.com", Port: "587", From: "mail@letterforge.dev"}, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.config)
			if svc.IsConfigured() != tt.expected {
				t.Errorf("IsConfigured() = %v, want %v", svc.IsConfigured(), tt.expected)
			}
		})
	}
}

func TestRenderVerificationTemplate(t *testing.T) {
	html, err := renderTemplate(verificationEmailTemplate, verificationData{
		AppName:         "LetterForge",
		UserName:        "Test User",
		VerificationURL: "https://example.com/verify?token=abc123",
	})
	if err != nil {
		t.Fatalf("renderTemplate failed: %v", err)
	}

	for _, want := range []string{"LetterForge", "Test User", "https://example.com/verify?token=abc123", "24 hours"} {
		if !strings.Contains(html, want) {
			t.Errorf("verification template missing %q", want)
		}
	}
}

func TestRenderPasswordResetTemplate(t *testing.T) {
	html, err := renderTemplate(passwordResetEmailTemplate, passwordResetData{
		AppName:  "LetterForge",
		UserName: "Test User",
		ResetURL: "https://example.com/reset?token=xyz789",
	})
	if err != nil {
		t.Fatalf("renderTemplate failed: %v", err)
	}

	for _, want := range []string{"LetterForge", "Test User", "https://example.com/reset?token=xyz789", "1 hour"} {
		if !strings.Contains(html, want) {
			t.Errorf("password reset template missing %q", want)
		}
	}
}
