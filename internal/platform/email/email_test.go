package email

import (
	"context"
	"strings"
	"testing"
	"time"

	"perftrack/internal/platform/config"
)

func TestBuildMessageStripsHeaderBreaks(t *testing.T) {
	msg := string(buildMessage("a@x.io", "b@x.io", "Goal \"Q3\"\r\nBcc: evil@x.io", "body", time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)))
	if strings.Contains(msg, "\r\nBcc:") {
		t.Fatalf("expected header injection to be neutralized, got %q", msg)
	}
	if !strings.HasSuffix(msg, "\r\n\r\nbody") {
		t.Fatalf("expected body after blank line, got %q", msg)
	}
	if !strings.Contains(msg, "Date: Fri, 14 Mar 2025 00:00:00 +0000") {
		t.Fatalf("expected date header, got %q", msg)
	}
}

func TestNewReturnsNoopWhenDisabled(t *testing.T) {
	mailer := New(config.Config{EmailEnabled: false, SMTPHost: "smtp.example.com"})
	if _, ok := mailer.(noopMailer); !ok {
		t.Fatalf("expected noop mailer, got %T", mailer)
	}
	if err := mailer.Send(context.Background(), "a@x.io", "b@x.io", "s", "b"); err != nil {
		t.Fatalf("noop send failed: %v", err)
	}
}
