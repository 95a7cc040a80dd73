package mailer_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/resolvehub/internal/app/system/mailer"
	"github.com/dalemusser/waffle/pantry/email"
	"go.uber.org/zap"
)

type captureSender struct {
	msgs []email.Message
	err  error
}

func (c *captureSender) Send(_ context.Context, msg email.Message) error {
	c.msgs = append(c.msgs, msg)
	return c.err
}

func TestSendResetCode(t *testing.T) {
	cs := &captureSender{}
	m := mailer.NewWithSender(cs, "ResolveHub", zap.NewNop())

	if err := m.SendResetCode(context.Background(), "ana@example.com", "482913", 10*time.Minute); err != nil {
		t.Fatalf("SendResetCode: %v", err)
	}
	if len(cs.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(cs.msgs))
	}
	msg := cs.msgs[0]
	if len(msg.To) != 1 || msg.To[0] != "ana@example.com" {
		t.Errorf("To = %v", msg.To)
	}
	if !strings.Contains(msg.Subject, "ResolveHub") {
		t.Errorf("Subject = %q", msg.Subject)
	}
	for name, body := range map[string]string{"text": msg.TextBody, "html": msg.HTMLBody} {
		if !strings.Contains(body, "482913") {
			t.Errorf("%s body missing code", name)
		}
		if !strings.Contains(body, "10 minutes") {
			t.Errorf("%s body missing expiry", name)
		}
	}
}

func TestSendResetCode_SenderError(t *testing.T) {
	boom := errors.New("smtp down")
	m := mailer.NewWithSender(&captureSender{err: boom}, "", zap.NewNop())
	if err := m.SendResetCode(context.Background(), "a@example.com", "123456", time.Minute); !errors.Is(err, boom) {
		t.Errorf("expected sender error, got %v", err)
	}
}

func TestNew_NoHostLogsOnly(t *testing.T) {
	m := mailer.New(mailer.Config{}, zap.NewNop())
	if err := m.SendResetCode(context.Background(), "a@example.com", "123456", time.Minute); err != nil {
		t.Errorf("log-only sender returned %v", err)
	}
}

func TestBuildResetEmail_EscapesHTML(t *testing.T) {
	msg := mailer.BuildResetEmail(mailer.ResetEmailData{SiteName: "<b>Hub</b>", Code: "111111", ExpiresIn: "1 minute"})
	if strings.Contains(msg.HTMLBody, "<b>Hub</b>") {
		t.Error("site name not escaped in HTML body")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "less than a minute"},
		{time.Minute, "1 minute"},
		{10 * time.Minute, "10 minutes"},
		{time.Hour, "1 hour"},
		{3 * time.Hour, "3 hours"},
	}
	for _, tt := range tests {
		if got := mailer.FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
