// internal/app/system/mailer/mailer.go
package mailer

import (
	"context"
	"time"

	"github.com/dalemusser/waffle/pantry/email"
	"go.uber.org/zap"
)

// Sender delivers one message. *email.Sender satisfies it.
type Sender interface {
	Send(ctx context.Context, msg email.Message) error
}

// Config is the SMTP setup. An empty Host selects the log-only sender.
type Config struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromAddress string
	FromName    string
	SiteName    string
}

// Mailer builds and sends the application's emails.
type Mailer struct {
	sender   Sender
	siteName string
	log      *zap.Logger
}

// New returns a Mailer over SMTP, or one that only logs when cfg.Host is
// empty.
func New(cfg Config, logger *zap.Logger) *Mailer {
	var s Sender = logSender{log: logger}
	if cfg.Host != "" {
		s = email.NewSender(email.Config{
			Host:        cfg.Host,
			Port:        cfg.Port,
			Username:    cfg.Username,
			Password:    cfg.Password,
			FromAddress: cfg.FromAddress,
			FromName:    cfg.FromName,
		})
	}
	return NewWithSender(s, cfg.SiteName, logger)
}

// NewWithSender wraps an existing Sender.
func NewWithSender(s Sender, siteName string, logger *zap.Logger) *Mailer {
	if siteName == "" {
		siteName = "ResolveHub"
	}
	return &Mailer{sender: s, siteName: siteName, log: logger}
}

// SendResetCode mails a password reset code to addr.
func (m *Mailer) SendResetCode(ctx context.Context, addr, code string, expiresIn time.Duration) error {
	msg := BuildResetEmail(ResetEmailData{
		SiteName:  m.siteName,
		Code:      code,
		ExpiresIn: FormatDuration(expiresIn),
	})
	msg.To = []string{addr}
	return m.sender.Send(ctx, msg)
}

// logSender stands in for SMTP in development.
type logSender struct {
	log *zap.Logger
}

func (l logSender) Send(_ context.Context, msg email.Message) error {
	l.log.Warn("smtp not configured; email logged instead of sent",
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject))
	l.log.Debug("email body", zap.String("text", msg.TextBody))
	return nil
}
