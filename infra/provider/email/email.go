// Package email implements notify.Notifier.
package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amirasaad/topup/pkg/config"
	"github.com/amirasaad/topup/pkg/provider/notify"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridNotifier sends mail through the SendGrid v3 API.
type SendGridNotifier struct {
	client *sendgrid.Client
	from   *mail.Email
	logger *slog.Logger
}

var _ notify.Notifier = (*SendGridNotifier)(nil)

// NewSendGrid creates a SendGrid notifier.
func NewSendGrid(cfg *config.SendGrid, logger *slog.Logger) *SendGridNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &SendGridNotifier{
		client: sendgrid.NewSendClient(cfg.APIKey),
		from:   mail.NewEmail(cfg.FromName, cfg.From),
		logger: logger.With("notifier", "sendgrid"),
	}
}

// withBaseURL points the client at another host. Tests only.
func (n *SendGridNotifier) withBaseURL(host string) *SendGridNotifier {
	n.client.BaseURL = host + "/v3/mail/send"
	return n
}

func (n *SendGridNotifier) Send(ctx context.Context, msg notify.Message) error {
	to := mail.NewEmail(msg.ToName, msg.ToEmail)
	m := mail.NewSingleEmail(n.from, msg.Subject, to, msg.Text, msg.HTML)
	resp, err := n.client.SendWithContext(ctx, m)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: http %d: %s", resp.StatusCode, resp.Body)
	}
	n.logger.Debug("📧 [SENT] Email delivered", "to", msg.ToEmail, "subject", msg.Subject)
	return nil
}

// LogNotifier writes messages to the log instead of sending them.
type LogNotifier struct {
	logger *slog.Logger
}

var _ notify.Notifier = (*LogNotifier)(nil)

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger.With("notifier", "log")}
}

func (n *LogNotifier) Send(_ context.Context, msg notify.Message) error {
	n.logger.Info("📧 [EMAIL] Not sent, no mail provider configured",
		"to", msg.ToEmail,
		"subject", msg.Subject,
	)
	return nil
}

// New picks SendGrid when an API key is configured.
func New(cfg *config.SendGrid, logger *slog.Logger) notify.Notifier {
	if cfg != nil && cfg.APIKey != "" {
		return NewSendGrid(cfg, logger)
	}
	return NewLogNotifier(logger)
}
