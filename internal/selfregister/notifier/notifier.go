package notifier

import (
	"context"
	"crypto/tls"
	"fmt"
	"html"
	"log/slog"
	"net/url"
	"strings"

	mail "github.com/go-mail/mail"

	"selfreg/internal/platform/config"
	"selfreg/internal/selfregister/models"
	"selfreg/pkg/email"
)

const confirmationSubject = "Confirm your account"

// SMTPNotifier emails the account confirmation link through an SMTP relay.
type SMTPNotifier struct {
	from            string
	confirmationURL string
	logger          *slog.Logger
	send            func(m *mail.Message) error
}

type Option func(*SMTPNotifier)

// WithSendFunc replaces SMTP delivery, for tests.
func WithSendFunc(send func(m *mail.Message) error) Option {
	return func(n *SMTPNotifier) {
		n.send = send
	}
}

// NewSMTP builds a notifier from SMTP settings. STARTTLS is negotiated when
// the relay offers it.
func NewSMTP(cfg config.SMTPConfig, logger *slog.Logger, opts ...Option) *SMTPNotifier {
	dialer := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	dialer.TLSConfig = &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}
	if cfg.Port == 465 {
		dialer.SSL = true
	}

	n := &SMTPNotifier{
		from:            cfg.From,
		confirmationURL: cfg.ConfirmationURL,
		logger:          logger,
		send:            func(m *mail.Message) error { return dialer.DialAndSend(m) },
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// SendConfirmation delivers the confirmation email for reg.
func (n *SMTPNotifier) SendConfirmation(ctx context.Context, reg *models.PendingRegistration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	link := n.confirmationLink(reg)
	name := email.DisplayName(reg.Identity.Username)

	m := mail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetAddressHeader("To", reg.Identity.Username, name)
	m.SetHeader("Subject", confirmationSubject)
	m.SetBody("text/plain", fmt.Sprintf(
		"Hi %s,\n\nConfirm your account by opening the link below:\n\n%s\n\nIf you did not sign up, ignore this email.\n",
		name, link))
	m.AddAlternative("text/html", fmt.Sprintf(
		`<p>Hi %s,</p><p>Confirm your account by opening the link below:</p><p><a href="%s">Confirm account</a></p><p>If you did not sign up, ignore this email.</p>`,
		html.EscapeString(name), html.EscapeString(link)))

	if err := n.send(m); err != nil {
		n.logger.ErrorContext(ctx, "smtp send failed",
			"tenant_domain", reg.Identity.TenantDomain.String(),
			"error", err,
		)
		return fmt.Errorf("smtp send: %w", err)
	}
	n.logger.InfoContext(ctx, "confirmation email sent",
		"tenant_domain", reg.Identity.TenantDomain.String(),
	)
	return nil
}

func (n *SMTPNotifier) confirmationLink(reg *models.PendingRegistration) string {
	q := url.Values{}
	q.Set("code", reg.RecoveryID)
	q.Set("tenant", reg.Identity.TenantDomain.String())
	sep := "?"
	if strings.Contains(n.confirmationURL, "?") {
		sep = "&"
	}
	return n.confirmationURL + sep + q.Encode()
}

// LogNotifier records confirmations in the log instead of sending them. It is
// used when no SMTP relay is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendConfirmation(ctx context.Context, reg *models.PendingRegistration) error {
	n.logger.InfoContext(ctx, "confirmation not sent, smtp not configured",
		"recipient_name", email.DisplayName(reg.Identity.Username),
		"tenant_domain", reg.Identity.TenantDomain.String(),
		"user_store_domain", reg.Identity.UserStoreDomain.String(),
	)
	return nil
}
