// Package mail sends the two transactional messages the API produces:
// email-verification links and password-reset links. When SMTP is not
// configured the mailer is disabled and sends become logged no-ops, mirroring
// how the rest of the stack treats optional infrastructure.
package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/vinald/bookapi/internal/config"
	"github.com/vinald/bookapi/internal/logging"
)

type Mailer struct {
	addr        string
	auth        smtp.Auth
	from        string
	fromName    string
	frontendURL string
	enabled     bool
}

func New(cfg *config.Config) *Mailer {
	from := cfg.MAIL_FROM
	if from == "" {
		from = cfg.SMTP_USERNAME
	}
	m := &Mailer{
		addr:        fmt.Sprintf("%s:%d", cfg.SMTP_HOST, cfg.SMTP_PORT),
		from:        from,
		fromName:    cfg.MAIL_FROM_NAME,
		frontendURL: strings.TrimRight(cfg.FRONTEND_URL, "/"),
	}
	if cfg.SMTP_HOST == "" || !strings.Contains(from, "@") {
		return m
	}
	if cfg.SMTP_USERNAME != "" {
		m.auth = smtp.PlainAuth("", cfg.SMTP_USERNAME, cfg.SMTP_PASSWORD, cfg.SMTP_HOST)
	}
	m.enabled = true
	return m
}

func (m *Mailer) Enabled() bool { return m.enabled }

func (m *Mailer) SendVerificationEmail(ctx context.Context, email, username, token string) error {
	link := fmt.Sprintf("%s/verify-email?token=%s", m.frontendURL, token)
	body := fmt.Sprintf(
		"Hi %s,\r\n\r\nWelcome to %s! Please verify your email address by opening the link below:\r\n\r\n%s\r\n\r\nIf you did not create this account, you can ignore this message.\r\n",
		username, m.fromName, link,
	)
	return m.send(ctx, email, "Verify your email address", body)
}

func (m *Mailer) SendPasswordResetEmail(ctx context.Context, email, username, token string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", m.frontendURL, token)
	body := fmt.Sprintf(
		"Hi %s,\r\n\r\nA password reset was requested for your account. The link below is valid for one hour:\r\n\r\n%s\r\n\r\nIf you did not request this, you can ignore this message.\r\n",
		username, link,
	)
	return m.send(ctx, email, "Reset your password", body)
}

func (m *Mailer) send(ctx context.Context, to, subject, body string) error {
	if !m.enabled {
		logging.FromContext(ctx).Warn("mailer disabled, skipping email", "to", to, "subject", subject)
		return nil
	}

	msg := fmt.Sprintf(
		"From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		m.fromName, m.from, to, subject, body,
	)
	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("mail: send to %s failed: %w", to, err)
	}
	logging.FromContext(ctx).Info("email sent", "to", to, "subject", subject)
	return nil
}
