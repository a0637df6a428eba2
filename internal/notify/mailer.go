package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/pg19/portal-auth/internal/domain"
)

type SMTPConfig struct {
	Host     string
	Port     int
	From     string
	Username string
	Password string
}

// SMTPMailer delivers one-time codes over plain SMTP.
type SMTPMailer struct {
	cfg SMTPConfig
}

var _ domain.Mailer = (*SMTPMailer)(nil)

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) SendVerificationCode(_ context.Context, to, code string) error {
	subject := "Код для входа в личный кабинет"
	body := fmt.Sprintf("Ваш код для входа: %s\n\nКод действует 5 минут. Если вы не запрашивали вход, проигнорируйте это письмо.", code)

	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		m.cfg.From, to, subject, body,
	))

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		host := m.cfg.Host
		if idx := strings.Index(host, ":"); idx > 0 {
			host = host[:idx]
		}
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, host)
	}

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}
	return nil
}

// FallbackMailer tries an ordered list of mailers and stops at the first
// success. Replaces the original's ad hoc "queue first, direct send second"
// branching with one interface.
type FallbackMailer struct {
	mailers []domain.Mailer
	logger  *slog.Logger
}

var _ domain.Mailer = (*FallbackMailer)(nil)

func NewFallbackMailer(logger *slog.Logger, mailers ...domain.Mailer) *FallbackMailer {
	return &FallbackMailer{
		mailers: mailers,
		logger:  logger.With("component", "mailer"),
	}
}

func (m *FallbackMailer) SendVerificationCode(ctx context.Context, to, code string) error {
	var lastErr error
	for i, mailer := range m.mailers {
		if err := mailer.SendVerificationCode(ctx, to, code); err != nil {
			m.logger.Warn("Mailer failed, trying next", "index", i, "error", err)
			lastErr = err
			continue
		}
		return nil
	}
	if lastErr == nil {
		return fmt.Errorf("no mailers configured")
	}
	return lastErr
}
