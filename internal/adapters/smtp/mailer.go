// Package smtp delivers transactional mail over SMTP with gomail.
package smtp

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nomocars/nomo-api/internal/ports"
	"gopkg.in/gomail.v2"
)

var (
	_ ports.Mailer = (*Mailer)(nil)
	_ ports.Mailer = (*LogMailer)(nil)
)

// Config holds SMTP settings. Encryption is "", "ssl" or "starttls".
type Config struct {
	Host       string
	Port       int
	Username   string
	Password   string
	From       string
	Encryption string
	Logger     *slog.Logger
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer sends each message on a fresh SMTP connection.
type Mailer struct {
	from   string
	d      dialer
	logger *slog.Logger
}

// NewMailer validates cfg and builds the dialer.
func NewMailer(cfg Config) (*Mailer, error) {
	if cfg.Host == "" || cfg.Port == 0 || cfg.From == "" {
		return nil, errors.New("smtp host, port and sender address must be configured")
	}
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	switch strings.ToLower(cfg.Encryption) {
	case "ssl":
		d.SSL = true
		d.TLSConfig = &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}
	case "tls", "starttls":
		d.TLSConfig = &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}
	}
	return newMailer(cfg.From, d, cfg.Logger), nil
}

func newMailer(from string, d dialer, logger *slog.Logger) *Mailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mailer{from: from, d: d, logger: logger}
}

// Send dials and sends m, giving up when ctx is done.
func (s *Mailer) Send(ctx context.Context, m ports.Mail) error {
	msg, err := s.build(m)
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- s.d.DialAndSend(msg) }()

	select {
	case <-ctx.Done():
		s.logger.WarnContext(ctx, "mail send abandoned", "subject", m.Subject, "error", ctx.Err())
		return fmt.Errorf("send mail: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send mail: %w", err)
		}
	}
	s.logger.InfoContext(ctx, "mail sent", "subject", m.Subject)
	return nil
}

func (s *Mailer) build(m ports.Mail) (*gomail.Message, error) {
	if m.To == "" {
		return nil, errors.New("mail has no recipient")
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", m.To)
	msg.SetHeader("Subject", m.Subject)
	switch {
	case m.HTMLBody != "":
		msg.SetBody("text/html", m.HTMLBody)
		if m.TextBody != "" {
			msg.AddAlternative("text/plain", m.TextBody)
		}
	case m.TextBody != "":
		msg.SetBody("text/plain", m.TextBody)
	default:
		return nil, errors.New("mail body must be provided")
	}
	return msg, nil
}

// LogMailer writes mail to the log instead of sending it. Used when SMTP is not configured.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer returns a LogMailer writing to logger.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger}
}

func (l *LogMailer) Send(ctx context.Context, m ports.Mail) error {
	l.logger.InfoContext(ctx, "mail not sent, smtp disabled", "to", m.To, "subject", m.Subject, "body", m.TextBody)
	return nil
}
