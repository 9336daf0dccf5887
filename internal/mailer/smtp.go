// Package mailer sends transactional email.
package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Mailer delivers an HTML message to one recipient
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// Config holds the SMTP relay settings
type Config struct {
	Server   string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer sends over SMTP with STARTTLS and PLAIN auth. Without
// credentials it only logs the message.
type SMTPMailer struct {
	cfg    Config
	logger logrus.FieldLogger
}

// NewSMTPMailer creates a mailer
func NewSMTPMailer(cfg Config, logger logrus.FieldLogger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, logger: logger}
}

// DevMode reports whether messages are logged instead of sent
func (m *SMTPMailer) DevMode() bool {
	return m.cfg.Username == "" || m.cfg.Password == ""
}

// Send delivers the message or, in dev mode, logs it
func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	if m.DevMode() {
		m.logger.WithFields(logrus.Fields{
			"to":      to,
			"subject": subject,
			"body":    htmlBody,
		}).Info("smtp not configured, email not sent")
		return nil
	}

	addr := net.JoinHostPort(m.cfg.Server, strconv.Itoa(m.cfg.Port))
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("error connecting to smtp server: %w", err)
	}

	client, err := smtp.NewClient(conn, m.cfg.Server)
	if err != nil {
		conn.Close()
		return fmt.Errorf("error creating smtp client: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: m.cfg.Server}); err != nil {
			return fmt.Errorf("error starting tls: %w", err)
		}
	}

	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Server)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("error authenticating: %w", err)
	}

	if err := client.Mail(m.cfg.From); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(buildMessage(m.cfg.From, to, subject, htmlBody)); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	return client.Quit()
}

func buildMessage(from, to, subject, htmlBody string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return []byte(b.String())
}
