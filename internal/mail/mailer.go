// Package mail delivers transactional email over SMTP.
package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/inventory-service/internal/config"
)

// ErrMailerNotConfigured is returned when no SMTP host was configured.
var ErrMailerNotConfigured = errors.New("smtp host not configured")

// Mailer sends the emails the auth flow depends on.
type Mailer interface {
	SendOTP(ctx context.Context, to, code string) error
	SendWelcome(ctx context.Context, to, name string) error
}

// SMTPMailer implements Mailer over net/smtp.
type SMTPMailer struct {
	cfg       config.SMTPConfig
	otpTTL    time.Duration
	templates *template.Template
	logger    *zap.Logger
}

// NewSMTPMailer parses the embedded templates. An empty host is allowed so the
// API can boot without a relay; every send then fails with ErrMailerNotConfigured.
func NewSMTPMailer(cfg config.SMTPConfig, otpTTL time.Duration, logger *zap.Logger) (*SMTPMailer, error) {
	tmpl, err := template.New("emails").Parse(emailTemplates)
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}
	if cfg.Host == "" {
		logger.Warn("EMAIL_HOST not provided; verification emails cannot be delivered")
	}
	return &SMTPMailer{cfg: cfg, otpTTL: otpTTL, templates: tmpl, logger: logger}, nil
}

// SendOTP mails a verification code.
func (m *SMTPMailer) SendOTP(ctx context.Context, to, code string) error {
	body, err := m.render("otp", otpData{AppName: m.cfg.FromName, Code: code, ExpiresIn: m.otpTTL.String()})
	if err != nil {
		return err
	}
	return m.Send(ctx, to, "Your verification code", body)
}

// SendWelcome mails a greeting after verification.
func (m *SMTPMailer) SendWelcome(ctx context.Context, to, name string) error {
	body, err := m.render("welcome", welcomeData{AppName: m.cfg.FromName, Name: name})
	if err != nil {
		return err
	}
	return m.Send(ctx, to, "Welcome to "+m.cfg.FromName, body)
}

// Send delivers an HTML message. The context deadline bounds the whole SMTP exchange.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if m.cfg.Host == "" {
		return ErrMailerNotConfigured
	}

	msg := buildMessage(m.cfg, to, subject, body)

	conn, err := m.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(m.timeout())
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("set smtp deadline: %w", err)
	}

	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}
	defer client.Close()

	if err := client.Hello("localhost"); err != nil {
		return fmt.Errorf("smtp hello: %w", err)
	}
	if !m.cfg.UseSSL() {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: m.cfg.Host}); err != nil {
				return fmt.Errorf("smtp starttls: %w", err)
			}
		}
	}
	if m.cfg.Username != "" && m.cfg.Password != "" {
		auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := client.Mail(m.cfg.From); err != nil {
		return fmt.Errorf("smtp sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("smtp recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close message: %w", err)
	}
	if err := client.Quit(); err != nil {
		return fmt.Errorf("smtp quit: %w", err)
	}
	m.logger.Debug("email sent", zap.String("subject", subject))
	return nil
}

func (m *SMTPMailer) dial(ctx context.Context) (net.Conn, error) {
	addr := m.cfg.Addr()
	dialer := &net.Dialer{Timeout: m.timeout()}
	if m.cfg.UseSSL() {
		tlsDialer := &tls.Dialer{NetDialer: dialer, Config: &tls.Config{ServerName: m.cfg.Host}}
		conn, err := tlsDialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("dial smtp (ssl) %s: %w", addr, err)
		}
		return conn, nil
	}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial smtp %s: %w", addr, err)
	}
	return conn, nil
}

func (m *SMTPMailer) timeout() time.Duration {
	if m.cfg.Timeout > 0 {
		return m.cfg.Timeout
	}
	return 30 * time.Second
}

func (m *SMTPMailer) render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := m.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s template: %w", name, err)
	}
	return buf.String(), nil
}

func buildMessage(cfg config.SMTPConfig, to, subject, body string) []byte {
	from := cfg.From
	if cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", cfg.FromName, cfg.From)
	}
	headers := map[string]string{
		"From":         from,
		"To":           to,
		"Subject":      subject,
		"MIME-Version": "1.0",
		"Content-Type": "text/html; charset=UTF-8",
	}
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var msg strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&msg, "%s: %s\r\n", k, headers[k])
	}
	msg.WriteString("\r\n")
	msg.WriteString(body)
	return []byte(msg.String())
}
