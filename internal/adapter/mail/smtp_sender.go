package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"

	"payment-failure-monitor/config"
	"payment-failure-monitor/internal/core/ports"

	"github.com/rs/zerolog"
)

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender implements ports.MailSender over authenticated SMTP
// (STARTTLS on port 587 for Gmail).
type SMTPSender struct {
	addr string
	host string
	auth smtp.Auth
	send sendFunc
	log  zerolog.Logger
}

// NewSMTPSender creates a sender for cfg. Credentials are not checked until
// the first Send or Probe.
func NewSMTPSender(cfg config.EmailConfig, log zerolog.Logger) *SMTPSender {
	return &SMTPSender{
		addr: cfg.Addr(),
		host: cfg.Host,
		auth: smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host),
		send: smtp.SendMail,
		log:  log,
	}
}

// Send delivers msg. ctx is only checked before dialing; net/smtp has no
// cancellation once the exchange starts.
func (s *SMTPSender) Send(ctx context.Context, msg ports.MailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(msg.To) == 0 {
		return fmt.Errorf("smtp: no recipients")
	}

	if err := s.send(s.addr, s.auth, msg.From, msg.To, FormatMessage(msg)); err != nil {
		return fmt.Errorf("smtp send via %s: %w", s.addr, err)
	}
	s.log.Debug().Str("to", strings.Join(msg.To, ",")).Msg("smtp message accepted")
	return nil
}

// Probe connects and authenticates without sending anything.
func (s *SMTPSender) Probe(ctx context.Context) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("smtp dial %s: %w", s.addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, s.host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: s.host, MinVersion: tls.VersionTLS12}); err != nil {
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}
	if ok, _ := c.Extension("AUTH"); ok {
		if err := c.Auth(s.auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	return c.Quit()
}

// Name implements ports.HealthChecker.
func (s *SMTPSender) Name() string {
	return "smtp"
}

// Ping implements ports.HealthChecker.
func (s *SMTPSender) Ping(ctx context.Context) error {
	return s.Probe(ctx)
}

// FormatMessage renders msg as an RFC 5322 plain-text message.
func FormatMessage(msg ports.MailMessage) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", msg.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(msg.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(b.String())
}
