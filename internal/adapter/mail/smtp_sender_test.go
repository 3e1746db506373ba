package mail

import (
	"context"
	"errors"
	"net"
	"net/smtp"
	"strings"
	"testing"

	"payment-failure-monitor/config"
	"payment-failure-monitor/internal/core/ports"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.EmailConfig {
	return config.EmailConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "alerts@example.com",
		Password: "app-password",
	}
}

var testMessage = ports.MailMessage{
	From:    "alerts@example.com",
	To:      []string{"ops@example.com"},
	Subject: "Payment Failed: 49.99 USD - jane@example.com",
	Body:    "line one\nline two\n",
}

func TestSMTPSender_Send(t *testing.T) {
	s := NewSMTPSender(testConfig(), zerolog.Nop())

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	s.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	require.NoError(t, s.Send(context.Background(), testMessage))
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "alerts@example.com", gotFrom)
	assert.Equal(t, []string{"ops@example.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "Subject: Payment Failed: 49.99 USD - jane@example.com\r\n")
}

func TestSMTPSender_SendError(t *testing.T) {
	s := NewSMTPSender(testConfig(), zerolog.Nop())
	cause := errors.New("535 5.7.8 Username and Password not accepted")
	s.send = func(string, smtp.Auth, string, []string, []byte) error { return cause }

	err := s.Send(context.Background(), testMessage)
	assert.ErrorIs(t, err, cause)
	assert.ErrorContains(t, err, "smtp.example.com:587")
}

func TestSMTPSender_CanceledContext(t *testing.T) {
	s := NewSMTPSender(testConfig(), zerolog.Nop())
	s.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("send must not be called")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Send(ctx, testMessage), context.Canceled)
}

func TestSMTPSender_NoRecipients(t *testing.T) {
	s := NewSMTPSender(testConfig(), zerolog.Nop())
	msg := testMessage
	msg.To = nil

	assert.Error(t, s.Send(context.Background(), msg))
}

func TestFormatMessage(t *testing.T) {
	raw := string(FormatMessage(testMessage))

	headers, body, ok := strings.Cut(raw, "\r\n\r\n")
	require.True(t, ok)
	assert.Contains(t, headers, "From: alerts@example.com")
	assert.Contains(t, headers, "To: ops@example.com")
	assert.Contains(t, headers, `Content-Type: text/plain; charset="utf-8"`)
	assert.Equal(t, "line one\r\nline two\r\n", body)
}

func TestFormatMessage_EncodesNonASCIISubject(t *testing.T) {
	msg := testMessage
	msg.Subject = "Payment Failed: 10.00 EUR - zoë@example.com"

	assert.Contains(t, string(FormatMessage(msg)), "Subject: =?utf-8?q?")
}

func TestSMTPSender_ProbeUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().(*net.TCPAddr)
	require.NoError(t, ln.Close())

	cfg := testConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = addr.Port
	var checker ports.HealthChecker = NewSMTPSender(cfg, zerolog.Nop())

	assert.ErrorContains(t, checker.Ping(context.Background()), "smtp dial")
	assert.Equal(t, "smtp", checker.Name())
}
