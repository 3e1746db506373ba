package service

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
	"time"

	"payment-failure-monitor/internal/core/domain"
	"payment-failure-monitor/internal/core/ports"
	"payment-failure-monitor/pkg/apperror"

	"github.com/rs/zerolog"
)

var alertTemplate = template.Must(template.New("alert").Parse(`A payment has failed and needs attention.

Payment ID:      {{.Payment.ID}}
Amount:          {{.Payment.DisplayAmount}} {{.Payment.Currency}}
Customer Email:  {{.Payment.CustomerEmail}}
Customer ID:     {{.Payment.CustomerID}}
Failure Code:    {{.Payment.FailureCode}}
Failure Message: {{.Payment.FailureMessage}}
Description:     {{.Payment.Description}}
Payment Method:  {{.Payment.SourceType}}
Detected At:     {{.DetectedAt}}
`))

type alertData struct {
	Payment    domain.FailurePayment
	DetectedAt string
}

// EmailSink sends one alert email per failed payment.
type EmailSink struct {
	sender ports.MailSender
	from   string
	to     []string
	log    zerolog.Logger
	now    func() time.Time
}

// NewEmailSink creates an email sink delivering from -> to via sender.
func NewEmailSink(sender ports.MailSender, from, to string, log zerolog.Logger) *EmailSink {
	return &EmailSink{
		sender: sender,
		from:   from,
		to:     []string{to},
		log:    log,
		now:    time.Now,
	}
}

// Recipient returns the alert address.
func (s *EmailSink) Recipient() string {
	return s.to[0]
}

// Send renders and delivers the alert. Failures are logged at error level
// and returned as apperror.KindEmailSink; whether they propagate further is
// the notifier's decision.
func (s *EmailSink) Send(ctx context.Context, payment domain.FailurePayment) error {
	msg, err := s.compose(payment)
	if err == nil {
		err = s.sender.Send(ctx, msg)
	}
	if err != nil {
		s.log.Error().Err(err).Str("payment_id", payment.ID).
			Msgf("Email notification failed for %s: %v", payment.ID, err)
		return apperror.ErrEmailSink(err)
	}

	s.log.Info().Str("payment_id", payment.ID).Str("to", s.Recipient()).
		Msgf("Email alert sent for payment %s", payment.ID)
	return nil
}

func (s *EmailSink) compose(payment domain.FailurePayment) (ports.MailMessage, error) {
	var body bytes.Buffer
	err := alertTemplate.Execute(&body, alertData{
		Payment:    payment,
		DetectedAt: s.now().UTC().Format(domain.ISOTimestamp),
	})
	if err != nil {
		return ports.MailMessage{}, fmt.Errorf("rendering alert: %w", err)
	}

	return ports.MailMessage{
		From:    s.from,
		To:      s.to,
		Subject: "Payment Failed: " + payment.Summary(),
		Body:    body.String(),
	}, nil
}
