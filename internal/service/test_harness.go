package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"payment-failure-monitor/internal/core/domain"
	"payment-failure-monitor/internal/core/ports"
	"payment-failure-monitor/pkg/apperror"

	"github.com/rs/zerolog"
)

// SinkTestHarness drives both sinks with a synthetic payment, bypassing
// verification and dispatch.
type SinkTestHarness struct {
	email  *EmailSink
	record *RecordSink
	log    zerolog.Logger
	now    func() time.Time
}

// NewSinkTestHarness creates a harness over the production sinks.
func NewSinkTestHarness(email *EmailSink, record *RecordSink, log zerolog.Logger) *SinkTestHarness {
	return &SinkTestHarness{email: email, record: record, log: log, now: time.Now}
}

// SyntheticPayment returns the fixed test payment with a time-derived id.
func SyntheticPayment(at time.Time) domain.FailurePayment {
	return domain.FailurePayment{
		ID:               fmt.Sprintf("test_%d", at.UnixMilli()),
		AmountMinorUnits: 2999,
		Currency:         "USD",
		CustomerEmail:    "test@example.com",
		CustomerID:       "cus_test",
		FailureCode:      "card_declined",
		FailureMessage:   "Your card was declined.",
		Description:      "Synthetic payment failure (sink test)",
		SourceType:       "card",
	}
}

// Run attempts both sinks. Any failure yields an apperror.KindTestHarness
// error wrapping every sink error.
func (h *SinkTestHarness) Run(ctx context.Context) (*ports.SinkTestResult, error) {
	payment := SyntheticPayment(h.now())
	h.log.Info().Str("payment_id", payment.ID).Msgf("Running sink test with payment %s", payment.ID)

	result := &ports.SinkTestResult{}

	emailErr := h.email.Send(ctx, payment)
	if emailErr == nil {
		result.EmailResult = fmt.Sprintf("Test email sent to %s", h.email.Recipient())
	}

	record, recordErr := h.record.Create(ctx, payment, domain.RecordStatusTest)
	if recordErr == nil {
		result.RecordResult = fmt.Sprintf("Test record created: %s", record.ID)
	}

	if err := errors.Join(emailErr, recordErr); err != nil {
		h.log.Error().Err(err).Msgf("Sink test failed: %s", apperror.Message(err))
		return nil, apperror.ErrTestHarness(err)
	}

	h.log.Info().Str("payment_id", payment.ID).Msg("Sink test passed")
	return result, nil
}
