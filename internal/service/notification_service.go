package service

import (
	"context"
	"errors"
	"fmt"

	"payment-failure-monitor/internal/core/domain"

	"github.com/rs/zerolog"
)

// SinkFailureMode decides how sink errors affect the webhook acknowledgment.
type SinkFailureMode string

const (
	// PerSinkIndependent swallows email errors and propagates record errors.
	// A record failure therefore fails the webhook after the alert has gone
	// out, and the provider's redelivery sends the alert again.
	PerSinkIndependent SinkFailureMode = "per_sink_independent"
	// AnyFailureFails attempts both sinks and fails if either failed.
	AnyFailureFails SinkFailureMode = "any_failure_fails"
	// AllMustSucceed stops at the first failing sink.
	AllMustSucceed SinkFailureMode = "all_must_succeed"
)

// ParseSinkFailureMode maps a config value to a mode.
func ParseSinkFailureMode(s string) (SinkFailureMode, error) {
	switch m := SinkFailureMode(s); m {
	case PerSinkIndependent, AnyFailureFails, AllMustSucceed:
		return m, nil
	case "":
		return PerSinkIndependent, nil
	default:
		return "", fmt.Errorf("unknown sink failure mode %q", s)
	}
}

// NotificationService implements ports.FailureNotifier. Sinks run one after
// the other, email first.
type NotificationService struct {
	email  *EmailSink
	record *RecordSink
	mode   SinkFailureMode
	log    zerolog.Logger
}

// NewNotificationService wires both sinks under the given failure mode.
func NewNotificationService(email *EmailSink, record *RecordSink, mode SinkFailureMode, log zerolog.Logger) *NotificationService {
	if mode == "" {
		mode = PerSinkIndependent
	}
	return &NotificationService{email: email, record: record, mode: mode, log: log}
}

// NotifyFailure delivers payment to the email sink, then the record sink.
func (n *NotificationService) NotifyFailure(ctx context.Context, payment domain.FailurePayment) error {
	emailErr := n.email.Send(ctx, payment)
	if emailErr != nil && n.mode == AllMustSucceed {
		return emailErr
	}

	_, recordErr := n.record.Create(ctx, payment, domain.RecordStatusFailed)

	switch n.mode {
	case AnyFailureFails:
		return errors.Join(emailErr, recordErr)
	default:
		return recordErr
	}
}
