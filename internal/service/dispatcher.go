package service

import (
	"context"

	"payment-failure-monitor/internal/core/domain"
	"payment-failure-monitor/internal/core/ports"

	"github.com/rs/zerolog"
)

// EventHandler processes one verified event.
type EventHandler func(ctx context.Context, event *domain.Event) error

// Dispatcher routes verified events by type. Types without a handler are
// logged and acknowledged so the provider does not keep retrying them.
type Dispatcher struct {
	handlers map[domain.EventType]EventHandler
	log      zerolog.Logger
}

// NewDispatcher registers the payment-failure handler for every failure type.
func NewDispatcher(notifier ports.FailureNotifier, log zerolog.Logger) *Dispatcher {
	d := &Dispatcher{
		handlers: make(map[domain.EventType]EventHandler, len(domain.FailureEventTypes)),
		log:      log,
	}
	onFailure := failureHandler(notifier, log)
	for _, t := range domain.FailureEventTypes {
		d.handlers[t] = onFailure
	}
	return d
}

// Handles reports whether t has a registered handler.
func (d *Dispatcher) Handles(t domain.EventType) bool {
	_, ok := d.handlers[t]
	return ok
}

// Dispatch runs the handler for event.Type. The ack is only meaningful when
// err is nil.
func (d *Dispatcher) Dispatch(ctx context.Context, event *domain.Event) (domain.Ack, error) {
	handler, ok := d.handlers[event.Type]
	if !ok {
		d.log.Info().Str("event_type", string(event.Type)).
			Msgf("Unhandled event type: %s", event.Type)
		return domain.Ack{Received: true}, nil
	}

	if err := handler(ctx, event); err != nil {
		return domain.Ack{}, err
	}
	return domain.Ack{Received: true}, nil
}

func failureHandler(notifier ports.FailureNotifier, log zerolog.Logger) EventHandler {
	return func(ctx context.Context, event *domain.Event) error {
		payment := domain.NormalizeFailurePayment(event.Data.Object)
		log.Info().
			Str("event_type", string(event.Type)).
			Str("payment_id", payment.ID).
			Msgf("Processing failed payment: %s (%s)", payment.ID, payment.Summary())
		return notifier.NotifyFailure(ctx, payment)
	}
}
