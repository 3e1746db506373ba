package service

import (
	"context"

	"payment-failure-monitor/internal/core/domain"
	"payment-failure-monitor/internal/core/ports"
	"payment-failure-monitor/pkg/apperror"

	"github.com/rs/zerolog"
)

// webhookService implements ports.WebhookService.
type webhookService struct {
	verifier   ports.EventVerifier
	dispatcher *Dispatcher
	log        zerolog.Logger
}

// NewWebhookService creates the ingestion pipeline: verify, then dispatch.
func NewWebhookService(verifier ports.EventVerifier, dispatcher *Dispatcher, log zerolog.Logger) ports.WebhookService {
	return &webhookService{
		verifier:   verifier,
		dispatcher: dispatcher,
		log:        log,
	}
}

// HandleWebhook verifies rawBody and dispatches the event. Errors are
// logged here before the HTTP layer turns them into a response.
func (s *webhookService) HandleWebhook(ctx context.Context, rawBody []byte, signatureHeader string) (domain.Ack, error) {
	event, err := s.verifier.Verify(rawBody, signatureHeader)
	if err != nil {
		s.log.Error().Err(err).Msgf("Webhook verification failed: %s", apperror.Message(err))
		return domain.Ack{}, err
	}

	s.log.Debug().
		Str("event_id", event.ID).
		Str("event_type", string(event.Type)).
		Msg("webhook received")

	ack, err := s.dispatcher.Dispatch(ctx, event)
	if err != nil {
		s.log.Error().Err(err).
			Str("event_id", event.ID).
			Str("event_type", string(event.Type)).
			Msgf("Webhook processing failed: %s", apperror.Message(err))
		return domain.Ack{}, err
	}
	return ack, nil
}

// RejectDelivery records an unreadable request body, e.g. one over the size
// limit, as a verification failure.
func (s *webhookService) RejectDelivery(err error) error {
	verr := apperror.ErrVerification(err)
	s.log.Error().Err(verr).Msgf("Webhook verification failed: %s", apperror.Message(verr))
	return verr
}
