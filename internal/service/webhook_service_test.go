package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"payment-failure-monitor/internal/core/domain"
	"payment-failure-monitor/internal/core/ports"
	"payment-failure-monitor/internal/core/ports/mocks"
	"payment-failure-monitor/pkg/apperror"
	"payment-failure-monitor/pkg/logger"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

// pipeline bundles a fully wired webhook service over mocked transports.
type pipeline struct {
	svc    ports.WebhookService
	mail   *mocks.MockMailSender
	store  *mocks.MockRecordStore
	buffer *LogBuffer
}

func newPipeline(t *testing.T, secret string, mode SinkFailureMode) *pipeline {
	t.Helper()
	ctrl := gomock.NewController(t)

	mail := mocks.NewMockMailSender(ctrl)
	store := mocks.NewMockRecordStore(ctrl)
	buffer := NewLogBuffer()
	activity := logger.Activity(newTestLogger(), buffer)

	email := NewEmailSink(mail, "alerts@example.com", "ops@example.com", activity)
	record := NewRecordSink(store, activity)
	notifier := NewNotificationService(email, record, mode, activity)
	dispatcher := NewDispatcher(notifier, activity)

	return &pipeline{
		svc:    NewWebhookService(NewStripeVerifier(secret, 0), dispatcher, activity),
		mail:   mail,
		store:  store,
		buffer: buffer,
	}
}

func (p *pipeline) entries(level domain.LogLevel) []domain.LogEntry {
	var out []domain.LogEntry
	for _, e := range p.buffer.Recent(LogBufferCapacity) {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

func signedNow(body []byte) string {
	return SignatureHeader(testWebhookSecret, time.Now().Unix(), body)
}

func TestWebhookService_BothSinksSucceed(t *testing.T) {
	p := newPipeline(t, testWebhookSecret, PerSinkIndependent)

	gomock.InOrder(
		p.mail.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, msg ports.MailMessage) error {
				assert.Equal(t, "Payment Failed: 49.99 USD - N/A", msg.Subject)
				assert.Equal(t, []string{"ops@example.com"}, msg.To)
				assert.Contains(t, msg.Body, "Payment ID:      ch_1")
				return nil
			}).Times(1),
		p.store.EXPECT().CreateRecord(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, rec *domain.SinkRecord) (string, error) {
				assert.Equal(t, "ch_1", rec.PaymentID)
				assert.Equal(t, 49.99, rec.Amount)
				assert.Equal(t, "USD", rec.Currency)
				assert.Equal(t, domain.RecordStatusFailed, rec.Status)
				return "rec123", nil
			}).Times(1),
	)

	ack, err := p.svc.HandleWebhook(context.Background(), chargeFailedBody, signedNow(chargeFailedBody))
	require.NoError(t, err)
	assert.True(t, ack.Received)
	assert.Empty(t, p.entries(domain.LogLevelError))
}

func TestWebhookService_AllFailureTypesReachBothSinks(t *testing.T) {
	for _, eventType := range domain.FailureEventTypes {
		t.Run(string(eventType), func(t *testing.T) {
			p := newPipeline(t, "", PerSinkIndependent)
			body := []byte(fmt.Sprintf(`{"type":%q,"data":{"object":{"id":"obj_1"}}}`, eventType))

			gomock.InOrder(
				p.mail.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil),
				p.store.EXPECT().CreateRecord(gomock.Any(), gomock.Any()).Return("rec1", nil),
			)

			ack, err := p.svc.HandleWebhook(context.Background(), body, "")
			require.NoError(t, err)
			assert.True(t, ack.Received)
		})
	}
}

func TestWebhookService_EmailFailsRecordSucceeds(t *testing.T) {
	p := newPipeline(t, testWebhookSecret, PerSinkIndependent)

	gomock.InOrder(
		p.mail.EXPECT().Send(gomock.Any(), gomock.Any()).Return(errors.New("535 Username and Password not accepted")),
		p.store.EXPECT().CreateRecord(gomock.Any(), gomock.Any()).Return("rec123", nil),
	)

	ack, err := p.svc.HandleWebhook(context.Background(), chargeFailedBody, signedNow(chargeFailedBody))
	require.NoError(t, err, "email failures never reach the provider")
	assert.True(t, ack.Received)

	errs := p.entries(domain.LogLevelError)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "535 Username and Password not accepted")
}

func TestWebhookService_RecordFailsAfterEmailSent(t *testing.T) {
	p := newPipeline(t, testWebhookSecret, PerSinkIndependent)

	emailSent := false
	gomock.InOrder(
		p.mail.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(
			func(context.Context, ports.MailMessage) error {
				emailSent = true
				return nil
			}),
		p.store.EXPECT().CreateRecord(gomock.Any(), gomock.Any()).Return("", errors.New("INVALID_PERMISSIONS")),
	)

	_, err := p.svc.HandleWebhook(context.Background(), chargeFailedBody, signedNow(chargeFailedBody))
	require.Error(t, err)
	assert.Equal(t, apperror.KindRecordSink, apperror.KindOf(err))
	assert.Equal(t, "INVALID_PERMISSIONS", apperror.Message(err))
	assert.True(t, emailSent, "the alert has already gone out when the record fails")
}

func TestWebhookService_RedeliveryDuplicatesBothSinks(t *testing.T) {
	p := newPipeline(t, testWebhookSecret, PerSinkIndependent)

	p.mail.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	p.store.EXPECT().CreateRecord(gomock.Any(), gomock.Any()).Return("", errors.New("timeout"))
	p.store.EXPECT().CreateRecord(gomock.Any(), gomock.Any()).Return("rec2", nil)

	_, err := p.svc.HandleWebhook(context.Background(), chargeFailedBody, signedNow(chargeFailedBody))
	require.Error(t, err)

	ack, err := p.svc.HandleWebhook(context.Background(), chargeFailedBody, signedNow(chargeFailedBody))
	require.NoError(t, err)
	assert.True(t, ack.Received)
}

func TestWebhookService_UnknownEventType(t *testing.T) {
	p := newPipeline(t, "", PerSinkIndependent)
	body := []byte(`{"type":"customer.created","data":{"object":{"id":"cus_1"}}}`)

	ack, err := p.svc.HandleWebhook(context.Background(), body, "")
	require.NoError(t, err)
	assert.True(t, ack.Received)

	entries := p.buffer.Recent(LogBufferCapacity)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.LogLevelInfo, entries[0].Level)
	assert.Equal(t, "Unhandled event type: customer.created", entries[0].Message)
}

func TestWebhookService_InvalidSignature(t *testing.T) {
	p := newPipeline(t, testWebhookSecret, PerSinkIndependent)

	_, err := p.svc.HandleWebhook(context.Background(), chargeFailedBody, "t=1,v1=bogus")
	require.Error(t, err)
	assert.Equal(t, apperror.KindVerification, apperror.KindOf(err))

	errs := p.entries(domain.LogLevelError)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "Webhook verification failed")
}

func TestWebhookService_UnsignedMalformedJSON(t *testing.T) {
	p := newPipeline(t, "", PerSinkIndependent)

	_, err := p.svc.HandleWebhook(context.Background(), []byte(`{"type":"charge.failed"`), "")
	require.Error(t, err)
	assert.Equal(t, apperror.KindVerification, apperror.KindOf(err))
}

func TestWebhookService_MissingObjectStillNotifies(t *testing.T) {
	p := newPipeline(t, "", PerSinkIndependent)

	gomock.InOrder(
		p.mail.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil),
		p.store.EXPECT().CreateRecord(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, rec *domain.SinkRecord) (string, error) {
				assert.Equal(t, domain.NotAvailable, rec.PaymentID)
				assert.Equal(t, float64(0), rec.Amount)
				return "rec1", nil
			}),
	)

	_, err := p.svc.HandleWebhook(context.Background(), []byte(`{"type":"charge.failed"}`), "")
	require.NoError(t, err)
}

func TestWebhookService_DispatchesVerifiedEvent(t *testing.T) {
	ctrl := gomock.NewController(t)
	verifier := mocks.NewMockEventVerifier(ctrl)
	notifier := mocks.NewMockFailureNotifier(ctrl)

	log := newTestLogger()
	svc := NewWebhookService(verifier, NewDispatcher(notifier, log), log)

	event := &domain.Event{
		ID:   "evt_9",
		Type: domain.EventPaymentMethodAttachFailed,
		Data: domain.EventData{Object: map[string]any{"id": "pm_1", "type": "card"}},
	}
	verifier.EXPECT().Verify([]byte("raw"), "sig").Return(event, nil)
	notifier.EXPECT().NotifyFailure(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, p domain.FailurePayment) error {
			assert.Equal(t, "pm_1", p.ID)
			assert.Equal(t, "card", p.SourceType)
			return nil
		})

	ack, err := svc.HandleWebhook(context.Background(), []byte("raw"), "sig")
	require.NoError(t, err)
	assert.True(t, ack.Received)
}

func TestWebhookService_BufferIndependentOfOutputLevel(t *testing.T) {
	for _, level := range []string{"warn", "error"} {
		t.Run(level, func(t *testing.T) {
			var out bytes.Buffer
			buffer := NewLogBuffer()
			activity := logger.Activity(logger.NewWithWriter(level, &out), buffer)

			ctrl := gomock.NewController(t)
			notifier := mocks.NewMockFailureNotifier(ctrl)
			svc := NewWebhookService(NewStripeVerifier("", 0), NewDispatcher(notifier, activity), activity)

			_, err := svc.HandleWebhook(context.Background(), []byte(`{"type":"customer.created","data":{"object":{"id":"cus_1"}}}`), "")
			require.NoError(t, err)

			entries := buffer.Recent(LogBufferCapacity)
			require.Len(t, entries, 1)
			assert.Equal(t, domain.LogLevelInfo, entries[0].Level)
			assert.Equal(t, "Unhandled event type: customer.created", entries[0].Message)
			assert.Empty(t, out.String())
		})
	}
}

func TestWebhookService_RejectDeliveryLogsBeforeAnswering(t *testing.T) {
	p := newPipeline(t, testWebhookSecret, PerSinkIndependent)

	err := p.svc.RejectDelivery(errors.New("http: request body too large"))
	assert.Equal(t, apperror.KindVerification, apperror.KindOf(err))
	assert.Equal(t, "http: request body too large", apperror.Message(err))

	errs := p.entries(domain.LogLevelError)
	require.Len(t, errs, 1)
	assert.Equal(t, "Webhook verification failed: http: request body too large", errs[0].Message)
}
