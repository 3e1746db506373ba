package ports

import (
	"context"

	"payment-failure-monitor/internal/core/domain"
)

//go:generate mockgen -source=services.go -destination=mocks/mock_services.go -package=mocks
//go:generate mockgen -source=repositories.go -destination=mocks/mock_repositories.go -package=mocks

// MailMessage is a single plain-text email.
type MailMessage struct {
	From    string
	To      []string
	Subject string
	Body    string
}

// MailSender delivers email through an external transport.
type MailSender interface {
	Send(ctx context.Context, msg MailMessage) error
}

// EventVerifier authenticates a raw webhook body and decodes it.
type EventVerifier interface {
	Verify(rawBody []byte, signatureHeader string) (*domain.Event, error)
}

// FailureNotifier fans a failed payment out to the notification sinks.
type FailureNotifier interface {
	NotifyFailure(ctx context.Context, payment domain.FailurePayment) error
}

// WebhookService is the ingestion entry point used by the HTTP layer.
type WebhookService interface {
	HandleWebhook(ctx context.Context, rawBody []byte, signatureHeader string) (domain.Ack, error)
	// RejectDelivery logs a delivery whose body could not be read and
	// returns the verification error to answer it with.
	RejectDelivery(err error) error
}

// SinkTester exercises both sinks with a synthetic payment.
type SinkTester interface {
	Run(ctx context.Context) (*SinkTestResult, error)
}

// SinkTestResult holds per-sink outcome text from a harness run.
type SinkTestResult struct {
	EmailResult  string
	RecordResult string
}

// ActivityLog exposes the diagnostic buffer to the HTTP layer.
type ActivityLog interface {
	Recent(n int) []domain.LogEntry
	Size() int
	Lifetime() int64
}

// TokenService validates operator bearer tokens.
type TokenService interface {
	Generate(subject string) (string, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed operator token claims.
type TokenClaims struct {
	Subject string
}
