package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"payment-failure-monitor/internal/core/domain"
	"payment-failure-monitor/pkg/apperror"
)

// DefaultSignatureTolerance is the provider's default replay window.
const DefaultSignatureTolerance = 5 * time.Minute

var (
	ErrMissingSignatureHeader = errors.New("missing Stripe-Signature header")
	ErrMalformedSignature     = errors.New("unable to extract timestamp and signatures from header")
	ErrNoMatchingSignature    = errors.New("no signatures found matching the expected signature for payload")
	ErrTimestampOutsideWindow = errors.New("timestamp outside the tolerance zone")
	ErrMissingEventType       = errors.New("event has no type")
)

// HMACSignatureService computes HMAC-SHA256 signatures.
type HMACSignatureService struct{}

// NewHMACSignatureService creates a new HMAC-SHA256 signature service.
func NewHMACSignatureService() *HMACSignatureService {
	return &HMACSignatureService{}
}

// Sign computes HMAC-SHA256 of payload using secretKey.
// Returns lowercase hex-encoded signature.
func (s *HMACSignatureService) Sign(secretKey string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks if signature matches HMAC-SHA256(secretKey, payload).
// Uses constant-time comparison to prevent timing attacks.
func (s *HMACSignatureService) Verify(secretKey string, payload []byte, signature string) bool {
	expected := s.Sign(secretKey, payload)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// SignedPayload builds the string the provider signs: "<timestamp>.<body>".
func SignedPayload(timestamp int64, body []byte) []byte {
	prefix := strconv.FormatInt(timestamp, 10) + "."
	out := make([]byte, 0, len(prefix)+len(body))
	out = append(out, prefix...)
	return append(out, body...)
}

// StripeVerifier implements ports.EventVerifier.
//
// With a secret it checks the Stripe-Signature header (t=<unix>,v1=<hex>)
// against the raw body. Without one the body is trusted as-is: this mode is
// unauthenticated and meant for local development only.
type StripeVerifier struct {
	secret    string
	tolerance time.Duration
	hmac      *HMACSignatureService
	now       func() time.Time
}

// NewStripeVerifier creates a verifier. A non-positive tolerance falls back
// to DefaultSignatureTolerance.
func NewStripeVerifier(secret string, tolerance time.Duration) *StripeVerifier {
	if tolerance <= 0 {
		tolerance = DefaultSignatureTolerance
	}
	return &StripeVerifier{
		secret:    secret,
		tolerance: tolerance,
		hmac:      NewHMACSignatureService(),
		now:       time.Now,
	}
}

// Authenticated reports whether signatures are checked.
func (v *StripeVerifier) Authenticated() bool {
	return v.secret != ""
}

// Verify authenticates rawBody (when a secret is set) and decodes the event.
// Every failure is an apperror.KindVerification error.
func (v *StripeVerifier) Verify(rawBody []byte, signatureHeader string) (*domain.Event, error) {
	if v.Authenticated() {
		if err := v.checkSignature(rawBody, signatureHeader); err != nil {
			return nil, apperror.ErrVerification(err)
		}
	}

	var event domain.Event
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return nil, apperror.ErrVerification(fmt.Errorf("invalid payload: %w", err))
	}
	if event.Type == "" {
		return nil, apperror.ErrVerification(ErrMissingEventType)
	}
	return &event, nil
}

func (v *StripeVerifier) checkSignature(rawBody []byte, header string) error {
	if strings.TrimSpace(header) == "" {
		return ErrMissingSignatureHeader
	}

	timestamp, signatures, err := parseSignatureHeader(header)
	if err != nil {
		return err
	}

	payload := SignedPayload(timestamp, rawBody)
	matched := false
	for _, sig := range signatures {
		if v.hmac.Verify(v.secret, payload, sig) {
			matched = true
			break
		}
	}
	if !matched {
		return ErrNoMatchingSignature
	}

	age := v.now().Sub(time.Unix(timestamp, 0))
	if age > v.tolerance || age < -v.tolerance {
		return ErrTimestampOutsideWindow
	}
	return nil
}

// parseSignatureHeader extracts t and every v1 signature. Other schemes
// (v0, future versions) are ignored.
func parseSignatureHeader(header string) (int64, []string, error) {
	var (
		timestamp  int64
		haveTS     bool
		signatures []string
	)
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "t":
			ts, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, nil, ErrMalformedSignature
			}
			timestamp, haveTS = ts, true
		case "v1":
			signatures = append(signatures, value)
		}
	}
	if !haveTS || len(signatures) == 0 {
		return 0, nil, ErrMalformedSignature
	}
	return timestamp, signatures, nil
}

// SignatureHeader produces a valid Stripe-Signature header value for body.
// Used for local tooling and tests.
func SignatureHeader(secret string, timestamp int64, body []byte) string {
	sig := NewHMACSignatureService().Sign(secret, SignedPayload(timestamp, body))
	return fmt.Sprintf("t=%d,v1=%s", timestamp, sig)
}
