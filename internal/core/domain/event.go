package domain

import "encoding/json"

// EventType is the provider's event discriminant, e.g. "charge.failed".
type EventType string

// Payment failure event types routed to the notification sinks.
const (
	EventChargeFailed              EventType = "charge.failed"
	EventPaymentIntentFailed       EventType = "payment_intent.payment_failed"
	EventInvoicePaymentFailed      EventType = "invoice.payment_failed"
	EventPaymentMethodAttachFailed EventType = "payment_method.attach_failed"
)

// FailureEventTypes lists every event type treated as a payment failure.
var FailureEventTypes = []EventType{
	EventChargeFailed,
	EventPaymentIntentFailed,
	EventInvoicePaymentFailed,
	EventPaymentMethodAttachFailed,
}

// Event is the provider envelope delivered to /webhook. It lives for one request.
type Event struct {
	ID      string    `json:"id"`
	Type    EventType `json:"type"`
	Created int64     `json:"created"`
	Data    EventData `json:"data"`
}

// EventData wraps the provider object the event is about.
type EventData struct {
	Object map[string]any `json:"object"`
}

// UnmarshalJSON never fails on the shape of data or data.object: anything
// that is not a JSON object decodes to an empty Object, and the normalizer
// fills in its defaults.
func (d *EventData) UnmarshalJSON(b []byte) error {
	d.Object = map[string]any{}

	var raw struct {
		Object json.RawMessage `json:"object"`
	}
	if err := json.Unmarshal(b, &raw); err != nil || len(raw.Object) == 0 {
		return nil
	}

	var obj map[string]any
	if err := json.Unmarshal(raw.Object, &obj); err == nil && obj != nil {
		d.Object = obj
	}
	return nil
}

// Ack is the acknowledgment returned to the provider.
type Ack struct {
	Received bool `json:"received"`
}
