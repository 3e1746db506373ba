package domain

import (
	"time"
)

// RecordStatus distinguishes production records from harness records.
type RecordStatus string

const (
	RecordStatusFailed RecordStatus = "Failed"
	RecordStatusTest   RecordStatus = "Test"
)

// SinkRecord is what the record sink persists for one processed event.
// There is no dedupe key: redelivery of the same payment yields a new record.
type SinkRecord struct {
	ID             string // assigned by the store on create
	PaymentID      string
	Amount         float64 // major units, e.g. 49.99
	Currency       string
	CustomerEmail  string
	CustomerID     string
	FailureCode    string
	FailureMessage string
	Description    string
	SourceType     string
	Status         RecordStatus
	FailedAt       time.Time
}

// NewSinkRecord builds the record for payment with the given status.
func NewSinkRecord(p FailurePayment, status RecordStatus, failedAt time.Time) *SinkRecord {
	amount, _ := p.MajorUnits().Float64()
	return &SinkRecord{
		PaymentID:      p.ID,
		Amount:         amount,
		Currency:       p.Currency,
		CustomerEmail:  p.CustomerEmail,
		CustomerID:     p.CustomerID,
		FailureCode:    p.FailureCode,
		FailureMessage: p.FailureMessage,
		Description:    p.Description,
		SourceType:     p.SourceType,
		Status:         status,
		FailedAt:       failedAt.UTC(),
	}
}

// Fields returns the record keyed by the structured-store column names.
func (r *SinkRecord) Fields() map[string]any {
	return map[string]any{
		"Payment ID":      r.PaymentID,
		"Amount":          r.Amount,
		"Currency":        r.Currency,
		"Customer Email":  r.CustomerEmail,
		"Customer ID":     r.CustomerID,
		"Failure Code":    r.FailureCode,
		"Failure Message": r.FailureMessage,
		"Description":     r.Description,
		"Source Type":     r.SourceType,
		"Status":          string(r.Status),
		"Failed At":       r.FailedAt.Format(ISOTimestamp),
	}
}

// ISOTimestamp is ISO-8601 with millisecond precision, the format used for
// every timestamp this service emits.
const ISOTimestamp = "2006-01-02T15:04:05.000Z07:00"
