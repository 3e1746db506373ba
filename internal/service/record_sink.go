package service

import (
	"context"
	"time"

	"payment-failure-monitor/internal/core/domain"
	"payment-failure-monitor/internal/core/ports"
	"payment-failure-monitor/pkg/apperror"

	"github.com/rs/zerolog"
)

// RecordSink writes one structured record per failed payment.
type RecordSink struct {
	store ports.RecordStore
	log   zerolog.Logger
	now   func() time.Time
}

// NewRecordSink creates a record sink backed by store.
func NewRecordSink(store ports.RecordStore, log zerolog.Logger) *RecordSink {
	return &RecordSink{store: store, log: log, now: time.Now}
}

// Create persists payment with the given status. Store errors are logged
// and returned as apperror.KindRecordSink.
func (s *RecordSink) Create(ctx context.Context, payment domain.FailurePayment, status domain.RecordStatus) (*domain.SinkRecord, error) {
	record := domain.NewSinkRecord(payment, status, s.now())

	id, err := s.store.CreateRecord(ctx, record)
	if err != nil {
		s.log.Error().Err(err).Str("payment_id", payment.ID).
			Msgf("Record creation failed for %s: %v", payment.ID, err)
		return nil, apperror.ErrRecordSink(err)
	}
	record.ID = id

	s.log.Info().Str("payment_id", payment.ID).Str("record_id", id).
		Msgf("Record created: %s", id)
	return record, nil
}
