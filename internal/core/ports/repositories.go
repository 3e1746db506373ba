package ports

import (
	"context"

	"payment-failure-monitor/internal/core/domain"
)

// RecordStore persists failure records in an external structured store.
// It returns the store-assigned record id.
type RecordStore interface {
	CreateRecord(ctx context.Context, record *domain.SinkRecord) (string, error)
}
