package postgres

import (
	"context"
	"fmt"

	"payment-failure-monitor/internal/core/domain"
	"payment-failure-monitor/pkg/apperror"

	"github.com/google/uuid"
)

const createFailureRecordsTable = `CREATE TABLE IF NOT EXISTS failure_records (
	id              UUID PRIMARY KEY,
	payment_id      TEXT NOT NULL,
	amount          NUMERIC(14,2) NOT NULL,
	currency        TEXT NOT NULL,
	customer_email  TEXT NOT NULL,
	customer_id     TEXT NOT NULL,
	failure_code    TEXT NOT NULL,
	failure_message TEXT NOT NULL,
	description     TEXT NOT NULL,
	source_type     TEXT NOT NULL,
	status          TEXT NOT NULL,
	failed_at       TIMESTAMPTZ NOT NULL
)`

// RecordRepo implements ports.RecordStore on a failure_records table. Rows
// are append-only; payment_id is deliberately not unique.
type RecordRepo struct {
	pool  Pool
	newID func() uuid.UUID
}

// NewRecordRepo creates a PostgreSQL-backed RecordStore.
func NewRecordRepo(pool Pool) *RecordRepo {
	return &RecordRepo{pool: pool, newID: uuid.New}
}

// EnsureSchema creates the failure_records table when missing.
func (r *RecordRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, createFailureRecordsTable); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("creating failure_records: %w", err))
	}
	return nil
}

func (r *RecordRepo) CreateRecord(ctx context.Context, rec *domain.SinkRecord) (string, error) {
	id := r.newID()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO failure_records
		(id, payment_id, amount, currency, customer_email, customer_id, failure_code, failure_message, description, source_type, status, failed_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		id, rec.PaymentID, rec.Amount, rec.Currency, rec.CustomerEmail, rec.CustomerID,
		rec.FailureCode, rec.FailureMessage, rec.Description, rec.SourceType,
		string(rec.Status), rec.FailedAt,
	)
	if err != nil {
		return "", fmt.Errorf("inserting failure record: %w", err)
	}
	return id.String(), nil
}
