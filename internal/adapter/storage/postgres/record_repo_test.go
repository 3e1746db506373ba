package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"payment-failure-monitor/internal/core/domain"
	"payment-failure-monitor/pkg/apperror"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRecord() *domain.SinkRecord {
	return &domain.SinkRecord{
		PaymentID:      "ch_1",
		Amount:         49.99,
		Currency:       "USD",
		CustomerEmail:  "jane@example.com",
		CustomerID:     "cus_1",
		FailureCode:    "card_declined",
		FailureMessage: "Your card was declined.",
		Description:    domain.NotAvailable,
		SourceType:     "card",
		Status:         domain.RecordStatusFailed,
		FailedAt:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestRecordRepo_CreateRecord(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.MustParse("3f0c8a52-2b7e-4f0e-9d59-5a3c6a1f0b11")
	repo := NewRecordRepo(mock)
	repo.newID = func() uuid.UUID { return id }
	rec := newTestRecord()

	mock.ExpectExec("INSERT INTO failure_records").
		WithArgs(id, rec.PaymentID, rec.Amount, rec.Currency, rec.CustomerEmail, rec.CustomerID,
			rec.FailureCode, rec.FailureMessage, rec.Description, rec.SourceType,
			"Failed", rec.FailedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	got, err := repo.CreateRecord(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, id.String(), got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepo_CreateRecord_DuplicatesAllowed(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRecordRepo(mock)
	rec := newTestRecord()

	for i := 0; i < 2; i++ {
		mock.ExpectExec("INSERT INTO failure_records").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}

	first, err := repo.CreateRecord(context.Background(), rec)
	require.NoError(t, err)
	second, err := repo.CreateRecord(context.Background(), rec)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepo_CreateRecord_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRecordRepo(mock)

	mock.ExpectExec("INSERT INTO failure_records").
		WillReturnError(errors.New("relation \"failure_records\" does not exist"))

	id, err := repo.CreateRecord(context.Background(), newTestRecord())
	assert.Empty(t, id)
	assert.ErrorContains(t, err, "inserting failure record")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepo_EnsureSchema(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS failure_records").
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	assert.NoError(t, NewRecordRepo(mock).EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepo_EnsureSchema_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("permission denied"))

	err = NewRecordRepo(mock).EnsureSchema(context.Background())
	assert.Equal(t, "SYS_001", apperror.KindOf(err))
}

func TestHealthCheck(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	hc := NewHealthCheck(mock)
	assert.Equal(t, "postgresql", hc.Name())

	mock.ExpectPing()
	assert.NoError(t, hc.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	assert.Error(t, hc.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
