package airtable

import (
	"context"

	"payment-failure-monitor/internal/core/domain"
)

// RecordStore implements ports.RecordStore on one Airtable table.
type RecordStore struct {
	client *Client
	table  string
}

func NewRecordStore(client *Client, table string) *RecordStore {
	return &RecordStore{client: client, table: table}
}

func (s *RecordStore) CreateRecord(ctx context.Context, rec *domain.SinkRecord) (string, error) {
	return s.client.CreateRecord(ctx, s.table, rec.Fields())
}
