package relay

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"membergate/internal/audit"
)

type fakeOutbox struct {
	rows      []audit.OutboxRow
	published []uuid.UUID
}

func (f *fakeOutbox) NextUnpublished(ctx context.Context, limit int) ([]audit.OutboxRow, error) {
	if limit > len(f.rows) {
		limit = len(f.rows)
	}
	return f.rows[:limit], nil
}

func (f *fakeOutbox) MarkPublished(ctx context.Context, ids []uuid.UUID) error {
	f.published = append(f.published, ids...)
	return nil
}

type fakeProducer struct {
	records []*kgo.Record
	err     error
}

func (f *fakeProducer) ProduceSync(ctx context.Context, records ...*kgo.Record) kgo.ProduceResults {
	f.records = append(f.records, records...)
	if f.err != nil {
		return kgo.ProduceResults{{Err: f.err}}
	}
	return kgo.ProduceResults{}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestDrain_PublishesAndMarks(t *testing.T) {
	rows := []audit.OutboxRow{
		{ID: uuid.New(), EventType: "Member Registration", Payload: []byte(`{"a":1}`)},
		{ID: uuid.New(), EventType: "Data Export", Payload: []byte(`{"b":2}`)},
	}
	outbox := &fakeOutbox{rows: rows}
	producer := &fakeProducer{}
	r := New(outbox, producer, "membergate.audit", discardLogger())

	require.NoError(t, r.Drain(context.Background()))

	require.Len(t, producer.records, 2)
	assert.Equal(t, "membergate.audit", producer.records[0].Topic)
	assert.Equal(t, []byte("Member Registration"), producer.records[0].Key)
	assert.Equal(t, []uuid.UUID{rows[0].ID, rows[1].ID}, outbox.published)
}

func TestDrain_KeepsRowsOnProduceFailure(t *testing.T) {
	outbox := &fakeOutbox{rows: []audit.OutboxRow{
		{ID: uuid.New(), EventType: "Profile Update", Payload: []byte(`{}`)},
	}}
	producer := &fakeProducer{err: errors.New("broker down")}
	r := New(outbox, producer, "membergate.audit", discardLogger())

	err := r.Drain(context.Background())
	require.Error(t, err)
	assert.Empty(t, outbox.published, "rows must stay pending until delivery succeeds")
}

func TestDrain_NoRowsIsNoop(t *testing.T) {
	producer := &fakeProducer{}
	r := New(&fakeOutbox{}, producer, "membergate.audit", discardLogger())

	require.NoError(t, r.Drain(context.Background()))
	assert.Empty(t, producer.records)
}
