package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatekeep-io/gatekeep/internal/audit"
)

type fakeSink struct {
	inserted  []audit.Event
	insertErr error
	cleaned   time.Duration
}

func (f *fakeSink) Insert(ctx context.Context, e audit.Event) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, e)
	return nil
}

func (f *fakeSink) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	f.cleaned = olderThan
	return 3, nil
}

func newTestHandler(sink *fakeSink, retention time.Duration) *AuditTaskHandler {
	return NewAuditTaskHandler(sink, retention, slog.New(slog.DiscardHandler), nil)
}

func TestHandleRecordPersistsEvent(t *testing.T) {
	sink := &fakeSink{}
	handler := newTestHandler(sink, time.Hour)

	event := audit.Event{
		ID:       "evt-1",
		Actor:    "1",
		Action:   audit.ActionRoleCreated,
		Entity:   "role",
		EntityID: 42,
		At:       time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	require.NoError(t, err)

	err = handler.HandleRecord(context.Background(), asynq.NewTask(audit.TaskTypeRecord, payload))
	require.NoError(t, err)
	require.Len(t, sink.inserted, 1)
	assert.Equal(t, "evt-1", sink.inserted[0].ID)
}

func TestHandleRecordSkipsRetryOnMalformedPayload(t *testing.T) {
	sink := &fakeSink{}
	handler := newTestHandler(sink, time.Hour)

	err := handler.HandleRecord(context.Background(), asynq.NewTask(audit.TaskTypeRecord, []byte("not json")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Empty(t, sink.inserted)
}

func TestHandleRecordSinkFailureRetries(t *testing.T) {
	sink := &fakeSink{insertErr: errors.New("connection refused")}
	handler := newTestHandler(sink, time.Hour)

	payload, err := json.Marshal(audit.Event{ID: "evt-1"})
	require.NoError(t, err)

	err = handler.HandleRecord(context.Background(), asynq.NewTask(audit.TaskTypeRecord, payload))
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleCleanupUsesRetention(t *testing.T) {
	sink := &fakeSink{}
	handler := newTestHandler(sink, 48*time.Hour)

	err := handler.HandleCleanup(context.Background(), NewCleanupTask())
	require.NoError(t, err)
	assert.Equal(t, 48*time.Hour, sink.cleaned)
}

func TestDefaultRetentionApplied(t *testing.T) {
	sink := &fakeSink{}
	handler := newTestHandler(sink, 0)

	err := handler.HandleCleanup(context.Background(), NewCleanupTask())
	require.NoError(t, err)
	assert.Equal(t, 90*24*time.Hour, sink.cleaned)
}
