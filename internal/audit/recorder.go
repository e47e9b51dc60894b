package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// TaskTypeRecord is the asynq task type carrying one audit event.
const TaskTypeRecord = "audit:record"

// Recorder enqueues audit events for asynchronous persistence. A nil
// Recorder drops events silently, which keeps tests and the seeder simple.
type Recorder struct {
	client *asynq.Client
	logger *slog.Logger
}

// NewRecorder constructs a Recorder.
func NewRecorder(client *asynq.Client, logger *slog.Logger) *Recorder {
	return &Recorder{client: client, logger: logger}
}

// Record enqueues an event. Enqueue failures are logged, never returned:
// an audit outage must not fail the mutation it describes.
func (r *Recorder) Record(ctx context.Context, actor, action, entity string, entityID int64, detail string) {
	if r == nil || r.client == nil {
		return
	}
	event := Event{
		ID:       uuid.NewString(),
		Actor:    actor,
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Detail:   detail,
		At:       time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		r.logf(ctx, "marshal audit event", err)
		return
	}
	task := asynq.NewTask(TaskTypeRecord, payload)
	if _, err := r.client.EnqueueContext(ctx, task); err != nil {
		r.logf(ctx, "enqueue audit event", err)
	}
}

func (r *Recorder) logf(ctx context.Context, msg string, err error) {
	if r.logger != nil {
		r.logger.WarnContext(ctx, msg, slog.Any("error", err))
	}
}
