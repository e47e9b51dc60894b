// Package jobs hosts the asynq task handlers and worker bootstrap.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/gatekeep-io/gatekeep/internal/audit"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAuditCleanup applies the audit retention window.
	TaskAuditCleanup = "audit:cleanup"
)

// AuditSink persists audit events delivered through the queue.
type AuditSink interface {
	Insert(ctx context.Context, e audit.Event) error
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// AuditTaskHandler processes audit queue tasks.
type AuditTaskHandler struct {
	sink      AuditSink
	retention time.Duration
	logger    *slog.Logger
	metrics   *Metrics
}

// NewAuditTaskHandler constructs the handler. A nil metrics value disables
// instrumentation.
func NewAuditTaskHandler(sink AuditSink, retention time.Duration, logger *slog.Logger, metrics *Metrics) *AuditTaskHandler {
	if retention <= 0 {
		retention = 90 * 24 * time.Hour
	}
	return &AuditTaskHandler{sink: sink, retention: retention, logger: logger, metrics: metrics}
}

// HandleRecord persists one audit event. A malformed payload is dropped
// rather than retried.
func (h *AuditTaskHandler) HandleRecord(ctx context.Context, t *asynq.Task) error {
	tracker := h.metrics.Track(audit.TaskTypeRecord)
	var event audit.Event
	if err := json.Unmarshal(t.Payload(), &event); err != nil {
		h.logger.Warn("drop malformed audit payload", slog.Any("error", err))
		_ = tracker.End(err)
		return asynq.SkipRetry
	}
	return tracker.End(h.sink.Insert(ctx, event))
}

// HandleCleanup removes audit events beyond the retention window.
func (h *AuditTaskHandler) HandleCleanup(ctx context.Context, t *asynq.Task) error {
	tracker := h.metrics.Track(TaskAuditCleanup)
	removed, err := h.sink.Cleanup(ctx, h.retention)
	if err != nil {
		return tracker.End(err)
	}
	h.logger.Info("audit cleanup", slog.Int64("removed", removed))
	return tracker.End(nil)
}

// NewCleanupTask constructs the cron task.
func NewCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskAuditCleanup, nil)
}
