package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// EventsKey is the Redis list the audit log is persisted to, newest first.
const EventsKey = "audit:events"

// DefaultRetention caps how many events the log keeps.
const DefaultRetention = 10000

// StoreRecorder persists events directly into the Redis list. The worker
// uses it to drain the queue; tests use it to observe emissions synchronously.
type StoreRecorder struct {
	client    *redis.Client
	retention int64
}

// NewStoreRecorder constructs a StoreRecorder. retention <= 0 falls back to
// DefaultRetention.
func NewStoreRecorder(client *redis.Client, retention int64) *StoreRecorder {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &StoreRecorder{client: client, retention: retention}
}

// Record appends the event and trims the log to the retention window.
func (r *StoreRecorder) Record(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("audit: marshal event: %w", err)
	}
	if err := r.client.LPush(ctx, EventsKey, data).Err(); err != nil {
		return fmt.Errorf("audit: push event: %w", err)
	}
	return r.client.LTrim(ctx, EventsKey, 0, r.retention-1).Err()
}

// Enqueuer hands an event to the background queue. Implemented by
// jobs.Client so the engine does not depend on the queue machinery.
type Enqueuer interface {
	EnqueueAuditEvent(ctx context.Context, event Event) error
}

// QueueRecorder ships events through the job queue. Enqueue failures are
// logged and swallowed so role mutations never fail on audit delivery.
type QueueRecorder struct {
	enqueuer Enqueuer
	logger   *slog.Logger
}

// NewQueueRecorder constructs a QueueRecorder.
func NewQueueRecorder(enqueuer Enqueuer, logger *slog.Logger) *QueueRecorder {
	return &QueueRecorder{enqueuer: enqueuer, logger: logger}
}

// Record enqueues the event. Always returns nil.
func (r *QueueRecorder) Record(ctx context.Context, event Event) error {
	if err := r.enqueuer.EnqueueAuditEvent(ctx, event); err != nil && r.logger != nil {
		r.logger.Error("enqueue audit event",
			slog.String("action", string(event.Action)),
			slog.Any("error", err))
	}
	return nil
}
