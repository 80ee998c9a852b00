// Package jobs runs background work through Asynq.
package jobs

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/listora/listora/internal/audit"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAuditRecord persists one audit event into the Redis log.
	TaskAuditRecord = "audit:record"
)

// NewAuditRecordTask constructs an Asynq task carrying one audit event.
func NewAuditRecordTask(event audit.Event) (*asynq.Task, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditRecord, data), nil
}

// NewAuditRecordHandler returns the handler draining audit events into the
// store. Malformed payloads are dropped rather than retried.
func NewAuditRecordHandler(recorder *audit.StoreRecorder) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var event audit.Event
		if err := json.Unmarshal(t.Payload(), &event); err != nil {
			return asynq.SkipRetry
		}
		return recorder.Record(ctx, event)
	}
}
