package service

import (
	"context"
	"time"

	"precisioncalc/src/model"
)

// AuditSink persists calculation and healing records. The service never
// fails a request over a sink error; it logs and moves on.
type AuditSink interface {
	RecordCalculation(ctx context.Context, record *model.CalculationRecord) error
	RecordHealing(ctx context.Context, record *model.HealingRecord) error
}

// Event is a fire-and-forget notification about service activity.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// EventSink receives events as they happen. Implementations must not block;
// the service calls Publish inline on the request path.
type EventSink interface {
	Publish(event Event)
}

type noopAudit struct{}

func (noopAudit) RecordCalculation(context.Context, *model.CalculationRecord) error { return nil }
func (noopAudit) RecordHealing(context.Context, *model.HealingRecord) error         { return nil }

type noopEvents struct{}

func (noopEvents) Publish(Event) {}
