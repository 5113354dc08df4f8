// Package events emits audit records for registry changes. The sink is
// one-way: history lives in a downstream service.
package events

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/sorrel/pkg/kafka"
	"github.com/Ramsey-B/sorrel/pkg/tracing"
)

// Emitter publishes audit events for sorrel
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new audit emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// Record emits one audit event describing a change to an entity.
func (e *Emitter) Record(ctx context.Context, entityID, change, actor, reason string) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.Record")
	defer span.End()

	event := &kafka.AuditEvent{
		EventType: "registry.changed",
		EntityID:  entityID,
		Change:    change,
		Actor:     actor,
		Reason:    reason,
	}

	if err := e.producer.PublishAuditEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit audit event")
		return err
	}

	return nil
}
