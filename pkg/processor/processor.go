// Package processor bridges batch triggers arriving on Kafka to the
// auto-resolution orchestrator.
package processor

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/sorrel/pkg/kafka"
	"github.com/Ramsey-B/sorrel/pkg/metrics"
	"github.com/Ramsey-B/sorrel/pkg/resolution"
	"github.com/Ramsey-B/sorrel/pkg/tracing"
)

// Processor runs one orchestrator pass per batch trigger.
type Processor struct {
	orchestrator *resolution.Orchestrator
	logger       ectologger.Logger
}

// NewProcessor creates a new processor
func NewProcessor(orchestrator *resolution.Orchestrator, logger ectologger.Logger) *Processor {
	return &Processor{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// HandleTrigger is the consumer callback. Returning an error leaves the
// trigger uncommitted so the batch is retried.
func (p *Processor) HandleTrigger(ctx context.Context, trigger *kafka.BatchTrigger) error {
	ctx, span := tracing.StartSpan(ctx, "processor.Processor.HandleTrigger")
	defer span.End()

	log := p.logger.WithContext(ctx).WithFields(map[string]any{"batch_id": trigger.BatchID})
	log.Info("Processing batch trigger")

	result, err := p.orchestrator.Run(ctx, trigger.BatchID)
	if err != nil {
		metrics.RecordTriggerProcessed("error")
		log.WithError(err).Error("Batch run failed")
		return err
	}
	metrics.RecordTriggerProcessed("success")

	log.WithFields(map[string]any{
		"decided":      result.Decided,
		"needs_review": result.NeedsReview,
	}).Info("Batch run completed")
	return nil
}
