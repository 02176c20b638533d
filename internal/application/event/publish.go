// Package event holds the application-side event plumbing: flushing pending
// aggregate events to the bus and the handlers subscribed to them.
package event

import (
	"context"

	"github.com/yunmao/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// PublishPending flushes and clears the pending domain events of each
// aggregate. It runs after the write has committed, so a publish failure is
// logged rather than returned.
func PublishPending(ctx context.Context, publisher shared.EventPublisher, logger *zap.Logger, aggregates ...shared.AggregateRoot) {
	for _, agg := range aggregates {
		events := agg.GetDomainEvents()
		agg.ClearDomainEvents()
		if publisher == nil || len(events) == 0 {
			continue
		}
		if err := publisher.Publish(ctx, events...); err != nil && logger != nil {
			logger.Warn("Failed to publish domain events",
				zap.String("aggregate_id", agg.GetID().String()),
				zap.Int("event_count", len(events)),
				zap.Error(err),
			)
		}
	}
}
