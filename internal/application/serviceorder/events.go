package serviceorder

import (
	"context"

	"github.com/oficina/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// publishCommitted dispatches events raised by a committed unit of work.
// A handler failure is logged and returned in the result, never as an error:
// the state change it follows is already durable.
func publishCommitted(ctx context.Context, publisher shared.EventPublisher, logger *zap.Logger, events []shared.DomainEvent) shared.DispatchResult {
	if publisher == nil || len(events) == 0 {
		return shared.DispatchResult{}
	}

	result := publisher.Publish(ctx, events...)
	if result.Failed() {
		logger.Error("side effect failed after commit",
			zap.String("event_type", result.Failure.EventType),
			zap.String("event_id", result.Failure.EventID.String()),
			zap.String("handler", result.Failure.Handler),
			zap.Int("undelivered_events", len(result.Undelivered)),
			zap.Error(result.Failure.Err),
		)
	}
	return result
}
