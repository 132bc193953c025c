package producer

import (
	"context"

	"startup-dataroom/backend/internal/telemetry/domain"
)

// Producer publishes governance events to a message broker.
type Producer interface {
	Emit(ctx context.Context, event *domain.Event) error
	Close() error
}
