package telemetry

import (
	"context"

	"startup-dataroom/backend/internal/telemetry/domain"
)

// EventEmitter emits governance events (e.g. to OTel Logs or Kafka).
// Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *domain.Event) error
}
