package audit

import (
	"context"
	"log"

	"startup-dataroom/backend/internal/audit/domain"
)

// Recorder writes a single access event. Used by the session, NDA, and
// approval code paths. Record is best-effort: failures are logged and do not
// affect the caller's state transition.
type Recorder interface {
	Record(ctx context.Context, e *domain.Entry)
}

// Logger implements Recorder using the audit service.
type Logger struct {
	svc *Service
}

// NewLogger returns a Recorder that writes through svc. svc may be nil; then
// Record is a no-op.
func NewLogger(svc *Service) *Logger {
	return &Logger{svc: svc}
}

// Record writes one access log entry. Best-effort: errors are logged and not returned.
func (l *Logger) Record(ctx context.Context, e *domain.Entry) {
	if l == nil || l.svc == nil {
		return
	}
	if err := l.svc.Record(ctx, e); err != nil {
		log.Printf("audit: failed to record %s/%s: %v", e.Action, e.DocumentID, err)
	}
}
