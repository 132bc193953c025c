package notify

import (
	"context"
	"log"
	"time"
)

// sendTimeout is the max time allowed for a single async delivery.
const sendTimeout = 5 * time.Second

// SendAsync runs Send in a goroutine with a short timeout so state transitions
// are never blocked by delivery. Errors are logged and dropped.
//
// notifier may be nil; SendAsync returns immediately without starting a goroutine.
// The goroutine uses context.Background() so request cancellation does not abort in-flight delivery.
func SendAsync(notifier Notifier, ctx context.Context, userID, notifType string, payload map[string]string) {
	if notifier == nil || userID == "" {
		return
	}
	go func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		if err := notifier.Send(sendCtx, userID, notifType, payload); err != nil {
			log.Printf("notify: async send failed: %v", err)
		}
	}()
}
