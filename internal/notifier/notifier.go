package notifier

import (
	"context"
	"log"
)

// Notifier delivers a formatted message. Delivery is best-effort; callers log failures.
type Notifier interface {
	Send(ctx context.Context, text string) error
	Name() string
}

// NoopNotifier only logs the message; used when no provider is configured.
type NoopNotifier struct{}

func NewNoopNotifier() *NoopNotifier { return &NoopNotifier{} }

func (n *NoopNotifier) Name() string { return "none" }

func (n *NoopNotifier) Send(_ context.Context, text string) error {
	log.Printf("[INFO] notification (no provider configured):\n%s", text)
	return nil
}
