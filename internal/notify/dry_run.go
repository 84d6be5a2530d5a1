package notify

import (
	"context"

	"github.com/nholik/admin-state/internal/container"
	"github.com/rs/zerolog"
)

// DryRunNotifier logs events without sending notifications.
type DryRunNotifier struct {
	logger zerolog.Logger
}

// NewDryRunNotifier returns a notifier that suppresses delivery and logs instead.
func NewDryRunNotifier(logger zerolog.Logger) *DryRunNotifier {
	return &DryRunNotifier{logger: logger}
}

// Notify implements Notifier.
func (n *DryRunNotifier) Notify(_ context.Context, events []container.Event) error {
	for _, event := range events {
		entry := n.logger.Info().
			Str("event_id", event.ID).
			Str("domain", event.Domain).
			Str("kind", event.Kind).
			Str("status", string(event.Status))
		if event.Reason != "" {
			entry = entry.Str("reason", string(event.Reason))
		}
		entry.Msg("[DRY-RUN] Would notify")
	}
	return nil
}
