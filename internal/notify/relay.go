package notify

import (
	"context"

	"github.com/nholik/admin-state/internal/container"
	"github.com/nholik/admin-state/internal/reducer"
	"github.com/rs/zerolog"
)

const defaultRelayBuffer = 256

// Relay is a container.EventSink that hands events to a Notifier off the dispatch
// path. Unchanged dispatches are not forwarded.
type Relay struct {
	logger   zerolog.Logger
	notifier Notifier
	queue    chan container.Event
}

// NewRelay returns a Relay with room for buffer queued events. A non-positive
// buffer uses the default size.
func NewRelay(logger zerolog.Logger, notifier Notifier, buffer int) *Relay {
	if buffer <= 0 {
		buffer = defaultRelayBuffer
	}
	return &Relay{
		logger:   logger,
		notifier: notifier,
		queue:    make(chan container.Event, buffer),
	}
}

// Record implements container.EventSink. It never blocks; events are dropped
// when the queue is full.
func (r *Relay) Record(event container.Event) {
	if event.Status == reducer.StatusUnchanged {
		return
	}
	select {
	case r.queue <- event:
	default:
		r.logger.Warn().
			Str("event_id", event.ID).
			Str("domain", event.Domain).
			Str("kind", event.Kind).
			Msg("notification queue full; event dropped")
	}
}

// Run delivers queued events until ctx is done. Events queued together are sent
// as one batch. Delivery errors are logged, never returned.
func (r *Relay) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event := <-r.queue:
			batch := r.drain([]container.Event{event})
			if err := r.notifier.Notify(ctx, batch); err != nil {
				r.logger.Error().Err(err).Int("events", len(batch)).Msg("notification failed")
			}
		}
	}
}

// Flush delivers whatever is queued right now. One-shot commands call it before
// exiting since they never start Run.
func (r *Relay) Flush(ctx context.Context) error {
	batch := r.drain(nil)
	if len(batch) == 0 {
		return nil
	}
	return r.notifier.Notify(ctx, batch)
}

func (r *Relay) drain(batch []container.Event) []container.Event {
	for {
		select {
		case event := <-r.queue:
			batch = append(batch, event)
		default:
			return batch
		}
	}
}
