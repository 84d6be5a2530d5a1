package notify

import (
	"context"

	"github.com/nholik/admin-state/internal/container"
)

// Notifier delivers dispatch events to external systems.
type Notifier interface {
	Notify(ctx context.Context, events []container.Event) error
}

// domainBatch is a run of events that share a domain.
type domainBatch struct {
	domain string
	events []container.Event
}

// groupByDomain splits events per domain, keeping first-seen domain order and
// event order within each domain.
func groupByDomain(events []container.Event) []domainBatch {
	index := make(map[string]int)
	var batches []domainBatch
	for _, event := range events {
		domain := event.Domain
		if domain == "" {
			domain = "default"
		}
		i, ok := index[domain]
		if !ok {
			i = len(batches)
			index[domain] = i
			batches = append(batches, domainBatch{domain: domain})
		}
		batches[i].events = append(batches[i].events, event)
	}
	return batches
}
