package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"text/template"
	"time"

	"github.com/nholik/admin-state/internal/container"
	"github.com/rs/zerolog"
)

const defaultWebhookTemplate = `{"domain":"{{ .Domain }}","events":{{ toJson .Events }}}`

// WebhookPayload is the template context for webhook notifications.
type WebhookPayload struct {
	Domain      string
	Events      []container.Event
	GeneratedAt time.Time
}

// WebhookNotifier posts dispatch events to a generic webhook, one request per domain.
type WebhookNotifier struct {
	logger   zerolog.Logger
	template *template.Template
	delivery *delivery
}

// NewWebhookNotifier creates a webhook notifier with the provided template.
// It returns nil when webhookURL is empty.
func NewWebhookNotifier(logger zerolog.Logger, webhookURL string, tmpl string) (*WebhookNotifier, error) {
	if webhookURL == "" {
		return nil, nil
	}
	if tmpl == "" {
		tmpl = defaultWebhookTemplate
	}

	parsed, err := template.New("webhook").Funcs(template.FuncMap{
		"toJson": func(v any) (string, error) {
			encoded, err := json.Marshal(v)
			if err != nil {
				return "", err
			}
			return string(encoded), nil
		},
	}).Parse(tmpl)
	if err != nil {
		return nil, fmt.Errorf("parse webhook template: %w", err)
	}

	return &WebhookNotifier{
		logger:   logger,
		template: parsed,
		delivery: newDelivery(logger, "webhook", webhookURL, defaultTiming),
	}, nil
}

// Notify implements Notifier.
func (n *WebhookNotifier) Notify(ctx context.Context, events []container.Event) error {
	if n == nil || len(events) == 0 {
		return nil
	}

	for _, batch := range groupByDomain(events) {
		if err := n.send(ctx, batch); err != nil {
			return err
		}
	}
	return nil
}

func (n *WebhookNotifier) send(ctx context.Context, batch domainBatch) error {
	payload := WebhookPayload{
		Domain:      batch.domain,
		Events:      batch.events,
		GeneratedAt: time.Now().UTC(),
	}

	var buf bytes.Buffer
	if err := n.template.Execute(&buf, payload); err != nil {
		return fmt.Errorf("render webhook template: %w", err)
	}

	if err := n.delivery.deliver(ctx, batch.domain, buf.Bytes()); err != nil {
		return err
	}

	n.logger.Debug().
		Str("domain", batch.domain).
		Int("events", len(batch.events)).
		Msg("webhook notification sent")

	return nil
}
