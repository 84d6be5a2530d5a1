package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nholik/admin-state/internal/container"
	"github.com/nholik/admin-state/internal/reducer"
	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
)

const (
	slackMaxBlocks = 50
	// header block + context block in each message
	slackReservedBlocks = 2
	slackMaxEvents      = slackMaxBlocks - slackReservedBlocks
)

// SlackNotifier posts Block Kit messages to a Slack incoming webhook.
type SlackNotifier struct {
	logger   zerolog.Logger
	timing   timingConfig
	delivery *delivery
}

// SlackOption customizes SlackNotifier behavior.
type SlackOption func(*SlackNotifier)

// WithSlackTiming overrides timing parameters (primarily for testing).
func WithSlackTiming(rateInterval time.Duration, rateBurst int, backoffInitial, backoffMax, backoffMaxElapsed time.Duration) SlackOption {
	return func(s *SlackNotifier) {
		s.timing.rateInterval = rateInterval
		s.timing.rateBurst = rateBurst
		s.timing.backoffInitial = backoffInitial
		s.timing.backoffMax = backoffMax
		s.timing.backoffMaxElapsed = backoffMaxElapsed
	}
}

// NewSlackNotifier creates a Slack notifier or a noop notifier when the webhook is empty.
func NewSlackNotifier(logger zerolog.Logger, webhookURL string, opts ...SlackOption) Notifier {
	if webhookURL == "" {
		return NewNoop(logger, "slack webhook not configured; notifications disabled")
	}

	notifier := &SlackNotifier{
		logger: logger,
		timing: defaultTiming,
	}
	for _, opt := range opts {
		opt(notifier)
	}
	notifier.delivery = newDelivery(logger, "slack", webhookURL, notifier.timing)

	return notifier
}

// Notify implements Notifier.
func (n *SlackNotifier) Notify(ctx context.Context, events []container.Event) error {
	for _, batch := range groupByDomain(events) {
		messages := buildSlackMessages(batch.domain, batch.events)
		payloads := make([][]byte, 0, len(messages))
		for _, message := range messages {
			payload, err := json.Marshal(message)
			if err != nil {
				return fmt.Errorf("marshal slack payload: %w", err)
			}
			payloads = append(payloads, payload)
		}
		if err := n.delivery.deliver(ctx, batch.domain, payloads...); err != nil {
			return err
		}

		n.logger.Debug().
			Str("domain", batch.domain).
			Int("events", len(batch.events)).
			Int("messages", len(messages)).
			Msg("slack notification sent")
	}
	return nil
}

func (n *SlackNotifier) postOnce(ctx context.Context, payload []byte) error {
	return n.delivery.send(ctx, payload)
}

func buildSlackMessages(domain string, events []container.Event) []slack.WebhookMessage {
	if len(events) == 0 {
		return nil
	}

	total := len(events)
	chunkTotal := (total + slackMaxEvents - 1) / slackMaxEvents
	messages := make([]slack.WebhookMessage, 0, chunkTotal)

	for i := 0; i < total; i += slackMaxEvents {
		end := min(i+slackMaxEvents, total)
		partIndex := (i / slackMaxEvents) + 1
		messages = append(messages, buildSlackMessage(domain, events[i:end], total, partIndex, chunkTotal))
	}
	return messages
}

func buildSlackMessage(domain string, events []container.Event, total int, partIndex int, partTotal int) slack.WebhookMessage {
	summary := fmt.Sprintf("Domain %s: %d dispatch event(s)", domain, total)
	if partTotal > 1 {
		summary = fmt.Sprintf("%s (part %d/%d)", summary, partIndex, partTotal)
	}
	header := slack.NewHeaderBlock(slack.NewTextBlockObject("plain_text", summary, false, false))
	contextElements := []slack.MixedElement{
		slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("Domain: *%s*", domain), false, false),
	}
	if partTotal > 1 {
		contextElements = append(contextElements, slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("Batch: %d/%d", partIndex, partTotal), false, false))
	}
	contextBlock := slack.NewContextBlock("", contextElements...)

	blocks := []slack.Block{header, contextBlock}
	for _, event := range events {
		blocks = append(blocks, buildEventBlock(event))
	}

	blockSet := slack.Blocks{BlockSet: blocks}
	return slack.WebhookMessage{
		Text:   summary,
		Blocks: &blockSet,
	}
}

func buildEventBlock(event container.Event) slack.Block {
	title := fmt.Sprintf("*%s*: `%s`", event.Kind, statusLabel(event.Status))
	text := slack.NewTextBlockObject("mrkdwn", title, false, false)

	fields := make([]*slack.TextBlockObject, 0, 3)
	if event.Reason != "" {
		fields = append(fields, slack.NewTextBlockObject("mrkdwn", "*Reason:*\n"+string(event.Reason), false, false))
	}
	if event.Detail != "" {
		fields = append(fields, slack.NewTextBlockObject("mrkdwn", "*Detail:*\n"+event.Detail, false, false))
	}
	if !event.At.IsZero() {
		fields = append(fields, slack.NewTextBlockObject("mrkdwn", "*At:*\n"+event.At.Format(time.RFC3339), false, false))
	}
	if len(fields) == 0 {
		fields = nil
	}

	return slack.NewSectionBlock(text, fields, nil)
}

func statusLabel(status reducer.Status) string {
	if status == "" {
		return "UNKNOWN"
	}
	return string(status)
}
