// Package container pairs one live state value with its transition function and a
// durable slot. A Container is created explicitly and handed to its consumers; it
// seeds itself from storage once and writes back after every accepted transition.
package container

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nholik/admin-state/internal/metrics"
	"github.com/nholik/admin-state/internal/reducer"
	"github.com/nholik/admin-state/internal/storage"
	"github.com/rs/zerolog"
)

// Dispatcher is the dispatch half of a container. Consumers that only send actions
// depend on this and never observe state.
type Dispatcher interface {
	Dispatch(ctx context.Context, action reducer.Action) (reducer.Status, error)
}

// Event describes one dispatch for downstream notifiers.
type Event struct {
	ID     string         `json:"id"`
	Domain string         `json:"domain"`
	Kind   string         `json:"kind"`
	Status reducer.Status `json:"status"`
	Reason reducer.Reason `json:"reason,omitempty"`
	Detail string         `json:"detail,omitempty"`
	At     time.Time      `json:"at"`
}

// EventSink receives dispatch events. Record must not block.
type EventSink interface {
	Record(event Event)
}

// PersistRecorder observes the result of every state write.
type PersistRecorder interface {
	RecordPersist(domain string, duration time.Duration, err error)
}

// Container holds the state of one domain.
type Container[S any] struct {
	logger  zerolog.Logger
	domain  string
	medium  storage.Medium
	key     storage.Key
	reduce  reducer.Func[S]
	metrics *metrics.Metrics
	events  EventSink
	tracker PersistRecorder
	now     func() time.Time

	dispatchMu sync.Mutex
	stateMu    sync.RWMutex
	state      S

	subMu       sync.Mutex
	subscribers map[int]func(S)
	nextSubID   int
}

// Option customizes a Container.
type Option func(*config)

type config struct {
	metrics *metrics.Metrics
	events  EventSink
	tracker PersistRecorder
	now     func() time.Time
}

// WithMetrics records dispatch and persistence metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}

// WithEvents forwards an Event for every dispatch to sink.
func WithEvents(sink EventSink) Option {
	return func(c *config) {
		c.events = sink
	}
}

// WithPersistRecorder reports every state write to r.
func WithPersistRecorder(r PersistRecorder) Option {
	return func(c *config) {
		c.tracker = r
	}
}

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		c.now = now
	}
}

// New loads the initial state for key from medium, falling back to def, and
// returns a container driven by reduce.
func New[S any](ctx context.Context, logger zerolog.Logger, domain string, medium storage.Medium, key storage.Key, def S, reduce reducer.Func[S], opts ...Option) *Container[S] {
	cfg := config{now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}

	logger = logger.With().Str("domain", domain).Logger()
	c := &Container[S]{
		logger:      logger,
		domain:      domain,
		medium:      medium,
		key:         key,
		reduce:      reduce,
		metrics:     cfg.metrics,
		events:      cfg.events,
		tracker:     cfg.tracker,
		now:         cfg.now,
		subscribers: make(map[int]func(S)),
	}
	c.state = storage.Load(ctx, medium, logger, key, def)
	return c
}

// Domain returns the domain name.
func (c *Container[S]) Domain() string {
	return c.domain
}

// State returns the current state.
func (c *Container[S]) State() S {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

// Subscribe registers fn to be called with the new state after every accepted
// transition. The returned func removes the subscription.
func (c *Container[S]) Subscribe(fn func(S)) func() {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn
	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		delete(c.subscribers, id)
	}
}

// Dispatch runs action through the transition function. Transitions are processed
// one at a time. Rejections are reported through the returned status, never as
// errors; an error means the action kind is not handled by this domain or the
// states could not be compared. Accepted states are persisted before Dispatch
// returns; a failed write is logged and counted but keeps the new state.
//
// Callbacks, subscribers and event sinks run after the transition lock is
// released, so they may dispatch again.
func (c *Container[S]) Dispatch(ctx context.Context, action reducer.Action) (reducer.Status, error) {
	if reducer.IsNil(action) {
		err := reducer.Unknown(c.domain, action)
		c.logger.Error().Err(err).Msg("transition failed")
		return "", err
	}

	outcome, err := c.transition(ctx, action)
	if err != nil {
		c.logger.Error().Err(err).Str("kind", action.Kind()).Msg("transition failed")
		return "", err
	}

	reducer.Notify(action, outcome)
	c.metrics.IncDispatches(c.domain, string(outcome.Status))

	switch outcome.Status {
	case reducer.StatusRejected:
		c.metrics.IncRejections(c.domain, string(outcome.Reason))
		event := c.logger.Warn().
			Str("kind", action.Kind()).
			Str("reason", string(outcome.Reason))
		if outcome.Detail != "" {
			event = event.Str("detail", outcome.Detail)
		}
		if len(outcome.Fields) > 0 {
			event = event.Interface("fields", outcome.Fields)
		}
		event.Msg("action rejected")
	case reducer.StatusUnchanged:
		c.logger.Debug().Str("kind", action.Kind()).Msg("action produced no change")
	case reducer.StatusAccepted:
		c.logger.Debug().Str("kind", action.Kind()).Msg("action accepted")
		c.publish(outcome.State)
	}

	c.record(action, outcome)
	return outcome.Status, nil
}

// transition reduces, swaps and persists under dispatchMu.
func (c *Container[S]) transition(ctx context.Context, action reducer.Action) (reducer.Outcome[S], error) {
	c.dispatchMu.Lock()
	defer c.dispatchMu.Unlock()

	outcome, err := c.reduce(ctx, c.State(), action)
	if err != nil {
		return reducer.Outcome[S]{}, err
	}
	if outcome.Status == reducer.StatusAccepted {
		c.stateMu.Lock()
		c.state = outcome.State
		c.stateMu.Unlock()
		c.persist(ctx, outcome.State)
	}
	return outcome, nil
}

func (c *Container[S]) persist(ctx context.Context, state S) {
	start := time.Now()
	err := storage.Save(ctx, c.medium, c.key, state)
	duration := time.Since(start)
	if c.tracker != nil {
		c.tracker.RecordPersist(c.domain, duration, err)
	}
	if err != nil {
		c.metrics.IncPersistErrors(c.domain)
		c.logger.Error().Err(err).Str("key", c.key.String()).Msg("persist state failed")
		return
	}
	c.metrics.ObservePersistDuration(duration)
	c.metrics.SetLastPersistTimestamp(time.Now())
}

func (c *Container[S]) publish(state S) {
	c.subMu.Lock()
	subscribers := make([]func(S), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subscribers = append(subscribers, fn)
	}
	c.subMu.Unlock()

	for _, fn := range subscribers {
		fn(state)
	}
}

func (c *Container[S]) record(action reducer.Action, outcome reducer.Outcome[S]) {
	if c.events == nil {
		return
	}
	c.events.Record(Event{
		ID:     uuid.NewString(),
		Domain: c.domain,
		Kind:   action.Kind(),
		Status: outcome.Status,
		Reason: outcome.Reason,
		Detail: outcome.Detail,
		At:     c.now().UTC(),
	})
}
