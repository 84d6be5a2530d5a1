package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const responseBodyLimit = 1024

type timingConfig struct {
	timeout           time.Duration
	rateInterval      time.Duration
	rateBurst         int
	backoffMaxElapsed time.Duration
	backoffMax        time.Duration
	backoffInitial    time.Duration
}

var defaultTiming = timingConfig{
	timeout:           10 * time.Second,
	rateInterval:      1 * time.Second,
	rateBurst:         1,
	backoffMaxElapsed: 30 * time.Second,
	backoffMax:        10 * time.Second,
	backoffInitial:    1 * time.Second,
}

// delivery sends rendered event payloads to one HTTP target. Every state domain
// has its own rate budget so a burst of product edits cannot starve system
// notifications. Transport errors, 429 and 5xx responses are retried.
type delivery struct {
	target      string
	url         string
	contentType string
	logger      zerolog.Logger
	client      *retryablehttp.Client
	timing      timingConfig

	mu           sync.Mutex
	domainBudget map[string]*rate.Limiter
}

func newDelivery(logger zerolog.Logger, target, url string, timing timingConfig) *delivery {
	client := retryablehttp.NewClient()
	// Retries are driven by deliver so they can honour Retry-After and the
	// per-domain budget.
	client.RetryMax = 0
	client.CheckRetry = func(context.Context, *http.Response, error) (bool, error) {
		return false, nil
	}
	client.Logger = nil
	client.HTTPClient = &http.Client{Timeout: timing.timeout}

	return &delivery{
		target:       target,
		url:          url,
		contentType:  "application/json",
		logger:       logger.With().Str("target", target).Logger(),
		client:       client,
		timing:       timing,
		domainBudget: make(map[string]*rate.Limiter),
	}
}

// deliver waits for the domain's budget and then sends payloads in order. The
// first payload that cannot be delivered stops the batch.
func (d *delivery) deliver(ctx context.Context, domain string, payloads ...[]byte) error {
	if err := d.budget(domain).Wait(ctx); err != nil {
		return fmt.Errorf("%s budget for %s: %w", d.target, domain, err)
	}
	for i, payload := range payloads {
		if err := d.sendWithRetry(ctx, domain, payload); err != nil {
			d.logger.Error().
				Err(err).
				Str("domain", domain).
				Int("payload", i+1).
				Int("payloads", len(payloads)).
				Msg("notification not delivered")
			return err
		}
	}
	return nil
}

func (d *delivery) budget(domain string) *rate.Limiter {
	d.mu.Lock()
	defer d.mu.Unlock()

	limiter, ok := d.domainBudget[domain]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(d.timing.rateInterval), d.timing.rateBurst)
		d.domainBudget[domain] = limiter
	}
	return limiter
}

func (d *delivery) sendWithRetry(ctx context.Context, domain string, payload []byte) error {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = d.timing.backoffInitial
	expo.MaxInterval = d.timing.backoffMax
	expo.MaxElapsedTime = d.timing.backoffMaxElapsed
	policy := &retryAfterBackOff{BackOff: expo}

	attempt := 0
	operation := func() error {
		attempt++
		err := d.send(ctx, payload)
		if err == nil {
			return nil
		}
		var after *retryAfterError
		if errors.As(err, &after) {
			policy.pending = after.Duration
			return err
		}
		var retryable *retryableError
		if errors.As(err, &retryable) {
			return err
		}
		return backoff.Permanent(err)
	}
	onRetry := func(err error, wait time.Duration) {
		d.logger.Warn().
			Err(err).
			Str("domain", domain).
			Int("attempt", attempt).
			Dur("retry_in", wait).
			Msg("notification delivery failed, retrying")
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(policy, ctx), onRetry); err != nil {
		return err
	}
	if attempt > 1 {
		d.logger.Info().Str("domain", domain).Int("attempts", attempt).Msg("notification delivered after retry")
	}
	return nil
}

// send makes a single POST and classifies the response.
func (d *delivery) send(ctx context.Context, payload []byte) error {
	reqCtx, cancel := context.WithTimeout(ctx, d.timing.timeout)
	defer cancel()

	req, err := retryablehttp.NewRequestWithContext(reqCtx, http.MethodPost, d.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build %s request: %w", d.target, err)
	}
	req.Header.Set("Content-Type", d.contentType)

	resp, err := d.client.Do(req)
	if err != nil {
		return &retryableError{err: fmt.Errorf("%s request failed: %w", d.target, err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		limited := fmt.Errorf("%s rate limited: %s", d.target, resp.Status)
		if wait, ok := parseRetryAfter(resp.Header.Get("Retry-After")); ok {
			return &retryAfterError{Duration: wait, err: limited}
		}
		return &retryableError{err: limited}
	case resp.StatusCode >= http.StatusInternalServerError:
		return &retryableError{err: fmt.Errorf("%s server error: %s", d.target, resp.Status)}
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyLimit))
	if text := strings.TrimSpace(string(body)); text != "" {
		return fmt.Errorf("%s rejected notification: %s (%s)", d.target, resp.Status, text)
	}
	return fmt.Errorf("%s rejected notification: %s", d.target, resp.Status)
}

// retryAfterBackOff prefers a server supplied Retry-After over the exponential
// schedule for the next wait.
type retryAfterBackOff struct {
	backoff.BackOff
	pending time.Duration
}

func (b *retryAfterBackOff) NextBackOff() time.Duration {
	if b.pending > 0 {
		wait := b.pending
		b.pending = 0
		return wait
	}
	return b.BackOff.NextBackOff()
}

func parseRetryAfter(value string) (time.Duration, bool) {
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds <= 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		if wait := time.Until(when); wait > 0 {
			return wait, true
		}
	}
	return 0, false
}

type retryableError struct {
	err error
}

func (e *retryableError) Error() string {
	return e.err.Error()
}

func (e *retryableError) Unwrap() error {
	return e.err
}

type retryAfterError struct {
	Duration time.Duration
	err      error
}

func (e *retryAfterError) Error() string {
	return fmt.Sprintf("%v; retry after %s", e.err, e.Duration)
}

func (e *retryAfterError) Unwrap() error {
	return e.err
}
