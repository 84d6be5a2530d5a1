package healthcheck

import (
	"sync"
	"time"
)

// Snapshot describes store readiness and the latest state write.
type Snapshot struct {
	Ready             bool       `json:"ready"`
	Domains           int        `json:"domains"`
	LastPersistTime   *time.Time `json:"last_persist_time"`
	LastPersistDomain string     `json:"last_persist_domain,omitempty"`
	PersistDurationMS int64      `json:"persist_duration_ms"`
	LastPersistError  string     `json:"last_persist_error,omitempty"`
	PersistFailures   int        `json:"persist_failures"`
}

// Tracker records store readiness and persistence results for health endpoints.
// It satisfies container.PersistRecorder.
type Tracker struct {
	mu              sync.RWMutex
	ready           bool
	domains         int
	lastPersist     time.Time
	lastDomain      string
	persistDuration time.Duration
	lastErr         string
	failures        int
	now             func() time.Time
}

// NewTracker constructs a new Tracker.
func NewTracker() *Tracker {
	return &Tracker{now: time.Now}
}

// MarkReady records that the store is open and domains containers have loaded.
func (t *Tracker) MarkReady(domains int) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.ready = true
	t.domains = domains
	t.mu.Unlock()
}

// RecordPersist records the outcome of one state write. Failures are counted
// until the next successful write.
func (t *Tracker) RecordPersist(domain string, duration time.Duration, err error) {
	if t == nil {
		return
	}
	now := t.now().UTC()
	t.mu.Lock()
	defer t.mu.Unlock()

	t.lastPersist = now
	t.lastDomain = domain
	t.persistDuration = duration
	if err != nil {
		t.lastErr = err.Error()
		t.failures++
		return
	}
	t.lastErr = ""
	t.failures = 0
}

// Snapshot returns the current tracker snapshot.
func (t *Tracker) Snapshot() Snapshot {
	if t == nil {
		return Snapshot{}
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	var last *time.Time
	if !t.lastPersist.IsZero() {
		value := t.lastPersist
		last = &value
	}
	return Snapshot{
		Ready:             t.ready,
		Domains:           t.domains,
		LastPersistTime:   last,
		LastPersistDomain: t.lastDomain,
		PersistDurationMS: int64(t.persistDuration / time.Millisecond),
		LastPersistError:  t.lastErr,
		PersistFailures:   t.failures,
	}
}

// Ready reports whether the store has been opened and loaded.
func (t *Tracker) Ready() bool {
	if t == nil {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ready
}

// Healthy reports whether the store is ready and the most recent write succeeded.
func (t *Tracker) Healthy() bool {
	if t == nil {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ready && t.lastErr == ""
}
