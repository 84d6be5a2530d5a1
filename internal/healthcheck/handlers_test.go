package healthcheck

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHealthHandlerHealthy(t *testing.T) {
	tracker := NewTracker()
	tracker.MarkReady(4)
	tracker.RecordPersist("settings", 150*time.Millisecond, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	handler := HealthHandler(tracker)
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var payload Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.LastPersistTime == nil {
		t.Fatalf("expected last persist time to be set")
	}
	if payload.Domains != 4 || payload.LastPersistDomain != "settings" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if payload.PersistDurationMS != 150 {
		t.Fatalf("expected duration 150ms, got %d", payload.PersistDurationMS)
	}
}

func TestHealthHandlerUnhealthyAfterFailedPersist(t *testing.T) {
	tracker := NewTracker()
	tracker.MarkReady(4)
	tracker.RecordPersist("products", time.Millisecond, errors.New("disk full"))
	tracker.RecordPersist("products", time.Millisecond, errors.New("disk full"))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	HealthHandler(tracker)(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	var payload Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.LastPersistError != "disk full" || payload.PersistFailures != 2 {
		t.Fatalf("unexpected payload: %+v", payload)
	}

	tracker.RecordPersist("products", time.Millisecond, nil)
	rec = httptest.NewRecorder()
	HealthHandler(tracker)(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected recovery after a successful write, got %d", rec.Code)
	}
}

func TestReadyHandler(t *testing.T) {
	tracker := NewTracker()

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()

	handler := ReadyHandler(tracker)
	handler(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before ready, got %d", rec.Code)
	}

	tracker.MarkReady(4)
	rec = httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 after ready, got %d", rec.Code)
	}
}

func TestNilTrackerIsUnavailable(t *testing.T) {
	var tracker *Tracker
	tracker.RecordPersist("system", time.Millisecond, nil)

	rec := httptest.NewRecorder()
	HealthHandler(tracker)(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
