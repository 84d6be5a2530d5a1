package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsUpdates(t *testing.T) {
	m := New()

	m.IncDispatches("settings", "accepted")
	m.IncDispatches("settings", "accepted")
	m.IncDispatches("system", "rejected")
	m.IncRejections("system", "InvalidRequest")
	m.ObservePersistDuration(20 * time.Millisecond)
	m.IncPersistErrors("packages")
	m.SetLastPersistTimestamp(time.Unix(100, 0))

	if got := testutil.ToFloat64(m.dispatchesTotal.WithLabelValues("settings", "accepted")); got != 2 {
		t.Fatalf("expected accepted dispatches 2, got %v", got)
	}
	if got := testutil.ToFloat64(m.dispatchesTotal.WithLabelValues("system", "rejected")); got != 1 {
		t.Fatalf("expected rejected dispatches 1, got %v", got)
	}
	if got := testutil.ToFloat64(m.rejectionsTotal.WithLabelValues("system", "InvalidRequest")); got != 1 {
		t.Fatalf("expected rejections 1, got %v", got)
	}
	if got := testutil.ToFloat64(m.persistErrorsTotal.WithLabelValues("packages")); got != 1 {
		t.Fatalf("expected persist errors 1, got %v", got)
	}
	if got := testutil.ToFloat64(m.lastPersistGauge); got != 100 {
		t.Fatalf("expected last persist 100, got %v", got)
	}
	if count := testutil.CollectAndCount(m.persistDurationSeconds); count == 0 {
		t.Fatalf("expected persist duration histogram to be collected")
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics

	m.IncDispatches("settings", "accepted")
	m.IncRejections("settings", "InvalidRequest")
	m.ObservePersistDuration(time.Second)
	m.IncPersistErrors("settings")
	m.SetLastPersistTimestamp(time.Now())
}

func TestHandlerServesRegistry(t *testing.T) {
	m := New()
	m.IncDispatches("products", "unchanged")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `admin_state_dispatches_total{domain="products",status="unchanged"} 1`) {
		t.Fatalf("expected dispatch counter in output, got %s", rec.Body.String())
	}
}
