package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mrsinham/dicomtree/internal/dicom/record"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Scan(t *testing.T) {
	m := New()

	m.ScanStarted()
	if got := testutil.ToFloat64(m.ScansInFlight); got != 1 {
		t.Errorf("in flight = %v, want 1", got)
	}
	m.FileConsidered(ResultDecoded)
	m.FileConsidered(ResultDecoded)
	m.FileConsidered(ResultSkipped)
	m.ScanFinished("completed", 50*time.Millisecond)

	if got := testutil.ToFloat64(m.ScansInFlight); got != 0 {
		t.Errorf("in flight = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.ScanFilesTotal.WithLabelValues(ResultDecoded)); got != 2 {
		t.Errorf("decoded = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ScanFilesTotal.WithLabelValues(ResultSkipped)); got != 1 {
		t.Errorf("skipped = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ScansTotal.WithLabelValues("completed")); got != 1 {
		t.Errorf("completed scans = %v, want 1", got)
	}
}

func TestMetrics_ObserveCollection(t *testing.T) {
	m := New()
	m.ObserveCollection(record.Counts{Patients: 1, Studies: 2, Series: 5, Instances: 40})

	if got := testutil.ToFloat64(m.CollectionObjects.WithLabelValues("instances")); got != 40 {
		t.Errorf("instances = %v, want 40", got)
	}
	if got := testutil.ToFloat64(m.CollectionObjects.WithLabelValues("studies")); got != 2 {
		t.Errorf("studies = %v, want 2", got)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.ScanStarted()
	m.FileConsidered(ResultSkipped)
	m.ScanFinished("cancelled", time.Second)
	m.ObserveCollection(record.Counts{})
	m.ObserveRequest("/patients", 200, time.Millisecond)
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveRequest("/patients", 200, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(string(body), `dicomtree_http_requests_total{code="OK",route="/patients"} 1`) {
		t.Errorf("exposition missing request counter:\n%s", body)
	}
}
