package prometheus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/jwtdata"
)

type fakeSource struct {
	snapshot jwtdata.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() jwtdata.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                    { return f.dropped }

func TestRenderEmptyWhenMetricsDisabled(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: jwtdata.MetricsSnapshot{
			Counters:   map[jwtdata.MetricID]uint64{},
			Histograms: map[jwtdata.MetricID][]uint64{},
		},
		dropped: 0,
	})

	if got := exp.Render(); got != "" {
		t.Fatalf("expected empty output for disabled metrics, got:\n%s", got)
	}
}

func TestRenderDeterministicIncludesCounterAndHistogram(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: jwtdata.MetricsSnapshot{
			Counters: map[jwtdata.MetricID]uint64{
				jwtdata.MetricPayloadReadSuccess: 7,
			},
			Histograms: map[jwtdata.MetricID][]uint64{
				jwtdata.MetricPayloadLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})

	out := exp.Render()
	if !strings.Contains(out, "jwtdata_payload_read_success_total 7") {
		t.Fatalf("expected payload read counter in output, got:\n%s", out)
	}
	if !strings.Contains(out, "jwtdata_payload_latency_seconds_bucket{le=\"0.005\"} 1") {
		t.Fatalf("expected first histogram bucket in output, got:\n%s", out)
	}
	if !strings.Contains(out, "jwtdata_payload_latency_seconds_bucket{le=\"+Inf\"} 36") {
		t.Fatalf("expected +Inf cumulative bucket in output, got:\n%s", out)
	}
	if !strings.Contains(out, "jwtdata_audit_dropped_total 2") {
		t.Fatalf("expected audit dropped counter in output, got:\n%s", out)
	}
	if !strings.Contains(out, `jwtdata_payload_requests_total{op="read",outcome="ok"} 7`) {
		t.Fatalf("expected labeled read outcome in output, got:\n%s", out)
	}
	if !strings.Contains(out, `jwtdata_payload_requests_total{op="write",outcome="rejected"} 0`) {
		t.Fatalf("expected zero-valued labeled series in output, got:\n%s", out)
	}
	if strings.Count(out, "# TYPE jwtdata_payload_requests_total counter") != 1 {
		t.Fatalf("expected one TYPE line for the labeled family, got:\n%s", out)
	}
	if strings.Contains(out, "jwtdata_audit_delivered_total") {
		t.Fatalf("source without delivery tracking must not render delivered, got:\n%s", out)
	}
}

func TestRenderFromEngine(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	engine, err := jwtdata.New().WithRedis(rdb).WithLatencyHistograms(true).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	res, err := engine.GetPayload(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetPayload: %v", err)
	}
	if !res.Unauthorized() {
		t.Fatalf("expected unauthorised result, got %+v", res)
	}

	out := NewPrometheusExporter(engine).Render()
	if !strings.Contains(out, "jwtdata_payload_read_unauthorized_total 1") {
		t.Fatalf("expected unauthorized read counter, got:\n%s", out)
	}
	if !strings.Contains(out, "jwtdata_payload_latency_seconds_count 1") {
		t.Fatalf("expected one latency observation, got:\n%s", out)
	}
	if !strings.Contains(out, `jwtdata_payload_requests_total{op="read",outcome="unauthorised"} 1`) {
		t.Fatalf("expected labeled unauthorised read, got:\n%s", out)
	}
	if !strings.Contains(out, "jwtdata_audit_delivered_total 0") {
		t.Fatalf("expected audit delivered counter from engine, got:\n%s", out)
	}
}

func TestHandlerWritesPrometheusContentType(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: jwtdata.MetricsSnapshot{
			Counters:   map[jwtdata.MetricID]uint64{jwtdata.MetricPayloadReadSuccess: 1},
			Histograms: map[jwtdata.MetricID][]uint64{},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected prometheus content type, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func BenchmarkRender(b *testing.B) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: jwtdata.MetricsSnapshot{
			Counters: map[jwtdata.MetricID]uint64{
				jwtdata.MetricPayloadReadSuccess:       1000,
				jwtdata.MetricPayloadReadUnauthorized:  40,
				jwtdata.MetricPayloadWriteSuccess:      800,
				jwtdata.MetricPayloadWriteUnauthorized: 10,
				jwtdata.MetricPayloadRejected:          3,
				jwtdata.MetricStorageFailure:           1,
			},
			Histograms: map[jwtdata.MetricID][]uint64{
				jwtdata.MetricPayloadLatency: {10, 20, 30, 40, 50, 60, 70, 80},
			},
		},
		dropped: 0,
	})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = exp.Render()
	}
}
