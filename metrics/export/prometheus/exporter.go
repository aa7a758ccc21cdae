package prometheus

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/MrEthical07/jwtdata"
	"github.com/MrEthical07/jwtdata/metrics/export/internaldefs"
)

const contentType = "text/plain; version=0.0.4; charset=utf-8"

type metricsSource interface {
	MetricsSnapshot() jwtdata.MetricsSnapshot
	AuditDropped() uint64
}

// PrometheusExporter renders payload directory metrics as Prometheus text:
// one flat counter per engine counter, the same read/write counters again
// as jwtdata_payload_requests_total{op,outcome}, the directory latency
// histogram, and the audit dispatcher counters.
type PrometheusExporter struct {
	source metricsSource
}

// NewPrometheusExporter creates an exporter that reads from engine.
func NewPrometheusExporter(engine *jwtdata.Engine) *PrometheusExporter {
	return &PrometheusExporter{source: engine}
}

// NewPrometheusExporterFromSource creates an exporter over any snapshot
// source. Audit deliveries are rendered only when source also implements
// [internaldefs.AuditDeliveredSource].
func NewPrometheusExporterFromSource(source metricsSource) *PrometheusExporter {
	return &PrometheusExporter{source: source}
}

// Handler serves Render. It is meant for a /metrics route.
func (p *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write([]byte(p.Render()))
	})
}

// Render returns the exposition text, or "" when the engine collects
// nothing (metrics disabled and no audit activity).
func (p *PrometheusExporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}

	snapshot := p.source.MetricsSnapshot()
	dropped := p.source.AuditDropped()
	delivered, trackDelivered := auditDelivered(p.source)
	if len(snapshot.Counters) == 0 && len(snapshot.Histograms) == 0 && dropped == 0 && delivered == 0 {
		return ""
	}

	var b strings.Builder
	b.Grow(2560)

	for _, def := range internaldefs.CounterDefs {
		writeHeader(&b, def.Name, def.Help, "counter")
		writeSample(&b, def.Name, "", snapshot.Counters[def.ID])
	}

	writeHeader(&b, internaldefs.PayloadRequestsName, internaldefs.PayloadRequestsHelp, "counter")
	for _, def := range internaldefs.PayloadOutcomeDefs {
		writeSample(&b, internaldefs.PayloadRequestsName, outcomeLabels(def), snapshot.Counters[def.ID])
	}

	for _, def := range internaldefs.HistogramDefs {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snapshot.Histograms[def.ID]))
		writeHistogram(&b, def.Name, def.Help, cumulative)
	}

	writeHeader(&b, internaldefs.AuditDroppedName, internaldefs.AuditDroppedHelp, "counter")
	writeSample(&b, internaldefs.AuditDroppedName, "", dropped)
	if trackDelivered {
		writeHeader(&b, internaldefs.AuditDeliveredName, internaldefs.AuditDeliveredHelp, "counter")
		writeSample(&b, internaldefs.AuditDeliveredName, "", delivered)
	}

	return b.String()
}

func auditDelivered(source metricsSource) (uint64, bool) {
	ds, ok := source.(internaldefs.AuditDeliveredSource)
	if !ok {
		return 0, false
	}
	return ds.AuditDelivered(), true
}

func outcomeLabels(def internaldefs.PayloadOutcomeDef) string {
	return `op="` + def.Op + `",outcome="` + def.Outcome + `"`
}

func writeHeader(b *strings.Builder, name, help, kind string) {
	b.WriteString("# HELP ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(escapeHelp(help))
	b.WriteString("\n# TYPE ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(kind)
	b.WriteByte('\n')
}

// writeSample writes one series line; labels is the text inside {}.
func writeSample(b *strings.Builder, name, labels string, value uint64) {
	b.WriteString(name)
	if labels != "" {
		b.WriteByte('{')
		b.WriteString(labels)
		b.WriteByte('}')
	}
	b.WriteByte(' ')
	b.WriteString(strconv.FormatUint(value, 10))
	b.WriteByte('\n')
}

func writeHistogram(b *strings.Builder, name, help string, cumulative [8]uint64) {
	writeHeader(b, name, help, "histogram")

	bucket := name + "_bucket"
	for i, le := range internaldefs.HistogramBounds {
		writeSample(b, bucket, `le="`+le+`"`, cumulative[i])
	}
	writeSample(b, name+"_count", "", cumulative[len(cumulative)-1])
	// Bucketed latencies only; no sum is tracked.
	writeSample(b, name+"_sum", "", 0)
}

func escapeHelp(help string) string {
	return strings.NewReplacer(`\`, `\\`, "\n", `\n`).Replace(help)
}
