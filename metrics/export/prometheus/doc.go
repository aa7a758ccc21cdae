// Package prometheus renders the jwtdata payload directory metrics in
// Prometheus text exposition format.
//
// [NewPrometheusExporter] reads [jwtdata.Engine.MetricsSnapshot] on every
// scrape. Read and write outcomes appear twice: as flat counters such as
// jwtdata_payload_read_unauthorized_total, and as
// jwtdata_payload_requests_total{op="read",outcome="unauthorised"} for
// dashboards that aggregate by label. Directory latency is the
// jwtdata_payload_latency_seconds histogram.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry; callers mount the Handler.
//   - Mutate engine state.
package prometheus
