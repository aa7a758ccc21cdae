// Package otel publishes the jwtdata payload directory metrics as
// OpenTelemetry observable instruments.
//
// Each engine counter becomes an Int64ObservableCounter under its
// Prometheus-style name. Read and write outcomes are also reported on
// jwtdata_payload_requests_total with the jwtdata.op and jwtdata.outcome
// attributes. Directory latency buckets are cumulative Int64ObservableGauges.
// One callback takes a single [jwtdata.Engine.MetricsSnapshot] per
// collection cycle, so all series in a cycle agree.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider; callers supply the Meter.
//   - Mutate engine state.
package otel
