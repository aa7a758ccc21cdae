package jwtdata

import (
	"encoding/json"
	"io"

	internalaudit "github.com/MrEthical07/jwtdata/internal/audit"
	internalmetrics "github.com/MrEthical07/jwtdata/internal/metrics"
	"github.com/MrEthical07/jwtdata/session"
	"github.com/rs/zerolog"
)

// PayloadStatus is the body-level outcome of a payload operation.
type PayloadStatus string

const (
	// StatusOK means the operation completed against a live session.
	StatusOK PayloadStatus = "OK"
	// StatusUnauthorised means the handle did not resolve to a live session.
	// The spelling matches the wire protocol.
	StatusUnauthorised PayloadStatus = "UNAUTHORISED"
)

// PayloadResult is returned by [Engine.GetPayload] and [Engine.SetPayload].
//
// An unauthorized outcome is a result, not an error: Status is
// [StatusUnauthorised] and Message carries the reason. Errors are reserved
// for invalid input and storage failures.
type PayloadResult struct {
	Status  PayloadStatus
	Message string
	// Payload is set on successful reads only.
	Payload json.RawMessage
}

// Unauthorized reports whether the result is the unauthorized variant.
func (r *PayloadResult) Unauthorized() bool {
	return r != nil && r.Status == StatusUnauthorised
}

// SessionValidator adds a validity rule on top of existence and expiry. A
// session it rejects is treated exactly like an expired one.
type SessionValidator func(*session.Session) bool

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// ZerologSink is an [AuditSink] that writes events through a zerolog logger.
type ZerologSink = internalaudit.ZerologSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// NewZerologSink creates a [ZerologSink] logging through logger.
func NewZerologSink(logger zerolog.Logger) *ZerologSink {
	return internalaudit.NewZerologSink(logger)
}

// MetricID identifies a specific counter or histogram in the in-process
// metrics system.
type MetricID = internalmetrics.MetricID

const (
	MetricPayloadReadSuccess       = MetricID(internalmetrics.MetricPayloadReadSuccess)
	MetricPayloadReadUnauthorized  = MetricID(internalmetrics.MetricPayloadReadUnauthorized)
	MetricPayloadWriteSuccess      = MetricID(internalmetrics.MetricPayloadWriteSuccess)
	MetricPayloadWriteUnauthorized = MetricID(internalmetrics.MetricPayloadWriteUnauthorized)
	// MetricPayloadRejected counts writes refused for invalid or oversized payloads.
	MetricPayloadRejected = MetricID(internalmetrics.MetricPayloadRejected)
	MetricStorageFailure  = MetricID(internalmetrics.MetricStorageFailure)
	MetricTokenIssued     = MetricID(internalmetrics.MetricTokenIssued)
	// MetricPayloadThrottled counts calls refused by the unauthorized-lookup throttle.
	MetricPayloadThrottled = MetricID(internalmetrics.MetricPayloadThrottled)
	// MetricPayloadLatency is the only histogram; it times directory calls.
	MetricPayloadLatency = MetricID(internalmetrics.MetricPayloadLatency)
)

// Metrics holds atomic counters and optional latency histograms.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time deep copy of all metrics.
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics creates a new [Metrics] instance configured by the given
// [MetricsConfig]. When Enabled is false, all operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled:                 cfg.Enabled,
		EnableLatencyHistograms: cfg.EnableLatencyHistograms,
	})
}
