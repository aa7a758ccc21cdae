package internaldefs

import (
	"github.com/MrEthical07/jwtdata"
)

// CounterDef maps one engine counter to its exported name.
type CounterDef struct {
	ID   jwtdata.MetricID
	Name string
	Help string
}

// HistogramDef maps one engine histogram to its exported name.
type HistogramDef struct {
	ID   jwtdata.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in rendering order.
var CounterDefs = []CounterDef{
	{ID: jwtdata.MetricPayloadReadSuccess, Name: "jwtdata_payload_read_success_total", Help: "Payload reads served from a live session."},
	{ID: jwtdata.MetricPayloadReadUnauthorized, Name: "jwtdata_payload_read_unauthorized_total", Help: "Payload reads answered UNAUTHORISED."},
	{ID: jwtdata.MetricPayloadWriteSuccess, Name: "jwtdata_payload_write_success_total", Help: "Payload replacements applied to a live session."},
	{ID: jwtdata.MetricPayloadWriteUnauthorized, Name: "jwtdata_payload_write_unauthorized_total", Help: "Payload writes answered UNAUTHORISED."},
	{ID: jwtdata.MetricPayloadRejected, Name: "jwtdata_payload_rejected_total", Help: "Payload writes refused as invalid or oversized."},
	{ID: jwtdata.MetricStorageFailure, Name: "jwtdata_storage_failure_total", Help: "Operations failed by the session backend."},
	{ID: jwtdata.MetricTokenIssued, Name: "jwtdata_token_issued_total", Help: "Access tokens signed with a session payload."},
	{ID: jwtdata.MetricPayloadThrottled, Name: "jwtdata_payload_throttled_total", Help: "Payload calls refused after repeated unauthorized lookups."},
}

// PayloadRequestsName is the family that breaks payload calls down by
// operation and outcome. It is derived from the counters above, so totals
// match the flat series.
const (
	PayloadRequestsName = "jwtdata_payload_requests_total"
	PayloadRequestsHelp = "Payload directory calls by operation and outcome."
)

// Payload operations and outcomes used as label values.
const (
	OpRead  = "read"
	OpWrite = "write"

	OutcomeOK           = "ok"
	OutcomeUnauthorised = "unauthorised"
	OutcomeRejected     = "rejected"
)

// PayloadOutcomeDef is one (op, outcome) series of PayloadRequestsName.
type PayloadOutcomeDef struct {
	ID      jwtdata.MetricID
	Op      string
	Outcome string
}

// PayloadOutcomeDefs lists the labeled payload series in rendering order.
// Throttled calls and storage failures are not attributed to an operation.
var PayloadOutcomeDefs = []PayloadOutcomeDef{
	{ID: jwtdata.MetricPayloadReadSuccess, Op: OpRead, Outcome: OutcomeOK},
	{ID: jwtdata.MetricPayloadReadUnauthorized, Op: OpRead, Outcome: OutcomeUnauthorised},
	{ID: jwtdata.MetricPayloadWriteSuccess, Op: OpWrite, Outcome: OutcomeOK},
	{ID: jwtdata.MetricPayloadWriteUnauthorized, Op: OpWrite, Outcome: OutcomeUnauthorised},
	{ID: jwtdata.MetricPayloadRejected, Op: OpWrite, Outcome: OutcomeRejected},
}

// Audit dispatcher series. Sources without delivery tracking skip the
// delivered counter.
const (
	AuditDroppedName   = "jwtdata_audit_dropped_total"
	AuditDroppedHelp   = "Audit events discarded on a full buffer or after shutdown."
	AuditDeliveredName = "jwtdata_audit_delivered_total"
	AuditDeliveredHelp = "Audit events handed to the sink."
)

// AuditDeliveredSource is implemented by sources that count delivered audit
// events, [jwtdata.Engine] among them.
type AuditDeliveredSource interface {
	AuditDelivered() uint64
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: jwtdata.MetricPayloadLatency, Name: "jwtdata_payload_latency_seconds", Help: "Session directory call latency."},
}

// HistogramBounds are the upper bounds, in seconds, of the engine's latency buckets.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is HistogramBounds made safe for metric names.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed array, zero-filling missing buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals, as
// Prometheus "le" buckets expect.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
