package otel

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/jwtdata"
	"github.com/MrEthical07/jwtdata/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

// Attribute keys on jwtdata_payload_requests_total.
const (
	AttrOp      = attribute.Key("jwtdata.op")
	AttrOutcome = attribute.Key("jwtdata.outcome")
)

type metricsSource interface {
	MetricsSnapshot() jwtdata.MetricsSnapshot
	AuditDropped() uint64
}

type observedCounter struct {
	id         jwtdata.MetricID
	instrument metric.Int64ObservableCounter
}

type observedOutcome struct {
	id    jwtdata.MetricID
	attrs metric.ObserveOption
}

type observedLatency struct {
	id      jwtdata.MetricID
	buckets [8]metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
}

// OTelExporter publishes payload directory metrics through observable
// instruments. Every collection cycle takes one snapshot and reports the
// flat counters, the per-operation outcome series, latency buckets, and
// audit dispatcher counters from it.
type OTelExporter struct {
	source       metricsSource
	registration metric.Registration

	counters       []observedCounter
	requests       metric.Int64ObservableCounter
	outcomes       []observedOutcome
	latencies      []observedLatency
	auditDropped   metric.Int64ObservableCounter
	auditDelivered metric.Int64ObservableCounter
}

// NewOTelExporter registers instruments on meter that read from engine.
func NewOTelExporter(meter metric.Meter, engine *jwtdata.Engine) (*OTelExporter, error) {
	return NewOTelExporterFromSource(meter, engine)
}

// NewOTelExporterFromSource is NewOTelExporter over any snapshot source. The
// audit delivered counter is registered only when source implements
// [internaldefs.AuditDeliveredSource].
func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &OTelExporter{source: source}
	var observables []metric.Observable

	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("create observable counter %s: %w", def.Name, err)
		}
		e.counters = append(e.counters, observedCounter{id: def.ID, instrument: ins})
		observables = append(observables, ins)
	}

	requests, err := meter.Int64ObservableCounter(internaldefs.PayloadRequestsName, metric.WithDescription(internaldefs.PayloadRequestsHelp))
	if err != nil {
		return nil, fmt.Errorf("create observable counter %s: %w", internaldefs.PayloadRequestsName, err)
	}
	e.requests = requests
	observables = append(observables, requests)
	for _, def := range internaldefs.PayloadOutcomeDefs {
		e.outcomes = append(e.outcomes, observedOutcome{
			id:    def.ID,
			attrs: metric.WithAttributes(AttrOp.String(def.Op), AttrOutcome.String(def.Outcome)),
		})
	}

	for _, def := range internaldefs.HistogramDefs {
		l, err := newObservedLatency(meter, def)
		if err != nil {
			return nil, err
		}
		e.latencies = append(e.latencies, l)
		for _, b := range l.buckets {
			observables = append(observables, b)
		}
		observables = append(observables, l.count)
	}

	e.auditDropped, err = meter.Int64ObservableCounter(internaldefs.AuditDroppedName, metric.WithDescription(internaldefs.AuditDroppedHelp))
	if err != nil {
		return nil, fmt.Errorf("create audit dropped counter: %w", err)
	}
	observables = append(observables, e.auditDropped)

	if _, ok := source.(internaldefs.AuditDeliveredSource); ok {
		e.auditDelivered, err = meter.Int64ObservableCounter(internaldefs.AuditDeliveredName, metric.WithDescription(internaldefs.AuditDeliveredHelp))
		if err != nil {
			return nil, fmt.Errorf("create audit delivered counter: %w", err)
		}
		observables = append(observables, e.auditDelivered)
	}

	e.registration, err = meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	return e, nil
}

func newObservedLatency(meter metric.Meter, def internaldefs.HistogramDef) (observedLatency, error) {
	l := observedLatency{id: def.ID}
	for i, suffix := range internaldefs.HistogramBoundSuffix {
		name := def.Name + "_bucket_le_" + suffix
		ins, err := meter.Int64ObservableGauge(name, metric.WithDescription("Cumulative latency bucket count."), metric.WithUnit("{call}"))
		if err != nil {
			return l, fmt.Errorf("create latency bucket gauge %s: %w", name, err)
		}
		l.buckets[i] = ins
	}

	countName := def.Name + "_count"
	ins, err := meter.Int64ObservableGauge(countName, metric.WithDescription("Directory calls timed."), metric.WithUnit("{call}"))
	if err != nil {
		return l, fmt.Errorf("create latency count gauge %s: %w", countName, err)
	}
	l.count = ins
	return l, nil
}

func (e *OTelExporter) observe(_ context.Context, o metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()

	for _, c := range e.counters {
		o.ObserveInt64(c.instrument, int64(snapshot.Counters[c.id]))
	}
	for _, oc := range e.outcomes {
		o.ObserveInt64(e.requests, int64(snapshot.Counters[oc.id]), oc.attrs)
	}
	for _, l := range e.latencies {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snapshot.Histograms[l.id]))
		for i, v := range cumulative {
			o.ObserveInt64(l.buckets[i], int64(v))
		}
		o.ObserveInt64(l.count, int64(cumulative[len(cumulative)-1]))
	}

	o.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))
	if e.auditDelivered != nil {
		o.ObserveInt64(e.auditDelivered, int64(e.source.(internaldefs.AuditDeliveredSource).AuditDelivered()))
	}
	return nil
}

// Close unregisters the collection callback.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
