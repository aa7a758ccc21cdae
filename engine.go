package jwtdata

import (
	"context"
	"time"

	internalaudit "github.com/MrEthical07/jwtdata/internal/audit"
	"github.com/MrEthical07/jwtdata/internal/flows"
	"github.com/MrEthical07/jwtdata/internal/rate"
	"github.com/MrEthical07/jwtdata/jwt"
	"github.com/MrEthical07/jwtdata/session"
)

// Engine is the session directory: it resolves handles to live sessions and
// reads or replaces their JWT payload. Build one with [New] and reuse it; all
// methods are safe for concurrent use.
type Engine struct {
	config       Config
	sessionStore *session.Store
	flows        flows.Service
	audit        *internalaudit.Dispatcher
	metrics      *Metrics
	jwtManager   *jwt.Manager
	limiter      *rate.Limiter
	now          func() time.Time
}

// Close flushes pending audit events and stops the dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// Shutdown is Close bounded by ctx: it returns ctx.Err() if pending audit
// events are not delivered in time.
func (e *Engine) Shutdown(ctx context.Context) error {
	if e == nil || e.audit == nil {
		return nil
	}
	return e.audit.Shutdown(ctx)
}

// Config returns a copy of the configuration the engine was built with.
func (e *Engine) Config() Config {
	if e == nil {
		return DefaultConfig()
	}
	return cloneConfig(e.config)
}

// AuditDropped returns how many audit events were dropped, on a full buffer
// or after shutdown.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// AuditDelivered returns how many audit events reached the sink.
func (e *Engine) AuditDelivered() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Delivered()
}

// MetricsSnapshot returns a copy of every counter and histogram.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Health pings the session backend and reports its latency.
func (e *Engine) Health(ctx context.Context) (time.Duration, error) {
	if e == nil || e.sessionStore == nil {
		return 0, ErrEngineNotReady
	}
	latency, err := e.sessionStore.Ping(ctx)
	if err != nil {
		return latency, storageError(err)
	}
	return latency, nil
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) observeLatency(start time.Time) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Observe(MetricPayloadLatency, time.Since(start))
}
