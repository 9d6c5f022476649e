// Package orchestrator runs the scan, deletion and reconciliation passes
// across all registered connectors.
//
// Connector calls within a pass run in parallel up to a fixed limit, each
// bounded by a per-call timeout. A connector failure is recorded in the pass
// result and never aborts the pass; a storage failure does.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"databreaker/internal/broker/connectors"
	"databreaker/internal/broker/metrics"
	"databreaker/internal/broker/store"
	"databreaker/internal/broker/tracer"
	dErrors "databreaker/pkg/domain-errors"
	"databreaker/pkg/platform/circuit"
)

// Config controls fan-out and per-call limits.
type Config struct {
	// Concurrency caps simultaneous connector calls in one pass.
	Concurrency int
	// CallTimeout bounds every individual connector call.
	CallTimeout time.Duration
	// BreakerThreshold stops calling a connector for the rest of a pass after
	// this many consecutive transport failures. Zero disables it.
	BreakerThreshold int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Concurrency: 4,
		CallTimeout: 30 * time.Second,
	}
}

// Orchestrator dispatches passes through a connector registry and persists
// the outcomes.
type Orchestrator struct {
	registry *connectors.Registry
	store    store.Store
	cfg      Config
	logger   *zap.Logger
	metrics  *metrics.Metrics
	tracer   tracer.Tracer
	now      func() time.Time
}

type Option func(*Orchestrator)

func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(o *Orchestrator) {
		if t != nil {
			o.tracer = t
		}
	}
}

func WithConfig(cfg Config) Option {
	return func(o *Orchestrator) {
		if cfg.Concurrency > 0 {
			o.cfg.Concurrency = cfg.Concurrency
		}
		if cfg.CallTimeout > 0 {
			o.cfg.CallTimeout = cfg.CallTimeout
		}
		if cfg.BreakerThreshold > 0 {
			o.cfg.BreakerThreshold = cfg.BreakerThreshold
		}
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

func New(registry *connectors.Registry, st store.Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry: registry,
		store:    st,
		cfg:      DefaultConfig(),
		logger:   zap.NewNop(),
		tracer:   tracer.NewNoop(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.With(zap.String("component", "orchestrator"))
	return o
}

// Registry exposes the connector set the orchestrator dispatches to.
func (o *Orchestrator) Registry() *connectors.Registry {
	return o.registry
}

// Operation names used in logs, metrics and spans.
const (
	opScan   = "scan"
	opDelete = "delete"
	opStatus = "check_status"
)

// call runs fn with the per-call timeout. The deadline is enforced here even
// if the connector ignores its context; a late result is discarded.
func call[T any](ctx context.Context, o *Orchestrator, c connectors.Connector, op string, breakers *breakerSet, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	id := c.ID()

	if b := breakers.get(id); b != nil && !b.Allow() {
		o.observe(id, op, metrics.OutcomeSkipped, 0)
		return zero, connectors.NewError(connectors.ErrorTransport, id,
			"skipped after repeated transport failures in this pass", nil)
	}

	ctx, span := o.tracer.Start(ctx, tracer.SpanConnectorCall,
		tracer.String(tracer.AttrConnectorID, id),
		tracer.String(tracer.AttrOperation, op))

	callCtx, cancel := context.WithTimeout(ctx, o.cfg.CallTimeout)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	start := time.Now()
	go func() {
		v, err := fn(callCtx)
		done <- result{v, err}
	}()

	var r result
	select {
	case r = <-done:
	case <-callCtx.Done():
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			r.err = connectors.NewError(connectors.ErrorTimeout, id,
				fmt.Sprintf("%s exceeded %s", op, o.cfg.CallTimeout), callCtx.Err())
		} else {
			r.err = connectors.NewError(connectors.ErrorTransport, id, op+" canceled", callCtx.Err())
		}
	}
	elapsed := time.Since(start)
	span.End(r.err)

	if r.err != nil {
		o.observe(id, op, metrics.OutcomeFailure, elapsed.Seconds())
		if b := breakers.get(id); b != nil && connectors.IsTransport(r.err) {
			if b.RecordFailure() {
				o.logger.Warn("connector disabled for the rest of this pass",
					zap.String("connector_id", id), zap.String("operation", op))
			}
		}
		return zero, r.err
	}
	o.observe(id, op, metrics.OutcomeSuccess, elapsed.Seconds())
	if b := breakers.get(id); b != nil {
		b.RecordSuccess()
	}
	return r.v, nil
}

func (o *Orchestrator) observe(connectorID, op, outcome string, seconds float64) {
	if o.metrics == nil {
		return
	}
	o.metrics.ObserveCall(connectorID, op, outcome, seconds)
}

// breakerSet holds one breaker per connector for a single pass.
type breakerSet struct {
	byID map[string]*circuit.Breaker
}

func (o *Orchestrator) newBreakers() *breakerSet {
	if o.cfg.BreakerThreshold <= 0 {
		return nil
	}
	bs := &breakerSet{byID: make(map[string]*circuit.Breaker, o.registry.Len())}
	for _, c := range o.registry.All() {
		bs.byID[c.ID()] = circuit.New(c.ID(), circuit.WithFailureThreshold(o.cfg.BreakerThreshold))
	}
	return bs
}

func (bs *breakerSet) get(id string) *circuit.Breaker {
	if bs == nil {
		return nil
	}
	return bs.byID[id]
}

// resolveConnector maps a broker ID to its connector: by ID first, then by
// the broker row's connector field.
func (o *Orchestrator) resolveConnector(ctx context.Context, brokerID string) (connectors.Connector, bool, error) {
	if c, ok := o.registry.Get(brokerID); ok {
		return c, true, nil
	}
	b, err := o.store.GetBroker(ctx, brokerID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, storageFailure("load broker", err)
	}
	if b.Connector == nil {
		return nil, false, nil
	}
	c, ok := o.registry.Get(*b.Connector)
	return c, ok, nil
}

func storageFailure(op string, err error) error {
	return dErrors.Wrap(err, dErrors.CodeStorageFailure, "storage failure: "+op)
}

func (o *Orchestrator) recordPass(pass string) {
	if o.metrics != nil {
		o.metrics.RecordPass(pass)
	}
}
