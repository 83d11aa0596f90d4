// Package metrics exposes Prometheus collectors for the routing engine.
package metrics

import (
	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Result labels.
const (
	ResultOK     = "ok"
	ResultFailed = "failed"
)

// Collector bundles the engine metrics. A nil *Collector records nothing.
type Collector struct {
	Operations *prometheus.CounterVec
	Durations  *prometheus.HistogramVec
	Rollbacks  prometheus.Counter
	Failures   *prometheus.CounterVec
}

// NewCollector registers the engine metrics against reg, defaulting to the
// global registry when nil. Collectors already registered by an earlier call
// are reused.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	ops, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pcb_router_operations_total",
		Help: "Engine operations, labeled by operation and result.",
	}, []string{"operation", "result"}))
	if err != nil {
		return nil, err
	}
	durations, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pcb_router_operation_duration_seconds",
		Help:    "Engine operation latency in seconds.",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"operation"}))
	if err != nil {
		return nil, err
	}
	rollbacks, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pcb_router_rollbacks_total",
		Help: "Insert operations rolled back after a failed shove.",
	}))
	if err != nil {
		return nil, err
	}
	failures, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pcb_router_failing_obstacles_total",
		Help: "Failed operations, labeled by the kind of the failing obstacle.",
	}, []string{"kind"}))
	if err != nil {
		return nil, err
	}
	return &Collector{Operations: ops, Durations: durations, Rollbacks: rollbacks, Failures: failures}, nil
}

// ObserveOperation counts one operation and records its duration.
func (c *Collector) ObserveOperation(op string, ok bool, seconds float64) {
	if c == nil {
		return
	}
	result := ResultOK
	if !ok {
		result = ResultFailed
	}
	c.Operations.WithLabelValues(op, result).Inc()
	c.Durations.WithLabelValues(op).Observe(seconds)
}

// IncRollback counts a rolled back insert.
func (c *Collector) IncRollback() {
	if c == nil {
		return
	}
	c.Rollbacks.Inc()
}

// IncFailure counts a failure caused by an obstacle of kind.
func (c *Collector) IncFailure(kind string) {
	if c == nil {
		return
	}
	c.Failures.WithLabelValues(kind).Inc()
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			return c, errors.Newf("collector already registered with incompatible type: %v", err)
		}
		return c, errors.Wrap(err, "register collector")
	}
	return c, nil
}
