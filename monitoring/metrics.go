package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sarchlab/korfield/cluster"
	"github.com/sarchlab/korfield/core"
	"github.com/sarchlab/korfield/module"
)

const metricsNamespace = "korfield"

// Metrics exports what modules do as Prometheus metrics. It is a
// tracing.Tracer.
type Metrics struct {
	registry *prometheus.Registry

	virtualTime   prometheus.Gauge
	state         *prometheus.GaugeVec
	neighbors     *prometheus.GaugeVec
	loadGradient  *prometheus.GaugeVec
	ticks         *prometheus.CounterVec
	taskRuns      *prometheus.CounterVec
	neighborsLost *prometheus.CounterVec
	gcCleared     prometheus.Counter
}

// NewMetrics creates the metrics in a registry of their own.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		virtualTime: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "virtual_time_us",
			Help:      "Virtual time of the latest module tick",
		}),
		state: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "module",
			Name:      "state",
			Help:      "Lifecycle state of a module",
		}, []string{"module"}),
		neighbors: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "module",
			Name:      "neighbors",
			Help:      "Live neighbors of a module",
		}, []string{"module"}),
		loadGradient: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "module",
			Name:      "load_gradient",
			Help:      "Load gradient of a module",
		}, []string{"module"}),
		ticks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "module",
			Name:      "ticks_total",
			Help:      "Ticks run by a module",
		}, []string{"module"}),
		taskRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "module",
			Name:      "task_runs_total",
			Help:      "Task runs by module and task",
		}, []string{"module", "task"}),
		neighborsLost: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "module",
			Name:      "neighbors_lost_total",
			Help:      "Dead neighbors dropped by a module",
		}, []string{"module"}),
		gcCleared: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "gc",
			Name:      "cleared_total",
			Help:      "Region slots reclaimed by the collector",
		}),
	}
}

// Registry returns the registry the metrics live in.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Tick updates the gauges of a module.
func (m *Metrics) Tick(mod *module.Module, d module.TickDetail) {
	name := mod.Name()

	m.virtualTime.Set(float64(d.Now))
	m.state.WithLabelValues(name).Set(float64(d.Status.State))
	m.neighbors.WithLabelValues(name).Set(float64(d.Status.NeighborCount))
	m.loadGradient.WithLabelValues(name).Set(d.Status.LoadGradient.Float())
	m.ticks.WithLabelValues(name).Inc()
}

// StateChange records the new state, so that a shutdown shows even though
// the module no longer ticks.
func (m *Metrics) StateChange(mod *module.Module, c module.StateChange) {
	m.state.WithLabelValues(mod.Name()).Set(float64(c.To))
}

// TaskRun counts a task run.
func (m *Metrics) TaskRun(mod *module.Module, task *module.Task, _ core.TimeUs) {
	m.taskRuns.WithLabelValues(mod.Name(), task.Name).Inc()
}

// NeighborLost counts a dropped neighbor.
func (m *Metrics) NeighborLost(mod *module.Module, _ core.ModuleID) {
	m.neighborsLost.WithLabelValues(mod.Name()).Inc()
}

// GC counts reclaimed slots.
func (m *Metrics) GC(d cluster.GCDetail) {
	m.gcCleared.Add(float64(d.Cleared))
}
