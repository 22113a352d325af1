package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/taller-stock/internal/application/stockledger"
)

// Verificar en tiempo de compilación que Collector implementa stockledger.Observer.
var _ stockledger.Observer = (*Collector)(nil)

// Collector métricas Prometheus del ciclo de mutación del coordinador.
// Usa un registry propio para no mezclarse con el registry global.
type Collector struct {
	registry *prometheus.Registry

	optimistic      *prometheus.CounterVec
	settled         *prometheus.CounterVec
	rollbackSkipped *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
}

// NewCollector crea y registra las métricas.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		optimistic: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockledger_optimistic_writes_total",
				Help: "Mutaciones que aplicaron escritura optimista en caché",
			},
			[]string{"kind"},
		),
		settled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockledger_mutations_settled_total",
				Help: "Mutaciones resueltas por resultado",
			},
			[]string{"kind", "status"},
		),
		rollbackSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockledger_rollbacks_skipped_total",
				Help: "Restauraciones descartadas porque la clave tenía una escritura más reciente",
			},
			[]string{"kind"},
		),
		upstreamLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockledger_upstream_duration_seconds",
				Help:    "Duración de la llamada de mutación a la API de inventario",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"kind", "status"},
		),
	}

	c.registry.MustRegister(c.optimistic, c.settled, c.rollbackSkipped, c.upstreamLatency)
	c.registry.MustRegister(collectors.NewGoCollector())
	return c
}

func (c *Collector) OptimisticApplied(kind stockledger.MutationKind) {
	c.optimistic.WithLabelValues(string(kind)).Inc()
}

func (c *Collector) MutationSettled(kind stockledger.MutationKind, status stockledger.MutationStatus, elapsed time.Duration) {
	c.settled.WithLabelValues(string(kind), string(status)).Inc()
	c.upstreamLatency.WithLabelValues(string(kind), string(status)).Observe(elapsed.Seconds())
}

func (c *Collector) RollbackSkipped(kind stockledger.MutationKind) {
	c.rollbackSkipped.WithLabelValues(string(kind)).Inc()
}

// Registry expone el registry (tests y exporters adicionales).
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler handler HTTP de exposición en formato Prometheus.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
