// Package metrics colectores Prometheus del servicio: flujos de varios pasos,
// compensaciones y peticiones HTTP.
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/seedor-api/internal/application/ports"
	"github.com/jhoicas/seedor-api/internal/domain"
)

const namespace = "seedor"

var _ ports.WorkflowMetrics = (*Collector)(nil)

// Collector agrupa los colectores sobre un registry propio (no el global), así cada
// test puede crear el suyo.
type Collector struct {
	registry *prometheus.Registry

	workflows     *prometheus.CounterVec
	compensations *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	inFlight      prometheus.Gauge
}

// New registra los colectores. withRuntime añade los de proceso y runtime de Go.
func New(withRuntime bool) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		workflows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflows_total",
			Help:      "Flujos de varios pasos terminados, por resultado y código de error.",
		}, []string{"workflow", "result", "code"}),
		compensations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compensations_total",
			Help:      "Pasos de compensación ejecutados, por resultado.",
		}, []string{"workflow", "step", "result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Peticiones HTTP atendidas.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duración de las peticiones HTTP.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"method", "route"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Peticiones HTTP en curso.",
		}),
	}
	c.registry.MustRegister(c.workflows, c.compensations, c.httpRequests, c.httpDuration, c.inFlight)
	if withRuntime {
		c.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return c
}

// Registry expone el registry (tests y colectores adicionales).
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// WorkflowFinished implementa ports.WorkflowMetrics.
func (c *Collector) WorkflowFinished(workflow string, err error) {
	result, code := "ok", ""
	if err != nil {
		result, code = "error", domain.AsError(err).Code
	}
	c.workflows.WithLabelValues(workflow, result, code).Inc()
}

// CompensationRan implementa ports.WorkflowMetrics.
func (c *Collector) CompensationRan(workflow, step string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.compensations.WithLabelValues(workflow, step, result).Inc()
}

// Middleware mide cada petición. Usa la ruta registrada (no el path) para acotar la cardinalidad.
func (c *Collector) Middleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		start := time.Now()
		c.inFlight.Inc()
		defer c.inFlight.Dec()

		err := ctx.Next()

		status := ctx.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		route := ctx.Route().Path
		method := ctx.Method()
		c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		c.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler sirve /metrics en formato de exposición de Prometheus.
func (c *Collector) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))
}
