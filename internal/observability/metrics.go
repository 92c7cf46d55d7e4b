package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles Prometheus metrics for the HTTP surface and the
// instrument pipeline and provides a ready-to-use /metrics handler.
type Collector struct {
	gatherer prometheus.Gatherer

	HTTPRequests  *prometheus.CounterVec
	HTTPDurations *prometheus.HistogramVec

	Generations        *prometheus.CounterVec
	GenerationDuration *prometheus.HistogramVec
	Validations        *prometheus.CounterVec
	Exports            *prometheus.CounterVec

	Ready prometheus.Gauge
}

// NewCollector registers forge Prometheus metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of handled HTTP requests, labeled by method, route, and status code.",
	}, []string{"method", "route", "code"})
	requests, err := registerCounterVec(reg, requests, "http_requests_total")
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"method", "route"})
	durations, err = registerHistogramVec(reg, durations, "http_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	generations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "forge_generations_total",
		Help: "Total number of instrument geometry builds, labeled by instrument kind.",
	}, []string{"instrument"})
	generations, err = registerCounterVec(reg, generations, "forge_generations_total")
	if err != nil {
		return nil, err
	}

	generationDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "forge_generation_duration_seconds",
		Help:    "Instrument geometry build latency in seconds.",
		Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"instrument"})
	generationDuration, err = registerHistogramVec(reg, generationDuration, "forge_generation_duration_seconds")
	if err != nil {
		return nil, err
	}

	validations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "forge_validations_total",
		Help: "Total number of completed validation runs, labeled by instrument kind and accuracy tier.",
	}, []string{"instrument", "tier"})
	validations, err = registerCounterVec(reg, validations, "forge_validations_total")
	if err != nil {
		return nil, err
	}

	exports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "forge_exports_total",
		Help: "Total number of geometry exports, labeled by output format.",
	}, []string{"format"})
	exports, err = registerCounterVec(reg, exports, "forge_exports_total")
	if err != nil {
		return nil, err
	}

	ready, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "forge_ready",
		Help: "Whether the server is ready to serve requests (1) or still starting up (0).",
	}), "forge_ready")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:           gatherer,
		HTTPRequests:       requests,
		HTTPDurations:      durations,
		Generations:        generations,
		GenerationDuration: generationDuration,
		Validations:        validations,
		Exports:            exports,
		Ready:              ready,
	}, nil
}

// ObserveRequest records one handled HTTP request. The route label should be
// the registered route pattern rather than the raw URL path.
func (c *Collector) ObserveRequest(method, route string, status int, d time.Duration) {
	if c == nil {
		return
	}
	if c.HTTPRequests != nil {
		c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	}
	if c.HTTPDurations != nil {
		c.HTTPDurations.WithLabelValues(method, route).Observe(d.Seconds())
	}
}

// ObserveGeneration records a completed geometry build for one instrument.
func (c *Collector) ObserveGeneration(instrument string, d time.Duration) {
	if c == nil {
		return
	}
	if c.Generations != nil {
		c.Generations.WithLabelValues(instrument).Inc()
	}
	if c.GenerationDuration != nil {
		c.GenerationDuration.WithLabelValues(instrument).Observe(d.Seconds())
	}
}

// ObserveValidation records a completed validation run and the tier it landed in.
func (c *Collector) ObserveValidation(instrument, tier string) {
	if c == nil || c.Validations == nil {
		return
	}
	c.Validations.WithLabelValues(instrument, tier).Inc()
}

// ObserveExport records one geometry export.
func (c *Collector) ObserveExport(format string) {
	if c == nil || c.Exports == nil {
		return
	}
	c.Exports.WithLabelValues(format).Inc()
}

// SetReady flips the readiness gauge.
func (c *Collector) SetReady(ready bool) {
	if c == nil || c.Ready == nil {
		return
	}
	if ready {
		c.Ready.Set(1)
		return
	}
	c.Ready.Set(0)
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// RoutePattern extracts the matched route pattern from a request for use as a
// metric label. It strips the method prefix that ServeMux patterns carry and
// returns "unknown" for requests that never matched a registered route.
func RoutePattern(r *http.Request) string {
	if r == nil || r.Pattern == "" {
		return "unknown"
	}
	pattern := r.Pattern
	if i := strings.IndexByte(pattern, ' '); i >= 0 {
		pattern = pattern[i+1:]
	}
	if pattern == "" {
		return "unknown"
	}
	return pattern
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
