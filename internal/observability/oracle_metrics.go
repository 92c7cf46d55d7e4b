package observability

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gnomonworks/sundial-forge/model"
)

// Oracle mirrors the ephemeris source contract so the collector can wrap any
// sun position backend without importing one.
type Oracle interface {
	SunAt(ctx context.Context, loc model.Location, at time.Time) (model.SunPosition, error)
}

// OracleCollector exposes sun-oracle-specific Prometheus metrics.
type OracleCollector struct {
	gatherer prometheus.Gatherer

	Requests        *prometheus.CounterVec
	RequestDuration prometheus.Histogram
	CacheHitRatio   prometheus.Gauge
	CacheEntries    prometheus.Gauge
}

// NewOracleCollector registers oracle metrics against the provided registerer.
func NewOracleCollector(reg prometheus.Registerer) (*OracleCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "forge_oracle_requests_total",
		Help: "Total number of sun position lookups, labeled by result.",
	}, []string{"result"})
	requests, err := registerCounterVec(reg, requests, "forge_oracle_requests_total")
	if err != nil {
		return nil, err
	}

	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "forge_oracle_request_duration_seconds",
		Help:    "Duration of sun position lookups performed by the oracle.",
		Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
	})
	duration, err = registerHistogram(reg, duration, "forge_oracle_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	hitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "forge_oracle_cache_hit_ratio",
		Help: "Hit ratio for the oracle's position cache.",
	})
	hitRatio, err = registerGauge(reg, hitRatio, "forge_oracle_cache_hit_ratio")
	if err != nil {
		return nil, err
	}

	entries := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "forge_oracle_cache_entries",
		Help: "Number of entries currently held in the oracle's position cache.",
	})
	entries, err = registerGauge(reg, entries, "forge_oracle_cache_entries")
	if err != nil {
		return nil, err
	}

	return &OracleCollector{
		gatherer:        gatherer,
		Requests:        requests,
		RequestDuration: duration,
		CacheHitRatio:   hitRatio,
		CacheEntries:    entries,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *OracleCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// Meter wraps an oracle so every lookup lands in the request counter and
// duration histogram.
func (c *OracleCollector) Meter(inner Oracle) Oracle {
	return &meteredOracle{inner: inner, collector: c}
}

// SetCacheStats updates the cache gauges from cumulative hit and miss counts
// and the current entry count.
func (c *OracleCollector) SetCacheStats(hits, misses int64, entries int) {
	if c == nil {
		return
	}
	if c.CacheHitRatio != nil {
		ratio := 0.0
		if total := hits + misses; total > 0 {
			ratio = float64(hits) / float64(total)
		}
		c.CacheHitRatio.Set(ratio)
	}
	if c.CacheEntries != nil {
		c.CacheEntries.Set(float64(entries))
	}
}

type meteredOracle struct {
	inner     Oracle
	collector *OracleCollector
}

func (m *meteredOracle) SunAt(ctx context.Context, loc model.Location, at time.Time) (model.SunPosition, error) {
	start := time.Now()
	pos, err := m.inner.SunAt(ctx, loc, at)

	c := m.collector
	if c == nil {
		return pos, err
	}

	result := "ok"
	if err != nil {
		result = "error"
	}
	if c.Requests != nil {
		c.Requests.WithLabelValues(result).Inc()
	}
	if c.RequestDuration != nil {
		c.RequestDuration.Observe(time.Since(start).Seconds())
	}

	return pos, err
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}
