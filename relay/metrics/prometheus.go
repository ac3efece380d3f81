// Package metrics provides Prometheus metrics for the message relay.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records routing, augmentation and delivery metrics.
type Collector struct {
	registry *prometheus.Registry

	handledTotal  *prometheus.CounterVec
	handleLatency *prometheus.HistogramVec

	generationFailures prometheus.Counter
	automationFailures prometheus.Counter
	alarmsTotal        prometheus.Counter
	droppedFrames      *prometheus.CounterVec
}

// Config configures the collector.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry

	// Buckets for latency histograms (in seconds)
	LatencyBuckets []float64
}

// DefaultConfig returns default collector configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
	}
}

// NewCollector creates a new metrics collector.
func NewCollector(cfg Config) *Collector {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{registry: registry}

	c.handledTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatrelay",
			Subsystem: "router",
			Name:      "handled_total",
			Help:      "Total number of messages handled, by dispatch mode",
		},
		[]string{"mode"},
	)

	c.handleLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "chatrelay",
			Subsystem: "router",
			Name:      "handle_latency_seconds",
			Help:      "Handle call latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"mode"},
	)

	c.generationFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chatrelay",
			Subsystem: "router",
			Name:      "generation_failures_total",
			Help:      "Total number of failed response generation attempts",
		},
	)

	c.automationFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chatrelay",
			Subsystem: "router",
			Name:      "automation_failures_total",
			Help:      "Total number of failed device automation actions",
		},
	)

	c.alarmsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chatrelay",
			Subsystem: "router",
			Name:      "alarms_total",
			Help:      "Total number of alarms forcing supervised mode",
		},
	)

	c.droppedFrames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatrelay",
			Subsystem: "notifier",
			Name:      "dropped_frames_total",
			Help:      "Total number of notification frames dropped per topic",
		},
		[]string{"topic"},
	)

	registry.MustRegister(
		c.handledTotal,
		c.handleLatency,
		c.generationFailures,
		c.automationFailures,
		c.alarmsTotal,
		c.droppedFrames,
	)

	return c
}

// Handler returns an HTTP handler exposing the collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveHandled records one handled message and its latency.
func (c *Collector) ObserveHandled(mode string, elapsed time.Duration) {
	c.handledTotal.WithLabelValues(mode).Inc()
	c.handleLatency.WithLabelValues(mode).Observe(elapsed.Seconds())
}

// CountGenerationFailure records a failed augmentation attempt.
func (c *Collector) CountGenerationFailure() {
	c.generationFailures.Inc()
}

// CountAutomationFailure records a failed device action.
func (c *Collector) CountAutomationFailure() {
	c.automationFailures.Inc()
}

// CountAlarm records an alarm-forced transition.
func (c *Collector) CountAlarm() {
	c.alarmsTotal.Inc()
}

// CountDroppedFrame records an undeliverable notification frame.
func (c *Collector) CountDroppedFrame(topic string) {
	c.droppedFrames.WithLabelValues(topic).Inc()
}
