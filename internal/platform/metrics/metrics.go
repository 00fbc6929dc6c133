package metrics

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "perftrack"

// Collector owns a private Prometheus registry so that tests and multiple
// app instances never collide on the default one.
type Collector struct {
	registry *prometheus.Registry

	requests            *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	rateLimited         prometheus.Counter
	progressRecomputed  *prometheus.CounterVec
	consistencyFailures *prometheus.CounterVec

	totalRequests   uint64
	errorRequests   uint64
	limitedRequests uint64
	totalDurationMs uint64
}

func New() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Collector{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by status code.",
		}, []string{"code"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"code"}),
		rateLimited: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
		progressRecomputed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "goals",
			Name:      "progress_recomputed_total",
			Help:      "Milestone-derived progress recomputations by trigger.",
		}, []string{"trigger"}),
		consistencyFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "goals",
			Name:      "consistency_failures_total",
			Help:      "Goal consistency operations that rolled back, by operation.",
		}, []string{"op"}),
	}
}

func (c *Collector) Record(status int, duration time.Duration) {
	code := strconv.Itoa(status)
	c.requests.WithLabelValues(code).Inc()
	c.requestDuration.WithLabelValues(code).Observe(duration.Seconds())

	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

func (c *Collector) RateLimited() {
	c.rateLimited.Inc()
	atomic.AddUint64(&c.limitedRequests, 1)
}

func (c *Collector) ProgressRecomputed(trigger string) {
	c.progressRecomputed.WithLabelValues(trigger).Inc()
}

func (c *Collector) ConsistencyFailure(op string) {
	c.consistencyFailures.WithLabelValues(op).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	errs := atomic.LoadUint64(&c.errorRequests)
	limited := atomic.LoadUint64(&c.limitedRequests)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":    total,
		"errorsTotal":      errs,
		"rateLimitedTotal": limited,
		"avgDurationMs":    avg,
		"totalDurationMs":  totalMs,
	}
}
