package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "command_center"

// Metrics 发布链路与 HTTP 指标
type Metrics struct {
	registry *prometheus.Registry

	publishTotal    *prometheus.CounterVec
	publishDuration *prometheus.HistogramVec
	armedTriggers   prometheus.Gauge
	recovered       prometheus.Counter

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.publishTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_total",
			Help:      "Publication attempts by platform and outcome",
		},
		[]string{"platform", "outcome", "reason"},
	)
	m.publishDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "publish_duration_seconds",
			Help:      "Platform publish call latency in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"platform"},
	)
	m.armedTriggers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "armed_triggers",
		Help:      "Number of in-process publication triggers currently armed",
	})
	m.recovered = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "interrupted_publications_total",
		Help:      "Items found stuck in PUBLISHING at startup and marked failed",
	})
	m.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)
	m.httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	m.registry.MustRegister(
		m.publishTotal,
		m.publishDuration,
		m.armedTriggers,
		m.recovered,
		m.httpRequestsTotal,
		m.httpRequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObservePublish 记录一次发布结果，成功时 reason 为空
func (m *Metrics) ObservePublish(platform, outcome, reason string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.publishTotal.WithLabelValues(platform, outcome, reason).Inc()
	m.publishDuration.WithLabelValues(platform).Observe(elapsed.Seconds())
}

func (m *Metrics) SetArmedTriggers(n int) {
	if m == nil {
		return
	}
	m.armedTriggers.Set(float64(n))
}

func (m *Metrics) AddRecovered(n int) {
	if m == nil {
		return
	}
	m.recovered.Add(float64(n))
}

// Middleware HTTP 请求计数与耗时
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		m.httpRequestsTotal.WithLabelValues(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpRequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
