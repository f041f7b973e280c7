package qiskit_runtime_go

import (
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "qiskit_runtime"
)

// Metrics is a prometheus.Collector fed by every Session created with WithMetrics.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	tokenRefreshes *uint64

	tokenRefreshesDesc *prometheus.Desc
	requestCounter     *prometheus.CounterVec
	requestLatency     *prometheus.HistogramVec
	jobsSubmitted      *prometheus.CounterVec
	pollCounter        *prometheus.CounterVec
}

// NewMetrics returns an unregistered collector
func NewMetrics() *Metrics {
	return &Metrics{
		tokenRefreshes: toPtr(uint64(0)),

		tokenRefreshesDesc: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "token_refreshes"), "Number of access tokens obtained from IAM", nil, nil),

		requestCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "The total number of requests sent to the platform",
		}, []string{"service", "method", "code"}),

		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: prometheus.BuildFQName(namespace, "", "request_latency"),
			Help: "Histogram represents latency of platform requests in seconds",
		}, []string{"service"}),

		jobsSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_submitted_total",
			Help:      "The total number of sampler jobs accepted by the platform",
		}, []string{"backend"}),

		pollCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_polls_total",
			Help:      "The total number of job status polls by observed status",
		}, []string{"status"}),
	}
}

func (m *Metrics) Describe(d chan<- *prometheus.Desc) {
	d <- m.tokenRefreshesDesc

	m.requestCounter.Describe(d)
	m.requestLatency.Describe(d)
	m.jobsSubmitted.Describe(d)
	m.pollCounter.Describe(d)
}

func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(m.tokenRefreshesDesc, prometheus.CounterValue, float64(atomic.LoadUint64(m.tokenRefreshes)))

	m.requestCounter.Collect(ch)
	m.requestLatency.Collect(ch)
	m.jobsSubmitted.Collect(ch)
	m.pollCounter.Collect(ch)
}

// code is 0 when the request never got a response
func (m *Metrics) observeRequest(svc Service, method string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requestCounter.WithLabelValues(svc.String(), method, strconv.Itoa(code)).Inc()
	m.requestLatency.WithLabelValues(svc.String()).Observe(elapsed.Seconds())
}

func (m *Metrics) countSubmit(backend string) {
	if m == nil {
		return
	}
	m.jobsSubmitted.WithLabelValues(backend).Inc()
}

func (m *Metrics) countPoll(status Status) {
	if m == nil {
		return
	}
	m.pollCounter.WithLabelValues(status.String()).Inc()
}

func (m *Metrics) countRefresh() {
	if m == nil {
		return
	}
	atomic.AddUint64(m.tokenRefreshes, 1)
}

func toPtr[T any](v T) *T {
	return &v
}
