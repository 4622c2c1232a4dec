package metrics

import "github.com/prometheus/client_golang/prometheus"

// CaptureMetrics exposes counters/histograms for the lead-capture flow.
type CaptureMetrics struct {
	inboundTotal     *prometheus.CounterVec
	repliesTotal     *prometheus.CounterVec
	sendFailures     prometheus.Counter
	conversionsTotal prometheus.Counter
	webhookLatency   *prometheus.HistogramVec
}

func NewCaptureMetrics(reg prometheus.Registerer) *CaptureMetrics {
	m := &CaptureMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eventos",
			Subsystem: "conversation",
			Name:      "inbound_total",
			Help:      "Total inbound chat messages",
		}, []string{"platform", "status"}),
		repliesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eventos",
			Subsystem: "conversation",
			Name:      "replies_total",
			Help:      "Total bot replies by matched rule",
		}, []string{"rule"}),
		sendFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "eventos",
			Subsystem: "conversation",
			Name:      "send_failures_total",
			Help:      "Total outbound sends that failed",
		}),
		conversionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "eventos",
			Subsystem: "clients",
			Name:      "conversions_total",
			Help:      "Total conversations converted to clients",
		}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "eventos",
			Subsystem: "messaging",
			Name:      "webhook_latency_seconds",
			Help:      "Latency of inbound webhook processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"platform"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.repliesTotal, m.sendFailures, m.conversionsTotal, m.webhookLatency)
	return m
}

func (m *CaptureMetrics) ObserveInbound(platform, status string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(platform, status).Inc()
}

func (m *CaptureMetrics) ObserveReply(rule string) {
	if m == nil {
		return
	}
	m.repliesTotal.WithLabelValues(rule).Inc()
}

func (m *CaptureMetrics) ObserveSendFailure() {
	if m == nil {
		return
	}
	m.sendFailures.Inc()
}

func (m *CaptureMetrics) ObserveConversion() {
	if m == nil {
		return
	}
	m.conversionsTotal.Inc()
}

func (m *CaptureMetrics) ObserveWebhookLatency(platform string, seconds float64) {
	if m == nil {
		return
	}
	m.webhookLatency.WithLabelValues(platform).Observe(seconds)
}
