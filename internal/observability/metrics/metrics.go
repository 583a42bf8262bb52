package metrics

import "github.com/prometheus/client_golang/prometheus"

// IntakeMetrics exposes counters/histograms for the call intake pipeline.
type IntakeMetrics struct {
	webhookTotal      *prometheus.CounterVec
	extractionOutcome *prometheus.CounterVec
	webhookLatency    *prometheus.HistogramVec
}

func NewIntakeMetrics(reg prometheus.Registerer) *IntakeMetrics {
	m := &IntakeMetrics{
		webhookTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fieldops",
			Subsystem: "intake",
			Name:      "webhook_total",
			Help:      "Total inbound voice provider webhooks",
		}, []string{"event_type", "status"}),
		extractionOutcome: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fieldops",
			Subsystem: "intake",
			Name:      "extraction_outcome_total",
			Help:      "Transcript extractions by validation outcome",
		}, []string{"outcome"}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fieldops",
			Subsystem: "intake",
			Name:      "webhook_latency_seconds",
			Help:      "Latency of voice provider webhook processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"event_type"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.webhookTotal, m.extractionOutcome, m.webhookLatency)
	return m
}

func (m *IntakeMetrics) ObserveWebhook(eventType, status string) {
	if m == nil {
		return
	}
	m.webhookTotal.WithLabelValues(eventType, status).Inc()
}

func (m *IntakeMetrics) ObserveExtraction(valid bool) {
	if m == nil {
		return
	}
	outcome := "invalid"
	if valid {
		outcome = "valid"
	}
	m.extractionOutcome.WithLabelValues(outcome).Inc()
}

func (m *IntakeMetrics) ObserveWebhookLatency(eventType string, seconds float64) {
	if m == nil {
		return
	}
	m.webhookLatency.WithLabelValues(eventType).Observe(seconds)
}
