package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PaymentMetrics records gateway traffic and webhook reconciliation outcomes.
type PaymentMetrics struct {
	initiations *prometheus.CounterVec
	webhooks    *prometheus.CounterVec
	verifyWait  prometheus.Histogram
}

// NewPaymentMetrics registers the payment metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	initiations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_initiations_total",
		Help: "Payment initiation attempts by outcome.",
	}, []string{"outcome"})
	webhooks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhooks_total",
		Help: "Gateway webhook notifications by resulting canonical status.",
	}, []string{"status"})
	verifyWait := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "payment_verify_wait_seconds",
		Help:    "Time spent waiting for the webhook during client-driven verification.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(initiations, webhooks, verifyWait)
	return &PaymentMetrics{
		initiations: initiations,
		webhooks:    webhooks,
		verifyWait:  verifyWait,
	}
}

// IncInitiation counts one initiation attempt with the given outcome.
func (p *PaymentMetrics) IncInitiation(outcome string) {
	if p == nil || p.initiations == nil {
		return
	}
	p.initiations.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncWebhook counts one processed webhook notification.
func (p *PaymentMetrics) IncWebhook(status string) {
	if p == nil || p.webhooks == nil {
		return
	}
	p.webhooks.WithLabelValues(normalizeLabel(status)).Inc()
}

// ObserveVerifyWait records how long a verify call waited for the webhook.
func (p *PaymentMetrics) ObserveVerifyWait(duration time.Duration) {
	if p == nil || p.verifyWait == nil {
		return
	}
	p.verifyWait.Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
