package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records outcomes of checkout submissions.
type CheckoutMetrics struct {
	duration *prometheus.HistogramVec
	outcomes *prometheus.CounterVec
	lines    prometheus.Counter
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout submissions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_total",
		Help: "Checkout submissions by outcome.",
	}, []string{"outcome"})
	lines := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_committed_lines_total",
		Help: "Sale rows committed by successful checkouts.",
	})
	reg.MustRegister(duration, outcomes, lines)
	return &CheckoutMetrics{
		duration: duration,
		outcomes: outcomes,
		lines:    lines,
	}
}

// ObserveOutcome records one finished submission.
func (c *CheckoutMetrics) ObserveOutcome(outcome string, elapsed time.Duration) {
	if c == nil || c.outcomes == nil {
		return
	}
	label := normalizeLabel(outcome)
	c.outcomes.WithLabelValues(label).Inc()
	c.duration.WithLabelValues(label).Observe(elapsed.Seconds())
}

// AddCommittedLines counts sale rows created by a successful checkout.
func (c *CheckoutMetrics) AddCommittedLines(n int) {
	if c == nil || c.lines == nil || n <= 0 {
		return
	}
	c.lines.Add(float64(n))
}

func normalizeLabel(value string) string {
	label := strings.ToLower(strings.TrimSpace(value))
	if label == "" {
		return "unknown"
	}
	return strings.ReplaceAll(label, " ", "_")
}
