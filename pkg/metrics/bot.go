package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// BotMetrics records submission, payout and delivery outcomes.
type BotMetrics struct {
	updateDuration *prometheus.HistogramVec
	submissions    *prometheus.CounterVec
	payouts        prometheus.Counter
	payoutAmount   prometheus.Counter
	broadcasts     *prometheus.CounterVec
}

// NewBotMetrics registers the bot metrics on the provided registerer.
func NewBotMetrics(reg prometheus.Registerer) *BotMetrics {
	if reg == nil {
		return &BotMetrics{}
	}
	updateDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "update_duration_seconds",
		Help:    "Duration of Telegram update handling in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"handler"})
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "submissions_total",
		Help: "Submitted codes by outcome.",
	}, []string{"outcome"})
	payouts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payouts_total",
		Help: "Processed payouts.",
	})
	payoutAmount := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payout_amount_total",
		Help: "Total amount paid out.",
	})
	broadcasts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "broadcast_messages_total",
		Help: "Broadcast deliveries by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(updateDuration, submissions, payouts, payoutAmount, broadcasts)
	return &BotMetrics{
		updateDuration: updateDuration,
		submissions:    submissions,
		payouts:        payouts,
		payoutAmount:   payoutAmount,
		broadcasts:     broadcasts,
	}
}

// ObserveUpdate records handling duration for the named handler.
func (b *BotMetrics) ObserveUpdate(handler string, duration time.Duration) {
	if b == nil || b.updateDuration == nil {
		return
	}
	b.updateDuration.WithLabelValues(normalizeLabel(handler)).Observe(duration.Seconds())
}

// IncSubmissions adds accepted and rejected submission counts.
func (b *BotMetrics) IncSubmissions(accepted, rejected int) {
	if b == nil || b.submissions == nil {
		return
	}
	if accepted > 0 {
		b.submissions.WithLabelValues("accepted").Add(float64(accepted))
	}
	if rejected > 0 {
		b.submissions.WithLabelValues("rejected").Add(float64(rejected))
	}
}

// ObservePayout records one processed payout and its amount.
func (b *BotMetrics) ObservePayout(amount decimal.Decimal) {
	if b == nil || b.payouts == nil {
		return
	}
	b.payouts.Inc()
	value, _ := amount.Float64()
	if value > 0 {
		b.payoutAmount.Add(value)
	}
}

// IncBroadcast counts one broadcast delivery attempt.
func (b *BotMetrics) IncBroadcast(delivered bool) {
	if b == nil || b.broadcasts == nil {
		return
	}
	outcome := "delivered"
	if !delivered {
		outcome = "failed"
	}
	b.broadcasts.WithLabelValues(outcome).Inc()
}

func normalizeLabel(name string) string {
	if name == "" {
		return "unknown"
	}
	return name
}
