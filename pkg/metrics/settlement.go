package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SettlementMetrics tracks webhook intake, distribution runs, and
// withdrawal transitions.
type SettlementMetrics struct {
	webhookEvents         *prometheus.CounterVec
	distributions         *prometheus.CounterVec
	distributedKobo       prometheus.Counter
	withdrawalTransitions *prometheus.CounterVec
}

// NewSettlementMetrics registers settlement metrics on the provided registerer.
func NewSettlementMetrics(reg prometheus.Registerer) *SettlementMetrics {
	if reg == nil {
		return &SettlementMetrics{}
	}
	webhookEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhook_events_total",
		Help: "Inbound payment webhook events by outcome.",
	}, []string{"outcome"})
	distributions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_distributions_total",
		Help: "Order distribution runs by outcome.",
	}, []string{"outcome"})
	distributedKobo := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_distributed_kobo_total",
		Help: "Total kobo distributed across all wallets.",
	})
	withdrawalTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "withdrawal_transitions_total",
		Help: "Withdrawal state transitions by target status.",
	}, []string{"status"})
	reg.MustRegister(webhookEvents, distributions, distributedKobo, withdrawalTransitions)
	return &SettlementMetrics{
		webhookEvents:         webhookEvents,
		distributions:         distributions,
		distributedKobo:       distributedKobo,
		withdrawalTransitions: withdrawalTransitions,
	}
}

// IncWebhookEvent counts one inbound webhook event with the given outcome.
func (m *SettlementMetrics) IncWebhookEvent(outcome string) {
	if m == nil || m.webhookEvents == nil {
		return
	}
	m.webhookEvents.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncDistribution counts one distribution run with the given outcome.
func (m *SettlementMetrics) IncDistribution(outcome string) {
	if m == nil || m.distributions == nil {
		return
	}
	m.distributions.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// AddDistributedKobo accumulates the total money moved by distributions.
func (m *SettlementMetrics) AddDistributedKobo(amount int64) {
	if m == nil || m.distributedKobo == nil || amount <= 0 {
		return
	}
	m.distributedKobo.Add(float64(amount))
}

// IncWithdrawalTransition counts a withdrawal landing in the given status.
func (m *SettlementMetrics) IncWithdrawalTransition(status string) {
	if m == nil || m.withdrawalTransitions == nil {
		return
	}
	m.withdrawalTransitions.WithLabelValues(normalizeLabel(status)).Inc()
}
