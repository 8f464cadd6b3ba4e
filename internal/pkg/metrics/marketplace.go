package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Marketplace records lifecycle counters for requests, quotations, transactions and
// donations. A nil *Marketplace is a valid no-op recorder.
type Marketplace struct {
	requests    *prometheus.CounterVec
	quotations  *prometheus.CounterVec
	acceptances *prometheus.CounterVec
	transitions *prometheus.CounterVec
	donations   *prometheus.CounterVec
}

// NewMarketplace registers the marketplace metrics on the provided registerer.
func NewMarketplace(reg prometheus.Registerer) *Marketplace {
	if reg == nil {
		return &Marketplace{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "givehub_requests_total",
		Help: "Requests created or closed, by action and fund type.",
	}, []string{"action", "fund_type"})
	quotations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "givehub_quotations_total",
		Help: "Quotations submitted or deleted.",
	}, []string{"action"})
	acceptances := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "givehub_acceptances_total",
		Help: "Quotation acceptance attempts by outcome.",
	}, []string{"outcome"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "givehub_transaction_transitions_total",
		Help: "Transaction status transitions by target status.",
	}, []string{"status"})
	donations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "givehub_donations_total",
		Help: "Donation recording attempts by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(requests, quotations, acceptances, transitions, donations)
	return &Marketplace{
		requests:    requests,
		quotations:  quotations,
		acceptances: acceptances,
		transitions: transitions,
		donations:   donations,
	}
}

func (m *Marketplace) RequestCreated(fundType string) {
	if m == nil || m.requests == nil {
		return
	}
	m.requests.WithLabelValues("created", normalizeLabel(fundType)).Inc()
}

func (m *Marketplace) RequestClosed(fundType string) {
	if m == nil || m.requests == nil {
		return
	}
	m.requests.WithLabelValues("closed", normalizeLabel(fundType)).Inc()
}

func (m *Marketplace) QuotationSubmitted() {
	if m == nil || m.quotations == nil {
		return
	}
	m.quotations.WithLabelValues("submitted").Inc()
}

func (m *Marketplace) QuotationDeleted() {
	if m == nil || m.quotations == nil {
		return
	}
	m.quotations.WithLabelValues("deleted").Inc()
}

// Acceptance records an acceptance outcome: accepted, conflict, rejected.
func (m *Marketplace) Acceptance(outcome string) {
	if m == nil || m.acceptances == nil {
		return
	}
	m.acceptances.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *Marketplace) Transition(status string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(status)).Inc()
}

// Donation records a donation outcome: recorded, failed.
func (m *Marketplace) Donation(outcome string) {
	if m == nil || m.donations == nil {
		return
	}
	m.donations.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
