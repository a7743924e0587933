package metrics

import (
	"net/http"

	"github.com/dan13ram/xbridge-engine/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the engine's Prometheus collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	activeMonitors prometheus.Gauge
	transitions    *prometheus.CounterVec
	pollErrors     *prometheus.CounterVec
	transfers      *prometheus.CounterVec
	deliveries     *prometheus.CounterVec
	terminal       *prometheus.CounterVec
}

func New(namespace string) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		activeMonitors: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_monitors",
			Help:      "Transactions currently being polled",
		}),

		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "phase_transitions_total",
			Help:      "Phase transitions applied by the monitor",
		}, []string{"phase"}),

		pollErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_errors_total",
			Help:      "Failed phase queries by bridge provider",
		}, []string{"provider"}),

		transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfers_created_total",
			Help:      "Transfers created by path and submission result",
		}, []string{"source_chain", "target_chain", "result"}),

		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_deliveries_total",
			Help:      "Notification delivery attempts by channel and result",
		}, []string{"channel", "result"}),

		terminal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "terminal_transfers_total",
			Help:      "Transfers that reached a terminal phase",
		}, []string{"phase", "asset"}),
	}

	registry.MustRegister(
		m.activeMonitors,
		m.transitions,
		m.pollErrors,
		m.transfers,
		m.deliveries,
		m.terminal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) SetActiveMonitors(n int) {
	if m == nil {
		return
	}
	m.activeMonitors.Set(float64(n))
}

func (m *Metrics) ObserveTransition(phase models.Phase) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(string(phase)).Inc()
}

func (m *Metrics) ObservePollError(provider models.Provider) {
	if m == nil {
		return
	}
	m.pollErrors.WithLabelValues(string(provider)).Inc()
}

func (m *Metrics) ObserveTransfer(source models.Chain, target models.Chain, submitted bool) {
	if m == nil {
		return
	}
	m.transfers.WithLabelValues(string(source), string(target), result(submitted)).Inc()
}

func (m *Metrics) ObserveDelivery(channel models.ChannelType, delivered bool) {
	if m == nil {
		return
	}
	m.deliveries.WithLabelValues(string(channel), result(delivered)).Inc()
}

func (m *Metrics) ObserveTerminal(tx *models.BridgeTransaction) {
	if m == nil || tx == nil {
		return
	}
	m.terminal.WithLabelValues(string(tx.Phase), tx.Asset).Inc()
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
