package app

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "sheetbridge"

// Metrics holds the prometheus collectors updated by documents and channels.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	channelsOpened prometheus.Counter
	channelsActive prometheus.Gauge
	messages       *prometheus.CounterVec
	fetches        *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		channelsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "channel",
			Name:      "opened_total",
			Help:      "Channels created for inbound connections.",
		}),
		channelsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "channel",
			Name:      "active",
			Help:      "Channels currently relaying messages.",
		}),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "channel",
			Name:      "messages_total",
			Help:      "Messages handled by channels, by type and outcome.",
		}, []string{"type", "outcome"}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "document",
			Name:      "fetches_total",
			Help:      "Worksheet feed lookups, by outcome.",
		}, []string{"outcome"}),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{m.channelsOpened, m.channelsActive, m.messages, m.fetches} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Metrics) channelOpened() {
	if m == nil {
		return
	}
	m.channelsOpened.Inc()
	m.channelsActive.Inc()
}

func (m *Metrics) channelClosed() {
	if m == nil {
		return
	}
	m.channelsActive.Dec()
}

func (m *Metrics) message(msgType, outcome string) {
	if m == nil {
		return
	}
	m.messages.WithLabelValues(msgType, outcome).Inc()
}

func (m *Metrics) fetch(outcome string) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(outcome).Inc()
}
