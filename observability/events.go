package observability

import (
	"math/big"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"ajochain/core/events"
	"ajochain/core/types"
)

type eventMetrics struct {
	transfers *prometheus.CounterVec
	events    *prometheus.CounterVec
	volume    *prometheus.CounterVec
}

var (
	eventMetricsOnce sync.Once
	eventRegistry    *eventMetrics
)

// Events returns the metrics registry tracking committed ledger events.
func Events() *eventMetrics {
	eventMetricsOnce.Do(func() {
		eventRegistry = &eventMetrics{
			transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "ajo",
				Subsystem: "events",
				Name:      "transfers_total",
				Help:      "Count of ledger transfers segmented by asset.",
			}, []string{"asset"}),
			events: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "ajo",
				Subsystem: "events",
				Name:      "published_total",
				Help:      "Committed events segmented by type.",
			}, []string{"type"}),
			volume: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "ajo",
				Subsystem: "events",
				Name:      "amount_total",
				Help:      "Sum of event amounts segmented by event type and asset.",
			}, []string{"type", "asset"}),
		}
		prometheus.MustRegister(eventRegistry.transfers, eventRegistry.events, eventRegistry.volume)
	})
	return eventRegistry
}

// RecordTransfer increments the transfer counter for the supplied asset ticker.
func (m *eventMetrics) RecordTransfer(asset string) {
	if m == nil {
		return
	}
	m.transfers.WithLabelValues(normalizeAsset(asset)).Inc()
}

// Record counts a committed event payload. Amount-bearing events also feed the
// volume counter.
func (m *eventMetrics) Record(evt *types.Event) {
	if m == nil || evt == nil {
		return
	}
	m.events.WithLabelValues(evt.Type).Inc()
	if evt.Type == events.TypeTransfer {
		m.RecordTransfer(evt.Attribute("asset"))
	}
	raw := evt.Attribute("amount")
	if raw == "" {
		raw = evt.Attribute("net")
	}
	if raw == "" {
		return
	}
	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok || amount.Sign() <= 0 {
		return
	}
	value, _ := new(big.Float).SetInt(amount).Float64()
	m.volume.WithLabelValues(evt.Type, normalizeAsset(evt.Attribute("asset"))).Add(value)
}

func normalizeAsset(asset string) string {
	normalized := strings.TrimSpace(strings.ToUpper(asset))
	if normalized == "" {
		return "UNKNOWN"
	}
	return normalized
}
