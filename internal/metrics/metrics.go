// Package metrics counts what the delivery loop hands out. Collectors live
// on their own registry and are exposed on a separate admin listener so the
// fuzz endpoint keeps its contract of answering every path with a payload.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	reg *prometheus.Registry

	PayloadsServed  prometheus.Counter
	PayloadBytes    prometheus.Counter
	SessionsAborted prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		reg: reg,
		PayloadsServed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "browserfuzz",
			Name:      "payloads_served_total",
			Help:      "Documents fully written back to a client.",
		}),
		PayloadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "browserfuzz",
			Name:      "payload_bytes_total",
			Help:      "Total bytes of served documents, envelope included.",
		}),
		SessionsAborted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "browserfuzz",
			Name:      "sessions_aborted_total",
			Help:      "Delivery sessions dropped before the payload was written.",
		}),
	}
	reg.MustRegister(m.PayloadsServed, m.PayloadBytes, m.SessionsAborted)
	reg.MustRegister(collectors.NewGoCollector())
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
