// Package metrics exposes console counters in Prometheus format.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Goutam990/medibook-console/internal/domain"
	"github.com/Goutam990/medibook-console/internal/guard"
)

const namespace = "medibook_console"

// Login results.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Metrics holds the console collectors and the registry they live in.
type Metrics struct {
	registry *prometheus.Registry

	logins         *prometheus.CounterVec
	logouts        *prometheus.CounterVec
	guardDecisions *prometheus.CounterVec
	apiCalls       *prometheus.CounterVec
	authenticated  prometheus.Gauge
}

// New registers the console collectors, plus the Go and process collectors,
// with a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		logouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logouts_total",
			Help:      "Logouts by outcome of the remote logout call.",
		}, []string{"remote"}),
		guardDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guard_decisions_total",
			Help:      "Access guard decisions by view requirement and state.",
		}, []string{"requirement", "state"}),
		apiCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_calls_total",
			Help:      "Booking API calls by operation and HTTP status (0 for transport errors).",
		}, []string{"op", "status"}),
		authenticated: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_authenticated",
			Help:      "1 when a user is logged in on this device.",
		}),
	}

	m.registry.MustRegister(
		m.logins,
		m.logouts,
		m.guardDecisions,
		m.apiCalls,
		m.authenticated,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordLogin counts a login attempt.
func (m *Metrics) RecordLogin(ok bool) {
	if ok {
		m.logins.WithLabelValues(ResultSuccess).Inc()
		return
	}
	m.logins.WithLabelValues(ResultFailure).Inc()
}

// RecordLogout counts a logout.
func (m *Metrics) RecordLogout(remoteOK bool) {
	m.logouts.WithLabelValues(strconv.FormatBool(remoteOK)).Inc()
}

// RecordDecision counts an access guard decision.
func (m *Metrics) RecordDecision(req domain.Requirement, state guard.State) {
	m.guardDecisions.WithLabelValues(req.String(), state.String()).Inc()
}

// ObserveAPICall counts a booking API call.
func (m *Metrics) ObserveAPICall(op string, status int) {
	m.apiCalls.WithLabelValues(op, strconv.Itoa(status)).Inc()
}

// SetAuthenticated tracks the session state.
func (m *Metrics) SetAuthenticated(snap domain.Snapshot) {
	if snap.IsAuthenticated() {
		m.authenticated.Set(1)
		return
	}
	m.authenticated.Set(0)
}
