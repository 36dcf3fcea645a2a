// Package metrics agrupa los collectors Prometheus del servicio: HTTP, eventos
// de autenticación y el pool de Postgres. Todos los métodos aceptan receptor nil.
package metrics

import (
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Resultados usados como label "result".
const (
	ResultOK      = "ok"
	ResultInvalid = "invalid"
	ResultError   = "error"
)

type Metrics struct {
	reg *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpInflight prometheus.Gauge

	logins    *prometheus.CounterVec
	artifacts *prometheus.CounterVec
	otpSent   *prometheus.CounterVec
	emails    *prometheus.CounterVec
	rateLimit *prometheus.CounterVec
}

// New crea un registry propio (sin estado global) con los collectors del proceso.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Número total de requests procesadas",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latencia de los requests HTTP",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		httpInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Requests en vuelo",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "idgate_logins_total",
			Help: "Intentos de login por método y resultado",
		}, []string{"method", "result"}),
		artifacts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "idgate_artifacts_total",
			Help: "Artefactos efímeros emitidos/consumidos por tipo y resultado",
		}, []string{"kind", "op", "result"}),
		otpSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "idgate_otp_sent_total",
			Help: "OTPs enviados por SMS por resultado",
		}, []string{"result"}),
		emails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "idgate_emails_total",
			Help: "Emails entregados por plantilla y resultado",
		}, []string{"kind", "result"}),
		rateLimit: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "idgate_rate_limited_total",
			Help: "Requests rechazadas por rate limit",
		}, []string{"route"}),
	}
	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests, m.httpDuration, m.httpInflight,
		m.logins, m.artifacts, m.otpSent, m.emails, m.rateLimit,
	)
	return m
}

// Handler expone /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Registry devuelve el registry (tests).
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

// RegisterPool agrega gauges del pool de Postgres.
func (m *Metrics) RegisterPool(pool *pgxpool.Pool) error {
	if m == nil || pool == nil {
		return nil
	}
	return m.reg.Register(newPoolCollector(pool))
}

func (m *Metrics) HTTPStart() {
	if m == nil {
		return
	}
	m.httpInflight.Inc()
}

func (m *Metrics) HTTPDone(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.httpInflight.Dec()
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(seconds)
}

func (m *Metrics) Login(method, result string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(method, result).Inc()
}

// Artifact cuenta op ("issue" | "consume") sobre un artefacto efímero.
func (m *Metrics) Artifact(kind, op, result string) {
	if m == nil {
		return
	}
	m.artifacts.WithLabelValues(kind, op, result).Inc()
}

func (m *Metrics) OTPSent(result string) {
	if m == nil {
		return
	}
	m.otpSent.WithLabelValues(result).Inc()
}

func (m *Metrics) Email(kind, result string) {
	if m == nil {
		return
	}
	m.emails.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) RateLimited(route string) {
	if m == nil {
		return
	}
	m.rateLimit.WithLabelValues(route).Inc()
}
