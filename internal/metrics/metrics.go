// Package metrics exposes Prometheus collectors for HTTP traffic and for the
// seating domain (assignments, check-ins, imports).
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups every collector the service registers.
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	SeatsAssigned   prometheus.Counter
	SeatsUnassigned prometheus.Counter
	CheckIns        *prometheus.CounterVec // label: source (manual|token|plain)
	GuestsImported  *prometheus.CounterVec // label: result (imported|duplicate|failed)
	TxTimeouts      *prometheus.CounterVec // label: operation
}

// New registers all collectors on a fresh registry.  A private registry keeps
// tests independent of each other.
func New(prefix string) *Metrics {
	if prefix == "" {
		prefix = "seatplan"
	}
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		SeatsAssigned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_seats_assigned_total",
			Help: "Seats bound to a guest",
		}),
		SeatsUnassigned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_seats_unassigned_total",
			Help: "Seats released by unassign",
		}),
		CheckIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_checkins_total",
			Help: "Seats marked as received",
		}, []string{"source"}),
		GuestsImported: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_guest_import_rows_total",
			Help: "Guest import rows by outcome",
		}, []string{"result"}),
		TxTimeouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_tx_timeouts_total",
			Help: "Transactions closed by their deadline",
		}, []string{"operation"}),
	}
	reg.MustRegister(
		m.HTTPRequestsTotal, m.HTTPRequestDuration,
		m.SeatsAssigned, m.SeatsUnassigned,
		m.CheckIns, m.GuestsImported, m.TxTimeouts,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Middleware records request count and latency per route template.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			labels := []string{c.Request().Method, path, strconv.Itoa(status)}
			m.HTTPRequestsTotal.WithLabelValues(labels...).Inc()
			m.HTTPRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
}

// The recorders below accept a nil receiver so services can run without
// metrics in tests.

func (m *Metrics) RecordAssigned(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.SeatsAssigned.Add(float64(n))
}

func (m *Metrics) RecordUnassigned() {
	if m == nil {
		return
	}
	m.SeatsUnassigned.Inc()
}

func (m *Metrics) RecordCheckIn(source string) {
	if m == nil {
		return
	}
	m.CheckIns.WithLabelValues(source).Inc()
}

func (m *Metrics) RecordImport(imported, duplicates, failed int) {
	if m == nil {
		return
	}
	m.GuestsImported.WithLabelValues("imported").Add(float64(imported))
	m.GuestsImported.WithLabelValues("duplicate").Add(float64(duplicates))
	m.GuestsImported.WithLabelValues("failed").Add(float64(failed))
}

func (m *Metrics) RecordTxTimeout(op string) {
	if m == nil {
		return
	}
	m.TxTimeouts.WithLabelValues(op).Inc()
}
