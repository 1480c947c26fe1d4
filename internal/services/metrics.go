package services

import (
	"errors"

	"citas/internal/models"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for appointment and reminder activity.
type Metrics struct {
	appointmentOps *prometheus.CounterVec
	notifications  *prometheus.CounterVec
	backgroundJobs prometheus.Gauge
}

// MustNewMetrics registers the collectors with reg. Tests pass a fresh
// prometheus.NewRegistry(); a collector that is already registered is reused.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		appointmentOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "citas",
				Subsystem: "appointments",
				Name:      "operations_total",
				Help:      "Appointment operations by kind and outcome.",
			},
			[]string{"op", "outcome"},
		),
		notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "citas",
				Subsystem: "notifications",
				Name:      "sent_total",
				Help:      "Email and SMS deliveries by channel, origin and outcome.",
			},
			[]string{"channel", "origin", "outcome"},
		),
		backgroundJobs: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "citas",
				Subsystem: "tasks",
				Name:      "in_flight",
				Help:      "Fire-and-forget tasks currently running.",
			},
		),
	}

	if err := reg.Register(m.appointmentOps); err != nil {
		m.appointmentOps = existing(err).(*prometheus.CounterVec)
	}
	if err := reg.Register(m.notifications); err != nil {
		m.notifications = existing(err).(*prometheus.CounterVec)
	}
	if err := reg.Register(m.backgroundJobs); err != nil {
		m.backgroundJobs = existing(err).(prometheus.Gauge)
	}
	return m
}

func existing(err error) prometheus.Collector {
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		return already.ExistingCollector
	}
	panic(err)
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveAppointmentOp counts an appointment operation.
func (m *Metrics) ObserveAppointmentOp(op string, err error) {
	if m == nil {
		return
	}
	m.appointmentOps.WithLabelValues(op, outcome(err)).Inc()
}

// ObserveNotification counts a delivery attempt. origin names the caller, e.g. "api" or "worker".
func (m *Metrics) ObserveNotification(ch models.Channel, origin string, err error) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(string(ch), origin, outcome(err)).Inc()
}

func (m *Metrics) taskStarted() {
	if m == nil {
		return
	}
	m.backgroundJobs.Inc()
}

func (m *Metrics) taskDone() {
	if m == nil {
		return
	}
	m.backgroundJobs.Dec()
}
