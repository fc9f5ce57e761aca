package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the intake pipeline.
type Metrics struct {
	RegistrationsTotal   prometheus.Counter
	RegistrationFailures *prometheus.CounterVec
	StatusTransitions    *prometheus.CounterVec
	UploadsTotal         *prometheus.CounterVec
	UploadDuration       prometheus.Histogram
	EmailsTotal          *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		RegistrationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "applygate_registrations_total",
			Help: "Total number of successful applicant registrations",
		}),
		RegistrationFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "applygate_registration_failures_total",
			Help: "Registrations rejected or aborted, labeled by reason",
		}, []string{"reason"}),
		StatusTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "applygate_status_transitions_total",
			Help: "Admin status decisions, labeled by target status",
		}, []string{"status"}),
		UploadsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "applygate_document_uploads_total",
			Help: "Individual document uploads, labeled by resource kind and outcome",
		}, []string{"kind", "outcome"}),
		UploadDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "applygate_upload_batch_duration_seconds",
			Help:    "Wall time of the whole upload fan-out per registration",
			Buckets: prometheus.DefBuckets,
		}),
		EmailsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "applygate_emails_total",
			Help: "Notification email attempts, labeled by kind and outcome",
		}, []string{"kind", "outcome"}),
	}
}

func (m *Metrics) ObserveUploadBatch(d time.Duration) {
	if m == nil {
		return
	}
	m.UploadDuration.Observe(d.Seconds())
}

func (m *Metrics) RecordUpload(kind string, ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.UploadsTotal.WithLabelValues(kind, "success").Inc()
	} else {
		m.UploadsTotal.WithLabelValues(kind, "failure").Inc()
	}
}

func (m *Metrics) RecordEmail(kind string, ok bool) {
	if m == nil {
		return
	}
	outcome := "sent"
	if !ok {
		outcome = "failed"
	}
	m.EmailsTotal.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) RecordRegistration() {
	if m == nil {
		return
	}
	m.RegistrationsTotal.Inc()
}

func (m *Metrics) RecordRegistrationFailure(reason string) {
	if m == nil {
		return
	}
	m.RegistrationFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) RecordStatusTransition(status string) {
	if m == nil {
		return
	}
	m.StatusTransitions.WithLabelValues(status).Inc()
}
