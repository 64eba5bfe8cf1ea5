package metrics

import "github.com/prometheus/client_golang/prometheus"

// CompletionLatencyMetric is the fully qualified histogram name, read back by
// the admin dashboard.
const CompletionLatencyMetric = "dental_chat_completion_latency_seconds"

// ChatMetrics exposes counters/histograms for the assistant.
type ChatMetrics struct {
	responsesTotal     *prometheus.CounterVec
	completionLatency  *prometheus.HistogramVec
	transcriptFailures *prometheus.CounterVec
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		responsesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dental",
			Subsystem: "chat",
			Name:      "responses_total",
			Help:      "Assistant replies by backend and outcome",
		}, []string{"backend", "outcome"}),
		completionLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dental",
			Subsystem: "chat",
			Name:      "completion_latency_seconds",
			Help:      "Latency of completion backend calls",
			Buckets:   []float64{0.25, 0.5, 1, 2, 3, 5, 8, 13, 20, 30},
		}, []string{"backend", "status"}),
		transcriptFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dental",
			Subsystem: "chat",
			Name:      "transcript_write_failures_total",
			Help:      "Transcript messages that could not be persisted",
		}, []string{"role"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.responsesTotal, m.completionLatency, m.transcriptFailures)
	return m
}

// ObserveResponse counts one orchestrated reply. Outcome is "ok" or "fallback".
func (m *ChatMetrics) ObserveResponse(backend, outcome string) {
	if m == nil {
		return
	}
	m.responsesTotal.WithLabelValues(backend, outcome).Inc()
}

func (m *ChatMetrics) ObserveCompletion(backend, status string, seconds float64) {
	if m == nil {
		return
	}
	m.completionLatency.WithLabelValues(backend, status).Observe(seconds)
}

func (m *ChatMetrics) ObserveTranscriptFailure(role string) {
	if m == nil {
		return
	}
	m.transcriptFailures.WithLabelValues(role).Inc()
}

// BookingMetrics covers appointment intake and the notification worker.
type BookingMetrics struct {
	createdTotal       *prometheus.CounterVec
	statusChangesTotal *prometheus.CounterVec
	notificationsTotal *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		createdTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dental",
			Subsystem: "appointments",
			Name:      "created_total",
			Help:      "Appointment requests received",
		}, []string{"location"}),
		statusChangesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dental",
			Subsystem: "appointments",
			Name:      "status_changes_total",
			Help:      "Appointment status transitions made by staff",
		}, []string{"status"}),
		notificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dental",
			Subsystem: "notify",
			Name:      "emails_total",
			Help:      "Booking notification emails by provider and status",
		}, []string{"provider", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.createdTotal, m.statusChangesTotal, m.notificationsTotal)
	return m
}

func (m *BookingMetrics) ObserveCreated(locationID string) {
	if m == nil {
		return
	}
	if locationID == "" {
		locationID = "unknown"
	}
	m.createdTotal.WithLabelValues(locationID).Inc()
}

func (m *BookingMetrics) ObserveStatusChange(status string) {
	if m == nil {
		return
	}
	m.statusChangesTotal.WithLabelValues(status).Inc()
}

func (m *BookingMetrics) ObserveNotification(provider, status string) {
	if m == nil {
		return
	}
	m.notificationsTotal.WithLabelValues(provider, status).Inc()
}
