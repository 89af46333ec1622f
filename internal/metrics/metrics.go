package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the verification workflow.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Submissions          *prometheus.CounterVec
	Decisions            *prometheus.CounterVec
	NotificationsSent    *prometheus.CounterVec
	NotificationFailures *prometheus.CounterVec
	NotificationsDropped prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "identity_verification_submissions_total",
			Help: "Identity documents submitted, by profile kind",
		}, []string{"profile_kind"}),
		Decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "identity_verification_decisions_total",
			Help: "Administrative verification decisions, by resulting status",
		}, []string{"status"}),
		NotificationsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "identity_verification_notifications_sent_total",
			Help: "Verification notification emails delivered to the provider",
		}, []string{"kind"}),
		NotificationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "identity_verification_notification_failures_total",
			Help: "Verification notification emails that failed to send",
		}, []string{"kind"}),
		NotificationsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "identity_verification_notifications_dropped_total",
			Help: "Notifications dropped because the dispatch queue was full",
		}),
	}
}

func (m *Metrics) IncSubmission(profileKind string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(profileKind).Inc()
}

func (m *Metrics) IncDecision(status string) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(status).Inc()
}

func (m *Metrics) IncNotificationSent(kind string) {
	if m == nil {
		return
	}
	m.NotificationsSent.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncNotificationFailure(kind string) {
	if m == nil {
		return
	}
	m.NotificationFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncNotificationDropped() {
	if m == nil {
		return
	}
	m.NotificationsDropped.Inc()
}
