package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
	outcomeError   = "error"
)

// Metrics counts auth outcomes. A nil *Metrics records nothing.
type Metrics struct {
	registrations *prometheus.CounterVec
	logins        *prometheus.CounterVec
	refreshes     *prometheus.CounterVec
	verifications *prometheus.CounterVec
	logouts       prometheus.Counter
}

// NewMetrics registers the auth counters with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		registrations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "concert_auth_registrations_total",
			Help: "User registrations by outcome.",
		}, []string{"outcome"}),
		logins: f.NewCounterVec(prometheus.CounterOpts{
			Name: "concert_auth_logins_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		refreshes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "concert_auth_refreshes_total",
			Help: "Access token refreshes by outcome.",
		}, []string{"outcome"}),
		verifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "concert_auth_verifications_total",
			Help: "Bearer token verifications by outcome.",
		}, []string{"outcome"}),
		logouts: f.NewCounter(prometheus.CounterOpts{
			Name: "concert_auth_logouts_total",
			Help: "Logout requests.",
		}),
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return outcomeSuccess
	case isCallerError(err):
		return outcomeFailure
	default:
		return outcomeError
	}
}

func (m *Metrics) observeRegistration(err error) {
	if m != nil {
		m.registrations.WithLabelValues(outcome(err)).Inc()
	}
}

func (m *Metrics) observeLogin(err error) {
	if m != nil {
		m.logins.WithLabelValues(outcome(err)).Inc()
	}
}

func (m *Metrics) observeRefresh(err error) {
	if m != nil {
		m.refreshes.WithLabelValues(outcome(err)).Inc()
	}
}

func (m *Metrics) observeVerification(err error) {
	if m != nil {
		m.verifications.WithLabelValues(outcome(err)).Inc()
	}
}

func (m *Metrics) observeLogout() {
	if m != nil {
		m.logouts.Inc()
	}
}
