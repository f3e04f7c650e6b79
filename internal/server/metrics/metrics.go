// Package metrics exposes the service's prometheus counters.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Login results.
const (
	LoginSuccess         = "success"
	LoginUserNotFound    = "user_not_found"
	LoginInvalidPassword = "invalid_password"
	LoginError           = "error"
)

// Authorization outcomes.
const (
	AuthzAuthorized   = "authorized"
	AuthzUnauthorized = "unauthorized"
	AuthzForbidden    = "forbidden"
	AuthzError        = "error"
)

// Registration results.
const (
	RegisterSuccess   = "success"
	RegisterDuplicate = "duplicate"
	RegisterInvalid   = "invalid"
	RegisterError     = "error"
)

// Metrics groups the counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	loginAttempts  *prometheus.CounterVec
	authorizations *prometheus.CounterVec
	registrations  *prometheus.CounterVec
}

// New creates the counters and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		loginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gophauth",
			Name:      "login_attempts_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		authorizations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gophauth",
			Name:      "authorizations_total",
			Help:      "Bearer token authorizations by outcome.",
		}, []string{"outcome"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gophauth",
			Name:      "registrations_total",
			Help:      "Registration requests by result.",
		}, []string{"result"}),
	}

	for _, c := range []prometheus.Collector{m.loginAttempts, m.authorizations, m.registrations} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) Login(result string) {
	if m == nil {
		return
	}
	m.loginAttempts.WithLabelValues(result).Inc()
}

func (m *Metrics) Authorization(outcome string) {
	if m == nil {
		return
	}
	m.authorizations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Registration(result string) {
	if m == nil {
		return
	}
	m.registrations.WithLabelValues(result).Inc()
}
