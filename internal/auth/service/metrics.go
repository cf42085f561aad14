package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts token lifecycle events. A nil *Metrics records nothing.
type Metrics struct {
	issued    *prometheus.CounterVec
	logins    *prometheus.CounterVec
	refreshes *prometheus.CounterVec
	logouts   prometheus.Counter
	swept     prometheus.Counter
}

// NewMetrics registers the auth counters on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		issued: f.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_tokens_issued_total",
			Help: "Tokens issued, by kind",
		}, []string{"kind"}),
		logins: f.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_logins_total",
			Help: "Login attempts, by result",
		}, []string{"result"}),
		refreshes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_refreshes_total",
			Help: "Refresh attempts, by result",
		}, []string{"result"}),
		logouts: f.NewCounter(prometheus.CounterOpts{
			Name: "auth_logouts_total",
			Help: "Successful logouts",
		}),
		swept: f.NewCounter(prometheus.CounterOpts{
			Name: "auth_expired_refresh_tokens_deleted_total",
			Help: "Expired refresh tokens removed by housekeeping",
		}),
	}
}

func (m *Metrics) tokenIssued(kind string) {
	if m != nil {
		m.issued.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) login(result string) {
	if m != nil {
		m.logins.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) refresh(result string) {
	if m != nil {
		m.refreshes.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) logout() {
	if m != nil {
		m.logouts.Inc()
	}
}

func (m *Metrics) sweptTokens(n int64) {
	if m != nil && n > 0 {
		m.swept.Add(float64(n))
	}
}
