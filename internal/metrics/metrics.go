package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultDenied  = "denied"
	ResultError   = "error"
)

// Recorder : счетчики событий аутентификации
type Recorder struct {
	registrations *prometheus.CounterVec
	logins        *prometheus.CounterVec
	refreshes     *prometheus.CounterVec
	reuse         prometheus.Counter
}

func NewRecorder(registerer prometheus.Registerer) *Recorder {
	recorder := &Recorder{
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "helpdesk",
			Subsystem: "auth",
			Name:      "registrations_total",
			Help:      "Registration attempts by result.",
		}, []string{"result"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "helpdesk",
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "helpdesk",
			Subsystem: "auth",
			Name:      "refreshes_total",
			Help:      "Refresh token rotations by result.",
		}, []string{"result"}),
		reuse: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "helpdesk",
			Subsystem: "auth",
			Name:      "refresh_reuse_detected_total",
			Help:      "Presentations of an already rotated refresh token.",
		}),
	}

	registerer.MustRegister(recorder.registrations, recorder.logins, recorder.refreshes, recorder.reuse)
	return recorder
}

func (r *Recorder) ObserveRegistration(result string) {
	r.registrations.WithLabelValues(result).Inc()
}

func (r *Recorder) ObserveLogin(result string) {
	r.logins.WithLabelValues(result).Inc()
}

func (r *Recorder) ObserveRefresh(result string) {
	r.refreshes.WithLabelValues(result).Inc()
}

func (r *Recorder) ObserveReuseDetected() {
	r.reuse.Inc()
}
