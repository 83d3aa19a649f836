package objectloop

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the prometheus collectors a Dispatcher reports into. A nil
// *Metrics pointer is never passed around; WithMetrics always receives one
// constructed by NewMetrics, and the Dispatcher nil-checks it on every call
// site so metrics stay entirely optional.
type Metrics struct {
	Iterations    prometheus.Counter
	TimersFired   prometheus.Counter
	NotifiersFired prometheus.Counter
	MailboxDepth  prometheus.Gauge
	Notifiers     prometheus.Gauge
	Timers        prometheus.Gauge
}

// NewMetrics registers a fresh set of collectors under the given namespace
// with reg (pass prometheus.DefaultRegisterer for the global registry, or a
// prometheus.NewRegistry() in tests to avoid collisions).
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	m := &Metrics{
		Iterations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "dispatch_iterations_total",
			Help: "Number of EventDispatcher.ProcessEvents iterations completed.",
		}),
		TimersFired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "timers_fired_total",
			Help: "Number of Timer.Timeout signals emitted.",
		}),
		NotifiersFired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "notifiers_fired_total",
			Help: "Number of EventNotifier.Activated signals emitted.",
		}),
		MailboxDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "mailbox_depth",
			Help: "Messages currently queued on the thread's mailbox after the last drain.",
		}),
		Notifiers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "registered_notifiers",
			Help: "EventNotifiers currently registered with the dispatcher.",
		}),
		Timers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "registered_timers",
			Help: "Timers currently registered with the dispatcher.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Iterations, m.TimersFired, m.NotifiersFired, m.MailboxDepth, m.Notifiers, m.Timers)
	}
	return m
}
