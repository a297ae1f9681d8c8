// Package metrics exports store activity as prometheus collectors.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"callcomposite/internal/action"
	"callcomposite/internal/appstate"
	"callcomposite/internal/domain"
	"callcomposite/internal/redux"
)

const namespace = "callcomposite"

// Metrics holds the collectors fed by Middleware.
type Metrics struct {
	actions      *prometheus.CounterVec
	errors       *prometheus.CounterVec
	participants prometheus.Gauge
	status       *prometheus.GaugeVec

	mu         sync.Mutex
	lastStatus domain.CallingStatus
	hasStatus  bool
}

// New registers the collectors on reg. A nil reg uses a fresh registry.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Actions dispatched through the store, partitioned by group and action.",
		}, []string{"group", "action"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Classified call errors, partitioned by category and kind.",
		}, []string{"category", "kind"}),
		participants: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "remote_participants",
			Help:      "Remote participants in the current roster.",
		}),
		status: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "call_status",
			Help:      "1 for the current call status, 0 otherwise.",
		}, []string{"status"}),
	}
	for _, c := range []prometheus.Collector{m.actions, m.errors, m.participants, m.status} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Middleware counts every action and samples the resulting state.
func (m *Metrics) Middleware() redux.Middleware[appstate.AppState, action.Action] {
	return func(_ redux.Dispatch[action.Action], getState func() appstate.AppState) func(redux.Dispatch[action.Action]) redux.Dispatch[action.Action] {
		return func(next redux.Dispatch[action.Action]) redux.Dispatch[action.Action] {
			return func(a action.Action) {
				m.actions.WithLabelValues(action.Group(a), action.Name(a)).Inc()
				switch act := a.(type) {
				case action.FatalErrorUpdated:
					m.errors.WithLabelValues(string(domain.ErrorCategoryFatal), string(act.Internal)).Inc()
				case action.StatusErrorAndCallReset:
					m.errors.WithLabelValues(string(domain.ErrorCategoryCallState), string(act.Internal)).Inc()
				case action.CallStateErrorUpdated:
					m.errors.WithLabelValues(string(domain.ErrorCategoryCallState), string(act.Internal)).Inc()
				}
				next(a)
				m.Observe(getState())
			}
		}
	}
}

// Observe samples gauges from state. The previous status series drops to 0
// rather than disappearing, so a scrape always sees the current status.
func (m *Metrics) Observe(state appstate.AppState) {
	m.participants.Set(float64(len(state.RemoteParticipants.Participants)))

	m.mu.Lock()
	defer m.mu.Unlock()
	current := state.Calling.Status
	if m.hasStatus && m.lastStatus != current {
		m.status.WithLabelValues(string(m.lastStatus)).Set(0)
	}
	m.status.WithLabelValues(string(current)).Set(1)
	m.lastStatus = current
	m.hasStatus = true
}
