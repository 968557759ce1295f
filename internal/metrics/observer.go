// Package metrics exposes transfer progress as Prometheus metrics via an
// orchestrator listener.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ivan-angjelkoski/inj-sdk-bridge/pkg/domain"
	"github.com/ivan-angjelkoski/inj-sdk-bridge/pkg/transfer"
)

// Observer turns session snapshots into step-transition counters. It keeps a
// small per-session memory of the last observed step and error so repeated
// notifications (loading toggles, persisted retries) are not double counted.
type Observer struct {
	stepTransitions *prometheus.CounterVec
	stepFailures    *prometheus.CounterVec
	completed       *prometheus.CounterVec

	mu   sync.Mutex
	last map[string]lastSeen
}

type lastSeen struct {
	step domain.Step
	err  string
}

// New creates an Observer and registers its collectors.
func New(reg prometheus.Registerer) *Observer {
	o := &Observer{
		stepTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_step_transitions_total",
				Help: "Total number of transfer step advances",
			},
			[]string{"mode", "step"},
		),
		stepFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_step_failures_total",
				Help: "Total number of failed step attempts",
			},
			[]string{"mode", "step"},
		),
		completed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_transfers_completed_total",
				Help: "Total number of transfers that reached the terminal step",
			},
			[]string{"mode"},
		),
		last: make(map[string]lastSeen),
	}
	reg.MustRegister(o.stepTransitions, o.stepFailures, o.completed)
	return o
}

// Listener returns the transfer.Listener to subscribe on orchestrators.
func (o *Observer) Listener() transfer.Listener {
	return o.observe
}

func (o *Observer) observe(s domain.Session) {
	o.mu.Lock()
	defer o.mu.Unlock()

	prev, known := o.last[s.ID]

	if !known || prev.step != s.Step {
		if s.Step != domain.StepIdle {
			o.stepTransitions.WithLabelValues(string(s.Mode), string(s.Step)).Inc()
		}
	}

	// A fresh error on an unchanged step is one failed attempt.
	if s.Error != "" && s.Error != prev.err {
		o.stepFailures.WithLabelValues(string(s.Mode), string(s.Step)).Inc()
	}

	if s.Terminal() {
		o.completed.WithLabelValues(string(s.Mode)).Inc()
		delete(o.last, s.ID)
		return
	}

	o.last[s.ID] = lastSeen{step: s.Step, err: s.Error}
}
