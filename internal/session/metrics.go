package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the session counters. A nil *Metrics records nothing.
type Metrics struct {
	sessionsStarted prometheus.Counter
	sessionsEnded   *prometheus.CounterVec
	turns           prometheus.Counter
	rolls           *prometheus.CounterVec
	deaths          prometheus.Counter
	playersCreated  prometheus.Counter
}

// NewMetrics registers the session counters with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		sessionsStarted: f.NewCounter(prometheus.CounterOpts{
			Name: "zumbor_sessions_started_total",
			Help: "Sessions that acquired the instance lock.",
		}),
		sessionsEnded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "zumbor_sessions_ended_total",
			Help: "Finished sessions, partitioned by how they ended.",
		}, []string{"reason"}),
		turns: f.NewCounter(prometheus.CounterOpts{
			Name: "zumbor_turns_total",
			Help: "Resolved encounter turns.",
		}),
		rolls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "zumbor_rolls_total",
			Help: "Stat rolls, partitioned by kind.",
		}, []string{"kind"}),
		deaths: f.NewCounter(prometheus.CounterOpts{
			Name: "zumbor_player_deaths_total",
			Help: "Players whose health dropped to zero or below.",
		}),
		playersCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "zumbor_players_created_total",
			Help: "Characters created through the builder.",
		}),
	}
}

func (m *Metrics) sessionStarted() {
	if m != nil {
		m.sessionsStarted.Inc()
	}
}

func (m *Metrics) sessionEnded(reason string) {
	if m != nil {
		m.sessionsEnded.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) turnResolved(roll string) {
	if m != nil {
		m.turns.Inc()
		m.rolls.WithLabelValues(roll).Inc()
	}
}

func (m *Metrics) playerDied() {
	if m != nil {
		m.deaths.Inc()
	}
}

func (m *Metrics) playerCreated() {
	if m != nil {
		m.playersCreated.Inc()
	}
}
