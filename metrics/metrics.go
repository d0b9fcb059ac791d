package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "poolmate"

// Metrics holds the bracket engine counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	bracketsCreated  *prometheus.CounterVec
	matchesCompleted prometheus.Counter
	corrections      prometheus.Counter
	rewoundMatches   prometheus.Counter
	versionConflicts prometheus.Counter
	lockConflicts    prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		bracketsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "brackets_created_total",
			Help:      "Brackets built, by bracket type.",
		}, []string{"bracket_type"}),
		matchesCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_completed_total",
			Help:      "Match results entered through the update path.",
		}),
		corrections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "match_corrections_total",
			Help:      "Completed match results corrected.",
		}),
		rewoundMatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rewound_matches_total",
			Help:      "Downstream matches reset by corrections.",
		}),
		versionConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "match_version_conflicts_total",
			Help:      "Writes rejected because of a stale version.",
		}),
		lockConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "match_lock_conflicts_total",
			Help:      "Requests rejected because another holder owns the match lock.",
		}),
	}
	reg.MustRegister(
		m.bracketsCreated,
		m.matchesCompleted,
		m.corrections,
		m.rewoundMatches,
		m.versionConflicts,
		m.lockConflicts,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) BracketCreated(bracketType string) {
	if m != nil {
		m.bracketsCreated.WithLabelValues(bracketType).Inc()
	}
}

func (m *Metrics) MatchCompleted() {
	if m != nil {
		m.matchesCompleted.Inc()
	}
}

func (m *Metrics) MatchCorrected(rewound int) {
	if m != nil {
		m.corrections.Inc()
		m.rewoundMatches.Add(float64(rewound))
	}
}

func (m *Metrics) VersionConflict() {
	if m != nil {
		m.versionConflicts.Inc()
	}
}

func (m *Metrics) LockConflict() {
	if m != nil {
		m.lockConflicts.Inc()
	}
}
