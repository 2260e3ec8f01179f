// Package metrics exposes league activity as Prometheus collectors.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/omarshaarawi/leaguebot/internal/league"
	"github.com/omarshaarawi/leaguebot/internal/models"
)

const namespace = "leaguebot"

// Recorder counts engine outcomes on its own registry. It satisfies
// league.Recorder.
type Recorder struct {
	registry *prometheus.Registry

	weekAdvances    *prometheus.CounterVec
	matchesCreated  *prometheus.CounterVec
	reconciliations *prometheus.CounterVec
	scoresResolved  *prometheus.CounterVec
	currentWeek     prometheus.Gauge
}

var _ league.Recorder = (*Recorder)(nil)

func NewRecorder() (*Recorder, error) {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		weekAdvances: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "week_advances_total",
			Help:      "Week advance attempts by result.",
		}, []string{"result"}),
		matchesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_created_total",
			Help:      "Matches created by origin.",
		}, []string{"origin"}),
		reconciliations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_reconciled_total",
			Help:      "Stale matches closed by a forced week advance, by outcome.",
		}, []string{"outcome"}),
		scoresResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scores_resolved_total",
			Help:      "Match scores resolved, split into wins and ties.",
		}, []string{"result"}),
		currentWeek: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "current_week",
			Help:      "The last week pairings were generated for.",
		}),
	}

	for _, c := range []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.weekAdvances,
		r.matchesCreated,
		r.reconciliations,
		r.scoresResolved,
		r.currentWeek,
	} {
		if err := r.registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}
	return r, nil
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (r *Recorder) WeekAdvanced(week int, kind league.FailureKind) {
	if kind == league.FailureNone {
		r.weekAdvances.WithLabelValues("ok").Inc()
		r.currentWeek.Set(float64(week))
		return
	}
	r.weekAdvances.WithLabelValues(string(kind)).Inc()
}

func (r *Recorder) MatchCreated(origin models.MatchOrigin) {
	r.matchesCreated.WithLabelValues(string(origin)).Inc()
}

func (r *Recorder) MatchReconciled(outcome models.MatchStatus) {
	r.reconciliations.WithLabelValues(string(outcome)).Inc()
}

func (r *Recorder) ScoreResolved(tie bool) {
	result := "win"
	if tie {
		result = "tie"
	}
	r.scoresResolved.WithLabelValues(result).Inc()
}

// SetCurrentWeek seeds the week gauge at startup.
func (r *Recorder) SetCurrentWeek(week int) {
	r.currentWeek.Set(float64(week))
}

