// FILE: metrics.go
// Package metrics exposes Prometheus counters/gauges for the search
// pipeline's progress, served over /metrics by cmd/palsearch the same way
// the teacher's main.go wires promhttp.
//
// Grounded on the teacher's metrics.go verbatim: package-level
// prometheus.New*Vec vars, init()-time MustRegister, small IncXxx/SetXxx
// helpers — same shape, new metric names for the search domain instead of
// the trading domain.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	FactsGenerated = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "palsearch_facts_generated",
			Help: "Distinct facts observed by the comparison generator.",
		},
	)

	CandidatesPerDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "palsearch_candidates_total",
			Help: "Candidates evaluated at each search depth.",
		},
		[]string{"depth"},
	)

	SurvivorsPerDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "palsearch_survivors_total",
			Help: "Candidates passing the survival filter at each search depth.",
		},
		[]string{"depth"},
	)

	PermutationPValues = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "palsearch_permutation_pvalues",
			Help:    "Distribution of Masters best-of p-values across validated survivors.",
			Buckets: prometheus.LinearBuckets(0, 0.05, 21),
		},
	)

	RunDurationSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "palsearch_run_duration_seconds",
			Help: "Wall-clock duration of the most recently completed run.",
		},
	)

	ExclusionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "palsearch_exclusions_total",
			Help: "Non-fatal candidate exclusions by reason.",
		},
		[]string{"reason"}, // degenerate|below_min_trades|inactive|duplicate_footprint
	)
)

func init() {
	prometheus.MustRegister(FactsGenerated, CandidatesPerDepth, SurvivorsPerDepth)
	prometheus.MustRegister(PermutationPValues, RunDurationSeconds, ExclusionsTotal)
}

// SetCandidatesAtDepth records how many candidates were evaluated at depth.
func SetCandidatesAtDepth(depth int, n int) {
	CandidatesPerDepth.WithLabelValues(depthLabel(depth)).Set(float64(n))
}

// SetSurvivorsAtDepth records how many candidates survived at depth.
func SetSurvivorsAtDepth(depth int, n int) {
	SurvivorsPerDepth.WithLabelValues(depthLabel(depth)).Set(float64(n))
}

// ObservePValue feeds one validated survivor's p-value into the histogram.
func ObservePValue(p float64) { PermutationPValues.Observe(p) }

// IncExclusion increments the named exclusion-reason counter.
func IncExclusion(reason string) { ExclusionsTotal.WithLabelValues(reason).Inc() }

// IncExclusionBy adds n to the named exclusion-reason counter.
func IncExclusionBy(reason string, n int) {
	if n <= 0 {
		return
	}
	ExclusionsTotal.WithLabelValues(reason).Add(float64(n))
}

func depthLabel(depth int) string {
	return strconv.Itoa(depth)
}
