// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package indexer

import (
	"errors"
	"sync"

	"github.com/blinklabs-io/powcore/internal/state"
	"github.com/blinklabs-io/powcore/pow"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "powcore"

var (
	// Headers connected to the index
	prometheusHeadersAccepted prometheus.Counter
	// Headers rejected, by reason
	prometheusHeadersRejected *prometheus.CounterVec
	// Best chain tip height and difficulty
	prometheusTipHeight     prometheus.Gauge
	prometheusTipDifficulty prometheus.Gauge
	// Set while the best chain carries less than the minimum chain work
	prometheusInitialSync prometheus.Gauge
	// Best chain switches to a branch that disconnects blocks
	prometheusReorgs prometheus.Counter
	// Blocks disconnected by reorgs
	prometheusReorgDepth prometheus.Histogram
	// Time spent validating and connecting a single header
	prometheusAcceptDuration prometheus.Histogram
)

var prometheusMetricsInitOnce sync.Once

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusHeadersAccepted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "indexer",
			Name:      "headers_accepted",
			Help:      "Number of headers accepted into the index",
		},
	)
	prometheusHeadersRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "indexer",
			Name:      "headers_rejected",
			Help:      "Number of headers rejected, by reason",
		},
		[]string{"reason"},
	)
	prometheusTipHeight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "indexer",
			Name:      "tip_height",
			Help:      "Height of the best chain tip",
		},
	)
	prometheusTipDifficulty = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "indexer",
			Name:      "tip_difficulty",
			Help:      "Difficulty of the best chain tip relative to the pow limit",
		},
	)
	prometheusInitialSync = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "indexer",
			Name:      "initial_sync",
			Help:      "Whether the best chain is below the minimum chain work",
		},
	)
	prometheusReorgs = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "indexer",
			Name:      "reorgs",
			Help:      "Number of best chain reorganizations",
		},
	)
	prometheusReorgDepth = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "indexer",
			Name:      "reorg_depth",
			Help:      "Blocks disconnected per reorganization",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		},
	)
	prometheusAcceptDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "indexer",
			Name:      "accept_duration_seconds",
			Help:      "Time taken to validate and connect a header",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
		},
	)
}

var registerCacheMetricsOnce sync.Once

// registerCacheMetrics exposes the state entry cache counters. Only the first
// state passed in is registered.
func registerCacheMetrics(st *state.State) {
	registerCacheMetricsOnce.Do(func() {
		promauto.NewCounterFunc(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "state",
				Name:      "entry_cache_hits",
				Help:      "Number of entry cache hits",
			},
			func() float64 {
				return float64(st.CacheStats().Hits)
			},
		)
		promauto.NewCounterFunc(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "state",
				Name:      "entry_cache_misses",
				Help:      "Number of entry cache misses",
			},
			func() float64 {
				return float64(st.CacheStats().Misses)
			},
		)
	})
}

// rejectReason maps a rejection error to a metrics label
func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrDuplicateHeader):
		return "duplicate"
	case errors.Is(err, ErrOrphanHeader):
		return "orphan"
	case errors.Is(err, ErrBadGenesis):
		return "genesis"
	case errors.Is(err, ErrBadDiffBits):
		return "bad_bits"
	case errors.Is(err, ErrBadActivationBlock):
		return "activation_block"
	case errors.Is(err, ErrTimeTooFarAhead):
		return "time_too_new"
	case errors.Is(err, pow.ErrBadTarget):
		return "bad_target"
	case errors.Is(err, pow.ErrHighHash):
		return "high_hash"
	case errors.Is(err, pow.ErrUnsupportedSolutionSize),
		errors.Is(err, pow.ErrInvalidSolution):
		return "solution"
	case errors.Is(err, pow.ErrMissingAncestor),
		errors.Is(err, pow.ErrInsufficientHistory):
		return "history"
	default:
		return "other"
	}
}
