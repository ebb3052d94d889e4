// Package observability exposes Prometheus metrics for the engine.
package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "launch_sniper"

// Metrics holds all engine collectors, registered once via promauto.
type Metrics struct {
	CandidatesSeen    prometheus.Counter
	CandidatesScored  *prometheus.CounterVec
	AdmissionsDenied  *prometheus.CounterVec
	PositionsOpened   prometheus.Counter
	PositionsClosed   *prometheus.CounterVec
	PositionsFailed   prometheus.Counter
	OpenPositions     prometheus.Gauge
	TotalExposure     prometheus.Gauge
	AccountBalance    prometheus.Gauge
	RealizedPnL       prometheus.Gauge
	SellRetries       prometheus.Counter
	ExecutionFailures *prometheus.CounterVec
	PollDuration      prometheus.Histogram
}

// NewMetrics registers all collectors on the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		CandidatesSeen: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_seen_total",
			Help:      "Launch events received from the venue source",
		}),
		CandidatesScored: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_scored_total",
			Help:      "Scoring outcomes by verdict",
		}, []string{"verdict"}),
		AdmissionsDenied: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admissions_denied_total",
			Help:      "Gate denials by code",
		}, []string{"code"}),
		PositionsOpened: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "positions_opened_total",
			Help:      "Positions that reached monitoring",
		}),
		PositionsClosed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "positions_closed_total",
			Help:      "Closed positions by exit reason",
		}, []string{"reason"}),
		PositionsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "positions_failed_total",
			Help:      "Positions whose buy never confirmed",
		}),
		OpenPositions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_positions",
			Help:      "Current non-terminal positions",
		}),
		TotalExposure: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "total_exposure_fraction",
			Help:      "Committed fraction of account balance",
		}),
		AccountBalance: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "account_balance",
			Help:      "Last observed account balance in quote units",
		}),
		// A gauge rather than a counter: losing exits subtract from the
		// running total, which a counter refuses.
		RealizedPnL: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "realized_pnl",
			Help:      "Cumulative realized profit and loss in quote units",
		}),
		SellRetries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sell_retries_total",
			Help:      "Transient sell submission failures",
		}),
		ExecutionFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "execution_failures_total",
			Help:      "Execution boundary failures by kind",
		}, []string{"op", "kind"}),
		PollDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_duration_seconds",
			Help:      "Duration of a full lifecycle poll pass",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

var (
	defaultMetrics *Metrics
	defaultOnce    sync.Once
)

// Default returns the process-wide metrics, registering them on first use.
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultMetrics = NewMetrics()
	})
	return defaultMetrics
}
