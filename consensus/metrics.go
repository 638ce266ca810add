package consensus

import "github.com/prometheus/client_golang/prometheus"

// Metrics groups the Prometheus instruments the manager updates. A nil
// *Metrics is valid everywhere it is used; callers that don't want metrics
// simply don't register one.
type Metrics struct {
	BlocksAdmitted   prometheus.Counter
	BlocksRejected   *prometheus.CounterVec // by reason
	BlocksEvicted    prometheus.Counter
	VotesCast        prometheus.Counter
	Freezes          prometheus.Counter
	FreezeFlickers   prometheus.Counter
	FetchesIssued    prometheus.Counter
	PoolHeightsGauge prometheus.Gauge
}

// NewMetrics creates and registers a Metrics set. Pass a fresh
// prometheus.Registry or prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		BlocksAdmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "freezeguard",
			Name:      "blocks_admitted_total",
			Help:      "Candidate blocks accepted into the unfrozen pool.",
		}),
		BlocksRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "freezeguard",
			Name:      "blocks_rejected_total",
			Help:      "Candidate blocks rejected by admission, by reason.",
		}, []string{"reason"}),
		BlocksEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "freezeguard",
			Name:      "blocks_evicted_total",
			Help:      "Candidates evicted to stay within the per-height cap.",
		}),
		VotesCast: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "freezeguard",
			Name:      "votes_cast_total",
			Help:      "Votes this node has broadcast.",
		}),
		Freezes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "freezeguard",
			Name:      "freezes_total",
			Help:      "Blocks promoted to the frozen chain.",
		}),
		FreezeFlickers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "freezeguard",
			Name:      "freeze_flickers_total",
			Help:      "Freeze attempts aborted because the leader changed during the dwell.",
		}),
		FetchesIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "freezeguard",
			Name:      "missing_block_fetches_total",
			Help:      "Missing-block requests issued to peers.",
		}),
		PoolHeightsGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "freezeguard",
			Name:      "pool_heights",
			Help:      "Number of distinct heights currently held in the unfrozen pool.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.BlocksAdmitted, m.BlocksRejected, m.BlocksEvicted, m.VotesCast,
			m.Freezes, m.FreezeFlickers, m.FetchesIssued, m.PoolHeightsGauge,
		)
	}

	return m
}

func (m *Metrics) rejected(reason string) {
	if m == nil {
		return
	}
	m.BlocksRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) admitted() {
	if m == nil {
		return
	}
	m.BlocksAdmitted.Inc()
}

func (m *Metrics) evicted() {
	if m == nil {
		return
	}
	m.BlocksEvicted.Inc()
}

func (m *Metrics) voteCast() {
	if m == nil {
		return
	}
	m.VotesCast.Inc()
}

func (m *Metrics) froze() {
	if m == nil {
		return
	}
	m.Freezes.Inc()
}

func (m *Metrics) flickered() {
	if m == nil {
		return
	}
	m.FreezeFlickers.Inc()
}

func (m *Metrics) fetchIssued() {
	if m == nil {
		return
	}
	m.FetchesIssued.Inc()
}

func (m *Metrics) setPoolHeights(n int) {
	if m == nil {
		return
	}
	m.PoolHeightsGauge.Set(float64(n))
}
