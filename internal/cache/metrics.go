package cache

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts cache outcomes per collection. A nil *Metrics records nothing.
type Metrics struct {
	hits          *prometheus.CounterVec
	misses        *prometheus.CounterVec
	invalidations *prometheus.CounterVec
	fillsRejected *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "query_cache_hits_total",
			Help: "Query cache lookups served from cache",
		}, []string{"collection"}),
		misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "query_cache_misses_total",
			Help: "Query cache lookups that fell through to storage",
		}, []string{"collection"}),
		invalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "query_cache_invalidations_total",
			Help: "Scoped invalidations issued against the query cache",
		}, []string{"collection"}),
		fillsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "query_cache_fills_rejected_total",
			Help: "Loaded results not cached because an invalidation raced the load",
		}, []string{"collection"}),
	}
	reg.MustRegister(m.hits, m.misses, m.invalidations, m.fillsRejected)
	return m
}

func (m *Metrics) hit(collection string) {
	if m != nil {
		m.hits.WithLabelValues(collection).Inc()
	}
}

func (m *Metrics) miss(collection string) {
	if m != nil {
		m.misses.WithLabelValues(collection).Inc()
	}
}

func (m *Metrics) invalidated(collection string) {
	if m != nil {
		m.invalidations.WithLabelValues(collection).Inc()
	}
}

func (m *Metrics) fillRejected(collection string) {
	if m != nil {
		m.fillsRejected.WithLabelValues(collection).Inc()
	}
}
