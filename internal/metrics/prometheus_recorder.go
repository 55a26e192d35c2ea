package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "remotevalues"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	fetchDuration     *prom.HistogramVec
	fetchResults      *prom.CounterVec
	cacheLookups      *prom.CounterVec
	transformDuration prom.Histogram
	placeholders      *prom.CounterVec
	documents         *prom.CounterVec
}

// NewPrometheusRecorder constructs the collectors and registers them with reg.
// A nil registry gets a fresh private one.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		fetchDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of remote value fetches",
			Buckets:   prom.DefBuckets,
		}, []string{"host", "result"}),
		fetchResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_results_total",
			Help:      "Remote value fetches by result",
		}, []string{"result"}),
		cacheLookups: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by hit or miss",
		}, []string{"result"}),
		transformDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "transform_duration_seconds",
			Help:      "Duration of whole document transforms",
			Buckets:   prom.DefBuckets,
		}),
		placeholders: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "placeholders_total",
			Help:      "Rewritten placeholders by result",
		}, []string{"result"}),
		documents: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Processed documents by outcome",
		}, []string{"outcome"}),
	}
	reg.MustRegister(pr.fetchDuration, pr.fetchResults, pr.cacheLookups, pr.transformDuration, pr.placeholders, pr.documents)
	return pr
}

func (p *PrometheusRecorder) ObserveFetch(host string, d time.Duration, result FetchResult) {
	if p == nil {
		return
	}
	p.fetchDuration.WithLabelValues(host, string(result)).Observe(d.Seconds())
	p.fetchResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncCacheLookup(hit bool) {
	if p == nil {
		return
	}
	res := "miss"
	if hit {
		res = "hit"
	}
	p.cacheLookups.WithLabelValues(res).Inc()
}

func (p *PrometheusRecorder) ObserveTransform(d time.Duration) {
	if p == nil {
		return
	}
	p.transformDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) AddPlaceholders(resolved, failed int) {
	if p == nil {
		return
	}
	p.placeholders.WithLabelValues("resolved").Add(float64(resolved))
	p.placeholders.WithLabelValues("failed").Add(float64(failed))
}

func (p *PrometheusRecorder) IncDocument(outcome DocumentOutcome) {
	if p == nil {
		return
	}
	p.documents.WithLabelValues(string(outcome)).Inc()
}
