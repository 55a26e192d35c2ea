// Package metrics records fetch, cache and document counters for remote value resolution.
//
// Components receive a Recorder and default to NoopRecorder, so no call site
// needs a nil check:
//
//	resolver := fetch.NewResolver(fetcher, fetch.WithRecorder(metrics.NewPrometheusRecorder(reg)))
//
// The HTTP service and the build command install a PrometheusRecorder when
// metrics.enabled is set; everything else keeps the noop.
package metrics
