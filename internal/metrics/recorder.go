package metrics

import "time"

// FetchResult labels the outcome of one remote fetch.
type FetchResult string

const (
	FetchSuccess   FetchResult = "success"
	FetchHTTPError FetchResult = "http_error"
	FetchNetwork   FetchResult = "network_error"
	FetchParse     FetchResult = "parse_error"
	FetchCanceled  FetchResult = "canceled"
)

// DocumentOutcome labels what happened to one document during a build.
type DocumentOutcome string

const (
	DocumentWritten   DocumentOutcome = "written"
	DocumentUnchanged DocumentOutcome = "unchanged"
	DocumentSkipped   DocumentOutcome = "skipped"
	DocumentFailed    DocumentOutcome = "failed"
)

// Recorder defines observability hooks for resolution metrics.
// Implementations must be safe for concurrent use.
type Recorder interface {
	ObserveFetch(host string, d time.Duration, result FetchResult)
	IncCacheLookup(hit bool)
	ObserveTransform(d time.Duration)
	AddPlaceholders(resolved, failed int)
	IncDocument(outcome DocumentOutcome)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveFetch(string, time.Duration, FetchResult) {}
func (NoopRecorder) IncCacheLookup(bool)                            {}
func (NoopRecorder) ObserveTransform(time.Duration)                 {}
func (NoopRecorder) AddPlaceholders(int, int)                       {}
func (NoopRecorder) IncDocument(DocumentOutcome)                    {}

// OrNoop returns r, or a NoopRecorder when r is nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return NoopRecorder{}
	}
	return r
}
