package build

import (
	"slices"
	"strings"
	"time"

	"git.home.luguber.info/inful/remotevalues/internal/metrics"
)

// Status represents the outcome of a build.
type Status string

const (
	StatusSuccess   Status = "success"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// IsSuccess reports whether the build completed.
func (s Status) IsSuccess() bool { return s == StatusSuccess }

// DocumentResult describes one processed document.
type DocumentResult struct {
	Path         string // source path relative to the source root
	Output       string // output path relative to the output root
	Outcome      metrics.DocumentOutcome
	Placeholders int
	Failed       int // distinct keys that resolved to the empty fallback
}

// Result is the outcome of a build.
type Result struct {
	BuildID   string
	Status    Status
	Documents []DocumentResult
	Assets    int
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// Count returns the number of documents with the given outcome.
func (r *Result) Count(outcome metrics.DocumentOutcome) int {
	n := 0
	for _, d := range r.Documents {
		if d.Outcome == outcome {
			n++
		}
	}
	return n
}

// Placeholders returns the total number of placeholders rewritten.
func (r *Result) Placeholders() int {
	n := 0
	for _, d := range r.Documents {
		n += d.Placeholders
	}
	return n
}

func sortResults(docs []DocumentResult) {
	slices.SortFunc(docs, func(a, b DocumentResult) int { return strings.Compare(a.Path, b.Path) })
}
