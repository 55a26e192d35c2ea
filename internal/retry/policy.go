package retry

import (
	"context"
	"errors"
	"time"

	"git.home.luguber.info/inful/remotevalues/internal/config"
)

// Policy describes how often and how slowly a failed fetch is retried.
// The zero value never retries.
type Policy struct {
	Mode       config.RetryBackoffMode
	Initial    time.Duration
	Max        time.Duration
	MaxRetries int // attempts after the first failure
}

// FromConfig builds a policy from fetch configuration. Invalid values fall back to defaults.
func FromConfig(cfg config.FetchConfig) Policy {
	p := Policy{
		Mode:       config.NormalizeRetryBackoff(string(cfg.RetryBackoff)),
		Initial:    cfg.RetryInitialDelayDuration(),
		Max:        cfg.RetryMaxDelayDuration(),
		MaxRetries: cfg.MaxRetries,
	}
	if p.Mode == "" {
		p.Mode = config.RetryBackoffExponential
	}
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.Initial > p.Max {
		p.Initial = p.Max
	}
	return p
}

// Delay returns the wait before retry n (1-based). Non-positive n yields zero.
func (p Policy) Delay(n int) time.Duration {
	if n <= 0 || p.Initial <= 0 {
		return 0
	}
	var d time.Duration
	switch p.Mode {
	case config.RetryBackoffFixed:
		d = p.Initial
	case config.RetryBackoffLinear:
		d = time.Duration(n) * p.Initial
	default:
		shift := n - 1
		if shift > 30 {
			shift = 30
		}
		d = p.Initial << shift
	}
	if p.Max > 0 && d > p.Max {
		return p.Max
	}
	return d
}

// Do runs fn until it succeeds, returns a non-retryable error, the retries are
// exhausted or ctx is done. onRetry, when non-nil, is called before each wait.
func (p Policy) Do(ctx context.Context, retryable func(error) bool, onRetry func(n int, err error), fn func(context.Context) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt >= p.MaxRetries || retryable == nil || !retryable(err) {
			return err
		}
		if onRetry != nil {
			onRetry(attempt+1, err)
		}
		timer := time.NewTimer(p.Delay(attempt + 1))
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(err, ctx.Err())
		case <-timer.C:
		}
	}
}
