package poll

import (
	"context"
	"time"
)

// State is what a single probe observed.
type State int

const (
	// Pending means the resource is still transitioning.
	Pending State = iota
	// Done means the resource reached its target state.
	Done
	// Broken means the resource reached a state it cannot leave.
	Broken
)

// Outcome is the terminal state of a poll loop.
type Outcome int

const (
	// Ready means a probe returned Done.
	Ready Outcome = iota + 1
	// Failed means a probe returned Broken.
	Failed
	// TimedOut means the deadline passed while the resource was pending.
	TimedOut
)

func (o Outcome) String() string {
	switch o {
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	case TimedOut:
		return "timed out"
	default:
		return "unknown"
	}
}

// Result carries the outcome and the last observed value.
type Result[T any] struct {
	Outcome Outcome
	Value   T
	// Polls is the number of probes performed.
	Polls int
	// Elapsed is the time spent in the loop.
	Elapsed time.Duration
}

// Probe observes the resource once.
type Probe[T any] func(ctx context.Context, poll int) (T, State, error)

// Options configures a poll loop.
type Options struct {
	Interval time.Duration
	Timeout  time.Duration
}

// Until probes every Interval until the resource is Done or Broken, or until
// Timeout has elapsed. The first probe runs immediately and a probe always
// runs at least once. A probe error or context cancellation returns the
// error with the last Result.
func Until[T any](ctx context.Context, opts Options, probe Probe[T]) (Result[T], error) {
	start := time.Now()
	deadline := start.Add(opts.Timeout)
	var res Result[T]

	for {
		res.Polls++
		value, state, err := probe(ctx, res.Polls)
		res.Elapsed = time.Since(start)
		if err != nil {
			return res, err
		}
		res.Value = value

		switch state {
		case Done:
			res.Outcome = Ready
			return res, nil
		case Broken:
			res.Outcome = Failed
			return res, nil
		}

		if !time.Now().Before(deadline) {
			res.Outcome = TimedOut
			return res, nil
		}

		timer := time.NewTimer(opts.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return res, ctx.Err()
		case <-timer.C:
		}

		if !time.Now().Before(deadline) {
			res.Outcome = TimedOut
			res.Elapsed = time.Since(start)
			return res, nil
		}
	}
}
