// Package convergence implements "poll until it stops growing" for
// infinitely-scrolling lists: request more content, wait a settle
// delay, sample how much is loaded, and stop once the measure has held
// still for enough consecutive samples.
package convergence

import (
	"context"
	"fmt"
	"time"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("lib/convergence")

// DefaultMaxIterations bounds the poll loop in case the probe never
// stabilizes (an endless feed, or a probe that keeps flapping).
const DefaultMaxIterations = 500

var ErrExhausted = fmt.Errorf("content never stabilized within the iteration cap")

type Options struct {
	// Probe reports the current scalar measure of loaded content:
	// item count, scroll extent of a container, etc.
	Probe func(ctx context.Context) (int64, error)
	// Advance requests more content, usually by scrolling a
	// container to one of its edges.
	Advance func(ctx context.Context) error
	// Stable is the number of consecutive unchanged probe samples
	// required before the measure counts as converged.
	Stable int
	// Settle delay range between iterations, jittered to avoid a
	// mechanical polling cadence.
	MinDelay time.Duration
	MaxDelay time.Duration
	// MaxIterations defaults to DefaultMaxIterations when zero.
	MaxIterations int
	// Sleep overrides the delay implementation, tests use this to
	// run the loop without real waits.
	Sleep func(ctx context.Context, d time.Duration) error
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o Options) settleDelay() time.Duration {
	if o.MaxDelay <= o.MinDelay {
		return o.MinDelay
	}
	jitter, err := random.IntRange(0, int(o.MaxDelay-o.MinDelay))
	if err != nil {
		return o.MinDelay
	}
	return o.MinDelay + time.Duration(jitter)
}

// Converge runs the advance/settle/probe loop until the probe has
// reported the same value Stable times in a row, then returns that
// value.
func Converge(ctx context.Context, opts Options) (int64, error) {
	ctx, span := tracer.Start(ctx, "Converge")
	defer span.End()

	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	maxIterations := opts.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}

	var previous int64
	unchanged := 0

	for i := 0; i < maxIterations; i++ {
		err := opts.Advance(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "advance failed")
			return previous, err
		}

		err = sleep(ctx, opts.settleDelay())
		if err != nil {
			return previous, err
		}

		current, err := opts.Probe(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "probe failed")
			return previous, err
		}

		if current == previous {
			unchanged++
		} else {
			unchanged = 0
		}
		previous = current

		if unchanged >= opts.Stable {
			span.SetAttributes(
				attribute.Int64("measure", current),
				attribute.Int("iterations", i+1),
			)
			return current, nil
		}
	}

	span.SetStatus(codes.Error, ErrExhausted.Error())
	return previous, ErrExhausted
}
