package worker

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"golang.org/x/time/rate"

	"github.com/shpitdev/ses-campaign-mailer/pkg/pipeline/core"
)

// Pacing selects how consecutive items are spaced out.
type Pacing int

const (
	// PacingFixedDelay sleeps the full Delay after every item except the last.
	PacingFixedDelay Pacing = iota
	// PacingLimiter gates the start of every item with a token bucket (burst 1)
	// so that starts are at least Delay apart.
	PacingLimiter
)

func (p Pacing) String() string {
	switch p {
	case PacingLimiter:
		return "limiter"
	default:
		return "fixed"
	}
}

// ParsePacing maps a config string to a Pacing.
func ParsePacing(s string) (Pacing, error) {
	switch s {
	case "", "fixed":
		return PacingFixedDelay, nil
	case "limiter":
		return PacingLimiter, nil
	default:
		return 0, errors.New("pacing must be one of: fixed, limiter")
	}
}

type Options struct {
	// Delay is the spacing between consecutive items. Set to <=0 to disable.
	Delay  time.Duration
	Pacing Pacing

	// RequestTimeout bounds a single processor call. Set to <=0 for no timeout.
	RequestTimeout time.Duration
}

// ErrInvalidRate is returned by DelayForRate for rates that cannot be paced.
var ErrInvalidRate = errors.New("invalid rate limit")

// DelayForRate converts a calls-per-second ceiling into the spacing between calls.
//
// Zero disables pacing. Negative, NaN and infinite rates are rejected, and so is a rate
// so low that the spacing overflows time.Duration. Very high rates still pace at 1ns.
func DelayForRate(rps float64) (time.Duration, error) {
	switch {
	case math.IsNaN(rps) || math.IsInf(rps, 0):
		return 0, fmt.Errorf("%w: %v is not a finite number", ErrInvalidRate, rps)
	case rps < 0:
		return 0, fmt.Errorf("%w: %g must be >= 0", ErrInvalidRate, rps)
	case rps == 0:
		return 0, nil
	}

	d := float64(time.Second) / rps
	if d >= float64(math.MaxInt64) {
		return 0, fmt.Errorf("%w: %g per second is too low to pace", ErrInvalidRate, rps)
	}
	if d < 1 {
		return 1, nil
	}
	return time.Duration(d), nil
}

// Result holds the output for one input item.
type Result[In any, Out any] struct {
	Input  In
	Output Out
	Err    error
}

// ProcessInOrder runs the processor over all items one at a time, in input order.
//
// Per-item errors are recorded in the matching Result and never stop the run;
// only context cancellation or an onResult error aborts early.
func ProcessInOrder[In any, Out any](
	ctx context.Context,
	items []In,
	processor core.Processor[In, Out],
	onResult func(Result[In, Out]) error,
	opts Options,
) ([]Result[In, Out], error) {
	var limiter *rate.Limiter
	if opts.Pacing == PacingLimiter && opts.Delay > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.Delay), 1)
	}

	out := make([]Result[In, Out], 0, len(items))
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		res := processOne(ctx, item, processor, opts.RequestTimeout)
		out = append(out, res)
		if onResult != nil {
			if err := onResult(res); err != nil {
				return nil, err
			}
		}

		if opts.Pacing == PacingFixedDelay && opts.Delay > 0 && i < len(items)-1 {
			if err := sleep(ctx, opts.Delay); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func processOne[In any, Out any](
	ctx context.Context,
	item In,
	processor core.Processor[In, Out],
	timeout time.Duration,
) Result[In, Out] {
	reqCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	res, err := processor.Process(reqCtx, item)
	return Result[In, Out]{
		Input:  item,
		Output: res,
		Err:    err,
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
