package campaign

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/shpitdev/ses-campaign-mailer/pkg/mailer"
	"github.com/shpitdev/ses-campaign-mailer/pkg/pipeline/core"
	"github.com/shpitdev/ses-campaign-mailer/pkg/pipeline/redact"
	"github.com/shpitdev/ses-campaign-mailer/pkg/pipeline/schema"
	"github.com/shpitdev/ses-campaign-mailer/pkg/pipeline/worker"
)

// ErrInvalidAddress is recorded for recipients whose address fails the syntax check.
var ErrInvalidAddress = errors.New("invalid email address")

var addressRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidAddress reports whether email looks like a deliverable address.
func ValidAddress(email string) bool {
	return addressRe.MatchString(email)
}

type Options struct {
	// Delay is the spacing between consecutive sends.
	Delay          time.Duration
	Pacing         worker.Pacing
	RequestTimeout time.Duration

	// Now is the outcome clock. Defaults to time.Now.
	Now func() time.Time
	// OnOutcome is called after every send, in order.
	OnOutcome func(Outcome)
}

// Deliver sends the template to every recipient, one at a time and in order,
// and returns exactly one Outcome per recipient.
//
// A failed send is recorded and the run moves on; nothing is retried.
// Only context cancellation aborts the run.
func Deliver(ctx context.Context, recipients []Recipient, tmpl mailer.Template, sender mailer.Sender, opts Options) ([]Outcome, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	processor := core.ProcessFunc[Recipient, Outcome](func(reqCtx context.Context, r Recipient) (Outcome, error) {
		out := Outcome{
			Email:     r.Email,
			Timestamp: now().UTC().Truncate(time.Millisecond),
		}
		if !ValidAddress(r.Email) {
			return out, ErrInvalidAddress
		}
		if _, err := sender.Send(reqCtx, mailer.Compose(tmpl, r.Email)); err != nil {
			return out, err
		}
		return out, nil
	})

	outcomes := make([]Outcome, 0, len(recipients))
	_, err := worker.ProcessInOrder(ctx, recipients, processor, func(res worker.Result[Recipient, Outcome]) error {
		o := res.Output
		if res.Err != nil {
			o.Status = schema.StatusFailure
			o.ErrorMessage = redact.Secrets(res.Err.Error())
		} else {
			o.Status = schema.StatusSuccess
		}
		outcomes = append(outcomes, o)
		if opts.OnOutcome != nil {
			opts.OnOutcome(o)
		}
		return nil
	}, worker.Options{
		Delay:          opts.Delay,
		Pacing:         opts.Pacing,
		RequestTimeout: opts.RequestTimeout,
	})
	if err != nil {
		return nil, err
	}
	return outcomes, nil
}
