package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/shpitdev/ses-campaign-mailer/pkg/campaign"
	"github.com/shpitdev/ses-campaign-mailer/pkg/mailer"
	localio "github.com/shpitdev/ses-campaign-mailer/pkg/pipeline/io/local"
	"github.com/shpitdev/ses-campaign-mailer/pkg/pipeline/redact"
	"github.com/shpitdev/ses-campaign-mailer/pkg/pipeline/worker"
)

// Options configures a campaign run.
type Options struct {
	RecipientsPath string
	// BlacklistPath may be empty, meaning nobody is excluded.
	BlacklistPath string
	// OutputDir receives the results file. Empty means the current directory.
	OutputDir string

	Template mailer.Template

	// RateLimitRPS caps sends per second. Zero disables pacing.
	RateLimitRPS float64
	Pacing       worker.Pacing
	// SendTimeout bounds a single provider call. Zero leaves it to the provider.
	SendTimeout time.Duration

	Logger *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Summary reports what a run did.
type Summary struct {
	RunID      string
	Read       int
	Eligible   int
	Succeeded  int
	Failed     int
	OutputPath string
}

// Run loads recipients and blacklist, sends the template to every eligible recipient
// and writes one result row per send.
//
// Per-recipient send failures are recorded in the results file. Only load, write and
// context errors are returned.
func Run(ctx context.Context, opts Options, sender mailer.Sender) (Summary, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	delay, err := worker.DelayForRate(opts.RateLimitRPS)
	if err != nil {
		return Summary{}, err
	}

	runID := uuid.NewString()
	logger = logger.With("run_id", runID)
	runStart := time.Now()
	logger.InfoContext(ctx, "campaign start",
		"recipients", opts.RecipientsPath,
		"blacklist", opts.BlacklistPath,
		"provider", sender.Name(),
		"subject", opts.Template.Subject,
		"rate_limit_rps", opts.RateLimitRPS,
		"delay", delay,
		"pacing", opts.Pacing.String(),
		"send_timeout", opts.SendTimeout,
	)

	var (
		recipients []campaign.Recipient
		blacklist  campaign.Blacklist
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		recipients, err = localio.RecipientsFile{Path: opts.RecipientsPath}.Load(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		blacklist, err = localio.LoadBlacklist(gctx, opts.BlacklistPath)
		return err
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	eligible := campaign.Filter(recipients, blacklist)
	summary := Summary{
		RunID:    runID,
		Read:     len(recipients),
		Eligible: len(eligible),
	}
	logger.InfoContext(ctx, "recipients loaded",
		"read", summary.Read,
		"blacklisted", summary.Read-summary.Eligible,
		"blacklist_size", blacklist.Len(),
		"eligible", summary.Eligible,
	)

	sendStart := time.Now()
	outcomes, err := campaign.Deliver(ctx, eligible, opts.Template, newTracedSender(sender, logger), campaign.Options{
		Delay:          delay,
		Pacing:         opts.Pacing,
		RequestTimeout: opts.SendTimeout,
		Now:            now,
		OnOutcome: func(o campaign.Outcome) {
			if o.Succeeded() {
				return
			}
			logger.WarnContext(ctx, "recipient failed", "email", o.Email, "error", o.ErrorMessage)
		},
	})
	if err != nil {
		return Summary{}, err
	}
	summary.Succeeded, summary.Failed = campaign.CountStatuses(outcomes)

	summary.OutputPath = localio.ResultsPath(opts.OutputDir, now())
	if err := (localio.ResultsFile{Path: summary.OutputPath}).Store(ctx, outcomes); err != nil {
		return Summary{}, err
	}

	logger.InfoContext(ctx, "campaign complete",
		"total", len(outcomes),
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"output", summary.OutputPath,
		"send_duration", time.Since(sendStart).Round(time.Millisecond),
		"duration", time.Since(runStart).Round(time.Millisecond),
	)
	return summary, nil
}

// tracedSender logs every provider call with its duration and outcome.
type tracedSender struct {
	next   mailer.Sender
	logger *slog.Logger
	seq    int
}

func newTracedSender(next mailer.Sender, logger *slog.Logger) *tracedSender {
	return &tracedSender{next: next, logger: logger}
}

func (t *tracedSender) Name() string {
	return t.next.Name()
}

func (t *tracedSender) Send(ctx context.Context, msg mailer.Message) (mailer.SendResult, error) {
	t.seq++
	deadlineIn := "none"
	if d, ok := ctx.Deadline(); ok {
		deadlineIn = time.Until(d).Round(time.Millisecond).String()
	}
	t.logger.DebugContext(ctx, "send request",
		"seq", t.seq,
		"email", msg.To,
		"format", string(msg.Format),
		"deadline_in", deadlineIn,
	)

	start := time.Now()
	res, err := t.next.Send(ctx, msg)
	elapsed := time.Since(start).Round(time.Millisecond)
	if err != nil {
		t.logger.InfoContext(ctx, "send response",
			"seq", t.seq,
			"email", msg.To,
			"status", "error",
			"duration", elapsed,
			"error", redact.Secrets(err.Error()),
		)
		return res, err
	}
	t.logger.InfoContext(ctx, "send response",
		"seq", t.seq,
		"email", msg.To,
		"status", "ok",
		"duration", elapsed,
		"message_id", res.MessageID,
	)
	return res, nil
}
