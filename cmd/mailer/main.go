package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shpitdev/ses-campaign-mailer/internal/app"
	"github.com/shpitdev/ses-campaign-mailer/internal/logging"
	"github.com/shpitdev/ses-campaign-mailer/internal/version"
	"github.com/shpitdev/ses-campaign-mailer/pkg/mailer"
	"github.com/shpitdev/ses-campaign-mailer/pkg/pipeline/redact"
	"github.com/shpitdev/ses-campaign-mailer/pkg/pipeline/worker"
)

func main() {
	ctx := context.Background()

	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	switch os.Args[1] {
	case "help", "-h", "--help":
		usage(os.Stdout)
		return
	case "version", "--version":
		_, _ = fmt.Fprintf(os.Stdout, "mailer %s\n", version.Current)
		return
	case "send":
		os.Exit(runSend(ctx, os.Args[2:], os.Stderr))
	default:
		_, _ = fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		usage(os.Stderr)
		os.Exit(2)
	}
}

// runSend returns the process exit code: 0 on completion (per-recipient failures included),
// 2 on configuration errors and 1 when the run itself fails.
func runSend(ctx context.Context, args []string, stderr io.Writer) int {
	cfg, err := loadSendConfigFromEnv()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "config error: %s\n", redact.Secrets(err.Error()))
		return 2
	}

	fs := flag.NewFlagSet("send", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.RecipientsPath, "recipients", cfg.RecipientsPath, "Recipients CSV file path, must include an 'email' column (env: MAILER_RECIPIENTS)")
	fs.StringVar(&cfg.BlacklistPath, "blacklist", cfg.BlacklistPath, "Blacklist CSV file path, empty disables (env: MAILER_BLACKLIST)")
	fs.StringVar(&cfg.TemplatePath, "template", cfg.TemplatePath, "Template file with YAML frontmatter (env: MAILER_TEMPLATE)")
	fs.StringVar(&cfg.OutputDir, "output-dir", cfg.OutputDir, "Directory for the results CSV (env: MAILER_OUTPUT_DIR)")
	fs.StringVar(&cfg.Provider, "provider", cfg.Provider, "Delivery provider: ses, resend or log (env: MAILER_PROVIDER)")
	fs.StringVar(&cfg.SenderName, "sender-name", cfg.SenderName, "Override the template sender name (env: MAILER_SENDER_NAME)")
	fs.StringVar(&cfg.SenderEmail, "sender-email", cfg.SenderEmail, "Override the template sender address (env: MAILER_SENDER_EMAIL)")
	fs.StringVar(&cfg.ReplyTo, "reply-to", cfg.ReplyTo, "Override the template reply-to address (env: MAILER_REPLY_TO)")
	fs.Float64Var(&cfg.RateLimitRPS, "rate-limit-rps", cfg.RateLimitRPS, "Maximum sends per second, 0 disables (env: RATE_LIMIT_RPS)")
	fs.StringVar(&cfg.Pacing, "pacing", cfg.Pacing, "Pacing mode: fixed or limiter (env: PACING)")
	fs.DurationVar(&cfg.SendTimeout, "send-timeout", cfg.SendTimeout, "Per-send timeout, 0 leaves it to the provider (env: SEND_TIMEOUT)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format: text or json (env: LOG_FORMAT)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn or error (env: LOG_LEVEL)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() > 0 {
		_, _ = fmt.Fprintf(stderr, "unexpected arguments: %s\n", strings.Join(fs.Args(), " "))
		return 2
	}

	logger, err := logging.New(stderr, cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "config error: %s\n", err)
		return 2
	}
	pacing, err := worker.ParsePacing(cfg.Pacing)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "config error: %s\n", err)
		return 2
	}
	if _, err := worker.DelayForRate(cfg.RateLimitRPS); err != nil {
		_, _ = fmt.Fprintf(stderr, "config error: --rate-limit-rps: %s\n", err)
		return 2
	}

	// The provider is built before any file is read so missing credentials fail fast.
	sender, err := newSender(cfg.Provider, logger)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "provider config error: %s\n", redact.Secrets(err.Error()))
		return 2
	}

	if strings.TrimSpace(cfg.TemplatePath) == "" {
		_, _ = fmt.Fprintln(stderr, "send requires --template (or MAILER_TEMPLATE)")
		return 2
	}
	tmpl, err := mailer.LoadTemplate(cfg.TemplatePath)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "template error: %s\n", err)
		return 2
	}
	tmpl = cfg.applyOverrides(tmpl)
	if err := tmpl.Validate(); err != nil {
		_, _ = fmt.Fprintf(stderr, "template error: %s\n", err)
		return 2
	}

	summary, err := app.Run(ctx, app.Options{
		RecipientsPath: cfg.RecipientsPath,
		BlacklistPath:  cfg.BlacklistPath,
		OutputDir:      cfg.OutputDir,
		Template:       tmpl,
		RateLimitRPS:   cfg.RateLimitRPS,
		Pacing:         pacing,
		SendTimeout:    cfg.SendTimeout,
		Logger:         logger,
	}, sender)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "send run failed: %s\n", redact.Secrets(err.Error()))
		return 1
	}
	_, _ = fmt.Fprintf(stderr, "sent %d/%d (failed %d), results written to %s\n",
		summary.Succeeded, summary.Eligible, summary.Failed, summary.OutputPath)
	return 0
}

// sendConfig is the fully resolved configuration of the send command.
type sendConfig struct {
	RecipientsPath string
	BlacklistPath  string
	TemplatePath   string
	OutputDir      string
	Provider       string

	SenderName  string
	SenderEmail string
	ReplyTo     string

	RateLimitRPS float64
	Pacing       string
	SendTimeout  time.Duration

	LogFormat string
	LogLevel  string
}

func (c sendConfig) applyOverrides(t mailer.Template) mailer.Template {
	if v := strings.TrimSpace(c.SenderName); v != "" {
		t.SenderName = v
	}
	if v := strings.TrimSpace(c.SenderEmail); v != "" {
		t.SenderEmail = v
	}
	if v := strings.TrimSpace(c.ReplyTo); v != "" {
		t.ReplyTo = v
	}
	return t
}

func loadSendConfigFromEnv() (sendConfig, error) {
	rateLimitRPS, err := envFloat("RATE_LIMIT_RPS", 14)
	if err != nil {
		return sendConfig{}, err
	}
	sendTimeout, err := envDuration("SEND_TIMEOUT", 0)
	if err != nil {
		return sendConfig{}, err
	}

	return sendConfig{
		RecipientsPath: envString("MAILER_RECIPIENTS", "./csv/recipients.csv"),
		BlacklistPath:  envString("MAILER_BLACKLIST", ""),
		TemplatePath:   envString("MAILER_TEMPLATE", ""),
		OutputDir:      envString("MAILER_OUTPUT_DIR", "./csv"),
		Provider:       envString("MAILER_PROVIDER", providerSES),
		SenderName:     envString("MAILER_SENDER_NAME", ""),
		SenderEmail:    envString("MAILER_SENDER_EMAIL", ""),
		ReplyTo:        envString("MAILER_REPLY_TO", ""),
		RateLimitRPS:   rateLimitRPS,
		Pacing:         envString("PACING", worker.PacingFixedDelay.String()),
		SendTimeout:    sendTimeout,
		LogFormat:      envString("LOG_FORMAT", "text"),
		LogLevel:       envString("LOG_LEVEL", "info"),
	}, nil
}

func usage(w io.Writer) {
	_, _ = fmt.Fprintf(w, `mailer: send a templated email campaign to a CSV of recipients

Usage:
  mailer <command> [flags]

Commands:
  send     Send the template to every recipient not on the blacklist
  version  Print the version
  help     Show this help

Examples:
  mailer send --template templates/intro.md --recipients csv/recipients.csv --blacklist csv/blacklist.csv
  MAILER_PROVIDER=log mailer send --template templates/intro.md

Environment (ses):
  AWS_ACCESS_KEY_ID      Access key ID (required)
  AWS_SECRET_ACCESS_KEY  Secret access key (required)
  AWS_SESSION_TOKEN      Session token for temporary credentials
  AWS_REGION             Region (default us-east-1)
  SES_ENDPOINT           Endpoint override (e.g. a local mock-ses)

Environment (resend):
  RESEND_API_KEY         API key (required)

Exit codes:
  0  run completed (individual send failures are in the results file)
  1  run failed (unreadable input, unwritable output)
  2  configuration or credential error

`)
}
