package main

import (
	"bytes"
	"context"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shpitdev/ses-campaign-mailer/internal/mockses"
	"github.com/shpitdev/ses-campaign-mailer/pkg/mailer"
	localio "github.com/shpitdev/ses-campaign-mailer/pkg/pipeline/io/local"
	"github.com/shpitdev/ses-campaign-mailer/pkg/pipeline/schema"
)

const testTemplate = `---
sender_name: Jane Doe
sender_email: jane@example.com
subject: Hello
---
Dear Recruiter,
`

// clearEnv blanks every variable the send command reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"MAILER_RECIPIENTS", "MAILER_BLACKLIST", "MAILER_TEMPLATE", "MAILER_OUTPUT_DIR", "MAILER_PROVIDER",
		"MAILER_SENDER_NAME", "MAILER_SENDER_EMAIL", "MAILER_REPLY_TO",
		"RATE_LIMIT_RPS", "PACING", "SEND_TIMEOUT", "LOG_FORMAT", "LOG_LEVEL",
		"AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY", "AWS_SESSION_TOKEN", "AWS_REGION", "SES_ENDPOINT",
		"RESEND_API_KEY", "RESEND_BASE_URL",
	} {
		t.Setenv(k, "")
	}
}

type fixture struct {
	dir        string
	recipients string
	template   string
	outputDir  string
}

func newFixture(t *testing.T, recipients string) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{
		dir:        dir,
		recipients: filepath.Join(dir, "recipients.csv"),
		template:   filepath.Join(dir, "template.md"),
		outputDir:  filepath.Join(dir, "out"),
	}
	require.NoError(t, os.WriteFile(f.recipients, []byte(recipients), 0o600))
	require.NoError(t, os.WriteFile(f.template, []byte(testTemplate), 0o600))
	return f
}

func (f fixture) args(extra ...string) []string {
	return append([]string{
		"--recipients", f.recipients,
		"--template", f.template,
		"--output-dir", f.outputDir,
		"--rate-limit-rps", "0",
	}, extra...)
}

func (f fixture) results(t *testing.T) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(f.outputDir, schema.ResultsFilePrefix+"*"+schema.ResultsFileExt))
	require.NoError(t, err)
	return matches
}

func TestRunSend_MissingSESCredentialsExitsBeforeReadingFiles(t *testing.T) {
	clearEnv(t)
	f := newFixture(t, "email\na@x.com\n")

	var stderr bytes.Buffer
	// A missing recipients file would exit 1 if it were read.
	code := runSend(context.Background(), []string{
		"--recipients", filepath.Join(f.dir, "missing.csv"),
		"--template", f.template,
		"--output-dir", f.outputDir,
	}, &stderr)
	require.Equal(t, 2, code, stderr.String())
	require.Contains(t, stderr.String(), "missing provider credentials")
	require.Empty(t, f.results(t), "results file written despite config error")
}

func TestRunSend_MissingResendKey(t *testing.T) {
	clearEnv(t)
	f := newFixture(t, "email\na@x.com\n")

	var stderr bytes.Buffer
	code := runSend(context.Background(), f.args("--provider", "resend"), &stderr)
	require.Equal(t, 2, code, stderr.String())
}

func TestRunSend_ConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args func(f fixture) []string
	}{
		{name: "unknown provider", args: func(f fixture) []string { return f.args("--provider", "smtp") }},
		{name: "unknown pacing", args: func(f fixture) []string { return f.args("--provider", "log", "--pacing", "burst") }},
		{name: "negative rate", args: func(f fixture) []string { return f.args("--provider", "log", "--rate-limit-rps", "-1") }},
		{name: "NaN rate", args: func(f fixture) []string { return f.args("--provider", "log", "--rate-limit-rps", "NaN") }},
		{name: "infinite rate", args: func(f fixture) []string { return f.args("--provider", "log", "--rate-limit-rps", "+Inf") }},
		{name: "rate too low to pace", args: func(f fixture) []string { return f.args("--provider", "log", "--rate-limit-rps", "1e-12") }},
		{name: "NaN env rate", env: map[string]string{"RATE_LIMIT_RPS": "NaN"}, args: func(f fixture) []string {
			return []string{"--provider", "log", "--recipients", f.recipients, "--template", f.template, "--output-dir", f.outputDir}
		}},
		{name: "bad log format", args: func(f fixture) []string { return f.args("--provider", "log", "--log-format", "xml") }},
		{name: "bad env duration", env: map[string]string{"SEND_TIMEOUT": "soon"}, args: func(f fixture) []string { return f.args("--provider", "log") }},
		{name: "bad env rate", env: map[string]string{"RATE_LIMIT_RPS": "fast"}, args: func(f fixture) []string { return f.args("--provider", "log") }},
		{name: "unknown flag", args: func(f fixture) []string { return f.args("--provider", "log", "--nope") }},
		{name: "missing template", args: func(f fixture) []string {
			return []string{"--provider", "log", "--recipients", f.recipients, "--output-dir", f.outputDir}
		}},
		{name: "template without sender", args: func(f fixture) []string {
			p := filepath.Join(f.dir, "nosender.txt")
			_ = os.WriteFile(p, []byte("---\nsubject: Hi\n---\nBody\n"), 0o600)
			return []string{"--provider", "log", "--recipients", f.recipients, "--template", p, "--output-dir", f.outputDir}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			f := newFixture(t, "email\na@x.com\n")
			var stderr bytes.Buffer
			code := runSend(context.Background(), tt.args(f), &stderr)
			require.Equal(t, 2, code, stderr.String())
			require.Empty(t, f.results(t), "results file written despite config error")
		})
	}
}

func TestRunSend_LogProviderWritesResults(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAILER_PROVIDER", "log")
	f := newFixture(t, "email\na@x.com\nnot-an-address\nb@x.com\n")
	blacklist := filepath.Join(f.dir, "blacklist.csv")
	require.NoError(t, os.WriteFile(blacklist, []byte("email\nB@X.COM\n"), 0o600))

	var stderr bytes.Buffer
	code := runSend(context.Background(), f.args("--blacklist", blacklist, "--reply-to", "replies@example.com"), &stderr)
	require.Equal(t, 0, code, stderr.String())
	require.Contains(t, stderr.String(), "reply_to=replies@example.com", "reply-to override not applied")

	files := f.results(t)
	require.Len(t, files, 1)
	outcomes := readOutcomes(t, files[0])
	require.Len(t, outcomes, 2)
	require.Equal(t, "a@x.com", outcomes[0].Email)
	require.Equal(t, schema.StatusSuccess, outcomes[0].Status)
	require.Equal(t, "not-an-address", outcomes[1].Email)
	require.Equal(t, schema.StatusFailure, outcomes[1].Status)
}

func TestRunSend_MissingRecipientsExitsOne(t *testing.T) {
	clearEnv(t)
	f := newFixture(t, "email\n")

	var stderr bytes.Buffer
	code := runSend(context.Background(), []string{
		"--provider", "log",
		"--recipients", filepath.Join(f.dir, "missing.csv"),
		"--template", f.template,
		"--output-dir", f.outputDir,
	}, &stderr)
	require.Equal(t, 1, code, stderr.String())
}

func TestRunSend_SESAgainstMock(t *testing.T) {
	clearEnv(t)
	srv := mockses.New()
	srv.Reject("bad@x.com", "MessageRejected", "Email address is not verified.")
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	t.Setenv("AWS_ACCESS_KEY_ID", "AKIDEXAMPLE")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	t.Setenv("SES_ENDPOINT", ts.URL)
	f := newFixture(t, "email\ngood@x.com\nbad@x.com\n")

	var stderr bytes.Buffer
	code := runSend(context.Background(), f.args(), &stderr)
	require.Equal(t, 0, code, stderr.String())

	msgs := srv.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, "Jane Doe <jane@example.com>", msgs[0].Source)
	require.Equal(t, "Hello", msgs[0].Subject)

	files := f.results(t)
	require.Len(t, files, 1)
	outcomes := readOutcomes(t, files[0])
	require.Len(t, outcomes, 2)
	require.Equal(t, schema.StatusSuccess, outcomes[0].Status)
	require.Equal(t, schema.StatusFailure, outcomes[1].Status)
	require.Contains(t, outcomes[1].ErrorMessage, "MessageRejected")
}

func TestNewSender(t *testing.T) {
	clearEnv(t)
	logger := slog.New(slog.DiscardHandler)

	s, err := newSender("LOG", logger)
	require.NoError(t, err)
	require.Equal(t, "log", s.Name())

	_, err = newSender("ses", logger)
	require.ErrorIs(t, err, mailer.ErrMissingCredentials)

	t.Setenv("AWS_ACCESS_KEY_ID", "AKIDEXAMPLE")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	s, err = newSender("ses", logger)
	require.NoError(t, err)
	require.Equal(t, "ses", s.Name())
}

func readOutcomes(t *testing.T, path string) []outcomeRow {
	t.Helper()
	fh, err := os.Open(path)
	require.NoError(t, err)
	defer func() {
		_ = fh.Close()
	}()
	got, err := localio.ReadResultsCSV(fh)
	require.NoError(t, err)
	out := make([]outcomeRow, 0, len(got))
	for _, o := range got {
		out = append(out, outcomeRow{Email: o.Email, Status: o.Status, ErrorMessage: o.ErrorMessage})
	}
	return out
}

type outcomeRow struct {
	Email        string
	Status       schema.Status
	ErrorMessage string
}
