package consumer

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shpitdev/ses-campaign-mailer/pkg/campaign"
	"github.com/shpitdev/ses-campaign-mailer/pkg/mailer"
	"github.com/shpitdev/ses-campaign-mailer/pkg/mailer/logsender"
	"github.com/shpitdev/ses-campaign-mailer/pkg/pipeline/io/local"
	"github.com/shpitdev/ses-campaign-mailer/pkg/pipeline/schema"
	"github.com/shpitdev/ses-campaign-mailer/pkg/pipeline/worker"
)

func TestPublicPackagesCompile(t *testing.T) {
	t.Parallel()

	_ = schema.ResultsHeader()

	recipients, err := local.ReadRecipientsCSV(strings.NewReader("email\na@x.com\n"))
	require.NoError(t, err)

	tmpl, err := mailer.ParseTemplate([]byte("---\nsender_email: jane@example.com\nsubject: Hi\nformat: markdown\n---\n# Hello\n"))
	require.NoError(t, err)

	sender := logsender.New(slog.New(slog.DiscardHandler))
	out, err := campaign.Deliver(context.Background(), recipients, tmpl, sender, campaign.Options{Pacing: worker.PacingLimiter})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.True(t, out[0].Succeeded(), "outcome: %#v", out[0])
}
