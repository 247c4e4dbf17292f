package template

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shpitdev/ses-campaign-mailer/pkg/campaign"
	"github.com/shpitdev/ses-campaign-mailer/pkg/mailer"
	"github.com/shpitdev/ses-campaign-mailer/pkg/pipeline/schema"
	"github.com/shpitdev/ses-campaign-mailer/test/template/outbox"
)

func TestTemplateCompilesWithCampaignKit(t *testing.T) {
	t.Parallel()

	box := &outbox.Outbox{}
	tmpl := mailer.Template{SenderEmail: "jane@example.com", Subject: "Hello", Body: "Hi", Format: mailer.FormatText}

	out, err := campaign.Deliver(context.Background(), []campaign.Recipient{{Email: "bob@corp.test"}}, tmpl, box, campaign.Options{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, schema.StatusSuccess, out[0].Status)

	sent := box.Sent()
	require.Len(t, sent, 1)
	require.Equal(t, "bob@corp.test", sent[0].To)
}
