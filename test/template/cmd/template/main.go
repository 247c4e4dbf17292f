package main

import (
	"context"
	"fmt"

	"github.com/shpitdev/ses-campaign-mailer/pkg/campaign"
	"github.com/shpitdev/ses-campaign-mailer/pkg/mailer"
	"github.com/shpitdev/ses-campaign-mailer/test/template/outbox"
)

func main() {
	box := &outbox.Outbox{}
	tmpl := mailer.Template{SenderEmail: "jane@example.com", Subject: "Hello", Body: "Hi", Format: mailer.FormatText}

	out, err := campaign.Deliver(context.Background(), []campaign.Recipient{{Email: "alice@example.com"}}, tmpl, box, campaign.Options{})
	if err != nil {
		panic(err)
	}
	fmt.Println(out[0].Email, out[0].Status)
}
