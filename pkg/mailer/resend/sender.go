package resend

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/resend/resend-go/v3"

	"github.com/shpitdev/ses-campaign-mailer/pkg/mailer"
)

// Config holds Resend provider configuration.
type Config struct {
	APIKey string

	// BaseURL overrides the API base URL (optional, for local mocks).
	BaseURL string
}

// Sender implements mailer.Sender using the Resend API.
type Sender struct {
	client *resend.Client
}

// New validates cfg and creates a Resend sender. It performs no network calls.
func New(cfg Config) (*Sender, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, fmt.Errorf("%w: resend requires an API key", mailer.ErrMissingCredentials)
	}

	client := resend.NewClient(key)
	if cfg.BaseURL != "" {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("resend: parse base url: %w", err)
		}
		client.BaseURL = u
	}
	return &Sender{client: client}, nil
}

// Name returns the provider name.
func (s *Sender) Name() string {
	return "resend"
}

// Send implements mailer.Sender.
func (s *Sender) Send(ctx context.Context, msg mailer.Message) (mailer.SendResult, error) {
	req := &resend.SendEmailRequest{
		From:    msg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		ReplyTo: msg.ReplyTo,
	}
	if msg.Format == mailer.FormatHTML {
		req.Html = msg.Body
	} else {
		req.Text = msg.Body
	}

	sent, err := s.client.Emails.SendWithContext(ctx, req)
	if err != nil {
		return mailer.SendResult{}, fmt.Errorf("%w: resend: %v", mailer.ErrSendFailed, err)
	}
	return mailer.SendResult{MessageID: sent.Id}, nil
}
