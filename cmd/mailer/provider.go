package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/shpitdev/ses-campaign-mailer/pkg/mailer"
	"github.com/shpitdev/ses-campaign-mailer/pkg/mailer/logsender"
	"github.com/shpitdev/ses-campaign-mailer/pkg/mailer/resend"
	"github.com/shpitdev/ses-campaign-mailer/pkg/mailer/ses"
)

const (
	providerSES    = "ses"
	providerResend = "resend"
	providerLog    = "log"
)

// newSender builds the delivery client named by provider from the process environment.
// It performs no network calls.
func newSender(provider string, logger *slog.Logger) (mailer.Sender, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case providerSES:
		s, err := ses.New(loadSESConfigFromEnv())
		if err != nil {
			return nil, err
		}
		return s, nil
	case providerResend:
		s, err := resend.New(resend.Config{
			APIKey:  envString("RESEND_API_KEY", ""),
			BaseURL: envString("RESEND_BASE_URL", ""),
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case providerLog:
		return logsender.New(logger), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (want %s, %s or %s)", provider, providerSES, providerResend, providerLog)
	}
}

func loadSESConfigFromEnv() ses.Config {
	return ses.Config{
		AccessKeyID:     envString("AWS_ACCESS_KEY_ID", ""),
		SecretAccessKey: envString("AWS_SECRET_ACCESS_KEY", ""),
		SessionToken:    envString("AWS_SESSION_TOKEN", ""),
		Region:          envString("AWS_REGION", ""),
		Endpoint:        envString("SES_ENDPOINT", ""),
	}
}
