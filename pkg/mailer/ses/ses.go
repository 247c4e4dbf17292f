package ses

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/smithy-go"

	"github.com/shpitdev/ses-campaign-mailer/pkg/mailer"
)

// DefaultRegion is used when Config.Region is empty.
const DefaultRegion = "us-east-1"

const charset = "UTF-8"

// Config holds Amazon SES credentials and endpoint settings.
type Config struct {
	// AccessKeyID is the AWS access key ID (required).
	AccessKeyID string

	// SecretAccessKey is the AWS secret access key (required).
	SecretAccessKey string

	// SessionToken is set for temporary credentials (optional).
	SessionToken string

	// Region is the AWS region (default: us-east-1).
	Region string

	// Endpoint overrides the SES endpoint URL (optional, for local mocks).
	Endpoint string
}

func (c *Config) applyDefaults() {
	c.AccessKeyID = strings.TrimSpace(c.AccessKeyID)
	c.SecretAccessKey = strings.TrimSpace(c.SecretAccessKey)
	c.Region = strings.TrimSpace(c.Region)
	if c.Region == "" {
		c.Region = DefaultRegion
	}
}

func (c *Config) validate() error {
	var missing []string
	if c.AccessKeyID == "" {
		missing = append(missing, "access key ID")
	}
	if c.SecretAccessKey == "" {
		missing = append(missing, "secret access key")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: ses requires %s", mailer.ErrMissingCredentials, strings.Join(missing, " and "))
	}
	return nil
}

// API is the subset of the SES client used by Sender.
type API interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// Sender implements mailer.Sender using Amazon SES.
type Sender struct {
	api API
	cfg Config
}

// New validates cfg and builds an SES client. It performs no network calls.
func New(cfg Config) (*Sender, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	opts := []func(*ses.Options){
		func(o *ses.Options) {
			o.Region = cfg.Region
			o.Credentials = credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID,
				cfg.SecretAccessKey,
				cfg.SessionToken,
			)
			// Failed sends are recorded by the caller, never retried.
			o.RetryMaxAttempts = 1
		},
	}
	if cfg.Endpoint != "" {
		opts = append(opts, func(o *ses.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	return NewWithAPI(ses.New(ses.Options{}, opts...), cfg), nil
}

// NewWithAPI wraps an existing SES API implementation.
func NewWithAPI(api API, cfg Config) *Sender {
	cfg.applyDefaults()
	return &Sender{api: api, cfg: cfg}
}

// Name returns the provider name.
func (s *Sender) Name() string {
	return "ses"
}

// Region returns the region requests are signed for.
func (s *Sender) Region() string {
	return s.cfg.Region
}

// Send implements mailer.Sender.
func (s *Sender) Send(ctx context.Context, msg mailer.Message) (mailer.SendResult, error) {
	out, err := s.api.SendEmail(ctx, buildInput(msg))
	if err != nil {
		return mailer.SendResult{}, wrapSESError(err)
	}
	return mailer.SendResult{MessageID: aws.ToString(out.MessageId)}, nil
}

func buildInput(msg mailer.Message) *ses.SendEmailInput {
	content := &types.Content{
		Data:    aws.String(msg.Body),
		Charset: aws.String(charset),
	}
	body := &types.Body{}
	if msg.Format == mailer.FormatHTML {
		body.Html = content
	} else {
		body.Text = content
	}

	in := &ses.SendEmailInput{
		Source: aws.String(msg.From),
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(msg.Subject),
				Charset: aws.String(charset),
			},
			Body: body,
		},
	}
	if msg.ReplyTo != "" {
		in.ReplyToAddresses = []string{msg.ReplyTo}
	}
	return in
}

// wrapSESError folds SES API errors into mailer.ErrSendFailed.
// The SDK error is formatted with %v so callers match on the sentinel only.
func wrapSESError(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %s: %s", mailer.ErrSendFailed, apiErr.ErrorCode(), apiErr.ErrorMessage())
	}
	return fmt.Errorf("%w: %v", mailer.ErrSendFailed, err)
}
