package mailer

import (
	"context"
	"fmt"
)

// Format is the body format of a message. Exactly one format is sent.
type Format string

const (
	FormatText Format = "text"
	FormatHTML Format = "html"
)

// Message is a fully composed provider request for a single recipient.
type Message struct {
	From    string // "Name <address>" or bare address
	ReplyTo string // optional
	To      string
	Subject string
	Body    string
	Format  Format
}

// SendResult contains the response from the provider.
type SendResult struct {
	MessageID string
}

// Sender delivers one message through a provider.
type Sender interface {
	Name() string
	Send(ctx context.Context, msg Message) (SendResult, error)
}

// FormatAddress formats a name and email into RFC 5322 address format.
// Returns "Name <email>" if name is provided, otherwise just email.
func FormatAddress(name, email string) string {
	if name == "" {
		return email
	}
	return fmt.Sprintf("%s <%s>", name, email)
}
