package mailer

import "errors"

var (
	// ErrSendFailed indicates the provider rejected or failed to accept a message.
	ErrSendFailed = errors.New("mailer: send failed")

	// ErrMissingCredentials indicates a provider was configured without its credentials.
	ErrMissingCredentials = errors.New("mailer: missing provider credentials")

	// ErrNoSenderEmail indicates the template has no sender address.
	ErrNoSenderEmail = errors.New("mailer: template must have a sender email")

	// ErrNoSubject indicates the template has no subject.
	ErrNoSubject = errors.New("mailer: template must have a subject")

	// ErrNoBody indicates the template has no body.
	ErrNoBody = errors.New("mailer: template must have a body")

	// ErrUnknownFormat indicates an unsupported body format.
	ErrUnknownFormat = errors.New("mailer: unknown body format")

	// ErrInvalidFrontmatter indicates invalid YAML frontmatter in a template file.
	ErrInvalidFrontmatter = errors.New("mailer: invalid frontmatter")
)
