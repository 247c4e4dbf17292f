package mailer

// Compose builds the message for one recipient. The recipient only fills the destination.
func Compose(tmpl Template, to string) Message {
	format := tmpl.Format
	if format == "" {
		format = FormatText
	}
	return Message{
		From:    tmpl.From(),
		ReplyTo: tmpl.ReplyTo,
		To:      to,
		Subject: tmpl.Subject,
		Body:    tmpl.Body,
		Format:  format,
	}
}
