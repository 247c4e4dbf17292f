package mailer

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"gopkg.in/yaml.v3"
)

// Template is the static part of every campaign message.
type Template struct {
	SenderName  string
	SenderEmail string
	ReplyTo     string
	Subject     string
	Body        string
	Format      Format
}

// From renders the sender identity.
func (t Template) From() string {
	return FormatAddress(strings.TrimSpace(t.SenderName), strings.TrimSpace(t.SenderEmail))
}

// Validate checks that the template can produce a sendable message.
func (t Template) Validate() error {
	if strings.TrimSpace(t.SenderEmail) == "" {
		return ErrNoSenderEmail
	}
	if strings.TrimSpace(t.Subject) == "" {
		return ErrNoSubject
	}
	if strings.TrimSpace(t.Body) == "" {
		return ErrNoBody
	}
	switch t.Format {
	case "", FormatText, FormatHTML:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, t.Format)
	}
}

// frontmatter is the YAML header of a template file.
type frontmatter struct {
	SenderName  string `yaml:"sender_name"`
	SenderEmail string `yaml:"sender_email"`
	ReplyTo     string `yaml:"reply_to"`
	Subject     string `yaml:"subject"`
	Format      string `yaml:"format"`
	Sanitize    bool   `yaml:"sanitize"`
}

// LoadTemplate reads and parses a template file.
func LoadTemplate(path string) (Template, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Template{}, fmt.Errorf("read template: %w", err)
	}
	return ParseTemplate(b)
}

// ParseTemplate parses template file content: optional YAML frontmatter between
// two lines consisting only of "---", followed by the body.
//
// format is one of text (default), html or markdown. Markdown bodies are converted
// to HTML and sent as HTML. With sanitize set, HTML bodies are passed through a UGC policy.
func ParseTemplate(content []byte) (Template, error) {
	fm, body, err := splitFrontmatter(content)
	if err != nil {
		return Template{}, err
	}

	tmpl := Template{
		SenderName:  strings.TrimSpace(fm.SenderName),
		SenderEmail: strings.TrimSpace(fm.SenderEmail),
		ReplyTo:     strings.TrimSpace(fm.ReplyTo),
		Subject:     strings.TrimSpace(fm.Subject),
		Body:        body,
	}

	switch strings.ToLower(strings.TrimSpace(fm.Format)) {
	case "", "text", "plain":
		tmpl.Format = FormatText
	case "html":
		tmpl.Format = FormatHTML
	case "markdown", "md":
		html, err := renderMarkdown(body)
		if err != nil {
			return Template{}, err
		}
		tmpl.Body = html
		tmpl.Format = FormatHTML
	default:
		return Template{}, fmt.Errorf("%w: %q", ErrUnknownFormat, fm.Format)
	}

	if fm.Sanitize && tmpl.Format == FormatHTML {
		tmpl.Body = sanitizeHTML(tmpl.Body)
	}
	return tmpl, nil
}

func splitFrontmatter(content []byte) (frontmatter, string, error) {
	var fm frontmatter

	first, rest, found := bytes.Cut(content, []byte("\n"))
	if !isDelimiterLine(first) {
		return fm, string(content), nil
	}
	if !found {
		return fm, "", fmt.Errorf("%w: no content after opening delimiter", ErrInvalidFrontmatter)
	}

	header, body, ok := cutAtDelimiterLine(rest)
	if !ok {
		return fm, "", fmt.Errorf("%w: closing delimiter not found", ErrInvalidFrontmatter)
	}

	if len(bytes.TrimSpace(header)) > 0 {
		if err := yaml.Unmarshal(header, &fm); err != nil {
			return fm, "", fmt.Errorf("%w: %v", ErrInvalidFrontmatter, err)
		}
	}
	return fm, string(body), nil
}

// isDelimiterLine reports whether line is exactly "---", ignoring a trailing \r.
func isDelimiterLine(line []byte) bool {
	return bytes.Equal(bytes.TrimSuffix(line, []byte("\r")), []byte("---"))
}

// cutAtDelimiterLine splits b around its first delimiter line.
// after starts on the line following the delimiter.
func cutAtDelimiterLine(b []byte) (before, after []byte, ok bool) {
	for off := 0; off < len(b); {
		line := b[off:]
		next := len(b)
		if i := bytes.IndexByte(line, '\n'); i >= 0 {
			line = line[:i]
			next = off + i + 1
		}
		if isDelimiterLine(line) {
			return b[:off], b[next:], true
		}
		off = next
	}
	return nil, nil, false
}

func renderMarkdown(body string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

var (
	ugcPolicy     *bluemonday.Policy
	ugcPolicyOnce sync.Once
)

func sanitizeHTML(s string) string {
	ugcPolicyOnce.Do(func() {
		ugcPolicy = bluemonday.UGCPolicy()
	})
	return ugcPolicy.Sanitize(s)
}
