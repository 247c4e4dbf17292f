package campaign

import (
	"strings"
	"time"

	"github.com/shpitdev/ses-campaign-mailer/pkg/pipeline/schema"
)

// Recipient is one data row of the recipients file.
type Recipient struct {
	Email string
	// Fields holds every column of the row keyed by header name, including email.
	Fields map[string]string
}

// Blacklist is a set of lower-cased addresses that must not be mailed.
// The nil Blacklist is empty.
type Blacklist map[string]struct{}

// NewBlacklist builds a Blacklist from raw addresses.
func NewBlacklist(emails ...string) Blacklist {
	b := make(Blacklist, len(emails))
	for _, e := range emails {
		b.Add(e)
	}
	return b
}

// Add inserts email, ignoring blanks.
func (b Blacklist) Add(email string) {
	key := Key(email)
	if key == "" {
		return
	}
	b[key] = struct{}{}
}

// Contains reports whether email is blacklisted, ignoring case and surrounding space.
func (b Blacklist) Contains(email string) bool {
	_, ok := b[Key(email)]
	return ok
}

// Len returns the number of distinct addresses.
func (b Blacklist) Len() int {
	return len(b)
}

// Key normalizes an address for blacklist comparison.
func Key(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Outcome is the delivery result for a single recipient.
type Outcome struct {
	Email        string
	Status       schema.Status
	Timestamp    time.Time
	ErrorMessage string
}

// Succeeded reports whether the send was accepted by the provider.
func (o Outcome) Succeeded() bool {
	return o.Status == schema.StatusSuccess
}

// CountStatuses splits outcomes into success and failure totals.
func CountStatuses(outcomes []Outcome) (succeeded int, failed int) {
	for _, o := range outcomes {
		if o.Succeeded() {
			succeeded++
			continue
		}
		failed++
	}
	return succeeded, failed
}
