package local

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"

	"github.com/shpitdev/ses-campaign-mailer/pkg/campaign"
)

// ErrMissingEmailColumn is returned when a header has no "email" column.
var ErrMissingEmailColumn = errors.New(`missing required column "email"`)

// Records streams the data rows of a header-driven CSV as recipients.
//
// The header is matched case-insensitively for the email column. Fields are
// trimmed, rows with only blank fields are skipped, and a row whose column
// count differs from the header ends the sequence with an error.
// Empty input yields nothing. The sequence reads r as it is iterated and
// cannot be restarted.
func Records(r io.Reader) iter.Seq2[campaign.Recipient, error] {
	return func(yield func(campaign.Recipient, error) bool) {
		cr := csv.NewReader(r)
		cr.FieldsPerRecord = -1

		header, err := cr.Read()
		if errors.Is(err, io.EOF) {
			// Empty input has no rows.
			return
		}
		if err != nil {
			yield(campaign.Recipient{}, fmt.Errorf("read header: %w", err))
			return
		}
		names, emailIdx := normalizeHeader(header)
		if emailIdx < 0 {
			yield(campaign.Recipient{}, ErrMissingEmailColumn)
			return
		}

		for {
			rec, err := cr.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(campaign.Recipient{}, fmt.Errorf("read row: %w", err))
				return
			}
			if blankRow(rec) {
				continue
			}
			if len(rec) != len(names) {
				line, _ := cr.FieldPos(0)
				yield(campaign.Recipient{}, fmt.Errorf("read row: line %d: got %d columns, header has %d", line, len(rec), len(names)))
				return
			}

			fields := make(map[string]string, len(names))
			for i, name := range names {
				fields[name] = strings.TrimSpace(rec[i])
			}
			if !yield(campaign.Recipient{Email: strings.TrimSpace(rec[emailIdx]), Fields: fields}, nil) {
				return
			}
		}
	}
}

// ReadRecipientsCSV collects Records into a slice.
func ReadRecipientsCSV(r io.Reader) ([]campaign.Recipient, error) {
	var out []campaign.Recipient
	for rec, err := range Records(r) {
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// ReadBlacklistCSV reads the email column of a CSV into a Blacklist.
func ReadBlacklistCSV(r io.Reader) (campaign.Blacklist, error) {
	b := campaign.NewBlacklist()
	for rec, err := range Records(r) {
		if err != nil {
			return nil, err
		}
		b.Add(rec.Email)
	}
	return b, nil
}

// RecipientsFile loads recipients from a CSV file on disk.
type RecipientsFile struct {
	Path string
}

func (f RecipientsFile) Load(_ context.Context) ([]campaign.Recipient, error) {
	in, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open recipients: %w", err)
	}
	defer func() {
		_ = in.Close()
	}()

	out, err := ReadRecipientsCSV(in)
	if err != nil {
		return nil, fmt.Errorf("parse recipients %s: %w", f.Path, err)
	}
	return out, nil
}

// LoadBlacklist reads the blacklist at path into a set.
// An empty path yields an empty set without touching the filesystem.
func LoadBlacklist(_ context.Context, path string) (campaign.Blacklist, error) {
	if strings.TrimSpace(path) == "" {
		return campaign.NewBlacklist(), nil
	}
	in, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open blacklist: %w", err)
	}
	defer func() {
		_ = in.Close()
	}()

	b, err := ReadBlacklistCSV(in)
	if err != nil {
		return nil, fmt.Errorf("parse blacklist %s: %w", path, err)
	}
	return b, nil
}

func normalizeHeader(header []string) ([]string, int) {
	names := make([]string, len(header))
	emailIdx := -1
	for i, col := range header {
		name := strings.TrimSpace(col)
		if i == 0 {
			name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		}
		names[i] = name
		if emailIdx < 0 && strings.EqualFold(name, "email") {
			emailIdx = i
		}
	}
	return names, emailIdx
}

func blankRow(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
