package local

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shpitdev/ses-campaign-mailer/pkg/campaign"
	"github.com/shpitdev/ses-campaign-mailer/pkg/pipeline/schema"
)

// WriteResultsCSV writes outcomes as a CSV with the stable schema.ResultsHeader ordering.
func WriteResultsCSV(w io.Writer, outcomes []campaign.Outcome) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(schema.ResultsHeader()); err != nil {
		return err
	}
	for _, o := range outcomes {
		if err := cw.Write([]string{
			o.Email,
			string(o.Status),
			schema.FormatTimestamp(o.Timestamp),
			o.ErrorMessage,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadResultsCSV reads a results file written by WriteResultsCSV.
//
// Extra columns are ignored. Every column of schema.ResultsHeader must exist.
func ReadResultsCSV(r io.Reader) ([]campaign.Outcome, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for _, name := range schema.ResultsHeader() {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("missing required column %q", name)
		}
	}

	var out []campaign.Outcome
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		get := func(col string) string {
			i := index[col]
			if i >= len(rec) {
				return ""
			}
			return rec[i]
		}

		status, err := schema.NormalizeStatus(get("Status"))
		if err != nil {
			return nil, err
		}
		ts, err := schema.ParseTimestamp(get("Timestamp"))
		if err != nil {
			return nil, err
		}
		out = append(out, campaign.Outcome{
			Email:        get("Email"),
			Status:       status,
			Timestamp:    ts,
			ErrorMessage: get("Error Message"),
		})
	}
}

// ResultsPath returns the timestamped results file path inside dir.
func ResultsPath(dir string, at time.Time) string {
	if strings.TrimSpace(dir) == "" {
		dir = "."
	}
	return filepath.Join(dir, schema.ResultsFileName(at))
}

// ResultsFile stores outcomes in a CSV file on disk.
type ResultsFile struct {
	Path string
}

// Store creates the file (and its directory) and writes every outcome.
// The file is flushed and closed before Store returns.
func (f ResultsFile) Store(_ context.Context, outcomes []campaign.Outcome) error {
	if dir := filepath.Dir(f.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create results dir: %w", err)
		}
	}
	out, err := os.Create(f.Path)
	if err != nil {
		return fmt.Errorf("create results file: %w", err)
	}
	defer func() {
		_ = out.Close()
	}()

	if err := WriteResultsCSV(out, outcomes); err != nil {
		return fmt.Errorf("write results file: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close results file: %w", err)
	}
	return nil
}
