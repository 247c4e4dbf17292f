package schema

import (
	"fmt"
	"strings"
	"time"
)

// Status is the per-recipient delivery status written to the results file.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// TimestampLayout is the ISO-8601 layout used for outcome timestamps (UTC, millisecond precision).
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// ResultsFilePrefix and ResultsFileExt frame the timestamp in result file names.
const (
	ResultsFilePrefix = "email-results-"
	ResultsFileExt    = ".csv"
)

// ResultsHeader returns the stable CSV header of the results file.
func ResultsHeader() []string {
	return []string{
		"Email",
		"Status",
		"Timestamp",
		"Error Message",
	}
}

// NormalizeStatus parses a status cell written by the results writer.
// Only "success" and "failure" are accepted, case-insensitively.
func NormalizeStatus(raw string) (Status, error) {
	s := strings.TrimSpace(strings.ToLower(raw))
	switch s {
	case string(StatusSuccess):
		return StatusSuccess, nil
	case string(StatusFailure):
		return StatusFailure, nil
	default:
		return "", fmt.Errorf("unknown status %q", raw)
	}
}

// FormatTimestamp renders t in TimestampLayout after converting to UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp is the inverse of FormatTimestamp.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(TimestampLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

// ResultsFileName returns the file name for a results file created at t.
// Colons and periods of the timestamp are replaced so the name is safe on every filesystem.
func ResultsFileName(t time.Time) string {
	stamp := strings.NewReplacer(":", "-", ".", "-").Replace(FormatTimestamp(t))
	return ResultsFilePrefix + stamp + ResultsFileExt
}
