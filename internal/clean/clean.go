// Package clean provides the per-field cleaning/normalization primitives the
// loaders share: currency strings to floats, date strings to calendar dates,
// t/f tokens to booleans, and nullable numeric parsing.
//
// The contract is uniform across all functions:
//
//   - An empty input means "absent" and yields a nil pointer with no error.
//   - A non-empty input that cannot be parsed is a hard error carrying the
//     offending token. Bad values are never silently coerced to nil or zero.
package clean

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Date layouts accepted by Date, tried in order. The time-of-day component,
// when present, is discarded.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// Currency parses a currency-formatted string like "$1,234.50" into a float.
// A single leading currency symbol and all thousands separators are stripped
// before parsing. Empty input returns (nil, nil).
func Currency(raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	s := strings.TrimPrefix(raw, "$")
	s = strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("currency %q: not a number", raw)
	}
	return &f, nil
}

// Date parses a calendar date, discarding any time-of-day component. Empty
// input returns (nil, nil).
func Date(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return &d, nil
	}
	return nil, fmt.Errorf("date %q: unrecognized format", raw)
}

// Boolean maps the two-valued t/f token set onto bool. Any other token,
// including the empty string, is an error; the source format defines no
// further values and guessing a default would mask upstream drift.
func Boolean(raw string) (bool, error) {
	switch strings.TrimSpace(raw) {
	case "t":
		return true, nil
	case "f":
		return false, nil
	}
	return false, fmt.Errorf("boolean %q: want \"t\" or \"f\"", raw)
}

// Int parses a required integer field.
func Int(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("integer %q: %w", raw, errNotNumeric)
	}
	return n, nil
}

// NullInt parses an optional integer field. Empty input returns (nil, nil).
func NullInt(raw string) (*int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("integer %q: %w", raw, errNotNumeric)
	}
	return &n, nil
}

// Float parses a required float field.
func Float(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("float %q: %w", raw, errNotNumeric)
	}
	return f, nil
}

// NullFloat parses an optional float field. Empty input returns (nil, nil).
func NullFloat(raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("float %q: %w", raw, errNotNumeric)
	}
	return &f, nil
}

// NullString maps the empty string to nil so absent text lands as SQL NULL
// rather than ''.
func NullString(raw string) *string {
	if raw == "" {
		return nil
	}
	return &raw
}

var errNotNumeric = fmt.Errorf("not numeric")
