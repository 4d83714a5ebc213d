package eodhd

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidDate reports whether s is a real calendar date in YYYY-MM-DD form.
func ValidDate(s string) bool {
	if !dateRe.MatchString(s) {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// DateAfter reports whether from sorts after to. Both must already be valid.
func DateAfter(from, to string) bool {
	f, _ := time.Parse("2006-01-02", from)
	t, _ := time.Parse("2006-01-02", to)
	return f.After(t)
}

// millisecond timestamps are ~13 digits; anything past this is treated as ms
const msThreshold = 10_000_000_000

// date layouts tried, in order, when a value is neither numeric nor ISO-8601
var fallbackLayouts = []string{
	"2006-01-02", "2006/01/02", "2006.01.02",
	"02-01-2006", "02/01/2006", "02.01.2006",
	"02-01-06", "02/01/06", "02.01.06",
	"01-02-2006", "01/02/2006", "01.02.2006",
	"2006-01-02 15:04", "2006-01-02 15:04:05",
	"02-01-2006 15:04", "02-01-2006 15:04:05",
	"01/02/2006 15:04", "01/02/2006 15:04:05",
	"Jan 2, 2006", "2 Jan 2006", "January 2, 2006", "2 January 2006",
	"2006-01-02T15:04", "2006-01-02T15:04:05",
}

// ParseTimestamp coerces a tool argument into Unix seconds (UTC).
// Accepted forms: unix seconds, unix milliseconds, ISO-8601 date/datetime
// (with or without zone), and a range of common date layouts. Date-only
// values are taken as midnight UTC.
func ParseTimestamp(value interface{}) (int64, error) {
	switch v := value.(type) {
	case nil:
		return 0, errors.New("timestamp is empty")
	case float64:
		return normalizeSeconds(int64(v))
	case int64:
		return normalizeSeconds(v)
	case int:
		return normalizeSeconds(int64(v))
	case string:
		return parseTimestampString(v)
	default:
		return 0, errors.Errorf("unsupported timestamp type %T", value)
	}
}

func normalizeSeconds(v int64) (int64, error) {
	if v > msThreshold {
		v /= 1000
	}
	if v <= 0 {
		return 0, errors.New("timestamp must be positive")
	}
	return v, nil
}

func parseTimestampString(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("timestamp is empty")
	}

	if isDigits(s) {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, errors.Wrapf(err, "invalid numeric timestamp %q", s)
		}
		return normalizeSeconds(v)
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Unix(), nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t.UTC().Unix(), nil
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Unix(), nil
		}
	}
	return 0, errors.Errorf("could not parse %q as a date or timestamp", s)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// NormalizeSymbols joins and trims a symbol list into the comma-separated
// form the API expects, dropping empties.
func NormalizeSymbols(symbols []string) string {
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, ",")
}
