package measurement

import (
	"errors"
	"strings"
	"time"
)

// storageLayout is fixed width so that text ordering in SQLite matches time ordering.
const storageLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Precision is the finest timestamp resolution kept by every store.
// PostgreSQL timestamptz holds microseconds.
const Precision = time.Microsecond

// isoLayouts are tried in order by ParseTimestamp. Layouts without a zone
// are interpreted as UTC.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

var errEmptyTimestamp = errors.New("empty timestamp")

// ParseTimestamp parses an ISO-8601 date or date-time and returns it in UTC,
// truncated to Precision. Timestamps without an offset are taken to be UTC.
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errEmptyTimestamp
	}

	var firstErr error
	for _, layout := range isoLayouts {
		t, err := time.ParseInLocation(layout, raw, time.UTC)
		if err == nil {
			return t.UTC().Truncate(Precision), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

func formatStorage(t time.Time) string {
	return t.UTC().Format(storageLayout)
}

func parseStorage(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
