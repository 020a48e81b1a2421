package record

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// DateLayout is the calendar-day layout used in CSV and file names
const DateLayout = "2006-01-02"

// dateLayouts are tried in order when parsing a stored date string
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	DateLayout,
	"01/02/2006",
	"Mon Jan 02 2006 15:04:05 GMT-0700",
}

// DateRepair records a date that could not be parsed and was replaced
type DateRepair struct {
	GameID string `json:"game_id"`
	Raw    string `json:"raw"`
}

// ParseDate parses a date string in any accepted layout
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	// drop a trailing "(Zone Name)" as produced by Date.toString()
	if i := strings.Index(s, " ("); i > 0 {
		s = s[:i]
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// DecodeDate reads a JSON date value: a string in an accepted layout or a
// number of milliseconds since the epoch. Anything else is reported invalid.
func DecodeDate(raw json.RawMessage) (time.Time, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}, false
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}, false
		}
		return ParseDate(s)
	default:
		var ms float64
		if err := json.Unmarshal(raw, &ms); err != nil {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(ms)).UTC(), true
	}
}

// EncodeDate writes a date as a JSON string in FormatDate's layout
func EncodeDate(t time.Time) json.RawMessage {
	b, _ := json.Marshal(FormatDate(t))
	return b
}

// FormatDate formats a timestamp as RFC 3339 in UTC, keeping sub-second
// precision so dates survive a write/read cycle unchanged
func FormatDate(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
