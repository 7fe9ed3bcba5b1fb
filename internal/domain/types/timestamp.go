package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// Timestamp is a time that tolerates the zone-less ISO 8601 form the relay
// emits (for example "2024-05-01T12:30:00.123456"). Zone-less values are UTC.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp parses s using the accepted layouts.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// UnmarshalJSON accepts a JSON string in any accepted layout. Anything else,
// including a non-string value, leaves the zero time so callers can
// substitute the receive time.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	t.Time = time.Time{}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return nil
	}
	if parsed, err := ParseTimestamp(s); err == nil {
		t.Time = parsed
	}
	return nil
}

// MarshalJSON encodes the time as RFC 3339 in UTC.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}
