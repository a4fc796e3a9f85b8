// Package timeutil holds the wire timestamp type accepted by the API and the
// calendar arithmetic used for plan expiry.
package timeutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	nanosPerSecond = int64(time.Second)

	// Bounds of what time.Time can encode as RFC 3339:
	// 0001-01-01T00:00:00Z through 9999-12-31T23:59:59Z.
	MinSeconds = int64(-62135596800)
	MaxSeconds = int64(253402300799)
)

var ErrInvalidTimestamp = errors.New("invalid timestamp")

// Timestamp is a point in time expressed as whole seconds since the Unix
// epoch plus a nanosecond remainder in [0, 1e9).
//
// Clients send either {"seconds": s, "nanoseconds": n} or the
// {"_seconds": s, "_nanoseconds": n} shape emitted by older exports; any other
// shape is rejected during decoding.
type Timestamp struct {
	Seconds     int64 `json:"seconds"`
	Nanoseconds int64 `json:"nanoseconds"`
}

func FromTime(t time.Time) Timestamp {
	return Timestamp{Seconds: t.Unix(), Nanoseconds: int64(t.Nanosecond())}
}

// Time returns the instant in UTC.
func (ts Timestamp) Time() time.Time {
	return time.Unix(ts.Seconds, ts.Nanoseconds).UTC()
}

func (ts Timestamp) IsZero() bool {
	return ts.Seconds == 0 && ts.Nanoseconds == 0
}

func (ts Timestamp) Validate() error {
	if ts.Seconds < MinSeconds || ts.Seconds > MaxSeconds {
		return fmt.Errorf("%w: seconds %d outside years 0001-9999", ErrInvalidTimestamp, ts.Seconds)
	}
	if ts.Nanoseconds < 0 || ts.Nanoseconds >= nanosPerSecond {
		return fmt.Errorf("%w: nanoseconds %d out of range", ErrInvalidTimestamp, ts.Nanoseconds)
	}
	return nil
}

// InRange reports whether t falls within the years 0001-9999.
func InRange(t time.Time) bool {
	secs := t.Unix()
	return secs >= MinSeconds && secs <= MaxSeconds
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return fmt.Errorf("%w: null", ErrInvalidTimestamp)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("%w: expected an object with seconds and nanoseconds", ErrInvalidTimestamp)
	}

	secKey, nanoKey := "seconds", "nanoseconds"
	if _, ok := fields["_seconds"]; ok {
		secKey, nanoKey = "_seconds", "_nanoseconds"
	}
	if len(fields) != 2 {
		return fmt.Errorf("%w: expected exactly %q and %q", ErrInvalidTimestamp, secKey, nanoKey)
	}

	secs, err := integerField(fields, secKey)
	if err != nil {
		return err
	}
	nanos, err := integerField(fields, nanoKey)
	if err != nil {
		return err
	}

	parsed := Timestamp{Seconds: secs, Nanoseconds: nanos}
	if err := parsed.Validate(); err != nil {
		return err
	}
	*ts = parsed
	return nil
}

func integerField(fields map[string]json.RawMessage, key string) (int64, error) {
	raw, ok := fields[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing %q", ErrInvalidTimestamp, key)
	}
	if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || trimmed[0] == '"' {
		return 0, fmt.Errorf("%w: %q must be a number", ErrInvalidTimestamp, key)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var num json.Number
	if err := dec.Decode(&num); err != nil {
		return 0, fmt.Errorf("%w: %q must be a number", ErrInvalidTimestamp, key)
	}
	v, err := num.Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: %q must be an integer", ErrInvalidTimestamp, key)
	}
	return v, nil
}
