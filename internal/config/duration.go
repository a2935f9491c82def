package config

import (
	"fmt"
	"strconv"
	"time"
)

// Duration is a time.Duration that can be unmarshaled from human-readable
// TOML strings. Supports formats like "250ms", "2s", "1m30s"; a string of
// bare digits like "250" means milliseconds. A value of "0" means
// disabled. The value must be a quoted TOML string: an unquoted integer
// bypasses text unmarshaling and is taken as raw nanoseconds.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)

	// Bare integers are milliseconds
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: must be like '250ms', '2s' or milliseconds: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML output.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
