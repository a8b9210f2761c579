package generators

import (
	"fmt"
	"strings"
	"time"
)

// TimestampFormat names an output layout for Timestamp.
type TimestampFormat string

const (
	// FormatDefault renders "2006-01-02 15:04:05 -07:00".
	FormatDefault TimestampFormat = ""
	// FormatISO8601 renders the same as FormatRFC3339.
	FormatISO8601 TimestampFormat = "iso8601"
	// FormatRFC2822 renders "Mon, 02 Jan 2006 15:04:05 -0700".
	FormatRFC2822 TimestampFormat = "rfc2822"
	// FormatRFC3339 renders nanosecond precision and a numeric offset.
	FormatRFC3339 TimestampFormat = "rfc3339"
)

const (
	defaultLayout = "2006-01-02 15:04:05 -07:00"
	rfc2822Layout = "Mon, 02 Jan 2006 15:04:05 -0700"
	rfc3339Layout = "2006-01-02T15:04:05.000000000-07:00"
)

// ParseTimestampFormat accepts a format name in any case. The empty string
// and "default" select FormatDefault.
func ParseTimestampFormat(name string) (TimestampFormat, error) {
	switch f := TimestampFormat(strings.ToLower(name)); f {
	case FormatDefault, "default":
		return FormatDefault, nil
	case FormatISO8601, FormatRFC2822, FormatRFC3339:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFormat, name)
	}
}

// Timestamp renders t in format, keeping t's location.
func Timestamp(t time.Time, format TimestampFormat) []byte {
	switch format {
	case FormatRFC2822:
		return t.AppendFormat(nil, rfc2822Layout)
	case FormatISO8601, FormatRFC3339:
		return t.AppendFormat(nil, rfc3339Layout)
	default:
		return t.AppendFormat(nil, defaultLayout)
	}
}
