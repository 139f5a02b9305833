package shared

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"
)

// zoned layouts carry their own offset; local layouts are read in the caller's location.
var (
	zonedLayouts = []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04Z07:00",
	}
	localLayouts = []string{
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		time.DateOnly,
	}
)

// ParseTime parses user supplied timestamps.
//
// Accepts RFC3339 and a handful of shorter forms; forms without an offset are interpreted in loc (UTC when nil).
func ParseTime(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty time", ErrInvalidArgument)
	}
	if loc == nil {
		loc = time.UTC
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: unrecognised time %q", ErrInvalidArgument, value)
}
