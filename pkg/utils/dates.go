package utils

import (
	"fmt"
	"strings"
	"time"
)

// timeLayouts are tried in order when parsing source-system dates.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006",
	"02-01-2006",
}

// ParseFlexibleTime parses a timestamp as exported by the supported source
// systems. It tries a fixed set of layouts and fails if none match.
func ParseFlexibleTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date value")
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable date %q", value)
}
