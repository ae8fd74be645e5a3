package util

import (
	"fmt"
	"strconv"
	"time"
)

// ActivityTimestampLayout is how timestamps are stored on log documents.
const ActivityTimestampLayout = "2006-01-02 15:04"

// ParseTimeFlexible accepts RFC 3339, epoch milliseconds, or the activity layouts
// "YYYY-MM-DD HH:MM" and "YYYY-MM-DD". Results are in UTC.
func ParseTimeFlexible(timeStr string) (time.Time, error) {
	// Try parsing as RFC3339 (ISO 8601)
	t, err := time.Parse(time.RFC3339Nano, timeStr)
	if err == nil {
		return t.UTC(), nil
	}
	t, err = time.Parse(time.RFC3339, timeStr)
	if err == nil {
		return t.UTC(), nil
	}

	// Try parsing as epoch milliseconds
	ms, err := strconv.ParseInt(timeStr, 10, 64)
	if err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}

	for _, layout := range []string{ActivityTimestampLayout, "2006-01-02"} {
		if t, err := time.Parse(layout, timeStr); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid time format: %s", timeStr)
}

// FormatActivityTimestamp renders t the way log documents store it, so stored timestamps
// compare correctly as strings.
func FormatActivityTimestamp(t time.Time) string {
	return t.UTC().Format(ActivityTimestampLayout)
}
