package pathutil

import (
	"fmt"
	"strconv"
	"time"
)

// DateString formats t as YYYY-MM-DD. The zero time yields "".
func DateString(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", t.Year(), t.Month(), t.Day())
}

// DatesMatch reports whether a and b fall on the same calendar day.
func DatesMatch(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// TimestampToSeconds parses a unix timestamp string such as "1500000000.25".
func TimestampToSeconds(stamp string) (float64, error) {
	secs, err := strconv.ParseFloat(stamp, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp %q: %w", stamp, err)
	}
	return secs, nil
}
