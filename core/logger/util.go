package logger

import (
	"fmt"
	"strings"
	"time"
)

// Status maps an error to the canonical ok/error status value.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Took returns the elapsed time since start rounded for log output.
func Took(start time.Time) time.Duration {
	return RoundMS(time.Since(start))
}

// RoundMS rounds a duration to whole milliseconds, keeping sub-millisecond
// values visible as a single millisecond instead of zero.
func RoundMS(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	if d < time.Millisecond {
		return time.Millisecond
	}
	return d.Round(time.Millisecond)
}

// SummarizeStrings joins up to limit values for compact log output and
// reports whether the list was truncated.
func SummarizeStrings(values []string, limit int) (string, bool) {
	if len(values) == 0 {
		return "", false
	}
	if limit <= 0 || len(values) <= limit {
		return strings.Join(values, ","), false
	}
	summary := fmt.Sprintf("%s+%d", strings.Join(values[:limit], ","), len(values)-limit)
	return summary, true
}
