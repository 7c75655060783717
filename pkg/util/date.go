package util

import "time"

// ISOTime formats t as RFC3339 in UTC; the zero time formats as "".
func ISOTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// Stale reports whether updated is older than maxAge at now.
// A zero updated time is always stale.
func Stale(updated, now time.Time, maxAge time.Duration) bool {
	if updated.IsZero() {
		return true
	}
	return now.Sub(updated) > maxAge
}
